package mutation_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/metrics"
	"github.com/jonesrussell/abedge/internal/mutation"
	loggerMock "github.com/jonesrussell/abedge/testutils/mocks/logger"
)

func applyTree(t *testing.T, markup string, changes ...domain.DOMChange) string {
	t.Helper()
	out, err := mutation.NewTreeApplier().ApplyChanges(markup, changes)
	require.NoError(t, err)
	return out
}

func TestTreeApplier_Text(t *testing.T) {
	t.Parallel()

	got := applyTree(t, `<div><h1>Title</h1><p>x</p></div>`,
		domain.DOMChange{Selector: "h1", Type: domain.ChangeText, Value: "Modified"})
	assert.Equal(t, `<div><h1>Modified</h1><p>x</p></div>`, got)
}

func TestTreeApplier_TextAppliesToEveryMatchAndEscapes(t *testing.T) {
	t.Parallel()

	got := applyTree(t, `<ul><li>a</li><li>b</li></ul>`,
		domain.DOMChange{Selector: "li", Type: domain.ChangeText, Value: "<b>&"})
	assert.Equal(t, `<ul><li>&lt;b&gt;&amp;</li><li>&lt;b&gt;&amp;</li></ul>`, got)
}

func TestTreeApplier_EndToEnd(t *testing.T) {
	t.Parallel()

	got := applyTree(t, `<div><h1>T</h1><p class="old">X</p></div>`,
		domain.DOMChange{Selector: "h1", Type: domain.ChangeText, Value: "New Title"},
		domain.DOMChange{Selector: "p", Type: domain.ChangeClass, Action: domain.ClassAdd, Value: "new"},
	)
	assert.Contains(t, got, "New Title")
	assert.Contains(t, got, `class="old new"`)
}

func TestTreeApplier_HTMLIsSanitized(t *testing.T) {
	t.Parallel()

	got := applyTree(t, `<div id="box">old</div>`,
		domain.DOMChange{Selector: "#box", Type: domain.ChangeHTML, Value: `<em>hi</em><script>x()</script>`})
	assert.Equal(t, `<div id="box"><em>hi</em></div>`, got)
}

func TestTreeApplier_Style(t *testing.T) {
	t.Parallel()

	replaced := applyTree(t, `<p style="color: red">x</p>`,
		domain.DOMChange{Selector: "p", Type: domain.ChangeStyle, Value: "display: none"})
	assert.Equal(t, `<p style="display: none">x</p>`, replaced)

	merged := applyTree(t, `<p style="color: red; margin: 0">x</p>`,
		domain.DOMChange{Selector: "p", Type: domain.ChangeStyle, Value: map[string]any{
			"color":           "blue",
			"backgroundColor": "white",
		}})
	assert.Equal(t, `<p style="color: blue; margin: 0; background-color: white">x</p>`, merged)
}

func TestTreeApplier_Class(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		change domain.DOMChange
		want   string
	}{
		{
			name:   "add without duplicate",
			change: domain.DOMChange{Selector: "p", Type: domain.ChangeClass, Action: domain.ClassAdd, Value: "old"},
			want:   `<p class="old keep">x</p>`,
		},
		{
			name:   "remove",
			change: domain.DOMChange{Selector: "p", Type: domain.ChangeClass, Action: domain.ClassRemove, Value: "old"},
			want:   `<p class="keep">x</p>`,
		},
		{
			name:   "replace",
			change: domain.DOMChange{Selector: "p", Type: domain.ChangeClass, Value: "fresh"},
			want:   `<p class="fresh">x</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, applyTree(t, `<p class="old keep">x</p>`, tt.change))
		})
	}
}

func TestTreeApplier_Attribute(t *testing.T) {
	t.Parallel()

	set := applyTree(t, `<a href="/x">go</a>`,
		domain.DOMChange{Selector: "a", Type: domain.ChangeAttribute, Name: "target", Value: "_blank"})
	assert.Equal(t, `<a href="/x" target="_blank">go</a>`, set)

	removed := applyTree(t, `<a href="/x" title="t">go</a>`,
		domain.DOMChange{Selector: "a", Type: domain.ChangeAttribute, Name: "title"})
	assert.Equal(t, `<a href="/x">go</a>`, removed)

	blocked := applyTree(t, `<a href="/x">go</a>`,
		domain.DOMChange{Selector: "a", Type: domain.ChangeAttribute, Name: "href", Value: "JaVaScRiPt:alert(1)"})
	assert.Equal(t, `<a>go</a>`, blocked)

	handler := applyTree(t, `<a href="/x">go</a>`,
		domain.DOMChange{Selector: "a", Type: domain.ChangeAttribute, Name: "onclick", Value: "steal()"})
	assert.Equal(t, `<a href="/x">go</a>`, handler)
}

func TestTreeApplier_Delete(t *testing.T) {
	t.Parallel()

	got := applyTree(t, `<div><p class="ad">a</p><p>b</p><p class="ad">c</p></div>`,
		domain.DOMChange{Selector: "p.ad", Type: domain.ChangeDelete})
	assert.Equal(t, `<div><p>b</p></div>`, got)
}

func TestTreeApplier_Move(t *testing.T) {
	t.Parallel()

	const markup = `<div id="a"><p class="m">1</p><p class="m">2</p></div><div id="b"><span>S</span></div>`

	tests := []struct {
		position domain.Position
		want     string
	}{
		{domain.PositionPrepend, `<div id="a"></div><div id="b"><p class="m">1</p><p class="m">2</p><span>S</span></div>`},
		{domain.PositionAppend, `<div id="a"></div><div id="b"><span>S</span><p class="m">1</p><p class="m">2</p></div>`},
		{domain.PositionBefore, `<div id="a"></div><p class="m">1</p><p class="m">2</p><div id="b"><span>S</span></div>`},
		{domain.PositionAfter, `<div id="a"></div><div id="b"><span>S</span></div><p class="m">1</p><p class="m">2</p>`},
	}

	for _, tt := range tests {
		t.Run(string(tt.position), func(t *testing.T) {
			t.Parallel()
			got := applyTree(t, markup, domain.DOMChange{
				Selector: ".m", Type: domain.ChangeMove, Target: "#b", Position: tt.position,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTreeApplier_MoveMissingTargetKeepsSource(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockLog := loggerMock.NewMockInterface(ctrl)
	mockLog.EXPECT().Error("Failed to apply change, skipping", gomock.Any()).Times(1)

	markup := `<div><p class="m">x</p></div>`
	out, err := mutation.NewTreeApplier(mutation.WithLogger(mockLog)).ApplyChanges(markup, []domain.DOMChange{
		{Selector: ".m", Type: domain.ChangeMove, Target: "#missing", Position: domain.PositionAfter},
	})
	require.NoError(t, err)
	assert.Equal(t, markup, out)
}

func TestTreeApplier_Create(t *testing.T) {
	t.Parallel()

	value := map[string]any{
		"tag":  "section",
		"html": "<b>x</b>",
		"attributes": map[string]any{
			"data-x":  "1",
			"onclick": "y()",
		},
	}

	got := applyTree(t, `<div id="b"></div>`,
		domain.DOMChange{Selector: "#b", Type: domain.ChangeCreate, Value: value, Position: domain.PositionAfter})
	assert.Equal(t, `<div id="b"></div><section data-x="1"><b>x</b></section>`, got)

	withTarget := applyTree(t, `<p class="c">1</p><p class="c">2</p><footer></footer>`,
		domain.DOMChange{
			Selector: ".c", Type: domain.ChangeCreate, Target: "footer",
			Value: map[string]any{"html": "note"}, Position: domain.PositionPrepend,
		})
	assert.Equal(t, `<p class="c">1</p><p class="c">2</p><footer><div>note</div></footer>`, withTarget)

	unresolvedTarget := applyTree(t, `<p class="c">1</p><p class="c">2</p>`,
		domain.DOMChange{
			Selector: ".c", Type: domain.ChangeCreate, Target: "#nope",
			Value: map[string]any{"tag": "i"},
		})
	assert.Equal(t, `<p class="c">1<i></i></p><p class="c">2<i></i></p>`, unresolvedTarget)
}

func TestTreeApplier_StyleRules(t *testing.T) {
	t.Parallel()

	doc := `<html><head><title>t</title></head><body><p>x</p></body></html>`
	got := applyTree(t, doc,
		domain.DOMChange{Type: domain.ChangeStyleRules, Rules: ".a{color:red}"},
		domain.DOMChange{Type: domain.ChangeStyleRules, Rules: ".b{color:blue}"},
	)
	assert.Contains(t, got, `<title>t</title><style id="absmartly-styles">.a{color:red}.b{color:blue}</style></head>`)
	assert.Equal(t, 1, strings.Count(got, "absmartly-styles"))

	existing := `<html><head><style id="absmartly-styles">.z{}</style></head><body></body></html>`
	got = applyTree(t, existing, domain.DOMChange{Type: domain.ChangeStyleRules, Rules: ".y{}"})
	assert.Contains(t, got, `<style id="absmartly-styles">.z{}.y{}</style>`)

	fragment := applyTree(t, `<p>x</p>`, domain.DOMChange{Type: domain.ChangeStyleRules, Rules: ".f{}"})
	assert.Equal(t, `<style id="absmartly-styles">.f{}</style><p>x</p>`, fragment)
}

func TestTreeApplier_FullDocumentRendersWhole(t *testing.T) {
	t.Parallel()

	got := applyTree(t, `<!DOCTYPE html><html><head></head><body><h1>a</h1></body></html>`,
		domain.DOMChange{Selector: "h1", Type: domain.ChangeText, Value: "b"})
	assert.Equal(t, `<!DOCTYPE html><html><head></head><body><h1>b</h1></body></html>`, got)
}

func TestTreeApplier_FragmentsStayFragments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markup   string
		selector string
		want     string
	}{
		{
			name:     "header element",
			markup:   `<header><h1>T</h1></header>`,
			selector: "h1",
			want:     `<header><h1>New</h1></header>`,
		},
		{
			name:     "leading comment",
			markup:   `<!-- keep --><p>x</p>`,
			selector: "p",
			want:     `<!-- keep --><p>New</p>`,
		},
		{
			name:     "trailing comment",
			markup:   `<p>x</p><!-- tail -->`,
			selector: "p",
			want:     `<p>New</p><!-- tail -->`,
		},
		{
			name:     "headline class",
			markup:   `<div class="bodycopy"><span>x</span></div>`,
			selector: "span",
			want:     `<div class="bodycopy"><span>New</span></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := applyTree(t, tt.markup,
				domain.DOMChange{Selector: tt.selector, Type: domain.ChangeText, Value: "New"})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTreeApplier_SelectorMiss(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockLog := loggerMock.NewMockInterface(ctrl)
	mockLog.EXPECT().Warn("No elements matched selector", gomock.Any()).Times(1)

	markup := `<div><p>x</p></div>`
	out, err := mutation.NewTreeApplier(mutation.WithLogger(mockLog)).ApplyChanges(markup, []domain.DOMChange{
		{Selector: ".nonexistent", Type: domain.ChangeText, Value: "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, markup, out)
}

func TestTreeApplier_BadChangesDoNotStopBatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockLog := loggerMock.NewMockInterface(ctrl)
	mockLog.EXPECT().Error("Failed to apply change, skipping", gomock.Any()).Times(3)
	mockLog.EXPECT().Debug(gomock.Any(), gomock.Any()).Times(1)

	got, err := mutation.NewTreeApplier(mutation.WithLogger(mockLog)).ApplyChanges(`<p>x</p>`, []domain.DOMChange{
		{Selector: "p", Type: domain.ChangeAttribute, Value: "no name"},
		{Selector: "p[", Type: domain.ChangeText, Value: "bad selector"},
		{Selector: "p", Type: domain.ChangeStyle, Value: 42},
		{Type: domain.ChangeJavaScript, Value: "alert(1)"},
		{Selector: "p", Type: domain.ChangeText, Value: "ok"},
	})
	require.NoError(t, err)
	assert.Equal(t, `<p>ok</p>`, got)
}

func TestTreeApplier_NoChanges(t *testing.T) {
	t.Parallel()

	markup := `<P CLASS=x>unchanged</P>`
	out, err := mutation.NewTreeApplier().ApplyChanges(markup, nil)
	require.NoError(t, err)
	assert.Equal(t, markup, out)

	out, err = mutation.NewTreeApplier().ApplyChanges(markup, []domain.DOMChange{
		{Type: domain.ChangeJavaScript},
	})
	require.NoError(t, err)
	assert.Equal(t, markup, out)
}

func TestTreeApplier_Metrics(t *testing.T) {
	t.Parallel()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	a := mutation.NewTreeApplier(mutation.WithMetrics(m))
	assert.Equal(t, mutation.BackendTree, a.Name())

	_, err := a.ApplyChanges(`<p>x</p>`, []domain.DOMChange{
		{Selector: "p", Type: domain.ChangeText, Value: "y"},
		{Selector: "h2", Type: domain.ChangeText, Value: "y"},
		{Selector: "p", Type: domain.ChangeMove, Target: "#none"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ChangesApplied.WithLabelValues("tree", "text")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SelectorMisses.WithLabelValues("tree")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ChangeFailures.WithLabelValues("tree", "move")), 0)
}
