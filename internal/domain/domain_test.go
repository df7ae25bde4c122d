package domain_test

import (
	"strings"
	"testing"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		change  domain.DOMChange
		wantErr bool
	}{
		{
			name:   "text change",
			change: domain.DOMChange{Selector: "h1", Type: domain.ChangeText, Value: "New"},
		},
		{
			name:    "attribute without name",
			change:  domain.DOMChange{Selector: "a", Type: domain.ChangeAttribute, Value: "x"},
			wantErr: true,
		},
		{
			name:   "attribute with name",
			change: domain.DOMChange{Selector: "a", Type: domain.ChangeAttribute, Name: "href", Value: "/x"},
		},
		{
			name:    "move without target",
			change:  domain.DOMChange{Selector: "#a", Type: domain.ChangeMove},
			wantErr: true,
		},
		{
			name:    "styleRules without rules",
			change:  domain.DOMChange{Type: domain.ChangeStyleRules},
			wantErr: true,
		},
		{
			name:   "styleRules without selector",
			change: domain.DOMChange{Type: domain.ChangeStyleRules, Rules: "h1{color:red}"},
		},
		{
			name:    "missing selector",
			change:  domain.DOMChange{Type: domain.ChangeText, Value: "x"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			change:  domain.DOMChange{Selector: "h1", Type: "explode"},
			wantErr: true,
		},
		{
			name:    "style without value",
			change:  domain.DOMChange{Selector: "h1", Type: domain.ChangeStyle},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := domain.ValidateChange(tt.change)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrMalformedChange)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateExperiment(t *testing.T) {
	t.Parallel()

	valid := domain.Assigned("hero", 1, domain.DOMChange{Selector: "h1", Type: domain.ChangeText, Value: "x"})
	require.NoError(t, domain.ValidateExperiment(valid))

	invalid := domain.Assigned("hero", 1, domain.DOMChange{Selector: "h1", Type: domain.ChangeAttribute})
	require.ErrorIs(t, domain.ValidateExperiment(invalid), domain.ErrInvalidExperiment)

	unnamed := domain.ExperimentData{}
	require.ErrorIs(t, domain.ValidateExperiment(unnamed), domain.ErrInvalidExperiment)
}

func TestPosition_Normalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.PositionBefore, domain.Position(" Before ").Normalize())
	assert.Equal(t, domain.PositionAfter, domain.Position("after").Normalize())
	assert.Equal(t, domain.PositionPrepend, domain.Position("PREPEND").Normalize())
	assert.Equal(t, domain.PositionAppend, domain.Position("").Normalize())
	assert.Equal(t, domain.PositionAppend, domain.Position("sideways").Normalize())
}

func TestExperimentData_TreatmentIndex(t *testing.T) {
	t.Parallel()

	idx, ok := domain.Assigned("exp", 2).TreatmentIndex()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = domain.ExperimentData{Name: "exp"}.TreatmentIndex()
	assert.False(t, ok)

	_, ok = domain.Assigned("exp", -1).TreatmentIndex()
	assert.False(t, ok)
}

func TestDecodeCreateSpec(t *testing.T) {
	t.Parallel()

	spec, err := domain.DecodeCreateSpec(map[string]any{
		"tag":  "SECTION",
		"html": "<p>hi</p>",
		"attributes": map[string]any{
			"id":       "promo",
			"data-pos": 3,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "section", spec.Tag)
	assert.Equal(t, "<p>hi</p>", spec.HTML)
	assert.Equal(t, map[string]string{"id": "promo", "data-pos": "3"}, spec.Attributes)

	spec, err = domain.DecodeCreateSpec(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCreateTag, spec.Tag)

	spec, err = domain.DecodeCreateSpec("<b>inline</b>")
	require.NoError(t, err)
	assert.Equal(t, "<b>inline</b>", spec.HTML)

	_, err = domain.DecodeCreateSpec(map[string]any{"tag": "<script>"})
	require.ErrorIs(t, err, domain.ErrInvalidCreateValue)

	_, err = domain.DecodeCreateSpec(42)
	require.ErrorIs(t, err, domain.ErrInvalidCreateValue)
}

func TestDOMChange_ValueString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", domain.DOMChange{}.ValueString())
	assert.Equal(t, "abc", domain.DOMChange{Value: "abc"}.ValueString())
	assert.Equal(t, "42", domain.DOMChange{Value: 42}.ValueString())
	assert.Equal(t, "true", domain.DOMChange{Value: true}.ValueString())
}

func TestDOMChange_LogFields(t *testing.T) {
	t.Parallel()

	change := domain.DOMChange{
		Selector: "#cta",
		Type:     domain.ChangeAttribute,
		Name:     "href",
		Action:   domain.ClassAdd,
		Rules:    ".a{}",
		Value:    map[string]any{"secret": "payload"},
	}

	fields := change.LogFields()
	require.Zero(t, len(fields)%2)

	got := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		got[fields[i].(string)] = fields[i+1]
	}

	assert.Equal(t, "#cta", got["selector"])
	assert.Equal(t, "attribute", got["type"])
	assert.Equal(t, "href", got["name"])
	assert.Equal(t, "add", got["action"])
	assert.Equal(t, ".a{}", got["rules"])
	assert.Equal(t, "map[string]interface {}", got["value_type"])
	assert.NotContains(t, got, "value")

	assert.Equal(t, "nil", domain.DOMChange{}.ValueType())
}

func TestDecodeExperiments_YAML(t *testing.T) {
	t.Parallel()

	input := `
experiments:
  - name: hero
    treatment: 1
    variant: B
    changes:
      - selector: h1
        type: text
        value: New Title
      - selector: p
        type: class
        action: add
        value: new
      - selector: a
        type: attribute
        name: href
        value: null
      - selector: .box
        type: create
        target: "#main"
        position: before
        value:
          tag: span
          attributes:
            id: made
`
	exps, err := domain.DecodeExperiments(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, exps, 1)

	exp := exps[0]
	assert.Equal(t, "hero", exp.Name)
	idx, ok := exp.TreatmentIndex()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "B", exp.Variant)
	require.Len(t, exp.Changes, 4)
	assert.Equal(t, domain.ClassAdd, exp.Changes[1].Action)
	assert.Nil(t, exp.Changes[2].Value)
	assert.Equal(t, domain.PositionBefore, exp.Changes[3].Position)

	spec, err := domain.DecodeCreateSpec(exp.Changes[3].Value)
	require.NoError(t, err)
	assert.Equal(t, "span", spec.Tag)
	assert.Equal(t, "made", spec.Attributes["id"])
}

func TestDecodeExperiments_JSONList(t *testing.T) {
	t.Parallel()

	input := `[{"name":"cta","treatment":0,"changes":[{"selector":"button","type":"style","value":{"backgroundColor":"red"}}]}]`
	exps, err := domain.DecodeExperiments(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, exps, 1)
	require.Len(t, exps[0].Changes, 1)

	style, ok := exps[0].Changes[0].Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "red", style["backgroundColor"])
}

func TestDecodeExperiments_Empty(t *testing.T) {
	t.Parallel()

	exps, err := domain.DecodeExperiments(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, exps)
}
