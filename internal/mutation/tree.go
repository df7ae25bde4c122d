package mutation

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonesrussell/abedge/internal/domain"
)

// TreeApplier applies changes to a parsed node tree using full CSS selectors.
// It is safe for concurrent use; each call parses its own document.
type TreeApplier struct {
	options
}

var _ Applier = (*TreeApplier)(nil)

// NewTreeApplier creates a tree backend.
func NewTreeApplier(opts ...Option) *TreeApplier {
	return &TreeApplier{options: newOptions(opts)}
}

// Name returns BackendTree.
func (a *TreeApplier) Name() string {
	return BackendTree
}

// ApplyChanges parses markup once and applies every change to every element
// its selector matches. Markup is returned unchanged when nothing was applied.
func (a *TreeApplier) ApplyChanges(markup string, changes []domain.DOMChange) (out string, err error) {
	if len(changes) == 0 {
		return markup, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = markup
			err = fmt.Errorf("%w: tree: %v", ErrBackendFailure, r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup, fmt.Errorf("%w: parse document: %w", ErrBackendFailure, err)
	}

	t := &treeDocument{doc: doc, options: &a.options}
	if applied := a.applyEach(BackendTree, changes, t.apply); applied == 0 {
		return markup, nil
	}

	rendered, err := render(doc, isFullDocument(markup))
	if err != nil {
		return markup, fmt.Errorf("%w: render document: %w", ErrBackendFailure, err)
	}
	return rendered, nil
}

// documentMarkerPattern matches a doctype or an html, head or body tag. The
// name must end at a tag boundary so <header> does not count.
var documentMarkerPattern = regexp.MustCompile(`(?i)<(?:!doctype|/?html|/?head|/?body)[\s>/]`)

// isFullDocument reports whether markup carries its own document structure.
// Anything else is a fragment and is rendered back without the html, head and
// body wrappers the parser adds.
func isFullDocument(markup string) bool {
	return documentMarkerPattern.MatchString(markup)
}

func render(doc *goquery.Document, full bool) (string, error) {
	if full {
		return doc.Html()
	}

	var b strings.Builder
	for _, root := range doc.Nodes {
		if err := renderFragment(&b, root); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// renderFragment renders the children of n in order, descending into the
// implied html, head and body elements instead of printing them. Nodes the
// parser hangs off the document or the html element, such as a leading
// comment, are kept.
func renderFragment(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isImpliedWrapper(c) {
			if err := renderFragment(w, c); err != nil {
				return err
			}
			continue
		}
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

func isImpliedWrapper(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Html, atom.Head, atom.Body:
		return true
	default:
		return false
	}
}

// compileSelector compiles a CSS selector, reporting failures as malformed changes.
func compileSelector(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w %q: %w", ErrMalformedChange, ErrInvalidSelector, selector, err)
	}
	return sel, nil
}
