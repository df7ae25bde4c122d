package mutation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/position"
)

// StyleRulesID is the id of the style element that collects styleRules changes.
const StyleRulesID = "absmartly-styles"

// treeDocument is one parsed document being mutated.
type treeDocument struct {
	doc     *goquery.Document
	options *options
}

func (t *treeDocument) apply(change domain.DOMChange) error {
	if change.Type == domain.ChangeStyleRules {
		return t.styleRules(change.Rules)
	}

	matched, err := t.find(change.Selector)
	if err != nil {
		return err
	}
	if matched.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorMiss, change.Selector)
	}

	switch change.Type {
	case domain.ChangeText:
		matched.SetText(change.ValueString())
	case domain.ChangeHTML:
		matched.SetHtml(t.options.sanitizer.SanitizeHTMLContent(change.ValueString()))
	case domain.ChangeStyle:
		return t.style(matched, change)
	case domain.ChangeClass:
		return t.class(matched, change)
	case domain.ChangeAttribute:
		t.attribute(matched, change)
	case domain.ChangeDelete:
		matched.Remove()
	case domain.ChangeMove:
		return t.move(matched, change)
	case domain.ChangeCreate:
		return t.create(matched, change)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedChange, change.Type)
	}
	return nil
}

func (t *treeDocument) find(selector string) (*goquery.Selection, error) {
	sel, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	return t.doc.FindMatcher(sel), nil
}

func (t *treeDocument) style(matched *goquery.Selection, change domain.DOMChange) error {
	update, err := decodeStyle(change)
	if err != nil {
		return err
	}
	matched.Each(func(_ int, s *goquery.Selection) {
		existing, _ := s.Attr("style")
		s.SetAttr("style", update.apply(existing))
	})
	return nil
}

func (t *treeDocument) class(matched *goquery.Selection, change domain.DOMChange) error {
	value := strings.TrimSpace(change.ValueString())

	switch change.Action {
	case domain.ClassAdd:
		if value == "" {
			return fmt.Errorf("%w: class add requires a value", ErrMalformedChange)
		}
		matched.AddClass(value)
	case domain.ClassRemove:
		if value == "" {
			return fmt.Errorf("%w: class remove requires a value", ErrMalformedChange)
		}
		matched.RemoveClass(value)
	default:
		matched.SetAttr("class", value)
	}
	return nil
}

func (t *treeDocument) attribute(matched *goquery.Selection, change domain.DOMChange) {
	if change.Value == nil {
		matched.RemoveAttr(change.Name)
		return
	}

	value, keep := t.options.attributeValue(change.Name, change.ValueString())
	if !keep {
		matched.RemoveAttr(change.Name)
		return
	}
	matched.SetAttr(change.Name, value)
}

// move detaches every matched element and reinserts it relative to the first
// target match, keeping the matched elements in document order.
func (t *treeDocument) move(matched *goquery.Selection, change domain.DOMChange) error {
	targets, err := t.find(change.Target)
	if err != nil {
		return err
	}
	if targets.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, change.Target)
	}
	target := targets.Nodes[0]

	pos := change.Position.Normalize()
	if (pos == domain.PositionBefore || pos == domain.PositionAfter) && target.Parent == nil {
		return fmt.Errorf("%w: %q has no parent", ErrTargetNotFound, change.Target)
	}

	sources := make([]*html.Node, 0, len(matched.Nodes))
	for _, n := range matched.Nodes {
		if isAncestorOrSelf(n, target) {
			t.options.logger.Warn("Cannot move an element relative to itself or its descendant, skipping",
				"selector", change.Selector,
				"target", change.Target,
			)
			continue
		}
		sources = append(sources, n)
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: every match contains %q", ErrTargetNotFound, change.Target)
	}

	// after and prepend insert next to the target, so walk backwards to keep order.
	if pos == domain.PositionAfter || pos == domain.PositionPrepend {
		for i := len(sources) - 1; i >= 0; i-- {
			position.InsertElementAtPosition(pos, sources[i], target, t.options.logger)
		}
		return nil
	}
	for _, n := range sources {
		position.InsertElementAtPosition(pos, n, target, t.options.logger)
	}
	return nil
}

// create inserts a new element once relative to the first target match, or
// relative to every matched element when there is no usable target.
func (t *treeDocument) create(matched *goquery.Selection, change domain.DOMChange) error {
	spec, err := domain.DecodeCreateSpec(change.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedChange, err)
	}

	if change.Target != "" {
		targets, findErr := t.find(change.Target)
		if findErr != nil {
			return findErr
		}
		if targets.Length() > 0 {
			node, buildErr := t.buildElement(spec)
			if buildErr != nil {
				return buildErr
			}
			position.InsertElementAtPosition(change.Position, node, targets.Nodes[0], t.options.logger)
			return nil
		}
		t.options.logger.Debug("Create target not found, using matched elements",
			"selector", change.Selector,
			"target", change.Target,
		)
	}

	for _, context := range matched.Nodes {
		node, buildErr := t.buildElement(spec)
		if buildErr != nil {
			return buildErr
		}
		position.InsertElementAtPosition(change.Position, node, context, t.options.logger)
	}
	return nil
}

// buildElement creates the element described by spec with sanitized
// attributes and inner HTML.
func (t *treeDocument) buildElement(spec domain.CreateSpec) (*html.Node, error) {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     spec.Tag,
		DataAtom: atom.Lookup([]byte(spec.Tag)),
	}

	names := make([]string, 0, len(spec.Attributes))
	for name := range spec.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, keep := t.options.attributeValue(name, spec.Attributes[name])
		if !keep {
			continue
		}
		node.Attr = append(node.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
	}

	if spec.HTML == "" {
		return node, nil
	}

	children, err := html.ParseFragment(
		strings.NewReader(t.options.sanitizer.SanitizeHTMLContent(spec.HTML)),
		node,
	)
	if err != nil {
		return nil, fmt.Errorf("parse create html: %w", err)
	}
	for _, c := range children {
		node.AppendChild(c)
	}
	return node, nil
}

// styleRules appends rules to the shared style element, creating it in head,
// else at the start of body, else at the start of the root element.
func (t *treeDocument) styleRules(rules string) error {
	existing := t.doc.Find("style#" + StyleRulesID).First()
	if existing.Length() > 0 {
		existing.Nodes[0].AppendChild(&html.Node{Type: html.TextNode, Data: rules})
		return nil
	}

	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: StyleRulesID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: rules})

	if head := t.doc.Find("head").First(); head.Length() > 0 {
		head.Nodes[0].AppendChild(style)
		return nil
	}
	if body := t.doc.Find("body").First(); body.Length() > 0 {
		body.Nodes[0].InsertBefore(style, body.Nodes[0].FirstChild)
		return nil
	}

	root := t.doc.Selection.Nodes[0]
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			c.InsertBefore(style, c.FirstChild)
			return nil
		}
	}
	root.AppendChild(style)
	return nil
}

func isAncestorOrSelf(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
