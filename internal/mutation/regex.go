package mutation

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/position"
)

var (
	styleRulesBlockPattern = regexp.MustCompile(
		`(?is)<style(?:\s[^>]*)?\sid\s*=\s*["']?` + regexp.QuoteMeta(StyleRulesID) + `["']?[^>]*>.*?(</style\s*>)`,
	)
	headClosePattern = regexp.MustCompile(`(?i)</head\s*>`)
	bodyOpenPattern  = regexp.MustCompile(`(?i)<body(?:\s[^>]*)?>`)
)

// RegexApplier applies changes by string rewriting. It only understands a
// leading tag name plus one id or class (see DecomposeSelector) and has no
// notion of the DOM beyond pairing same-name tags.
type RegexApplier struct {
	options
}

var _ Applier = (*RegexApplier)(nil)

// NewRegexApplier creates a regex backend.
func NewRegexApplier(opts ...Option) *RegexApplier {
	return &RegexApplier{options: newOptions(opts)}
}

// Name returns BackendRegex.
func (a *RegexApplier) Name() string {
	return BackendRegex
}

// ApplyChanges rewrites markup change by change.
func (a *RegexApplier) ApplyChanges(markup string, changes []domain.DOMChange) (out string, err error) {
	if len(changes) == 0 {
		return markup, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = markup
			err = fmt.Errorf("%w: regex: %v", ErrBackendFailure, r)
		}
	}()

	d := &regexDocument{markup: markup, options: &a.options}
	a.applyEach(BackendRegex, changes, d.apply)
	return d.markup, nil
}

type regexDocument struct {
	markup  string
	options *options
}

func (d *regexDocument) apply(change domain.DOMChange) error {
	switch change.Type {
	case domain.ChangeStyleRules:
		d.styleRules(change.Rules)
		return nil
	case domain.ChangeText:
		return d.replaceBodies(change.Selector, html.EscapeString(change.ValueString()), true)
	case domain.ChangeHTML:
		return d.replaceBodies(change.Selector, d.options.sanitizer.SanitizeHTMLContent(change.ValueString()), false)
	case domain.ChangeStyle:
		update, err := decodeStyle(change)
		if err != nil {
			return err
		}
		return d.editOpenTags(change.Selector, func(t *openTag) {
			existing, _ := t.get("style")
			t.set("style", update.apply(existing))
		})
	case domain.ChangeClass:
		return d.class(change)
	case domain.ChangeAttribute:
		return d.attribute(change)
	case domain.ChangeDelete:
		return d.delete(change.Selector)
	case domain.ChangeMove:
		return d.move(change)
	case domain.ChangeCreate:
		return d.create(change)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedChange, change.Type)
	}
}

// replaceBodies rewrites the content of every outermost match, or only the
// first one when all is false.
func (d *regexDocument) replaceBodies(selector, content string, all bool) error {
	matches := outermost(withBody(matchElements(d.markup, DecomposeSelector(selector))))
	if len(matches) == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorMiss, selector)
	}
	if !all {
		matches = matches[:1]
	}

	for i := len(matches) - 1; i >= 0; i-- {
		e := matches[i]
		d.markup = d.markup[:e.openEnd] + content + d.markup[e.closeStart:]
	}
	return nil
}

// editOpenTags rewrites every opening tag with the selector's tag name. Id and
// class refinements are not applied.
func (d *regexDocument) editOpenTags(selector string, edit func(*openTag)) error {
	ranges := openTagRanges(d.markup, DecomposeSelector(selector).Tag)
	if len(ranges) == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorMiss, selector)
	}

	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		t := parseOpenTag(d.markup[r[0]:r[1]])
		edit(t)
		d.markup = d.markup[:r[0]] + t.String() + d.markup[r[1]:]
	}
	return nil
}

func (d *regexDocument) class(change domain.DOMChange) error {
	value := strings.Fields(change.ValueString())

	switch change.Action {
	case domain.ClassAdd, domain.ClassRemove:
		if len(value) == 0 {
			return fmt.Errorf("%w: class %s requires a value", ErrMalformedChange, change.Action)
		}
	}

	return d.editOpenTags(change.Selector, func(t *openTag) {
		existing, _ := t.get("class")
		classes := strings.Fields(existing)

		switch change.Action {
		case domain.ClassAdd:
			for _, c := range value {
				if !hasToken(existing, c) {
					classes = append(classes, c)
				}
			}
		case domain.ClassRemove:
			kept := classes[:0]
			for _, c := range classes {
				if !hasToken(strings.Join(value, " "), c) {
					kept = append(kept, c)
				}
			}
			classes = kept
		default:
			classes = value
		}

		if len(classes) == 0 && change.Action == domain.ClassRemove {
			t.remove("class")
			return
		}
		t.set("class", strings.Join(classes, " "))
	})
}

func (d *regexDocument) attribute(change domain.DOMChange) error {
	if change.Value == nil {
		return d.editOpenTags(change.Selector, func(t *openTag) {
			t.remove(change.Name)
		})
	}

	value, keep := d.options.attributeValue(change.Name, change.ValueString())
	return d.editOpenTags(change.Selector, func(t *openTag) {
		if !keep {
			t.remove(change.Name)
			return
		}
		t.set(change.Name, value)
	})
}

func (d *regexDocument) delete(selector string) error {
	matches := outermost(matchElements(d.markup, DecomposeSelector(selector)))
	if len(matches) == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorMiss, selector)
	}

	for i := len(matches) - 1; i >= 0; i-- {
		e := matches[i]
		d.markup = d.markup[:e.start] + d.markup[e.end:]
	}
	return nil
}

// move cuts the first source match and reinserts it relative to the first
// target match. The document is left unchanged when the target is missing.
func (d *regexDocument) move(change domain.DOMChange) error {
	sources := matchElements(d.markup, DecomposeSelector(change.Selector))
	if len(sources) == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorMiss, change.Selector)
	}
	src := sources[0]
	content := src.full(d.markup)
	without := d.markup[:src.start] + d.markup[src.end:]

	targets := matchElements(without, DecomposeSelector(change.Target))
	if len(targets) == 0 {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, change.Target)
	}

	d.markup = insertRelative(without, targets[0], change.Position, content)
	return nil
}

// create builds the element markup and inserts it relative to the first target
// match, falling back to the first selector match.
func (d *regexDocument) create(change domain.DOMChange) error {
	spec, err := domain.DecodeCreateSpec(change.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedChange, err)
	}

	var ref []element
	if change.Target != "" {
		ref = matchElements(d.markup, DecomposeSelector(change.Target))
	}
	if len(ref) == 0 {
		ref = matchElements(d.markup, DecomposeSelector(change.Selector))
	}
	if len(ref) == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorMiss, change.Selector)
	}

	d.markup = insertRelative(d.markup, ref[0], change.Position, d.buildElement(spec))
	return nil
}

func (d *regexDocument) buildElement(spec domain.CreateSpec) string {
	t := &openTag{name: spec.Tag}

	names := make([]string, 0, len(spec.Attributes))
	for name := range spec.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if value, keep := d.options.attributeValue(name, spec.Attributes[name]); keep {
			t.set(strings.ToLower(name), value)
		}
	}

	if voidElements[spec.Tag] {
		return t.String()
	}
	return t.String() + d.options.sanitizer.SanitizeHTMLContent(spec.HTML) + "</" + spec.Tag + ">"
}

// styleRules appends to the existing rules block, or inserts one before
// </head>, after <body>, or at the start of the document.
func (d *regexDocument) styleRules(rules string) {
	if m := styleRulesBlockPattern.FindStringSubmatchIndex(d.markup); m != nil {
		at := m[2]
		d.markup = d.markup[:at] + rules + d.markup[at:]
		return
	}

	block := `<style id="` + StyleRulesID + `">` + rules + `</style>`

	if loc := headClosePattern.FindStringIndex(d.markup); loc != nil {
		d.markup = d.markup[:loc[0]] + block + d.markup[loc[0]:]
		return
	}
	if loc := bodyOpenPattern.FindStringIndex(d.markup); loc != nil {
		d.markup = d.markup[:loc[1]] + block + d.markup[loc[1]:]
		return
	}
	d.markup = block + d.markup
}

func insertRelative(markup string, target element, pos domain.Position, content string) string {
	inserted := position.InsertAtPosition(pos, content,
		target.full(markup), target.open(markup), target.inner(markup), target.close(markup))
	return markup[:target.start] + inserted + markup[target.end:]
}
