package mutation

import (
	"html"
	"regexp"
	"strings"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var (
	openTagNamePattern = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9-]*)`)
	attributePattern   = regexp.MustCompile(
		"([^\\s\"'>/=]+)(?:\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|([^\\s\"'=<>`]+)))?",
	)
)

// tagPattern matches opening and closing tags named tag. Group 1 is "/" for a
// closing tag.
func tagPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<(/?)` + regexp.QuoteMeta(tag) + `(?:[\s/][^>]*)?>`)
}

// element is the byte range of one element in a markup string. For void
// elements closeStart and end equal openEnd.
type element struct {
	start      int
	openEnd    int
	closeStart int
	end        int
	void       bool
}

func (e element) full(markup string) string  { return markup[e.start:e.end] }
func (e element) open(markup string) string  { return markup[e.start:e.openEnd] }
func (e element) inner(markup string) string { return markup[e.openEnd:e.closeStart] }
func (e element) close(markup string) string { return markup[e.closeStart:e.end] }

func (e element) contains(other element) bool {
	return other.start >= e.start && other.end <= e.end
}

// scanElements pairs every opening tag named tag with its closing tag. Nested
// same-name elements are paired innermost first; unclosed elements are dropped.
func scanElements(markup, tag string) []element {
	tokens := tagPattern(tag).FindAllStringSubmatchIndex(markup, -1)
	void := voidElements[tag]

	var (
		out    []element
		closed []bool
		stack  []int
	)
	for _, tok := range tokens {
		if tok[3] > tok[2] {
			if void || len(stack) == 0 {
				continue
			}
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			out[i].closeStart, out[i].end = tok[0], tok[1]
			closed[i] = true
			continue
		}

		e := element{start: tok[0], openEnd: tok[1]}
		if void {
			e.closeStart, e.end, e.void = tok[1], tok[1], true
			out = append(out, e)
			closed = append(closed, true)
			continue
		}
		out = append(out, e)
		closed = append(closed, false)
		stack = append(stack, len(out)-1)
	}

	paired := out[:0]
	for i, e := range out {
		if closed[i] {
			paired = append(paired, e)
		}
	}
	return paired
}

// openTagRanges returns the [start, end) range of every opening tag named tag,
// closed or not.
func openTagRanges(markup, tag string) [][2]int {
	var out [][2]int
	for _, tok := range tagPattern(tag).FindAllStringSubmatchIndex(markup, -1) {
		if tok[3] == tok[2] {
			out = append(out, [2]int{tok[0], tok[1]})
		}
	}
	return out
}

// matchElements returns the elements for parts, narrowed by id or class.
func matchElements(markup string, parts SelectorParts) []element {
	all := scanElements(markup, parts.Tag)
	if !parts.Refined() {
		return all
	}

	out := make([]element, 0, len(all))
	for _, e := range all {
		tag := parseOpenTag(e.open(markup))
		if parts.ID != "" {
			if id, ok := tag.get("id"); !ok || id != parts.ID {
				continue
			}
		}
		if parts.Class != "" {
			class, _ := tag.get("class")
			if !hasToken(class, parts.Class) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// outermost drops elements nested inside an earlier element of the list.
func outermost(elements []element) []element {
	out := make([]element, 0, len(elements))
	for _, e := range elements {
		if len(out) > 0 && out[len(out)-1].contains(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func withBody(elements []element) []element {
	out := make([]element, 0, len(elements))
	for _, e := range elements {
		if !e.void {
			out = append(out, e)
		}
	}
	return out
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if f == token {
			return true
		}
	}
	return false
}

// tagAttribute is one attribute of an opening tag. raw is the source text of
// the value, still entity-encoded.
type tagAttribute struct {
	name     string
	raw      string
	quote    byte
	hasValue bool
}

func (a tagAttribute) String() string {
	if !a.hasValue {
		return a.name
	}
	q := a.quote
	if q == 0 {
		q = '"'
	}
	return a.name + "=" + string(q) + a.raw + string(q)
}

// openTag is a parsed opening tag that can be edited and written back.
type openTag struct {
	name        string
	attrs       []tagAttribute
	selfClosing bool
}

func parseOpenTag(s string) *openTag {
	m := openTagNamePattern.FindStringSubmatch(s)
	if m == nil {
		return &openTag{}
	}

	rest := strings.TrimSuffix(s[len(m[0]):], ">")
	t := &openTag{name: m[1]}
	if trimmed := strings.TrimSpace(rest); strings.HasSuffix(trimmed, "/") {
		t.selfClosing = true
		rest = strings.TrimSuffix(trimmed, "/")
	}

	for _, am := range attributePattern.FindAllStringSubmatchIndex(rest, -1) {
		a := tagAttribute{name: rest[am[2]:am[3]]}
		switch {
		case am[4] >= 0:
			a.raw, a.quote, a.hasValue = rest[am[4]:am[5]], '"', true
		case am[6] >= 0:
			a.raw, a.quote, a.hasValue = rest[am[6]:am[7]], '\'', true
		case am[8] >= 0:
			a.raw, a.hasValue = rest[am[8]:am[9]], true
		}
		t.attrs = append(t.attrs, a)
	}
	return t
}

func (t *openTag) index(name string) int {
	for i, a := range t.attrs {
		if strings.EqualFold(a.name, name) {
			return i
		}
	}
	return -1
}

// get returns the decoded value of an attribute.
func (t *openTag) get(name string) (string, bool) {
	i := t.index(name)
	if i < 0 {
		return "", false
	}
	return html.UnescapeString(t.attrs[i].raw), true
}

// set stores value, encoding it and keeping the attribute's position.
func (t *openTag) set(name, value string) {
	a := tagAttribute{name: name, raw: html.EscapeString(value), quote: '"', hasValue: true}
	if i := t.index(name); i >= 0 {
		a.name = t.attrs[i].name
		t.attrs[i] = a
		return
	}
	t.attrs = append(t.attrs, a)
}

func (t *openTag) remove(name string) {
	if i := t.index(name); i >= 0 {
		t.attrs = append(t.attrs[:i], t.attrs[i+1:]...)
	}
}

func (t *openTag) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(t.name)
	for _, a := range t.attrs {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	if t.selfClosing {
		b.WriteString(" /")
	}
	b.WriteByte('>')
	return b.String()
}
