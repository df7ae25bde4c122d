// Package sanitize cleans HTML fragments and attribute values before they are
// inserted into a document.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonesrussell/abedge/internal/logger"
	"github.com/jonesrussell/abedge/internal/metrics"
)

// Policy selects how HTML content is sanitized.
type Policy string

const (
	// PolicyDenylist strips known-dangerous elements, attributes and URLs and keeps everything else.
	PolicyDenylist Policy = "denylist"
	// PolicyUGC applies the denylist and then a bluemonday user-generated-content allow-list.
	PolicyUGC Policy = "ugc"
)

// ErrUnknownPolicy is returned for a policy name that is not recognized.
var ErrUnknownPolicy = errors.New("unknown sanitizer policy")

// ParsePolicy parses a policy name. The empty string selects PolicyDenylist.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyDenylist:
		return PolicyDenylist, nil
	case PolicyUGC:
		return PolicyUGC, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Metric kinds reported to metrics.SanitizerBlocked.
const (
	kindElement   = "element"
	kindAttribute = "attribute"
	kindURL       = "url"
)

var (
	blockedElements = map[atom.Atom]bool{
		atom.Script: true,
		atom.Style:  true,
		atom.Object: true,
		atom.Embed:  true,
		atom.Link:   true,
	}

	blockedSchemes = []string{"javascript:", "vbscript:", "data:text/html"}

	urlAttributes = map[string]bool{"href": true, "src": true}
)

// Sanitizer removes scripting vectors from markup. It holds no per-call state
// and is safe for concurrent use.
type Sanitizer struct {
	logger  logger.Interface
	metrics *metrics.Metrics
	policy  Policy
	ugc     *bluemonday.Policy
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithPolicy selects the content policy.
func WithPolicy(p Policy) Option {
	return func(s *Sanitizer) {
		s.policy = p
	}
}

// WithMetrics records removals on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sanitizer) {
		s.metrics = m
	}
}

// New creates a Sanitizer that reports blocked content through log.
func New(log logger.Interface, opts ...Option) *Sanitizer {
	s := &Sanitizer{
		logger: log,
		policy: PolicyDenylist,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == PolicyUGC {
		s.ugc = newUGCPolicy()
	}
	return s
}

// newUGCPolicy builds the allow-list used by PolicyUGC.
func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowDataAttributes()
	p.AllowAttrs("style").Globally()
	p.AllowStyles(
		"color", "background-color", "font-weight", "font-style", "font-size",
		"text-align", "text-decoration", "margin", "padding", "display",
	).Globally()
	return p
}

// Policy returns the configured content policy.
func (s *Sanitizer) Policy() Policy {
	return s.policy
}

// SanitizeHTMLContent removes script, style, object, embed and link elements,
// on* attributes and attributes carrying javascript:, vbscript: or
// data:text/html URLs. Input with nothing to remove is returned unchanged.
func (s *Sanitizer) SanitizeHTMLContent(content string) string {
	if strings.TrimSpace(content) == "" {
		return content
	}

	result := s.denylist(content)
	if s.ugc != nil {
		result = s.ugc.Sanitize(result)
	}
	return result
}

func (s *Sanitizer) denylist(content string) string {
	nodes, err := html.ParseFragment(strings.NewReader(content), bodyContext())
	if err != nil {
		// x/net/html only fails on reader errors; never hand unparsed markup back.
		s.logger.Warn("Failed to parse HTML for sanitizing, dropping content", "error", err)
		return ""
	}

	var st stats
	kept := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if isBlockedElement(n) {
			st.elements++
			continue
		}
		st.walk(n)
		kept = append(kept, n)
	}

	if st.empty() {
		return content
	}

	s.logger.Warn("Blocked dangerous HTML content",
		"removed_elements", st.elements,
		"removed_attributes", st.attributes,
		"removed_urls", st.urls,
	)
	s.metrics.SanitizerBlocked(kindElement, st.elements)
	s.metrics.SanitizerBlocked(kindAttribute, st.attributes)
	s.metrics.SanitizerBlocked(kindURL, st.urls)

	var b strings.Builder
	for _, n := range kept {
		if renderErr := html.Render(&b, n); renderErr != nil {
			s.logger.Warn("Failed to render sanitized HTML", "error", renderErr)
			return ""
		}
	}
	return b.String()
}

// SanitizeAttributeValue returns "" when the attribute is an event handler or
// an href/src carrying a blocked URL scheme; the caller must then omit the
// attribute. Any other value is returned unchanged.
func (s *Sanitizer) SanitizeAttributeValue(name, value string) string {
	if IsEventHandler(name) {
		s.logger.Warn("Blocked event handler attribute", "attribute", name)
		s.metrics.SanitizerBlocked(kindAttribute, 1)
		return ""
	}

	if urlAttributes[strings.ToLower(strings.TrimSpace(name))] && IsBlockedURL(value) {
		s.logger.Warn("Blocked dangerous URL", "attribute", name)
		s.metrics.SanitizerBlocked(kindURL, 1)
		return ""
	}

	return value
}

// IsEventHandler reports whether name is an on* attribute.
func IsEventHandler(name string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "on")
}

// IsBlockedURL reports whether value uses a blocked scheme. Case, surrounding
// whitespace and embedded control characters are ignored.
func IsBlockedURL(value string) bool {
	normalized := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, value))

	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(normalized, scheme) {
			return true
		}
	}
	return false
}

type stats struct {
	elements   int
	attributes int
	urls       int
}

func (st *stats) empty() bool {
	return st.elements == 0 && st.attributes == 0 && st.urls == 0
}

// walk cleans n's attributes and removes blocked descendants.
func (st *stats) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		n.Attr = st.cleanAttrs(n.Attr)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isBlockedElement(c) {
			n.RemoveChild(c)
			st.elements++
		} else {
			st.walk(c)
		}
		c = next
	}
}

func (st *stats) cleanAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		switch {
		case IsEventHandler(a.Key):
			st.attributes++
		case IsBlockedURL(a.Val):
			st.urls++
		default:
			kept = append(kept, a)
		}
	}
	return kept
}

func isBlockedElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom != 0 {
		return blockedElements[n.DataAtom]
	}
	return blockedElements[atom.Lookup([]byte(strings.ToLower(n.Data)))]
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}
