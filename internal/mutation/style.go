package mutation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/strcase"
)

// styleUpdate is a decoded style change: either a replacement attribute value
// or declarations to merge.
type styleUpdate struct {
	replace string
	merge   map[string]string
}

func decodeStyle(change domain.DOMChange) (styleUpdate, error) {
	switch v := change.Value.(type) {
	case string:
		return styleUpdate{replace: v}, nil
	case map[string]string:
		return styleUpdate{merge: kebabKeys(v)}, nil
	case map[string]any:
		m := make(map[string]string, len(v))
		for k, val := range v {
			m[k] = fmt.Sprint(val)
		}
		return styleUpdate{merge: kebabKeys(m)}, nil
	case map[any]any:
		m := make(map[string]string, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = fmt.Sprint(val)
		}
		return styleUpdate{merge: kebabKeys(m)}, nil
	default:
		return styleUpdate{}, fmt.Errorf("%w: style value of type %T", ErrUnsupportedValue, change.Value)
	}
}

func kebabKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strcase.CamelToKebab(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

// apply returns the new style attribute value.
func (u styleUpdate) apply(existing string) string {
	if u.merge == nil {
		return u.replace
	}
	return mergeStyle(existing, u.merge)
}

type declaration struct {
	property string
	value    string
}

// mergeStyle overwrites existing declarations in place and appends new ones in
// property order. Output is "a: b; c: d".
func mergeStyle(existing string, updates map[string]string) string {
	decls := parseStyle(existing)
	seen := make(map[string]bool, len(decls))

	for i, d := range decls {
		if v, ok := updates[d.property]; ok {
			decls[i].value = v
		}
		seen[d.property] = true
	}

	added := make([]string, 0, len(updates))
	for k := range updates {
		if !seen[k] {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	for _, k := range added {
		decls = append(decls, declaration{property: k, value: updates[k]})
	}

	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.property+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

func parseStyle(style string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(style, ";") {
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		if property == "" {
			continue
		}
		decls = append(decls, declaration{property: property, value: strings.TrimSpace(value)})
	}
	return decls
}
