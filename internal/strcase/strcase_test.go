package strcase_test

import (
	"testing"

	"github.com/jonesrussell/abedge/internal/strcase"
	"github.com/stretchr/testify/assert"
)

func TestCamelToKebab(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"color", "color"},
		{"backgroundColor", "background-color"},
		{"borderTopLeftRadius", "border-top-left-radius"},
		{"WebkitTransform", "-webkit-transform"},
		{"MozUserSelect", "-moz-user-select"},
		{"font-size", "font-size"},
		{"Font-Size", "font-size"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, strcase.CamelToKebab(tt.in))
		})
	}
}

func TestKebabToCamel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "color", strcase.KebabToCamel("color"))
	assert.Equal(t, "backgroundColor", strcase.KebabToCamel("background-color"))
	assert.Equal(t, "WebkitTransform", strcase.KebabToCamel("-webkit-transform"))
	assert.Equal(t, "borderTopLeftRadius", strcase.KebabToCamel("border-top-left-radius"))
}
