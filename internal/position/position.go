// Package position places content relative to a target, either as markup
// concatenation or as node-tree insertion. Both forms share the same rules:
// before and after place content as a sibling of the target, prepend and
// append place it as the target's first or last child. Anything that is not
// before, after or prepend is treated as append.
package position

import (
	"golang.org/x/net/html"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/logger"
)

// InsertAtPosition returns match with content placed at pos.
// match is the full element markup, equal to openTag + innerContent + closeTag.
func InsertAtPosition(pos domain.Position, content, match, openTag, innerContent, closeTag string) string {
	switch pos.Normalize() {
	case domain.PositionBefore:
		return content + match
	case domain.PositionAfter:
		return match + content
	case domain.PositionPrepend:
		return openTag + content + innerContent + closeTag
	default:
		return openTag + innerContent + content + closeTag
	}
}

// InsertElementAtPosition inserts node relative to target and returns the
// position actually used. node is detached from its current parent first.
// before and after on a parentless target fall back to append.
func InsertElementAtPosition(pos domain.Position, node, target *html.Node, log logger.Interface) domain.Position {
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}

	pos = pos.Normalize()
	if (pos == domain.PositionBefore || pos == domain.PositionAfter) && target.Parent == nil {
		log.Warn("Target has no parent, appending instead",
			"requested_position", string(pos),
			"target", target.Data,
		)
		pos = domain.PositionAppend
	}

	switch pos {
	case domain.PositionBefore:
		target.Parent.InsertBefore(node, target)
	case domain.PositionAfter:
		// InsertBefore with a nil sibling appends.
		target.Parent.InsertBefore(node, target.NextSibling)
	case domain.PositionPrepend:
		target.InsertBefore(node, target.FirstChild)
	default:
		target.AppendChild(node)
	}

	return pos
}
