// Package domain holds the declarative change model consumed by the rendering engine.
package domain

import (
	"fmt"
	"strings"
)

// ChangeType identifies the kind of mutation a DOMChange performs.
type ChangeType string

// Supported change types.
const (
	ChangeText       ChangeType = "text"
	ChangeHTML       ChangeType = "html"
	ChangeStyle      ChangeType = "style"
	ChangeClass      ChangeType = "class"
	ChangeAttribute  ChangeType = "attribute"
	ChangeDelete     ChangeType = "delete"
	ChangeMove       ChangeType = "move"
	ChangeCreate     ChangeType = "create"
	ChangeStyleRules ChangeType = "styleRules"
	ChangeJavaScript ChangeType = "javascript"
)

// String returns the change type.
func (t ChangeType) String() string {
	return string(t)
}

// ClassAction is the operation of a class change.
type ClassAction string

// Class actions. Any other value replaces the class attribute.
const (
	ClassAdd    ClassAction = "add"
	ClassRemove ClassAction = "remove"
)

// Position places new or moved content relative to a target element.
type Position string

// Positions. The zero value and unknown values behave as PositionAppend.
const (
	PositionBefore  Position = "before"
	PositionAfter   Position = "after"
	PositionPrepend Position = "prepend"
	PositionAppend  Position = "append"
)

// Normalize lower-cases and trims the position, mapping unknown values to append.
func (p Position) Normalize() Position {
	switch Position(strings.ToLower(strings.TrimSpace(string(p)))) {
	case PositionBefore:
		return PositionBefore
	case PositionAfter:
		return PositionAfter
	case PositionPrepend:
		return PositionPrepend
	default:
		return PositionAppend
	}
}

// DOMChange is one declarative mutation instruction.
type DOMChange struct {
	// Selector locates the elements to mutate.
	Selector string `json:"selector" mapstructure:"selector" validate:"required_unless=Type styleRules" yaml:"selector"`
	// Type selects the mutation.
	Type ChangeType `json:"type" mapstructure:"type" validate:"required,oneof=text html style class attribute delete move create styleRules javascript" yaml:"type"`
	// Value is the mutation payload; its shape depends on Type.
	Value any `json:"value,omitempty" mapstructure:"value" yaml:"value,omitempty"`
	// Name is the attribute name for attribute changes.
	Name string `json:"name,omitempty" mapstructure:"name" validate:"required_if=Type attribute" yaml:"name,omitempty"`
	// Action is add or remove for class changes.
	Action ClassAction `json:"action,omitempty" mapstructure:"action" yaml:"action,omitempty"`
	// Target is the reference selector for move and create changes.
	Target string `json:"target,omitempty" mapstructure:"target" validate:"required_if=Type move" yaml:"target,omitempty"`
	// Position places moved or created content relative to Target.
	Position Position `json:"position,omitempty" mapstructure:"position" yaml:"position,omitempty"`
	// Rules is raw CSS text for styleRules changes.
	Rules string `json:"rules,omitempty" mapstructure:"rules" validate:"required_if=Type styleRules" yaml:"rules,omitempty"`
	// TriggerOnView is consumed by the client bundle only.
	TriggerOnView bool `json:"trigger_on_view,omitempty" mapstructure:"trigger_on_view" yaml:"trigger_on_view,omitempty"`
}

// ValueString coerces Value into the string form used by text, html and class changes.
func (c DOMChange) ValueString() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// LogFields returns the change as key/value logging fields. The payload is
// represented by its Go type only.
func (c DOMChange) LogFields() []any {
	return []any{
		"selector", c.Selector,
		"type", c.Type.String(),
		"name", c.Name,
		"action", string(c.Action),
		"target", c.Target,
		"position", string(c.Position),
		"rules", c.Rules,
		"value_type", c.ValueType(),
	}
}

// ValueType names the dynamic type of Value, "nil" when unset.
func (c DOMChange) ValueType() string {
	if c.Value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", c.Value)
}
