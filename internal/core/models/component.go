package models

// Tag is a data-less component. Its presence alone is the information.
type Tag struct {
	T ComponentType
}

func (t Tag) Type() ComponentType { return t.T }

// Value is a component carrying an arbitrary payload, used where component
// types are declared in configuration rather than in code.
type Value struct {
	T    ComponentType
	Data any
}

func (v *Value) Type() ComponentType { return v.T }
