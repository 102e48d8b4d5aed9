package bean

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
)

var (
	// ErrDuplicateAttribute is returned when a bean holds two attributes whose
	// names only differ by case.
	ErrDuplicateAttribute = errors.New("duplicate attribute name")
	// ErrInvalidAttribute is returned for nil attributes or attributes without a name.
	ErrInvalidAttribute = errors.New("invalid attribute")
)

// Attribute is a named, multi-valued attribute.
type Attribute struct {
	// Name is the attribute name as provided by the connector.
	Name string `json:"name"`
	// Values holds the attribute values in connector order.
	Values []Value `json:"values"`
}

// NewAttribute creates an attribute holding the given values.
func NewAttribute(name string, values ...Value) *Attribute {
	return &Attribute{Name: name, Values: append([]Value(nil), values...)}
}

// Len returns the number of values. A nil attribute has no values.
func (a *Attribute) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Values)
}

// IsEmpty reports whether the attribute is absent or has no values.
func (a *Attribute) IsEmpty() bool {
	return a.Len() == 0
}

// Add appends values to the attribute.
func (a *Attribute) Add(values ...Value) {
	a.Values = append(a.Values, values...)
}

// AddMissing appends the values that have no equal counterpart in the
// attribute yet. It returns the number of values appended.
func (a *Attribute) AddMissing(values ...Value) int {
	n := 0
	for _, v := range values {
		if len(MissingFrom(a.Values, []Value{v})) == 0 {
			continue
		}
		a.Values = append(a.Values, v)
		n++
	}
	return n
}

// First returns the first value, if any.
func (a *Attribute) First() (Value, bool) {
	if a.IsEmpty() {
		return Value{}, false
	}
	return a.Values[0], true
}

// Strings returns the string form of every value.
func (a *Attribute) Strings() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		out = append(out, v.String())
	}
	return out
}

// TrimLeadingEmpty removes empty text values from the head of the list only.
// Empty values after the first non-empty one are left in place.
func (a *Attribute) TrimLeadingEmpty() {
	if a == nil {
		return
	}
	i := 0
	for i < len(a.Values) && a.Values[i].IsEmpty() {
		i++
	}
	a.Values = a.Values[i:]
}

// Clone returns a deep copy of the attribute.
func (a *Attribute) Clone() *Attribute {
	if a == nil {
		return nil
	}
	values := make([]Value, len(a.Values))
	for i, v := range a.Values {
		values[i] = v.clone()
	}
	return &Attribute{Name: a.Name, Values: values}
}

// Bean is a directory-like entity: a distinguished name and ordered attributes.
type Bean struct {
	// DN is the distinguished name. It may be empty before the entry is created.
	DN string `json:"dn,omitempty"`
	// Variant optionally tags the bean with a registered entity variant.
	Variant string `json:"variant,omitempty"`
	// Attributes holds the attributes in connector order. Names must be unique
	// ignoring case.
	Attributes []*Attribute `json:"attributes"`
}

// New creates an empty bean with the given distinguished name.
func New(dn string) *Bean {
	return &Bean{DN: dn}
}

// SameName reports whether two attribute names are equal under Unicode case folding.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// FoldName returns the case-folded form of an attribute name.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// Attribute returns the attribute with the given name, or nil.
func (b *Bean) Attribute(name string) *Attribute {
	if b == nil {
		return nil
	}
	key := FoldName(name)
	for _, attr := range b.Attributes {
		if attr != nil && FoldName(attr.Name) == key {
			return attr
		}
	}
	return nil
}

// AttributeNames returns the attribute names in bean order.
func (b *Bean) AttributeNames() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.Attributes))
	for _, attr := range b.Attributes {
		if attr != nil {
			names = append(names, attr.Name)
		}
	}
	return names
}

// SetAttribute stores attr, replacing an attribute of the same name in place or
// appending it.
func (b *Bean) SetAttribute(attr *Attribute) {
	key := FoldName(attr.Name)
	for i, existing := range b.Attributes {
		if existing != nil && FoldName(existing.Name) == key {
			b.Attributes[i] = attr
			return
		}
	}
	b.Attributes = append(b.Attributes, attr)
}

// RemoveAttribute deletes the attribute with the given name. It reports
// whether an attribute was removed.
func (b *Bean) RemoveAttribute(name string) bool {
	key := FoldName(name)
	for i, existing := range b.Attributes {
		if existing != nil && FoldName(existing.Name) == key {
			b.Attributes = append(b.Attributes[:i], b.Attributes[i+1:]...)
			return true
		}
	}
	return false
}

// Put sets an attribute from values and returns the bean for chaining.
func (b *Bean) Put(name string, values ...Value) *Bean {
	b.SetAttribute(NewAttribute(name, values...))
	return b
}

// Validate checks that every attribute is named and that names are unique.
func (b *Bean) Validate() error {
	if b == nil {
		return nil
	}
	seen := make(map[string]string, len(b.Attributes))
	for i, attr := range b.Attributes {
		if attr == nil || attr.Name == "" {
			return fmt.Errorf("%w at position %d", ErrInvalidAttribute, i)
		}
		key := FoldName(attr.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateAttribute, prev, attr.Name)
		}
		seen[key] = attr.Name
	}
	return nil
}

// Clone returns an independent deep copy of the bean. It fails when the bean
// violates the attribute name invariants.
func (b *Bean) Clone() (*Bean, error) {
	if b == nil {
		return nil, nil
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	out := &Bean{
		DN:         b.DN,
		Variant:    b.Variant,
		Attributes: make([]*Attribute, 0, len(b.Attributes)),
	}
	for _, attr := range b.Attributes {
		out.Attributes = append(out.Attributes, attr.Clone())
	}
	return out, nil
}

// Env returns the bean as plain data for expression evaluation:
// {"dn": string, "attr": {name: [values]}}. Binary values are exposed as bytes.
func (b *Bean) Env() map[string]any {
	if b == nil {
		return nil
	}
	attrs := make(map[string]any, len(b.Attributes))
	for _, attr := range b.Attributes {
		if attr != nil {
			attrs[attr.Name] = attr.Env()
		}
	}
	return map[string]any{"dn": b.DN, "attr": attrs}
}

// Env returns the attribute values as plain data, or nil for a nil attribute.
func (a *Attribute) Env() []any {
	if a == nil {
		return nil
	}
	out := make([]any, 0, len(a.Values))
	for _, v := range a.Values {
		if v.IsBinary() {
			out = append(out, v.Bytes())
		} else {
			out = append(out, v.String())
		}
	}
	return out
}
