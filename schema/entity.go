package schema

// Category is the object category of an entity. It is derived from the
// as-of attributes and the read-only flag and cannot be set directly.
type Category uint8

// Object categories.
const (
	Transactional Category = iota
	ReadOnly
	DatedTransactional
	Bitemporal
)

// String returns the category name as used in schema files.
func (c Category) String() string {
	switch c {
	case Transactional:
		return "transactional"
	case ReadOnly:
		return "read-only"
	case DatedTransactional:
		return "dated-transactional"
	case Bitemporal:
		return "bitemporal"
	default:
		return "invalid"
	}
}

// DeriveCategory returns the category for an entity with n as-of
// attributes.
func DeriveCategory(n int, readOnly bool) Category {
	switch {
	case n == 2 && !readOnly:
		return Bitemporal
	case n == 1:
		return DatedTransactional
	case readOnly:
		return ReadOnly
	default:
		return Transactional
	}
}

// Member is one declared member of an entity: an *Attribute, an
// *AsOfAttribute or a *Relationship. The set is closed; code switching
// on members must handle all three.
type Member interface {
	MemberName() string
	member()
}

// Entity is a validated entity definition. It is built by Validate and
// must be treated as read-only by its consumers.
type Entity struct {
	// Package is the namespace path declared in the schema.
	Package string
	// Name is the type name.
	Name string
	// Table is the backing table.
	Table string
	// SuperClass is passed through from the schema, if any.
	SuperClass string
	// ReadOnly reports whether the entity is immutable in storage.
	ReadOnly bool
	// Category is derived from the as-of attributes and ReadOnly.
	Category Category
	// Source is the schema file the entity was parsed from.
	Source string

	attrs []*Attribute
	asOf  []*AsOfAttribute
	rels  []*Relationship
}

// Attributes returns the simple attributes in declaration order.
func (e *Entity) Attributes() []*Attribute {
	return append([]*Attribute(nil), e.attrs...)
}

// AsOfAttributes returns the as-of attributes in declaration order.
func (e *Entity) AsOfAttributes() []*AsOfAttribute {
	return append([]*AsOfAttribute(nil), e.asOf...)
}

// Relationships returns the relationships in declaration order.
func (e *Entity) Relationships() []*Relationship {
	return append([]*Relationship(nil), e.rels...)
}

// Members returns all members: attributes, then as-of attributes, then
// relationships, each group in declaration order.
func (e *Entity) Members() []Member {
	ms := make([]Member, 0, len(e.attrs)+len(e.asOf)+len(e.rels))
	for _, a := range e.attrs {
		ms = append(ms, a)
	}
	for _, a := range e.asOf {
		ms = append(ms, a)
	}
	for _, r := range e.rels {
		ms = append(ms, r)
	}
	return ms
}

// PrimaryKeys returns the primary-key attributes in declaration order.
func (e *Entity) PrimaryKeys() []*Attribute {
	var pks []*Attribute
	for _, a := range e.attrs {
		if a.PrimaryKey {
			pks = append(pks, a)
		}
	}
	return pks
}

// Identity returns the identity attribute, or nil.
func (e *Entity) Identity() *Attribute {
	for _, a := range e.attrs {
		if a.Identity {
			return a
		}
	}
	return nil
}

// Temporal reports whether the entity has at least one as-of attribute.
func (e *Entity) Temporal() bool { return len(e.asOf) > 0 }

// BusinessAxis returns the business-date as-of attribute, or nil.
func (e *Entity) BusinessAxis() *AsOfAttribute {
	for _, a := range e.asOf {
		if a.Kind == BusinessDate {
			return a
		}
	}
	return nil
}

// ProcessingAxis returns the processing-date as-of attribute, or nil.
func (e *Entity) ProcessingAxis() *AsOfAttribute {
	for _, a := range e.asOf {
		if a.Kind == ProcessingDate {
			return a
		}
	}
	return nil
}

// QualifiedName returns Package.Name, or Name when no package is set.
func (e *Entity) QualifiedName() string {
	if e.Package == "" {
		return e.Name
	}
	return e.Package + "." + e.Name
}

// RawEntity is the unvalidated output of a schema parser.
type RawEntity struct {
	File       string
	Package    string
	Name       string
	Table      string
	SuperClass string
	ReadOnly   bool
	// DeclaredType is the legacy objectType attribute, empty when the
	// schema does not declare one.
	DeclaredType  string
	Attributes    []RawAttribute
	AsOf          []RawAsOfAttribute
	Relationships []RawRelationship
}

// RawAttribute is an attribute declaration as read from the schema.
type RawAttribute struct {
	Name       string
	Type       string
	Column     string
	PrimaryKey bool
	Nullable   bool
	Identity   bool
	Trim       bool
	Pooled     bool
	MaxLength  *int
	Line       int
}

// RawAsOfAttribute is an as-of declaration as read from the schema.
type RawAsOfAttribute struct {
	Name          string
	FromColumn    string
	ToColumn      string
	ToIsInclusive bool
	Infinity      string
	Default       string
	Processing    bool
	Timezone      TimezoneConversion
	Line          int
}

// RawRelationship is a relationship declaration as read from the schema.
type RawRelationship struct {
	Name        string
	Related     string
	Cardinality Cardinality
	Reverse     string
	OrderBy     string
	Parameters  []JoinParameter
	Line        int
}
