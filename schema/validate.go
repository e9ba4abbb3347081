package schema

import (
	"fmt"
	"strings"
)

// Rule identifiers reported in ValidationError.Rule.
const (
	RuleBlankName         = "blank-name"
	RuleDuplicateName     = "duplicate-name"
	RuleReservedName      = "reserved-name"
	RuleIdentityPrimary   = "identity-primary-key"
	RuleIdentityType      = "identity-type"
	RulePrimaryNullable   = "primary-key-nullable"
	RuleMaxLength         = "max-length"
	RuleAsOfColumns       = "as-of-columns"
	RuleInfinity          = "infinity-date"
	RuleManyToManyReverse = "many-to-many-reverse"
	RuleRelatedObject     = "related-object"
	RuleJoinParameter     = "join-parameter"
	RuleAsOfCount         = "as-of-count"
	RuleAsOfKinds         = "as-of-kinds"
	RulePrimaryKey        = "primary-key"
	RuleIdentityComposite = "identity-composite-key"
	RuleDeclaredType      = "declared-type"
)

// reserved holds member names that collide with generated wrapper
// methods once converted to exported Go identifiers.
var reserved = map[string]bool{
	"row": true,
}

// validator collects violations for one entity.
type validator struct {
	entity string
	errs   ValidationErrors
}

func (v *validator) add(member, rule, format string, args ...any) {
	v.errs = append(v.errs, NewValidationError(v.entity, member, rule, fmt.Sprintf(format, args...)))
}

// Validate checks a raw entity against the object-model invariants and
// returns the canonical entity. All violations are collected: when the
// returned error is non-nil it is a ValidationErrors holding every
// defect of the schema, in rule order (attributes, as-of attributes,
// relationships, entity).
func Validate(raw *RawEntity) (*Entity, error) {
	v := &validator{entity: raw.Name}
	e := &Entity{
		Package:    raw.Package,
		Name:       raw.Name,
		Table:      raw.Table,
		SuperClass: raw.SuperClass,
		ReadOnly:   raw.ReadOnly || isReadOnlyType(raw.DeclaredType),
		Source:     raw.File,
	}
	names := make(map[string]bool)
	e.attrs = v.attributes(raw.Attributes, names)
	e.asOf = v.asOfAttributes(raw.AsOf, names)
	e.rels = v.relationships(raw.Relationships, names, e.attrs)
	e.Category = DeriveCategory(len(e.asOf), e.ReadOnly)
	v.entityLevel(raw, e)
	if len(v.errs) > 0 {
		return nil, v.errs
	}
	return e, nil
}

// MustValidate is like Validate but panics on error. It is intended for
// tests and static fixtures.
func MustValidate(raw *RawEntity) *Entity {
	e, err := Validate(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (v *validator) checkName(name string, names map[string]bool) {
	if strings.TrimSpace(name) == "" {
		v.add(name, RuleBlankName, "member name is blank")
		return
	}
	key := strings.ToLower(name)
	if names[key] {
		v.add(name, RuleDuplicateName, "member %q is declared more than once", name)
	}
	if reserved[key] {
		v.add(name, RuleReservedName, "member name %q is reserved", name)
	}
	names[key] = true
}

func (v *validator) attributes(raws []RawAttribute, names map[string]bool) []*Attribute {
	attrs := make([]*Attribute, 0, len(raws))
	for _, r := range raws {
		v.checkName(r.Name, names)
		a := &Attribute{
			Name:       r.Name,
			Type:       MapType(r.Type),
			Column:     r.Column,
			Nullable:   r.Nullable,
			PrimaryKey: r.PrimaryKey,
			Identity:   r.Identity,
			Trim:       r.Trim,
			Pooled:     r.Pooled,
		}
		if r.Identity {
			if !r.PrimaryKey {
				v.add(r.Name, RuleIdentityPrimary, "identity attribute must be a primary key")
			}
			if !a.Type.Kind.Integral() {
				v.add(r.Name, RuleIdentityType, "identity attribute must be integer or long, got %s", a.Type)
			}
		}
		if r.PrimaryKey && r.Nullable {
			v.add(r.Name, RulePrimaryNullable, "primary key attribute cannot be nullable")
		}
		if r.MaxLength != nil {
			switch {
			case a.Type.Kind != KindString:
				v.add(r.Name, RuleMaxLength, "maxLength is only valid on string attributes, got %s", a.Type)
			case *r.MaxLength <= 0:
				v.add(r.Name, RuleMaxLength, "maxLength must be positive, got %d", *r.MaxLength)
			default:
				a.MaxLength = *r.MaxLength
			}
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func (v *validator) asOfAttributes(raws []RawAsOfAttribute, names map[string]bool) []*AsOfAttribute {
	asOf := make([]*AsOfAttribute, 0, len(raws))
	for _, r := range raws {
		v.checkName(r.Name, names)
		a := &AsOfAttribute{
			Name:            r.Name,
			Kind:            temporalKind(r),
			FromColumn:      r.FromColumn,
			ToColumn:        r.ToColumn,
			ToIsInclusive:   r.ToIsInclusive,
			InfinityLiteral: r.Infinity,
			Default:         r.Default,
			Timezone:        r.Timezone,
		}
		if strings.TrimSpace(r.FromColumn) == "" {
			v.add(r.Name, RuleAsOfColumns, "from-column is blank")
		}
		if strings.TrimSpace(r.ToColumn) == "" {
			v.add(r.Name, RuleAsOfColumns, "to-column is blank")
		}
		inf, err := ParseInfinity(r.Infinity)
		if err != nil {
			v.add(r.Name, RuleInfinity, "%v", err)
		}
		a.Infinity = inf
		asOf = append(asOf, a)
	}
	return asOf
}

// temporalKind classifies an as-of attribute: processing when flagged or
// when its name mentions processing, business otherwise.
func temporalKind(r RawAsOfAttribute) TemporalKind {
	if r.Processing || strings.Contains(strings.ToLower(r.Name), "processing") {
		return ProcessingDate
	}
	return BusinessDate
}

func (v *validator) relationships(raws []RawRelationship, names map[string]bool, attrs []*Attribute) []*Relationship {
	declared := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		declared[a.Name] = true
	}
	rels := make([]*Relationship, 0, len(raws))
	for _, r := range raws {
		v.checkName(r.Name, names)
		if r.Cardinality == ManyToMany && strings.TrimSpace(r.Reverse) == "" {
			v.add(r.Name, RuleManyToManyReverse, "many-to-many relationship requires a reverse relationship name")
		}
		if strings.TrimSpace(r.Related) == "" {
			v.add(r.Name, RuleRelatedObject, "related object is blank")
		}
		for _, p := range r.Parameters {
			if !declared[p.From] {
				v.add(r.Name, RuleJoinParameter, "join parameter references unknown attribute %q", p.From)
			}
		}
		rels = append(rels, &Relationship{
			Name:        r.Name,
			Related:     r.Related,
			Cardinality: r.Cardinality,
			Reverse:     r.Reverse,
			OrderBy:     r.OrderBy,
			Parameters:  append([]JoinParameter(nil), r.Parameters...),
		})
	}
	return rels
}

func (v *validator) entityLevel(raw *RawEntity, e *Entity) {
	switch n := len(e.asOf); {
	case n > 2:
		v.add("", RuleAsOfCount, "at most two as-of attributes are allowed, got %d", n)
	case n == 2 && e.asOf[0].Kind == e.asOf[1].Kind:
		v.add("", RuleAsOfKinds, "a bitemporal entity needs one business-date and one processing-date attribute, got two %s", e.asOf[0].Kind)
	}
	pks := e.PrimaryKeys()
	if len(pks) == 0 {
		v.add("", RulePrimaryKey, "at least one primary key attribute is required")
	}
	if e.Identity() != nil && len(pks) > 1 {
		v.add("", RuleIdentityComposite, "identity requires a single-column primary key, got %d columns", len(pks))
	}
	if raw.DeclaredType != "" {
		dated := strings.HasPrefix(strings.ToLower(raw.DeclaredType), "dated-")
		switch {
		case dated && len(e.asOf) == 0:
			v.add("", RuleDeclaredType, "object type %s requires an as-of attribute", raw.DeclaredType)
		case !dated && len(e.asOf) > 0:
			v.add("", RuleDeclaredType, "object type %s cannot declare as-of attributes", raw.DeclaredType)
		}
	}
}

func isReadOnlyType(declared string) bool {
	switch strings.ToLower(declared) {
	case "read-only", "readonly", "dated-read-only":
		return true
	}
	return false
}
