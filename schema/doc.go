// Package schema is the canonical object model of chrono entities.
//
// Parsers in compiler/load produce a RawEntity per schema file. Validate
// maps attribute types, derives the object category and checks every
// invariant of the model, returning either an immutable *Entity or the
// complete list of violations:
//
//	e, err := schema.Validate(raw)
//	var verrs schema.ValidationErrors
//	if errors.As(err, &verrs) {
//	    for _, v := range verrs {
//	        fmt.Println(v.Rule, v.Message)
//	    }
//	}
//
// # Members
//
// An entity declares three kinds of members, modelled as a closed union
// behind the Member interface:
//
//   - *Attribute: a simple column-backed value
//   - *AsOfAttribute: a business-date or processing-date axis
//   - *Relationship: a navigation to another entity
//
// # Categories
//
// The Category of an entity is derived, never declared:
//
//	two as-of attributes, not read-only  -> Bitemporal
//	exactly one as-of attribute          -> DatedTransactional
//	read-only                            -> ReadOnly
//	otherwise                            -> Transactional
//
// # Types
//
// MapType is total. Known schema type names map to boolean, integer,
// long, float, double, string, decimal or instant; everything else maps
// to the opaque type, which keeps the original name so generators can
// still refer to it.
package schema
