package schema

import (
	"strings"
)

// Kind is the semantic category of an attribute value.
type Kind uint8

// Semantic kinds. KindOpaque is the passthrough kind for schema type
// names the mapper does not know.
const (
	KindOpaque Kind = iota
	KindBoolean
	KindInteger
	KindLong
	KindFloat
	KindDouble
	KindString
	KindDecimal
	KindInstant
)

var kindNames = [...]string{
	KindOpaque:  "opaque",
	KindBoolean: "boolean",
	KindInteger: "integer",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindString:  "string",
	KindDecimal: "decimal",
	KindInstant: "instant",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Numeric reports whether the kind supports ordering operators.
func (k Kind) Numeric() bool {
	switch k {
	case KindInteger, KindLong, KindFloat, KindDouble, KindDecimal:
		return true
	}
	return false
}

// Integral reports whether the kind may back an identity attribute.
func (k Kind) Integral() bool {
	return k == KindInteger || k == KindLong
}

// SemanticType is the result of mapping a schema type name. Name keeps
// the type name as written in the schema so that opaque types can still
// be referenced by generators.
type SemanticType struct {
	Kind Kind
	Name string
}

// Opaque reports whether the type is the passthrough type.
func (t SemanticType) Opaque() bool { return t.Kind == KindOpaque }

// String returns the kind, and for opaque types, the original name.
func (t SemanticType) String() string {
	if t.Opaque() {
		return "opaque(" + t.Name + ")"
	}
	return t.Kind.String()
}

// typeTable maps lower-cased schema type names to kinds. Byte and short
// widen to integer; dates and timestamps become epoch-based instants.
var typeTable = map[string]Kind{
	"boolean":    KindBoolean,
	"bool":       KindBoolean,
	"byte":       KindInteger,
	"short":      KindInteger,
	"int":        KindInteger,
	"integer":    KindInteger,
	"long":       KindLong,
	"float":      KindFloat,
	"double":     KindDouble,
	"string":     KindString,
	"varchar":    KindString,
	"char":       KindString,
	"date":       KindInstant,
	"timestamp":  KindInstant,
	"datetime":   KindInstant,
	"bigdecimal": KindDecimal,
	"decimal":    KindDecimal,
}

// javaPrefixes are stripped before lookup so that fully qualified names
// like java.sql.Timestamp resolve to the same entry as Timestamp.
var javaPrefixes = []string{"java.lang.", "java.sql.", "java.math.", "java.util.", "java.time."}

// MapType maps a schema type name to its semantic type. It never fails:
// unknown names map to the opaque type carrying the original name.
func MapType(name string) SemanticType {
	trimmed := strings.TrimSpace(name)
	key := strings.ToLower(trimmed)
	for _, p := range javaPrefixes {
		if strings.HasPrefix(key, p) {
			key = strings.TrimPrefix(key, p)
			break
		}
	}
	if k, ok := typeTable[key]; ok {
		return SemanticType{Kind: k, Name: trimmed}
	}
	return SemanticType{Kind: KindOpaque, Name: trimmed}
}
