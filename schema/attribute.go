package schema

import (
	"fmt"
	"strings"
	"time"
)

// Attribute is a simple (non-temporal) attribute.
type Attribute struct {
	Name       string
	Type       SemanticType
	Column     string
	Nullable   bool
	PrimaryKey bool
	Identity   bool
	Trim       bool
	Pooled     bool
	// MaxLength is zero when unbounded.
	MaxLength int
}

// MemberName implements Member.
func (a *Attribute) MemberName() string { return a.Name }

func (*Attribute) member() {}

// TemporalKind tells business-date and processing-date axes apart.
type TemporalKind uint8

// Temporal kinds.
const (
	BusinessDate TemporalKind = iota
	ProcessingDate
)

// String returns the kind name.
func (k TemporalKind) String() string {
	if k == ProcessingDate {
		return "processing-date"
	}
	return "business-date"
}

// TimezoneConversion controls how as-of instants are converted on the
// way to storage.
type TimezoneConversion uint8

// Timezone conversion modes.
const (
	TimezoneNone TimezoneConversion = iota
	TimezoneUTC
	TimezoneDatabase
)

// String returns the schema spelling of the mode.
func (c TimezoneConversion) String() string {
	switch c {
	case TimezoneUTC:
		return "convert-to-utc"
	case TimezoneDatabase:
		return "convert-to-database-timezone"
	default:
		return "none"
	}
}

// ParseTimezoneConversion parses the timezoneConversion attribute. An
// empty string means none.
func ParseTimezoneConversion(s string) (TimezoneConversion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TimezoneNone, nil
	case "utc", "convert-to-utc":
		return TimezoneUTC, nil
	case "database", "convert-to-database-timezone":
		return TimezoneDatabase, nil
	default:
		return TimezoneNone, fmt.Errorf("unknown timezone conversion %q", s)
	}
}

// DefaultInfinity is the infinity date used when a schema does not
// declare one.
var DefaultInfinity = time.Date(9999, time.December, 1, 23, 59, 0, 0, time.UTC)

// infinityLayouts are the accepted infinity literal layouts.
var infinityLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseInfinity parses an infinity date literal. An empty literal yields
// DefaultInfinity.
func ParseInfinity(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultInfinity, nil
	}
	for _, layout := range infinityLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid infinity date %q", s)
}

// AsOfAttribute is a temporal axis of an entity.
type AsOfAttribute struct {
	Name          string
	Kind          TemporalKind
	FromColumn    string
	ToColumn      string
	ToIsInclusive bool
	// Infinity is the sentinel upper bound of open intervals.
	Infinity time.Time
	// InfinityLiteral is the literal as written, empty when defaulted.
	InfinityLiteral string
	Default         string
	Timezone        TimezoneConversion
}

// MemberName implements Member.
func (a *AsOfAttribute) MemberName() string { return a.Name }

func (*AsOfAttribute) member() {}

// Cardinality is the multiplicity of a relationship.
type Cardinality uint8

// Relationship cardinalities.
const (
	OneToOne Cardinality = iota
	OneToMany
	ManyToOne
	ManyToMany
)

// String returns the schema spelling of the cardinality.
func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "one-to-one"
	case OneToMany:
		return "one-to-many"
	case ManyToOne:
		return "many-to-one"
	case ManyToMany:
		return "many-to-many"
	default:
		return "invalid"
	}
}

// Many reports whether the navigation from this side yields a list.
func (c Cardinality) Many() bool { return c == OneToMany || c == ManyToMany }

// ParseCardinality parses a cardinality string.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-to-one":
		return OneToOne, nil
	case "one-to-many":
		return OneToMany, nil
	case "many-to-one":
		return ManyToOne, nil
	case "many-to-many":
		return ManyToMany, nil
	default:
		return 0, fmt.Errorf("unknown cardinality %q", s)
	}
}

// JoinParameter joins an attribute of this entity to one of the related
// entity.
type JoinParameter struct {
	From string
	To   string
}

// Relationship is a navigation to another entity.
type Relationship struct {
	Name        string
	Related     string
	Cardinality Cardinality
	Reverse     string
	OrderBy     string
	Parameters  []JoinParameter
}

// MemberName implements Member.
func (r *Relationship) MemberName() string { return r.Name }

func (*Relationship) member() {}
