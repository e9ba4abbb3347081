package load

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/chrono/schema"
)

// parseAttribute reads an <Attribute> element. Name, type and column are
// required; nullable defaults to true.
func parseAttribute(file string, n *node) (schema.RawAttribute, error) {
	name, err := required(file, n, "name")
	if err != nil {
		return schema.RawAttribute{}, err
	}
	typ, err := required(file, n, "javaType")
	if err != nil {
		return schema.RawAttribute{}, err
	}
	column, err := required(file, n, "columnName")
	if err != nil {
		return schema.RawAttribute{}, err
	}
	a := schema.RawAttribute{
		Name:       name,
		Type:       typ,
		Column:     column,
		PrimaryKey: n.flag("primaryKey"),
		Identity:   n.flag("identity"),
		Trim:       n.flag("trim"),
		Pooled:     n.flag("pooled"),
		Nullable:   true,
		Line:       n.line,
	}
	if v, ok := n.attr("nullable"); ok && strings.EqualFold(strings.TrimSpace(v), "false") {
		a.Nullable = false
	}
	if v, ok := n.attr("maxLength"); ok && strings.TrimSpace(v) != "" {
		size, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return schema.RawAttribute{}, NewParseError(file, n.line, n.name, fmt.Sprintf("invalid maxLength %q", v), err)
		}
		a.MaxLength = &size
	}
	return a, nil
}

// parseAsOfAttribute reads an <AsOfAttribute> element.
func parseAsOfAttribute(file string, n *node) (schema.RawAsOfAttribute, error) {
	name, err := required(file, n, "name")
	if err != nil {
		return schema.RawAsOfAttribute{}, err
	}
	from, err := required(file, n, "fromColumnName")
	if err != nil {
		return schema.RawAsOfAttribute{}, err
	}
	to, err := required(file, n, "toColumnName")
	if err != nil {
		return schema.RawAsOfAttribute{}, err
	}
	tz, _ := n.attr("timezoneConversion")
	conv, err := schema.ParseTimezoneConversion(tz)
	if err != nil {
		return schema.RawAsOfAttribute{}, NewParseError(file, n.line, n.name, err.Error(), nil)
	}
	processing, err := boolAttr(file, n, "isProcessingDate")
	if err != nil {
		return schema.RawAsOfAttribute{}, err
	}
	a := schema.RawAsOfAttribute{
		Name:          name,
		FromColumn:    from,
		ToColumn:      to,
		ToIsInclusive: true,
		Processing:    processing,
		Timezone:      conv,
		Line:          n.line,
	}
	if v, ok := n.attr("toIsInclusive"); ok && strings.EqualFold(strings.TrimSpace(v), "false") {
		a.ToIsInclusive = false
	}
	a.Infinity, _ = n.attr("infinityDate")
	a.Default, _ = n.attr("defaultIfNotSpecified")
	return a, nil
}

// boolAttr parses an optional boolean attribute strictly.
func boolAttr(file string, n *node, name string) (bool, error) {
	v, ok := n.attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, NewParseError(file, n.line, n.name, fmt.Sprintf("invalid %s %q", name, v), nil)
	}
	return b, nil
}

// parseRelationship reads a relationship element. The cardinality comes
// from the cardinality attribute when present and from def otherwise;
// a nil def makes the attribute required.
func parseRelationship(file string, n *node, def *schema.Cardinality) (schema.RawRelationship, error) {
	name, err := required(file, n, "name")
	if err != nil {
		return schema.RawRelationship{}, err
	}
	related, err := required(file, n, "relatedObject")
	if err != nil {
		return schema.RawRelationship{}, err
	}
	r := schema.RawRelationship{Name: name, Related: related, Line: n.line}
	switch v, ok := n.attr("cardinality"); {
	case ok:
		c, err := schema.ParseCardinality(v)
		if err != nil {
			return schema.RawRelationship{}, NewParseError(file, n.line, n.name, err.Error(), nil)
		}
		r.Cardinality = c
	case def != nil:
		r.Cardinality = *def
	default:
		return schema.RawRelationship{}, NewParseError(file, n.line, n.name, `missing required attribute "cardinality"`, nil)
	}
	r.Reverse, _ = n.attr("reverseRelationshipName")
	r.OrderBy, _ = n.attr("orderBy")
	for _, c := range n.children {
		if c.name != "RelationshipParameter" {
			continue
		}
		from, err := required(file, c, "from")
		if err != nil {
			return schema.RawRelationship{}, err
		}
		to, err := required(file, c, "to")
		if err != nil {
			return schema.RawRelationship{}, err
		}
		r.Parameters = append(r.Parameters, schema.JoinParameter{From: from, To: to})
	}
	if len(r.Parameters) == 0 && n.content() != "" {
		params, err := parseJoin(n.content())
		if err != nil {
			return schema.RawRelationship{}, NewParseError(file, n.line, n.name, err.Error(), nil)
		}
		r.Parameters = params
	}
	return r, nil
}

var (
	joinSplit = regexp.MustCompile(`(?i)\s+and\s+`)
	joinTerm  = regexp.MustCompile(`^this\.(\w+)\s*=\s*\w+\.(\w+)$`)
)

// parseJoin parses a join expression of the form
// "this.a = Other.b and this.c = Other.d".
func parseJoin(expr string) ([]schema.JoinParameter, error) {
	var params []schema.JoinParameter
	for _, term := range joinSplit.Split(strings.TrimSpace(expr), -1) {
		m := joinTerm.FindStringSubmatch(strings.TrimSpace(term))
		if m == nil {
			return nil, fmt.Errorf("malformed join term %q", term)
		}
		params = append(params, schema.JoinParameter{From: m[1], To: m[2]})
	}
	return params, nil
}

// checkTemporal rejects elements that look like temporal declarations
// but are not AsOfAttribute.
func checkTemporal(file string, n *node) error {
	if strings.HasPrefix(n.name, "AsOf") && n.name != "AsOfAttribute" {
		return NewParseError(file, n.line, n.name, "unknown temporal declaration", nil)
	}
	return nil
}
