// Package load reads entity schema files into raw entity descriptions.
package load

import (
	"io"
	"strings"

	"github.com/syssam/chrono/schema"
)

// Parser reads one schema document.
type Parser interface {
	// Name identifies the parser in logs and reports.
	Name() string
	// Parse reads the document at file from r.
	Parse(file string, r io.Reader) (*schema.RawEntity, error)
}

// Enhanced parses the attribute-style format where the root element
// carries objectClass, table and readOnly attributes.
type Enhanced struct{}

// Name implements Parser.
func (Enhanced) Name() string { return "enhanced" }

// Parse implements Parser.
func (Enhanced) Parse(file string, r io.Reader) (*schema.RawEntity, error) {
	root, err := decode(file, r)
	if err != nil {
		return nil, err
	}
	if root.name != "MithraObject" {
		return nil, NewParseError(file, root.line, root.name, "unknown root element", nil)
	}
	class, err := required(file, root, "objectClass")
	if err != nil {
		return nil, err
	}
	i := strings.LastIndexByte(class, '.')
	if i <= 0 || i == len(class)-1 {
		return nil, NewParseError(file, root.line, root.name, "objectClass must be a package-qualified class name", nil)
	}
	e := &schema.RawEntity{
		File:     file,
		Package:  class[:i],
		Name:     class[i+1:],
		ReadOnly: root.flag("readOnly"),
	}
	e.SuperClass, _ = root.attr("superClass")
	e.Table = firstNonBlank(attrOf(root, "table"), attrOf(root, "defaultTable"), strings.ToUpper(e.Name))
	for _, c := range root.children {
		if err := checkTemporal(file, c); err != nil {
			return nil, err
		}
		switch c.name {
		case "Attribute":
			a, err := parseAttribute(file, c)
			if err != nil {
				return nil, err
			}
			e.Attributes = append(e.Attributes, a)
		case "AsOfAttribute":
			a, err := parseAsOfAttribute(file, c)
			if err != nil {
				return nil, err
			}
			e.AsOf = append(e.AsOf, a)
		case "Relationship":
			rel, err := parseRelationship(file, c, nil)
			if err != nil {
				return nil, err
			}
			e.Relationships = append(e.Relationships, rel)
		}
	}
	return e, nil
}

// Legacy parses the element-style format with PackageName, ClassName and
// DefaultTable children and one element name per relationship kind.
type Legacy struct{}

// Name implements Parser.
func (Legacy) Name() string { return "legacy" }

// legacyRelationships maps relationship element names to their default
// cardinality.
var legacyRelationships = map[string]schema.Cardinality{
	"Relationship":           schema.ManyToOne,
	"RelationshipOneToOne":   schema.OneToOne,
	"RelationshipOneToMany":  schema.OneToMany,
	"RelationshipManyToMany": schema.ManyToMany,
}

// Parse implements Parser.
func (Legacy) Parse(file string, r io.Reader) (*schema.RawEntity, error) {
	root, err := decode(file, r)
	if err != nil {
		return nil, err
	}
	pkg := root.child("PackageName")
	if pkg == nil {
		return nil, NewParseError(file, root.line, root.name, "PackageName is required", nil)
	}
	class := root.child("ClassName")
	if class == nil || class.content() == "" {
		return nil, NewParseError(file, root.line, root.name, "ClassName is required", nil)
	}
	e := &schema.RawEntity{
		File:    file,
		Package: pkg.content(),
		Name:    class.content(),
	}
	e.Table = strings.ToUpper(e.Name)
	if t := root.child("DefaultTable"); t != nil && t.content() != "" {
		e.Table = t.content()
	}
	if sc := root.child("SuperClass"); sc != nil {
		e.SuperClass = sc.content()
	}
	e.DeclaredType = objectType(attrOf(root, "objectType"))
	for _, c := range root.children {
		if err := checkTemporal(file, c); err != nil {
			return nil, err
		}
		if card, ok := legacyRelationships[c.name]; ok {
			rel, err := parseRelationship(file, c, &card)
			if err != nil {
				return nil, err
			}
			e.Relationships = append(e.Relationships, rel)
			continue
		}
		switch c.name {
		case "Attribute":
			a, err := parseAttribute(file, c)
			if err != nil {
				return nil, err
			}
			e.Attributes = append(e.Attributes, a)
		case "AsOfAttribute":
			a, err := parseAsOfAttribute(file, c)
			if err != nil {
				return nil, err
			}
			e.AsOf = append(e.AsOf, a)
		}
	}
	return e, nil
}

// objectType normalises the legacy objectType attribute. Unknown values
// are treated as undeclared.
func objectType(v string) string {
	switch s := strings.ToLower(strings.TrimSpace(v)); s {
	case "transactional", "dated-transactional", "dated-read-only":
		return s
	case "read-only", "readonly":
		return "read-only"
	}
	return ""
}

func attrOf(n *node, name string) string {
	v, _ := n.attr(name)
	return strings.TrimSpace(v)
}

func firstNonBlank(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
