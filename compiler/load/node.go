package load

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node is an element of a parsed schema document.
type node struct {
	name     string
	attrs    map[string]string
	children []*node
	text     strings.Builder
	line     int
}

// attr returns the attribute value and whether it was present.
func (n *node) attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// flag reports whether a boolean attribute is "true".
func (n *node) flag(name string) bool {
	v, _ := n.attr(name)
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// child returns the first direct child with the given name.
func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// content returns the trimmed character data of the element.
func (n *node) content() string {
	return strings.TrimSpace(n.text.String())
}

// decode reads a whole document into a node tree, recording the line of
// every start element.
func decode(file string, r io.Reader) (*node, error) {
	d := xml.NewDecoder(r)
	var (
		root  *node
		stack []*node
	)
	for {
		line, _ := d.InputPos()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var serr *xml.SyntaxError
			if errors.As(err, &serr) {
				return nil, NewParseError(file, serr.Line, "", serr.Msg, nil)
			}
			return nil, NewParseError(file, line, "", "malformed document", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr)), line: line}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, NewParseError(file, line, n.name, "multiple root elements", nil)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, NewParseError(file, 0, "", "empty document", nil)
	}
	return root, nil
}

// required returns the value of a present attribute or a ParseError naming it.
func required(file string, n *node, name string) (string, error) {
	v, ok := n.attr(name)
	if !ok {
		return "", NewParseError(file, n.line, n.name, fmt.Sprintf("missing required attribute %q", name), nil)
	}
	return v, nil
}
