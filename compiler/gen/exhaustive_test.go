package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memberCases are the variants every switch over schema members must
// name.
var memberCases = []string{"*schema.Attribute", "*schema.AsOfAttribute", "*schema.Relationship"}

func TestMemberSwitchesAreExhaustive(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	fset := token.NewFileSet()
	found := 0
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		f, err := parser.ParseFile(fset, name, src, 0)
		require.NoError(t, err)
		ast.Inspect(f, func(n ast.Node) bool {
			sw, ok := n.(*ast.TypeSwitchStmt)
			if !ok || !switchesMembers(sw) {
				return true
			}
			found++
			var cases []string
			for _, s := range sw.Body.List {
				for _, e := range s.(*ast.CaseClause).List {
					cases = append(cases, types.ExprString(e))
				}
			}
			for _, want := range memberCases {
				assert.Contains(t, cases, want, "%s: switch misses %s", fset.Position(sw.Pos()), want)
			}
			return true
		})
	}
	assert.GreaterOrEqual(t, found, 5, "expected the view, wrapper, query, ddl and graphql switches")
}

// switchesMembers reports whether any case of sw names a schema member
// type.
func switchesMembers(sw *ast.TypeSwitchStmt) bool {
	for _, s := range sw.Body.List {
		for _, e := range s.(*ast.CaseClause).List {
			for _, c := range memberCases {
				if types.ExprString(e) == c {
					return true
				}
			}
		}
	}
	return false
}
