package gen

import (
	"path"
	"strings"
	"unicode"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-openapi/inflect"
	"golang.org/x/mod/modfile"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms are kept upper case in Go identifiers.
var initialisms = map[string]bool{
	"api":  true,
	"cpu":  true,
	"css":  true,
	"dns":  true,
	"html": true,
	"http": true,
	"id":   true,
	"ip":   true,
	"json": true,
	"sql":  true,
	"ssn":  true,
	"tcp":  true,
	"ttl":  true,
	"uid":  true,
	"uri":  true,
	"url":  true,
	"utc":  true,
	"uuid": true,
	"xml":  true,
}

// words splits an identifier on separators and case changes:
// "orderID" and "order_id" both give [order ID].
func words(s string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// pascal converts an identifier to an exported Go name.
func pascal(s string) string {
	title := cases.Title(language.English)
	var b strings.Builder
	for _, w := range words(s) {
		lw := strings.ToLower(w)
		if initialisms[lw] {
			b.WriteString(strings.ToUpper(lw))
			continue
		}
		b.WriteString(title.String(lw))
	}
	return b.String()
}

// camel converts an identifier to an unexported Go name.
func camel(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return ""
	}
	return strings.ToLower(ws[0]) + pascal(strings.Join(ws[1:], "_"))
}

// snake converts an identifier to lower snake case, as used for file
// names.
func snake(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

// plural returns the pluralized exported form of a type name.
func plural(s string) string {
	return inflect.Pluralize(pascal(s))
}

// receiver returns the method receiver name of a type.
func receiver(name string) string {
	ws := words(name)
	if len(ws) == 0 {
		return "v"
	}
	r := strings.ToLower(ws[0][:1])
	if r == "q" || r == "r" || r == "e" {
		return "v"
	}
	return r
}

// ResolveImport returns the import path of dir by locating the nearest
// go.mod at or above it.
func ResolveImport(fsys billy.Filesystem, dir string) (string, error) {
	dir = path.Clean(strings.ReplaceAll(dir, "\\", "/"))
	for d := dir; ; d = path.Dir(d) {
		b, err := util.ReadFile(fsys, fsys.Join(d, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(b)
			if mod == "" {
				return "", NewConfigurationError("WrapperImport", d, "go.mod declares no module path")
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(dir, d), "/")
			return path.Join(mod, rel), nil
		}
		if parent := path.Dir(d); parent == d {
			break
		}
	}
	return "", NewConfigurationError("WrapperImport", dir, "no go.mod found above the wrapper directory")
}

// article returns the indefinite article for an identifier, decided by
// its leading letter.
func article(name string) string {
	if name != "" && strings.ContainsRune("AEIOUaeiou", rune(name[0])) {
		return "an"
	}
	return "a"
}
