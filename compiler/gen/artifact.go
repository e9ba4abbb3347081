package gen

import (
	"path"
)

// ArtifactKind identifies what an artifact holds.
type ArtifactKind uint8

// Artifact kinds.
const (
	KindWrapper ArtifactKind = iota
	KindRepository
	KindQuery
	KindDDL
	KindGraphQL
)

var kindNames = [...]string{
	KindWrapper:    "wrapper",
	KindRepository: "repository",
	KindQuery:      "query helper",
	KindDDL:        "ddl",
	KindGraphQL:    "graphql",
}

// String returns the kind name.
func (k ArtifactKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// suffix returns the file name suffix of the kind.
func (k ArtifactKind) suffix() string {
	switch k {
	case KindRepository:
		return "_repository.go"
	case KindQuery:
		return "_query.go"
	case KindDDL:
		return ".sql"
	case KindGraphQL:
		return ".graphql"
	default:
		return ".go"
	}
}

// Artifact is one generated file.
type Artifact struct {
	Kind ArtifactKind
	// Entity is the type name the artifact was generated from.
	Entity string
	// Dir is the output directory and Name the file name within it.
	Dir     string
	Name    string
	Content []byte
}

// Path returns the output path of the artifact.
func (a *Artifact) Path() string {
	return path.Join(a.Dir, a.Name)
}

// FileName returns the deterministic file name of an artifact of kind k
// generated for the entity type name.
func FileName(k ArtifactKind, name string) string {
	return snake(name) + k.suffix()
}
