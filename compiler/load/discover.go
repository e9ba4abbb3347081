package load

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/syssam/chrono/schema"
)

// ManifestFile is the name of the optional file listing the schemas of a
// directory in generation order.
const ManifestFile = "MithraClassList.xml"

// Discovery is the result of scanning a schema directory.
type Discovery struct {
	// Dir is the scanned directory.
	Dir string
	// Files holds the schema files to process, in order.
	Files []string
	// Manifest reports whether the order came from ManifestFile.
	Manifest bool
	// Missing lists manifest entries without a matching file.
	Missing []string
	// ManifestErr is set when a manifest exists but could not be read.
	// Discovery then falls back to listing the directory.
	ManifestErr error
}

// Discover lists the schema files of dir. When dir holds a manifest, its
// entries select and order the files; otherwise every *.xml file except
// the manifest is returned in lexical order. An unreadable directory is
// reported as an error with an empty Discovery.
func Discover(fsys billy.Filesystem, dir string) (*Discovery, error) {
	d := &Discovery{Dir: dir}
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return d, fmt.Errorf("load: reading schema directory %q: %w", dir, err)
	}
	present := make(map[string]bool, len(infos))
	var all []string
	for _, fi := range infos {
		if fi.IsDir() || !strings.EqualFold(path.Ext(fi.Name()), ".xml") {
			continue
		}
		present[fi.Name()] = true
		if fi.Name() != ManifestFile {
			all = append(all, fi.Name())
		}
	}
	if present[ManifestFile] {
		names, err := readManifest(fsys, fsys.Join(dir, ManifestFile))
		if err == nil {
			d.Manifest = true
			for _, n := range names {
				file := n + ".xml"
				if !present[file] {
					d.Missing = append(d.Missing, n)
					continue
				}
				d.Files = append(d.Files, fsys.Join(dir, file))
			}
			return d, nil
		}
		d.ManifestErr = err
	}
	sort.Strings(all)
	for _, n := range all {
		d.Files = append(d.Files, fsys.Join(dir, n))
	}
	return d, nil
}

// readManifest returns the entity names listed by a manifest, in order
// and without duplicates.
func readManifest(fsys billy.Filesystem, file string) ([]string, error) {
	b, err := util.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}
	root, err := decode(file, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var (
		names []string
		seen  = make(map[string]bool)
	)
	for _, c := range root.children {
		if c.name != "MithraObject" && c.name != "MithraObjectResource" {
			continue
		}
		name, err := required(file, c, "name")
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// ParseFile reads file from fsys with p. Read failures are returned
// unchanged so callers can tell them apart from a ParseError.
func ParseFile(fsys billy.Filesystem, file string, p Parser) (*schema.RawEntity, error) {
	b, err := util.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}
	return p.Parse(file, bytes.NewReader(b))
}
