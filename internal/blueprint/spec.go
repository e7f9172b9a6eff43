// Package blueprint declares node trees in YAML or TOML and builds them.
//
// A blueprint describes one node and its children:
//
//	id: signup
//	validations:
//	  email.value: {required: true, pattern: "^[^@]+@[^@]+$"}
//	observe: ["*.field"]
//	children:
//	  - id: email
//	    roles: [field, email]
//	    attributes: [value]
package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Spec is the declarative form of one node.
type Spec struct {
	ID          string                    `yaml:"id" toml:"id"`
	Roles       []string                  `yaml:"roles" toml:"roles"`
	Attributes  []string                  `yaml:"attributes" toml:"attributes"`
	Defaults    map[string]any            `yaml:"defaults" toml:"defaults"`
	Values      map[string]any            `yaml:"values" toml:"values"`
	Validations map[string]map[string]any `yaml:"validations" toml:"validations"`
	Lockable    []string                  `yaml:"lockable" toml:"lockable"`
	Observe     []string                  `yaml:"observe" toml:"observe"`
	Children    []*Spec                   `yaml:"children" toml:"children"`
}

// Count returns the number of nodes the spec describes.
func (s *Spec) Count() int {
	n := 1
	for _, c := range s.Children {
		n += c.Count()
	}
	return n
}

// Format identifies a blueprint encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// FileSystem is the file access the loader needs. fstest.MapFS
// satisfies it.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem on the real file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Load reads and decodes the blueprint at path.
func Load(fsys FileSystem, path string) (*Spec, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blueprint %s: %w", path, err)
	}
	spec, err := Decode(data, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return spec, nil
}

// Decode parses data in the given format and checks the result.
func Decode(data []byte, format Format) (*Spec, error) {
	spec := &Spec{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(spec); err != nil {
			return nil, &ParseError{Path: "<yaml>", Message: err.Error(), Err: err}
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(spec); err != nil {
			pe := &ParseError{Path: "<toml>", Message: err.Error(), Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				pe.Line, pe.Column = de.Position()
			}
			return nil, pe
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := spec.Check(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Check reports structural problems: children without ids, duplicate
// sibling ids, and values or defaults for undeclared attributes.
func (s *Spec) Check() error {
	return s.check("")
}

func (s *Spec) check(parent string) error {
	where := s.ID
	if parent != "" {
		where = parent + "/" + s.ID
	}
	if parent != "" && s.ID == "" {
		return fmt.Errorf("%w: child of %s has no id", ErrInvalidSpec, parent)
	}

	declared := make(map[string]bool, len(s.Attributes))
	for _, a := range s.Attributes {
		declared[a] = true
	}
	for _, m := range []map[string]any{s.Defaults, s.Values} {
		for k := range m {
			if !declared[k] {
				return fmt.Errorf("%w: %s sets undeclared attribute %q", ErrInvalidSpec, where, k)
			}
		}
	}

	seen := make(map[string]bool, len(s.Children))
	for _, c := range s.Children {
		if c == nil {
			return fmt.Errorf("%w: %s has an empty child", ErrInvalidSpec, where)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %s has duplicate child %q", ErrInvalidSpec, where, c.ID)
		}
		seen[c.ID] = true
		if err := c.check(where); err != nil {
			return err
		}
	}
	return nil
}
