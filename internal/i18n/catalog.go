// Package i18n provides message catalogs for localized validation text.
//
// Catalogs are TOML files named after their language tag. Nested tables
// flatten into dotted keys:
//
//	# locales/fr.toml
//	[age]
//	adult = "doit être majeur"
//
// is looked up as "age.adult".
package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Catalog maps language tags to messages. The first language added is
// the fallback for missing keys and unmatched preferences.
type Catalog struct {
	tags     []language.Tag
	messages map[language.Tag]map[string]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{messages: make(map[language.Tag]map[string]string)}
}

// Add merges messages for tag.
func (c *Catalog) Add(tag language.Tag, messages map[string]string) {
	m, ok := c.messages[tag]
	if !ok {
		m = make(map[string]string, len(messages))
		c.messages[tag] = m
		c.tags = append(c.tags, tag)
	}
	for k, v := range messages {
		m[k] = v
	}
}

// Tags returns the catalog's languages in the order they were added.
func (c *Catalog) Tags() []language.Tag {
	out := make([]language.Tag, len(c.tags))
	copy(out, c.tags)
	return out
}

// LoadFile reads one TOML catalog. The language tag is the file's base
// name without extension.
func (c *Catalog) LoadFile(fsys fs.FS, name string) error {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	tag, err := language.Parse(base)
	if err != nil {
		return fmt.Errorf("catalog %s: bad language tag %q: %w", name, base, err)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("reading catalog %s: %w", name, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing catalog %s: %w", name, err)
	}

	messages := make(map[string]string)
	flatten("", raw, messages)
	c.Add(tag, messages)
	return nil
}

// LoadDir reads every *.toml file in dir, in name order.
func (c *Catalog) LoadDir(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading catalog dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".toml" {
			continue
		}
		if err := c.LoadFile(fsys, path.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Translator returns a translator for the best match among prefs. Each
// pref is a BCP 47 tag or an Accept-Language string. Unparseable prefs
// are ignored.
func (c *Catalog) Translator(prefs ...string) *Translator {
	t := &Translator{catalog: c}
	if len(c.tags) == 0 {
		return t
	}

	var want []language.Tag
	for _, p := range prefs {
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		want = append(want, tags...)
	}

	t.tag = c.tags[0]
	if len(want) > 0 {
		_, idx, conf := language.NewMatcher(c.tags).Match(want...)
		if conf != language.No {
			t.tag = c.tags[idx]
		}
	}
	return t
}

// Translator resolves keys for one language.
type Translator struct {
	catalog *Catalog
	tag     language.Tag
}

// Tag returns the language the translator resolved to.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// T returns the message for key in the translator's language, then in
// the catalog's fallback language, then key itself.
func (t *Translator) T(key string) string {
	if t == nil || t.catalog == nil {
		return key
	}
	if s, ok := t.catalog.messages[t.tag][key]; ok {
		return s
	}
	if len(t.catalog.tags) > 0 {
		if s, ok := t.catalog.messages[t.catalog.tags[0]][key]; ok {
			return s
		}
	}
	return key
}

// Keys returns every key known in the translator's language, sorted.
func (t *Translator) Keys() []string {
	m := t.catalog.messages[t.tag]
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch x := v.(type) {
		case map[string]any:
			flatten(key, x, out)
		case string:
			out[key] = x
		default:
			out[key] = fmt.Sprint(x)
		}
	}
}
