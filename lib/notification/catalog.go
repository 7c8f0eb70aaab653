// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/text/language"
)

//go:embed locales/*.jsonc
var builtinLocales embed.FS

// Unit is one translation unit: message keys mapped to templates.
// Templates are markdown and may contain {name} placeholders.
type Unit map[string]string

// Catalog holds translation units keyed by BCP 47 tag and picks the
// closest unit for a requested locale. The fallback unit answers
// every key a matched unit lacks.
type Catalog struct {
	units    map[string]Unit
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// DefaultLocale is the fallback unit of the built-in catalog.
var DefaultLocale = language.English

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	catalog, err := loadFS(builtinLocales, "locales")
	if err != nil {
		panic(fmt.Sprintf("notification: built-in locales: %v", err))
	}
	return catalog
}

// LoadDir reads every *.jsonc file in dir. The file name without its
// extension is the locale tag. The directory must contain an English
// unit.
func LoadDir(dir string) (*Catalog, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) (*Catalog, error) {
	paths, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(dir, "*.jsonc")))
	if err != nil {
		return nil, err
	}
	units := make(map[language.Tag]Unit, len(paths))
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".jsonc")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%s: locale %q: %w", path, name, err)
		}
		unit, err := ParseUnit(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		units[tag] = unit
	}
	return NewCatalog(DefaultLocale, units)
}

// ParseUnit decodes a JSONC translation unit.
func ParseUnit(data []byte) (Unit, error) {
	var unit Unit
	if err := json.Unmarshal(jsonc.ToJSON(data), &unit); err != nil {
		return nil, fmt.Errorf("parsing translation unit: %w", err)
	}
	return unit, nil
}

// NewCatalog builds a catalog. units must contain fallback.
func NewCatalog(fallback language.Tag, units map[language.Tag]Unit) (*Catalog, error) {
	byName := make(map[string]Unit, len(units))
	tags := make([]language.Tag, 0, len(units))
	tags = append(tags, fallback)
	for tag, unit := range units {
		byName[tag.String()] = unit
		if tag.String() != fallback.String() {
			tags = append(tags, tag)
		}
	}
	if _, ok := byName[fallback.String()]; !ok {
		return nil, fmt.Errorf("catalog has no %s unit", fallback)
	}
	// The matcher prefers earlier tags on ties; keep the order stable.
	sort.Slice(tags[1:], func(i, j int) bool { return tags[1+i].String() < tags[1+j].String() })
	return &Catalog{
		units:    byName,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}, nil
}

// Locales lists the available tags, fallback first.
func (c *Catalog) Locales() []string {
	names := make([]string, len(c.tags))
	for i, tag := range c.tags {
		names[i] = tag.String()
	}
	return names
}

// Match returns the unit tag closest to locale. An empty or
// unparseable locale, or one with no acceptable match, yields the
// fallback.
func (c *Catalog) Match(locale string) language.Tag {
	if locale == "" {
		return c.fallback
	}
	requested, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(requested) == 0 {
		return c.fallback
	}
	_, index, confidence := c.matcher.Match(requested...)
	if confidence == language.No {
		return c.fallback
	}
	return c.tags[index]
}

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Message is a localized template with its placeholders filled.
type Message struct {
	Locale string
	Text   string
}

// Format looks key up in the unit matching locale, falling back to the
// fallback unit, and substitutes args. Placeholders without an
// argument are left as written. An unknown key is an error.
func (c *Catalog) Format(locale, key string, args map[string]string) (Message, error) {
	tag := c.Match(locale)
	template, ok := c.units[tag.String()][key]
	if !ok {
		tag = c.fallback
		template, ok = c.units[tag.String()][key]
	}
	if !ok {
		return Message{}, fmt.Errorf("no message %q", key)
	}
	text := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		if value, ok := args[match[1:len(match)-1]]; ok {
			return value
		}
		return match
	})
	return Message{Locale: tag.String(), Text: text}, nil
}
