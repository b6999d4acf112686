// Package prefix converts between CURIEs and full URIs using a named prefix context.
package prefix

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultContext is the prefix context served by the API.
const DefaultContext = "go"

//go:embed contexts/*.yaml
var contextFiles embed.FS

// remappings fix bases the upstream context gets wrong for GO data.
// See https://github.com/geneontology/go-site/issues/2000.
var remappings = map[string]string{
	"MGI": "http://identifiers.org/mgi/MGI:",
}

var curiePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*:[^\s:/][^\s]*$`)

type contextFile struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Prefixes    map[string]string `yaml:"prefixes"`
}

// LoadContext reads an embedded prefix context by name.
func LoadContext(name string) (map[string]string, error) {
	data, err := contextFiles.ReadFile("contexts/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown prefix context %q: %w", name, err)
	}
	var ctx contextFile
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("failed to parse prefix context %q: %w", name, err)
	}
	if len(ctx.Prefixes) == 0 {
		return nil, fmt.Errorf("prefix context %q is empty", name)
	}
	return ctx.Prefixes, nil
}

// RemapPrefixes applies the GO specific corrections to a prefix map in place.
func RemapPrefixes(prefixMap map[string]string) map[string]string {
	for p, base := range remappings {
		prefixMap[p] = base
	}
	return prefixMap
}

type entry struct {
	prefix string
	base   string
}

// Converter expands CURIEs and contracts URIs. It is immutable and safe for
// concurrent use.
type Converter struct {
	prefixMap map[string]string
	// bases ordered longest first so contraction prefers the most specific prefix
	bases []entry
}

// NewConverter builds a converter over a prefix map.
func NewConverter(prefixMap map[string]string) *Converter {
	c := &Converter{
		prefixMap: make(map[string]string, len(prefixMap)),
		bases:     make([]entry, 0, len(prefixMap)),
	}
	for p, base := range prefixMap {
		c.prefixMap[p] = base
		c.bases = append(c.bases, entry{prefix: p, base: base})
	}
	sort.Slice(c.bases, func(i, j int) bool {
		if len(c.bases[i].base) != len(c.bases[j].base) {
			return len(c.bases[i].base) > len(c.bases[j].base)
		}
		return c.bases[i].prefix < c.bases[j].prefix
	})
	return c
}

// New loads the named context, applies the GO remappings and then overrides.
// Override keys match existing prefixes case-insensitively, since configuration
// sources may fold key case.
func New(contextName string, overrides map[string]string) (*Converter, error) {
	if contextName == "" {
		contextName = DefaultContext
	}
	prefixMap, err := LoadContext(contextName)
	if err != nil {
		return nil, err
	}
	RemapPrefixes(prefixMap)

	if len(overrides) > 0 {
		byLower := make(map[string]string, len(prefixMap))
		for p := range prefixMap {
			byLower[strings.ToLower(p)] = p
		}
		for p, base := range overrides {
			if existing, ok := byLower[strings.ToLower(p)]; ok {
				p = existing
			}
			prefixMap[p] = base
		}
	}
	return NewConverter(prefixMap), nil
}

// Prefixes returns every known prefix, sorted.
func (c *Converter) Prefixes() []string {
	out := make([]string, 0, len(c.prefixMap))
	for p := range c.prefixMap {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Expand returns the URI of a CURIE. Input without a known prefix is returned unchanged.
func (c *Converter) Expand(curie string) string {
	p, local, ok := strings.Cut(curie, ":")
	if !ok {
		return curie
	}
	base, ok := c.prefixMap[p]
	if !ok {
		return curie
	}
	return base + local
}

// Contract returns every CURIE form of a URI, most specific prefix first.
func (c *Converter) Contract(uri string) []string {
	out := []string{}
	for _, e := range c.bases {
		if strings.HasPrefix(uri, e.base) {
			out = append(out, e.prefix+":"+strings.TrimPrefix(uri, e.base))
		}
	}
	return out
}

// PrefixMap returns a copy of the prefix to URI base mapping.
func (c *Converter) PrefixMap() map[string]string {
	out := make(map[string]string, len(c.prefixMap))
	for p, base := range c.prefixMap {
		out[p] = base
	}
	return out
}

// IsCURIE reports whether s looks like prefix:local rather than a URI.
func IsCURIE(s string) bool {
	return curiePattern.MatchString(s)
}
