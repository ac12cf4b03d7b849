// Package catalog loads categorization schemes and organization scoped filter
// sets from YAML. The embedded catalog.yaml is the default
package catalog

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"insightsdb/internal/core/categorize"
	"insightsdb/internal/core/criteria"
	perr "insightsdb/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

type rawRule struct {
	Name     string            `yaml:"name"`
	Priority int               `yaml:"priority"`
	Filter   criteria.Criteria `yaml:"filter"`
}

type rawScheme struct {
	Name       string    `yaml:"name"`
	Categories []rawRule `yaml:"categories"`
}

type rawScope struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Criteria criteria.Criteria `yaml:"criteria"`
}

type rawCatalog struct {
	Version       int         `yaml:"version"`
	DefaultScheme string      `yaml:"default_scheme"`
	Schemes       []rawScheme `yaml:"schemes"`
	OrgScopes     []rawScope  `yaml:"org_scopes"`
}

// Catalog is an immutable set of compiled schemes and org scopes
type Catalog struct {
	Version int

	defaultScheme string
	schemes       map[string]*categorize.Scheme
	scopes        map[string]criteria.Scope
}

// Default parses the embedded catalog
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// LoadFile parses the catalog at path; an empty path is the embedded default
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "catalog: read %s", path)
	}
	return Parse(b)
}

// Parse compiles a YAML catalog
func Parse(b []byte) (*Catalog, error) {
	var rc rawCatalog
	if err := yaml.Unmarshal(b, &rc); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "catalog: parse")
	}
	if rc.Version != 1 {
		return nil, perr.Configf("catalog: unsupported version %d (want 1)", rc.Version)
	}

	c := &Catalog{
		Version:       rc.Version,
		defaultScheme: strings.TrimSpace(rc.DefaultScheme),
		schemes:       make(map[string]*categorize.Scheme, len(rc.Schemes)),
		scopes:        make(map[string]criteria.Scope, len(rc.OrgScopes)),
	}

	for _, rs := range rc.Schemes {
		name := strings.TrimSpace(rs.Name)
		if name == "" {
			return nil, perr.Configf("catalog: scheme without a name")
		}
		if _, dup := c.schemes[name]; dup {
			return nil, perr.Configf("catalog: duplicate scheme %q", name)
		}
		rules := make([]categorize.Rule, 0, len(rs.Categories))
		for _, r := range rs.Categories {
			rules = append(rules, categorize.Rule{Name: strings.TrimSpace(r.Name), Priority: r.Priority, Filter: r.Filter})
		}
		s, err := categorize.NewScheme(name, rules)
		if err != nil {
			return nil, perr.WithOp(err, "catalog: scheme "+name)
		}
		c.schemes[name] = s
	}
	if c.defaultScheme != "" {
		if _, ok := c.schemes[c.defaultScheme]; !ok {
			return nil, perr.Configf("catalog: default scheme %q is not defined", c.defaultScheme)
		}
	}

	for _, sc := range rc.OrgScopes {
		id := strings.TrimSpace(sc.ID)
		if id == "" {
			return nil, perr.Configf("catalog: org scope without an id")
		}
		if _, dup := c.scopes[id]; dup {
			return nil, perr.Configf("catalog: duplicate org scope %q", id)
		}
		if len(sc.Criteria.Scopes) > 0 {
			return nil, perr.Configf("catalog: org scope %q cannot nest scopes", id)
		}
		if err := sc.Criteria.Validate(); err != nil {
			return nil, perr.WithOp(err, "catalog: org scope "+id)
		}
		name := sc.Name
		if name == "" {
			name = id
		}
		c.scopes[id] = criteria.Scope{Name: name, Criteria: sc.Criteria}
	}
	return c, nil
}

// Scheme resolves a scheme by name; empty is the default scheme, which may be
// unset, giving the empty scheme. Unknown names are configuration errors
func (c *Catalog) Scheme(name string) (*categorize.Scheme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.defaultScheme
		if name == "" {
			return nil, nil
		}
	}
	s, ok := c.schemes[name]
	if !ok {
		return nil, perr.WithField(perr.Configf("unknown categorization scheme %q", name), "categorization_scheme")
	}
	return s, nil
}

// SchemeNames lists the defined schemes, sorted
func (c *Catalog) SchemeNames() []string {
	out := make([]string, 0, len(c.schemes))
	for n := range c.schemes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ScopeIDs lists the defined org scope ids, sorted
func (c *Catalog) ScopeIDs() []string {
	out := make([]string, 0, len(c.scopes))
	for id := range c.scopes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Scopes resolves org scope ids in the given order; unknown ids are
// configuration errors
func (c *Catalog) Scopes(ids []string) ([]criteria.Scope, error) {
	out := make([]criteria.Scope, 0, len(ids))
	for _, id := range ids {
		sc, ok := c.scopes[strings.TrimSpace(id)]
		if !ok {
			return nil, perr.WithField(perr.Configf("unknown org scope %q", id), "org_scopes")
		}
		out = append(out, criteria.Scope{Name: sc.Name, Criteria: sc.Criteria.Clone()})
	}
	return out, nil
}

// Apply returns a copy of f with the named org scopes unioned into its scopes
func (c *Catalog) Apply(f criteria.Criteria, ids []string) (criteria.Criteria, error) {
	if len(ids) == 0 {
		return f, nil
	}
	scopes, err := c.Scopes(ids)
	if err != nil {
		return f, err
	}
	out := f.Clone()
	out.Scopes = append(out.Scopes, scopes...)
	return out, nil
}
