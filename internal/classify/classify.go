// Package classify decides which search candidates are basketball venues and
// assigns venue type and access labels from ordered pattern lists.
package classify

import (
	_ "embed"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/courtscout/internal/venue"
)

//go:embed rules.yaml
var defaultRules []byte

// RulesFile is the YAML layout of a classification rule set.
type RulesFile struct {
	Exclude        []string                         `yaml:"exclude"`
	Include        []string                         `yaml:"include"`
	AllowTypes     []string                         `yaml:"allow_types"`
	VenueTypes     []TypeGroup                      `yaml:"venue_types"`
	Access         []AccessGroup                    `yaml:"access"`
	AccessDefaults map[venue.VenueType]venue.Access `yaml:"access_defaults"`
}

// TypeGroup maps a set of name patterns to a venue type.
type TypeGroup struct {
	Type     venue.VenueType `yaml:"type"`
	Patterns []string        `yaml:"patterns"`
}

// AccessGroup maps a set of name patterns to an access tier.
type AccessGroup struct {
	Access   venue.Access `yaml:"access"`
	Patterns []string     `yaml:"patterns"`
}

// Decision is the outcome of the inclusion filter.
type Decision struct {
	Accepted bool
	// Reason is "excluded", "included", "type" or "no_match".
	Reason string
	// Pattern is the matching pattern or category tag.
	Pattern string
}

type pattern struct {
	src string
	re  *regexp.Regexp
}

type typeGroup struct {
	vt       venue.VenueType
	patterns []pattern
}

type accessGroup struct {
	access   venue.Access
	patterns []pattern
}

// Classifier applies a compiled rule set. It is safe for concurrent use.
type Classifier struct {
	exclude        []pattern
	include        []pattern
	allowTypes     map[string]bool
	types          []typeGroup
	access         []accessGroup
	accessDefaults map[venue.VenueType]venue.Access
}

// Default returns a Classifier built from the embedded rules.
func Default() (*Classifier, error) {
	return Parse(defaultRules)
}

// Load reads rules from path, or the embedded rules when path is empty.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read rules %s", path)
	}
	return Parse(data)
}

// Parse compiles a YAML rule set.
func Parse(data []byte) (*Classifier, error) {
	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrap(err, "classify: parse rules")
	}
	return New(rf)
}

// New compiles rf. Patterns are case-insensitive.
func New(rf RulesFile) (*Classifier, error) {
	c := &Classifier{
		allowTypes:     make(map[string]bool, len(rf.AllowTypes)),
		accessDefaults: rf.AccessDefaults,
	}

	var err error
	if c.exclude, err = compile(rf.Exclude); err != nil {
		return nil, eris.Wrap(err, "classify: exclude")
	}
	if c.include, err = compile(rf.Include); err != nil {
		return nil, eris.Wrap(err, "classify: include")
	}
	for _, t := range rf.AllowTypes {
		c.allowTypes[strings.ToLower(t)] = true
	}

	for _, g := range rf.VenueTypes {
		if !g.Type.Valid() {
			return nil, eris.Errorf("classify: unknown venue type %q", g.Type)
		}
		ps, err := compile(g.Patterns)
		if err != nil {
			return nil, eris.Wrapf(err, "classify: venue type %s", g.Type)
		}
		c.types = append(c.types, typeGroup{vt: g.Type, patterns: ps})
	}

	for _, g := range rf.Access {
		if !g.Access.Valid() {
			return nil, eris.Errorf("classify: unknown access tier %q", g.Access)
		}
		ps, err := compile(g.Patterns)
		if err != nil {
			return nil, eris.Wrapf(err, "classify: access %s", g.Access)
		}
		c.access = append(c.access, accessGroup{access: g.Access, patterns: ps})
	}

	for vt, a := range c.accessDefaults {
		if !vt.Valid() || !a.Valid() {
			return nil, eris.Errorf("classify: invalid access default %s=%s", vt, a)
		}
	}

	return c, nil
}

func compile(srcs []string) ([]pattern, error) {
	out := make([]pattern, 0, len(srcs))
	for _, s := range srcs {
		re, err := regexp.Compile("(?i)" + s)
		if err != nil {
			return nil, eris.Wrapf(err, "compile %q", s)
		}
		out = append(out, pattern{src: s, re: re})
	}
	return out, nil
}

func firstMatch(ps []pattern, name string) (string, bool) {
	for _, p := range ps {
		if p.re.MatchString(name) {
			return p.src, true
		}
	}
	return "", false
}

// Include runs the inclusion filter: exclusions first, then inclusions, then
// the category-tag allow set.
func (c *Classifier) Include(cand venue.Candidate) Decision {
	if p, ok := firstMatch(c.exclude, cand.Name); ok {
		return Decision{Accepted: false, Reason: "excluded", Pattern: p}
	}
	if p, ok := firstMatch(c.include, cand.Name); ok {
		return Decision{Accepted: true, Reason: "included", Pattern: p}
	}
	for _, t := range cand.Types {
		if c.allowTypes[strings.ToLower(t)] {
			return Decision{Accepted: true, Reason: "type", Pattern: t}
		}
	}
	return Decision{Accepted: false, Reason: "no_match"}
}

// VenueType returns the first matching venue type group, or other.
func (c *Classifier) VenueType(name string) venue.VenueType {
	for _, g := range c.types {
		if _, ok := firstMatch(g.patterns, name); ok {
			return g.vt
		}
	}
	return venue.TypeOther
}

// Access returns the first matching access rule, else the default for vt,
// else public.
func (c *Classifier) Access(name string, vt venue.VenueType) venue.Access {
	for _, g := range c.access {
		if _, ok := firstMatch(g.patterns, name); ok {
			return g.access
		}
	}
	if a, ok := c.accessDefaults[vt]; ok {
		return a
	}
	return venue.AccessPublic
}
