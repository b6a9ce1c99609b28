// Package hostprofile holds the per-host compatibility settings adapters
// apply once they know the host's product name.
package hostprofile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mobius-looper/mobius-sub008/pkg/adapter"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

//go:embed defaults.toml
var defaults []byte

// DefaultName names the profile used when no host profile matches.
const DefaultName = "default"

// Profile is the compatibility settings for one host family.
type Profile struct {
	Name  string   `toml:"name"`
	Match []string `toml:"match"`

	RewindsOnResume bool `toml:"rewinds_on_resume"`
	PPQTransport    bool `toml:"ppq_transport"`
	SampleTransport bool `toml:"sample_transport"`
	DuplicateLimit  int  `toml:"duplicate_limit"`

	TempoCheckInterval int `toml:"tempo_check_interval"`
	MaxFrames          int `toml:"max_frames"`
	// Suspended is "silence", "passthrough" or empty for the flavor's
	// own policy.
	Suspended string `toml:"suspended"`
}

type file struct {
	Default Profile   `toml:"default"`
	Hosts   []Profile `toml:"host"`
}

// Set is an ordered list of host profiles with a fallback.
type Set struct {
	def   Profile
	hosts []Profile
}

// Defaults returns the built in profiles.
func Defaults() *Set {
	s, err := Parse(defaults)
	if err != nil {
		panic(fmt.Sprintf("hostprofile: built in profiles: %v", err))
	}
	return s
}

// Parse reads a profile file.
func Parse(data []byte) (*Set, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse host profiles: %w", err)
	}
	f.Default.Name = DefaultName

	s := &Set{def: f.Default, hosts: f.Hosts}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the built in profiles overlaid with the file at path. A user
// profile replaces the built in one of the same name; new names are
// matched before the built in ones. A user [default] replaces the built
// in default.
func Load(path string) (*Set, error) {
	base := Defaults()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host profiles: %w", err)
	}
	user, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base.Merge(user, hasDefault(data)), nil
}

// Merge overlays other on s. When withDefault is set other's default
// replaces s's.
func (s *Set) Merge(other *Set, withDefault bool) *Set {
	merged := &Set{def: s.def}
	if withDefault {
		merged.def = other.def
	}

	var added []Profile
	replaced := make(map[string]Profile, len(other.hosts))
	for _, p := range other.hosts {
		if s.index(p.Name) >= 0 {
			replaced[p.Name] = p
		} else {
			added = append(added, p)
		}
	}
	merged.hosts = append(merged.hosts, added...)
	for _, p := range s.hosts {
		if r, ok := replaced[p.Name]; ok {
			p = r
		}
		merged.hosts = append(merged.hosts, p)
	}
	return merged
}

func hasDefault(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	_, ok := raw[DefaultName]
	return ok
}

func (s *Set) validate() error {
	var errs []error
	check := func(p Profile) {
		if p.PPQTransport && p.SampleTransport {
			errs = append(errs, fmt.Errorf("profile %q: ppq_transport and sample_transport are exclusive", p.Name))
		}
		if p.DuplicateLimit < 0 || p.TempoCheckInterval < 0 || p.MaxFrames < 0 {
			errs = append(errs, fmt.Errorf("profile %q: negative limit", p.Name))
		}
		switch p.Suspended {
		case "", "silence", "passthrough":
		default:
			errs = append(errs, fmt.Errorf("profile %q: unknown suspended policy %q", p.Name, p.Suspended))
		}
	}

	check(s.def)
	seen := make(map[string]bool, len(s.hosts))
	for _, p := range s.hosts {
		switch {
		case p.Name == "" || p.Name == DefaultName:
			errs = append(errs, fmt.Errorf("host profile needs a name other than %q", DefaultName))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("profile %q defined twice", p.Name))
		case len(p.Match) == 0:
			errs = append(errs, fmt.Errorf("profile %q has no match patterns", p.Name))
		}
		seen[p.Name] = true
		check(p)
	}
	return errors.Join(errs...)
}

func (s *Set) index(name string) int {
	return slices.IndexFunc(s.hosts, func(p Profile) bool { return p.Name == name })
}

// Match returns the profile for a host product name with defaults filled
// in. An empty or unknown name gets the default profile.
func (s *Set) Match(product string) Profile {
	product = strings.ToLower(product)
	if product != "" {
		for _, p := range s.hosts {
			for _, m := range p.Match {
				if m != "" && strings.Contains(product, strings.ToLower(m)) {
					return s.inherit(p)
				}
			}
		}
	}
	return s.def
}

// Lookup returns the named profile with defaults filled in.
func (s *Set) Lookup(name string) (Profile, bool) {
	if name == DefaultName {
		return s.def, true
	}
	if i := s.index(name); i >= 0 {
		return s.inherit(s.hosts[i]), true
	}
	return Profile{}, false
}

// Profiles returns the default followed by every host profile in match
// order, with defaults filled in.
func (s *Set) Profiles() []Profile {
	all := []Profile{s.def}
	for _, p := range s.hosts {
		all = append(all, s.inherit(p))
	}
	return all
}

func (s *Set) inherit(p Profile) Profile {
	if p.DuplicateLimit == 0 {
		p.DuplicateLimit = s.def.DuplicateLimit
	}
	if p.TempoCheckInterval == 0 {
		p.TempoCheckInterval = s.def.TempoCheckInterval
	}
	if p.MaxFrames == 0 {
		p.MaxFrames = s.def.MaxFrames
	}
	if p.Suspended == "" {
		p.Suspended = s.def.Suspended
	}
	return p
}

// Sync returns the synchronization flags of the profile.
func (p Profile) Sync() hostsync.Config {
	return hostsync.Config{
		RewindsOnResume: p.RewindsOnResume,
		PPQTransport:    p.PPQTransport,
		SampleTransport: p.SampleTransport,
		DuplicateLimit:  p.DuplicateLimit,
	}
}

// Apply writes the profile into adapter options. Settings the profile
// leaves at zero keep the options' values.
func (p Profile) Apply(opts *adapter.Options) {
	opts.Sync = p.Sync()
	if p.TempoCheckInterval > 0 {
		opts.TempoCheckInterval = p.TempoCheckInterval
	}
	if p.MaxFrames > 0 {
		opts.MaxFrames = p.MaxFrames
	}
	switch p.Suspended {
	case "silence":
		opts.Suspended = adapter.SuspendedSilence
	case "passthrough":
		opts.Suspended = adapter.SuspendedPassthrough
	}
}
