package uci

import (
	"fmt"
	"hash/fnv"
	"slices"
)

// Option is a named Value inside a Section.
type Option struct {
	name  string
	value Value
}

// Name returns the option name.
func (o *Option) Name() string { return o.name }

// Value returns the option value.
func (o *Option) Value() Value { return o.value }

// Section is a typed, ordered collection of options. Anonymous sections carry
// a generated id in place of a name.
type Section struct {
	typ       string
	name      string
	anonymous bool
	options   []*Option
}

// Type returns the section type.
func (s *Section) Type() string { return s.typ }

// Name returns the section name, or the generated id of an anonymous section.
func (s *Section) Name() string { return s.name }

// Anonymous reports whether the section was declared without a name.
func (s *Section) Anonymous() bool { return s.anonymous }

// Options returns the options in declaration order.
func (s *Section) Options() []*Option {
	return slices.Clone(s.options)
}

// Option returns the named option or nil.
func (s *Section) Option(name string) *Option {
	for _, opt := range s.options {
		if opt.name == name {
			return opt
		}
	}

	return nil
}

// Values returns the options as a name → Value mapping.
func (s *Section) Values() SectionValues {
	values := make(SectionValues, len(s.options))
	for _, opt := range s.options {
		values[opt.name] = opt.value
	}

	return values
}

func (s *Section) setOption(name string, value Value) {
	if opt := s.Option(name); opt != nil {
		opt.value = value

		return
	}

	s.options = append(s.options, &Option{name: name, value: value})
}

func (s *Section) removeOption(name string) bool {
	for i, opt := range s.options {
		if opt.name == name {
			s.options = slices.Delete(s.options, i, i+1)

			return true
		}
	}

	return false
}

// SectionValues maps option names to values.
type SectionValues map[string]Value

// PackageValues maps section names (or anonymous ids) to their options.
type PackageValues map[string]SectionValues

// Package is one config file: an ordered list of sections plus the delta of
// changes not yet committed to confdir.
type Package struct {
	name     string
	path     string
	sections []*Section
	delta    []Change
	anonSeq  int
}

func newPackage(name, path string) *Package {
	return &Package{name: name, path: path}
}

// Name returns the package name.
func (p *Package) Name() string { return p.name }

// Path returns the config file the package was loaded from or will be committed to.
func (p *Package) Path() string { return p.path }

// Sections returns the sections in order.
func (p *Package) Sections() []*Section {
	return slices.Clone(p.sections)
}

// Section returns the section with the given name or anonymous id, or nil.
func (p *Package) Section(name string) *Section {
	for _, sec := range p.sections {
		if sec.name == name {
			return sec
		}
	}

	return nil
}

// Changes returns a copy of the pending delta.
func (p *Package) Changes() []Change {
	return slices.Clone(p.delta)
}

// Values returns the whole package as a nested mapping.
func (p *Package) Values() PackageValues {
	values := make(PackageValues, len(p.sections))
	for _, sec := range p.sections {
		values[sec.name] = sec.Values()
	}

	return values
}

func (p *Package) indexOf(sec *Section) int {
	return slices.Index(p.sections, sec)
}

// find resolves a section selector. Extended selectors index sections of the
// matching type (all sections for an empty type, anonymous ones for a bare
// index); negative indexes count from the end.
func (p *Package) find(sel selector) *Section {
	if !sel.ext {
		return p.Section(sel.name)
	}

	matches := p.sections
	if sel.typ != "" || sel.anonymous {
		matches = make([]*Section, 0, len(p.sections))

		for _, sec := range p.sections {
			if (sel.typ == "" || sec.typ == sel.typ) && (!sel.anonymous || sec.anonymous) {
				matches = append(matches, sec)
			}
		}
	}

	idx := sel.index
	if idx < 0 {
		idx += len(matches)
	}

	if idx < 0 || idx >= len(matches) {
		return nil
	}

	return matches[idx]
}

// nextAnonymousID generates the id for a new anonymous section of typ. The id
// depends only on the package's anonymous-section count and the type, so the
// same file always yields the same ids.
func (p *Package) nextAnonymousID(typ string) string {
	return p.anonymousID(typ, p.sections)
}

func (p *Package) anonymousID(typ string, taken []*Section) string {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(typ))
	suffix := hash.Sum32() & 0xffff

	for {
		p.anonSeq++

		id := fmt.Sprintf("cfg%02x%04x", p.anonSeq, suffix)
		if !slices.ContainsFunc(taken, func(sec *Section) bool { return sec.name == id }) {
			return id
		}
	}
}

// renumber regenerates the anonymous ids in section order, as parsing the
// committed file would.
func (p *Package) renumber() {
	p.anonSeq = 0

	for i, sec := range p.sections {
		if sec.anonymous {
			sec.name = p.anonymousID(sec.typ, p.sections[:i])
		}
	}
}

func (p *Package) addSection(typ, name string, anonymous bool) *Section {
	sec := &Section{typ: typ, name: name, anonymous: anonymous}
	p.sections = append(p.sections, sec)

	return sec
}

func (p *Package) removeSection(sec *Section) {
	if idx := p.indexOf(sec); idx >= 0 {
		p.sections = slices.Delete(p.sections, idx, idx+1)
	}
}

// moveSection moves sec to pos, clamped to the valid range, and returns the final position.
func (p *Package) moveSection(sec *Section, pos int) int {
	idx := p.indexOf(sec)
	if idx < 0 {
		return -1
	}

	pos = max(0, min(pos, len(p.sections)-1))
	p.sections = slices.Delete(p.sections, idx, idx+1)
	p.sections = slices.Insert(p.sections, pos, sec)

	return pos
}

func (p *Package) tainted() bool {
	return len(p.delta) > 0
}
