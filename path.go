package uci

import (
	"strconv"
	"strings"
)

// Path addresses a package, a section in it, or an option in that section.
// Section may be a name, an anonymous id, "@type[index]", "@[index]" or a bare
// index, which counts anonymous sections only.
type Path struct {
	Package string
	Section string
	Option  string
}

// ParsePath splits "package[.section[.option]]" on its first two dots.
func ParsePath(s string) (Path, error) {
	parts := strings.SplitN(s, ".", 3)

	var path Path

	path.Package = parts[0]
	if len(parts) > 1 {
		path.Section = parts[1]
	}

	if len(parts) > 2 {
		path.Option = parts[2]
	}

	if err := path.validate(); err != nil {
		return Path{}, err
	}

	if len(parts) > 1 && path.Section == "" {
		return Path{}, newError(KindInvalidArgument, "empty section in %q", s)
	}

	if len(parts) > 2 && path.Option == "" {
		return Path{}, newError(KindInvalidArgument, "empty option in %q", s)
	}

	return path, nil
}

// PathOf builds a Path from one dotted string or from one to three discrete components.
func PathOf(components ...string) (Path, error) {
	switch len(components) {
	case 1:
		return ParsePath(components[0])
	case 2, 3:
		path := Path{Package: components[0], Section: components[1]}
		if len(components) == 3 {
			path.Option = components[2]
		}

		if path.Section == "" || (len(components) == 3 && path.Option == "") {
			return Path{}, newError(KindInvalidArgument, "empty path component in %q", components)
		}

		if err := path.validate(); err != nil {
			return Path{}, err
		}

		return path, nil
	default:
		return Path{}, newError(KindInvalidArgument, "expected 1 to 3 path components, got %d", len(components))
	}
}

// String renders the dotted form.
func (p Path) String() string {
	var b strings.Builder

	b.WriteString(p.Package)

	if p.Section != "" {
		b.WriteByte('.')
		b.WriteString(p.Section)
	}

	if p.Option != "" {
		b.WriteByte('.')
		b.WriteString(p.Option)
	}

	return b.String()
}

func (p Path) validate() error {
	if !validPackageName(p.Package) {
		return newError(KindInvalidArgument, "invalid package name %q", p.Package)
	}

	if p.Section != "" {
		if _, err := parseSelector(p.Section); err != nil {
			return err
		}
	}

	if p.Option != "" && !validName(p.Option) {
		return newError(KindInvalidArgument, "invalid option name %q", p.Option)
	}

	if p.Section == "" && p.Option != "" {
		return newError(KindInvalidArgument, "option %q given without a section", p.Option)
	}

	return nil
}

// selector is a parsed section component.
type selector struct {
	name      string
	ext       bool
	anonymous bool
	typ       string
	index     int
}

func parseSelector(s string) (selector, error) {
	if rest, ok := strings.CutPrefix(s, "@"); ok {
		open := strings.IndexByte(rest, '[')
		if open < 0 || !strings.HasSuffix(rest, "]") {
			return selector{}, newError(KindInvalidArgument, "malformed section selector %q", s)
		}

		typ := rest[:open]
		if typ != "" && !validTypeName(typ) {
			return selector{}, newError(KindInvalidArgument, "invalid section type %q", typ)
		}

		idx, err := strconv.Atoi(rest[open+1 : len(rest)-1])
		if err != nil {
			return selector{}, newError(KindInvalidArgument, "invalid section index in %q", s)
		}

		return selector{ext: true, typ: typ, index: idx}, nil
	}

	if idx, err := strconv.Atoi(s); err == nil {
		return selector{ext: true, anonymous: true, index: idx}, nil
	}

	if !validName(s) {
		return selector{}, newError(KindInvalidArgument, "invalid section name %q", s)
	}

	return selector{name: s}, nil
}

// validName accepts section and option names: [A-Za-z0-9_]+.
func validName(s string) bool {
	return validChars(s, false)
}

// validPackageName and validTypeName additionally accept '-'. A package name
// must not start with it, as a delta line would read as a delete.
func validPackageName(s string) bool {
	return !strings.HasPrefix(s, "-") && validChars(s, true)
}

func validTypeName(s string) bool {
	return validChars(s, true)
}

func validChars(s string, dash bool) bool {
	if s == "" {
		return false
	}

	for i := range len(s) {
		c := s[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		case c == '-' && dash:
		default:
			return false
		}
	}

	return true
}

// ElementKind names the deepest element a Pointer resolved to.
type ElementKind int

const (
	// ElementNone means nothing resolved.
	ElementNone ElementKind = iota
	// ElementPackage is a package.
	ElementPackage
	// ElementSection is a section.
	ElementSection
	// ElementOption is an option.
	ElementOption
)

func (k ElementKind) String() string {
	switch k {
	case ElementPackage:
		return "package"
	case ElementSection:
		return "section"
	case ElementOption:
		return "option"
	default:
		return "none"
	}
}

// Pointer is the result of resolving a Path. Complete is true only when every
// named component exists; otherwise the pointer holds the deepest resolved ancestor.
type Pointer struct {
	Path
	Complete bool

	pkg *Package
	sec *Section
	opt *Option
}

// Resolved returns the kind of the deepest element found.
func (p Pointer) Resolved() ElementKind {
	switch {
	case p.opt != nil:
		return ElementOption
	case p.sec != nil:
		return ElementSection
	case p.pkg != nil:
		return ElementPackage
	default:
		return ElementNone
	}
}

// Target returns the kind of element the path names, resolved or not.
func (p Pointer) Target() ElementKind {
	switch {
	case p.Option != "":
		return ElementOption
	case p.Section != "":
		return ElementSection
	default:
		return ElementPackage
	}
}

// SectionName returns the name (or anonymous id) of the resolved section.
func (p Pointer) SectionName() string {
	if p.sec == nil {
		return ""
	}

	return p.sec.name
}

// SectionType returns the type of the resolved section.
func (p Pointer) SectionType() string {
	if p.sec == nil {
		return ""
	}

	return p.sec.typ
}

// Value returns the value of the resolved option.
func (p Pointer) Value() (Value, bool) {
	if p.opt == nil {
		return Value{}, false
	}

	return p.opt.value, true
}
