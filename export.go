package uci

import (
	"fmt"
	"io"
	"strings"
)

// Export writes the named packages (every loaded package when none are given)
// in config file format, each preceded by a "package <name>" line.
func (c *Context) Export(w io.Writer, pkgs ...string) error {
	if err := c.check(); err != nil {
		return err
	}

	if len(pkgs) == 0 {
		pkgs = c.Packages()
	}

	for _, name := range pkgs {
		pkg, err := c.Package(name)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "package %s\n", name); err != nil {
			return storageError(name, "exporting package", err)
		}

		if err := writePackage(w, pkg); err != nil {
			return storageError(name, "exporting package", err)
		}
	}

	return nil
}

// Show renders the addressed element as "path=value" lines: sections as
// "pkg.sec=type" followed by their options, lists as space-separated quoted
// items. Anonymous sections are written as "@type[n]".
func (c *Context) Show(path ...string) ([]string, error) {
	ptr, err := c.Lookup(path...)
	if err != nil {
		return nil, err
	}

	if !ptr.Complete {
		return nil, notFound(ptr.Path)
	}

	var lines []string

	for _, sec := range ptr.pkg.sections {
		if ptr.sec != nil && sec != ptr.sec {
			continue
		}

		prefix := ptr.Package + "." + ptr.pkg.displayName(sec)
		if ptr.opt == nil {
			lines = append(lines, prefix+"="+sec.typ)
		}

		for _, opt := range sec.options {
			if ptr.opt != nil && opt != ptr.opt {
				continue
			}

			lines = append(lines, prefix+"."+opt.name+"="+showValue(opt.value))
		}
	}

	return lines, nil
}

// displayName returns the name of a named section, or "@type[n]" for an
// anonymous one, n counting sections of the same type.
func (p *Package) displayName(sec *Section) string {
	if !sec.anonymous {
		return sec.name
	}

	n := 0

	for _, other := range p.sections {
		if other == sec {
			break
		}

		if other.typ == sec.typ {
			n++
		}
	}

	return fmt.Sprintf("@%s[%d]", sec.typ, n)
}

func showValue(v Value) string {
	items := v.Strings()
	quoted := make([]string, len(items))

	for i, item := range items {
		quoted[i] = quote(item)
	}

	return strings.Join(quoted, " ")
}
