package uci

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

const maxLineLength = 1024 * 1024

// quote wraps s in single quotes, encoding embedded quotes as '\''.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// writePackage renders the package in the config file format:
//
//	\nconfig <type>[ '<name>']\n
//	\toption <name> '<value>'\n
//	\tlist <name> '<item>'\n
//
// followed by a final newline.
func writePackage(w io.Writer, pkg *Package) error {
	bw := bufio.NewWriter(w)

	for _, sec := range pkg.sections {
		fmt.Fprintf(bw, "\nconfig %s", sec.typ)

		if !sec.anonymous {
			fmt.Fprintf(bw, " %s", quote(sec.name))
		}

		bw.WriteString("\n")

		for _, opt := range sec.options {
			if !opt.value.IsList() {
				fmt.Fprintf(bw, "\toption %s %s\n", opt.name, quote(opt.value.scalar))

				continue
			}

			for _, item := range opt.value.list {
				fmt.Fprintf(bw, "\tlist %s %s\n", opt.name, quote(item))
			}
		}
	}

	bw.WriteString("\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing package %q: %w", pkg.name, err)
	}

	return nil
}

// parsePackage reads a config file. Duplicate named sections are merged into
// the first declaration.
func parsePackage(name, file string, r io.Reader) (*Package, error) {
	pkg := newPackage(name, file)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var current *Section

	lineNo := 0
	fail := func(format string, args ...any) error {
		return &ParseError{File: file, Line: lineNo, Msg: fmt.Sprintf(format, args...)}
	}

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		words, err := shellquote.Split(line)
		if err != nil {
			return nil, fail("%v", err)
		}

		if len(words) == 0 {
			continue
		}

		words = stripComment(words)

		switch words[0] {
		case "package":
			if len(words) != 2 || !validPackageName(words[1]) {
				return nil, fail("malformed package statement")
			}
		case "config":
			sec, err := parseSectionHeader(pkg, words)
			if err != nil {
				return nil, fail("%v", err)
			}

			current = sec
		case "option", "list":
			if current == nil {
				return nil, fail("%s outside of a section", words[0])
			}

			if len(words) != 3 {
				return nil, fail("%s expects a name and a single value", words[0])
			}

			if !validName(words[1]) {
				return nil, fail("invalid option name %q", words[1])
			}

			if words[0] == "option" {
				current.setOption(words[1], Scalar(words[2]))
			} else {
				appendListItem(current, words[1], words[2])
			}
		default:
			return nil, fail("unknown statement %q", words[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	return pkg, nil
}

func parseSectionHeader(pkg *Package, words []string) (*Section, error) {
	if len(words) < 2 || len(words) > 3 {
		return nil, fmt.Errorf("config expects a type and an optional name")
	}

	typ := words[1]
	if !validTypeName(typ) {
		return nil, fmt.Errorf("invalid section type %q", typ)
	}

	if len(words) == 2 || words[2] == "" {
		return pkg.addSection(typ, pkg.nextAnonymousID(typ), true), nil
	}

	name := words[2]
	if !validName(name) {
		return nil, fmt.Errorf("invalid section name %q", name)
	}

	if sec := pkg.Section(name); sec != nil {
		sec.typ = typ

		return sec, nil
	}

	return pkg.addSection(typ, name, false), nil
}

// stripComment drops a trailing "# ..." once a statement has all its words.
func stripComment(words []string) []string {
	arity := 3
	if words[0] == "package" {
		arity = 2
	}

	for i := 2; i < len(words); i++ {
		if strings.HasPrefix(words[i], "#") && (i >= arity || words[0] == "config") {
			return words[:i]
		}
	}

	return words
}

func appendListItem(sec *Section, name, item string) {
	opt := sec.Option(name)
	if opt == nil {
		sec.setOption(name, List(item))

		return
	}

	items := opt.value.Strings()
	opt.value = List(append(items, item)...)
}
