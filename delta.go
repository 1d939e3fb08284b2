package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// ChangeOp is the kind of a staged change.
type ChangeOp string

const (
	// OpSet sets an option value, or a section type when Option is empty.
	OpSet ChangeOp = "set"
	// OpAdd adds an anonymous section; Section holds its id and Value its type.
	OpAdd ChangeOp = "add"
	// OpDelete removes a section or option.
	OpDelete ChangeOp = "delete"
	// OpRename renames a section or option to Value.
	OpRename ChangeOp = "rename"
	// OpReorder moves a section to the position in Value.
	OpReorder ChangeOp = "reorder"
	// OpListAdd appends Value to a list option.
	OpListAdd ChangeOp = "list_add"
	// OpListDel removes every occurrence of Value from a list option.
	OpListDel ChangeOp = "list_del"
)

var opPrefixes = map[ChangeOp]string{
	OpSet:     "",
	OpAdd:     "+",
	OpDelete:  "-",
	OpRename:  "@",
	OpReorder: "^",
	OpListAdd: "|",
	OpListDel: "~",
}

// Change is one entry of a package delta.
type Change struct {
	Op      ChangeOp
	Package string
	Section string
	Option  string
	// Value is the new value, section type, new name or position, depending on Op.
	Value string
	// Old is the value the option held before the change; it is not persisted.
	Old Value
}

// String renders the change as a delta journal line, without the trailing newline.
func (c Change) String() string {
	var b strings.Builder

	b.WriteString(opPrefixes[c.Op])
	b.WriteString(c.Package)
	b.WriteByte('.')
	b.WriteString(c.Section)

	if c.Option != "" {
		b.WriteByte('.')
		b.WriteString(c.Option)
	}

	if c.Op != OpDelete {
		b.WriteByte('=')
		b.WriteString(quote(c.Value))
	}

	return b.String()
}

// touches reports whether the change targets sec (and opt, when given).
func (c Change) touches(sec, opt string) bool {
	if c.Section != sec {
		return false
	}

	return opt == "" || c.Option == opt
}

func writeDelta(w io.Writer, changes []Change) error {
	bw := bufio.NewWriter(w)

	for _, change := range changes {
		if _, err := bw.WriteString(change.String() + "\n"); err != nil {
			return fmt.Errorf("writing delta: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing delta: %w", err)
	}

	return nil
}

func readDelta(pkg, file string, r io.Reader) ([]Change, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var changes []Change

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		change, err := parseChange(line)
		if err != nil {
			return nil, &ParseError{File: file, Line: lineNo, Msg: err.Error()}
		}

		if change.Package != pkg {
			return nil, &ParseError{File: file, Line: lineNo, Msg: fmt.Sprintf("change for package %q in delta of %q", change.Package, pkg)}
		}

		changes = append(changes, change)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading delta: %w", err)
	}

	return changes, nil
}

func parseChange(line string) (Change, error) {
	var change Change

	change.Op = OpSet

	for op, prefix := range opPrefixes {
		if prefix != "" && strings.HasPrefix(line, prefix) {
			change.Op = op
			line = line[len(prefix):]

			break
		}
	}

	target, raw, hasValue := strings.Cut(line, "=")
	if hasValue == (change.Op == OpDelete) {
		return Change{}, fmt.Errorf("malformed %s entry %q", change.Op, line)
	}

	parts := strings.Split(target, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Change{}, fmt.Errorf("malformed target %q", target)
	}

	change.Package, change.Section = parts[0], parts[1]
	if len(parts) == 3 {
		change.Option = parts[2]
	}

	if !validPackageName(change.Package) || !validName(change.Section) ||
		(change.Option != "" && !validName(change.Option)) {
		return Change{}, fmt.Errorf("invalid target %q", target)
	}

	if hasValue {
		words, err := shellquote.Split(raw)
		if err != nil {
			return Change{}, fmt.Errorf("value of %q: %w", target, err)
		}

		switch len(words) {
		case 0:
		case 1:
			change.Value = words[0]
		default:
			return Change{}, fmt.Errorf("value of %q has %d words", target, len(words))
		}
	}

	if change.Op == OpReorder {
		if _, err := strconv.Atoi(change.Value); err != nil {
			return Change{}, fmt.Errorf("reorder position %q is not a number", change.Value)
		}
	}

	return change, nil
}
