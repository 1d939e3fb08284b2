package api

import (
	"encoding/json"
	"fmt"
	"strings"

	uci "github.com/0xalexb/hjarta-uci"
)

// Path is a uci path given either as one dotted string or as an array of
// up to three components.
type Path []string

// UnmarshalJSON accepts a string or an array of strings.
func (p *Path) UnmarshalJSON(data []byte) error {
	var dotted string
	if err := json.Unmarshal(data, &dotted); err == nil {
		if dotted == "" {
			*p = nil
		} else {
			*p = Path{dotted}
		}

		return nil
	}

	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("path must be a string or an array of strings: %w", err)
	}

	*p = parts

	return nil
}

// Dotted joins the components into "package.section.option" form.
func (p Path) Dotted() string {
	return strings.Join(p, ".")
}

// Request is the body of every operation. Fields an operation does not use are ignored.
type Request struct {
	Path Path `json:"path,omitempty"`
	// Value is a string or an array of strings.
	Value any `json:"value,omitempty"`
	// Name is the new name for rename.
	Name string `json:"name,omitempty"`
	// Position is the target index for reorder.
	Position *int `json:"position,omitempty"`
	// Type is the section type for add.
	Type string `json:"type,omitempty"`
}

// Response is the body of a successful operation.
type Response struct {
	Result any `json:"result"`
}

// Change is the wire form of a pending uci.Change.
type Change struct {
	Op      uci.ChangeOp `json:"op"`
	Package string       `json:"package"`
	Section string       `json:"section,omitempty"`
	Option  string       `json:"option,omitempty"`
	Value   string       `json:"value,omitempty"`
	// Line is the change as written to the save directory.
	Line string `json:"line"`
}

func changesOf(changes []uci.Change) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		out = append(out, Change{
			Op:      c.Op,
			Package: c.Package,
			Section: c.Section,
			Option:  c.Option,
			Value:   c.Value,
			Line:    c.String(),
		})
	}

	return out
}

func (r *Request) packageName() (string, error) {
	if len(r.Path) != 1 || strings.Contains(r.Path[0], ".") {
		return "", &uci.Error{Kind: uci.KindInvalidArgument, Message: "path must name a single package"}
	}

	return r.Path[0], nil
}

func (r *Request) requirePath() error {
	if len(r.Path) == 0 {
		return &uci.Error{Kind: uci.KindInvalidArgument, Message: "path is required"}
	}

	return nil
}

func (r *Request) item() (string, error) {
	s, ok := r.Value.(string)
	if !ok {
		return "", &uci.Error{Kind: uci.KindUnsupportedType, Message: fmt.Sprintf("list item has type %T, want string", r.Value)}
	}

	return s, nil
}
