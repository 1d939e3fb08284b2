package uci

import (
	"strconv"
	"strings"
)

var booleans = map[string]bool{
	"0":        false,
	"no":       false,
	"off":      false,
	"false":    false,
	"disabled": false,
	"1":        true,
	"yes":      true,
	"on":       true,
	"true":     true,
	"enabled":  true,
}

// GetString returns the scalar value of an option. Lists fail with unsupported_type.
func (c *Context) GetString(path ...string) (string, error) {
	v, err := c.optionValue(path)
	if err != nil {
		return "", err
	}

	if v.IsList() {
		return "", newError(KindUnsupportedType, "%q holds a list", strings.Join(path, "."))
	}

	return v.scalar, nil
}

// GetList returns the items of an option; a scalar yields a single item.
func (c *Context) GetList(path ...string) ([]string, error) {
	v, err := c.optionValue(path)
	if err != nil {
		return nil, err
	}

	return v.Strings(), nil
}

// GetBool interprets an option as a boolean: 1/yes/on/true/enabled and
// 0/no/off/false/disabled, case-insensitive. Other values fail with invalid_argument.
func (c *Context) GetBool(path ...string) (bool, error) {
	s, err := c.GetString(path...)
	if err != nil {
		return false, err
	}

	b, ok := booleans[strings.ToLower(s)]
	if !ok {
		return false, newError(KindInvalidArgument, "%q is not a boolean", s)
	}

	return b, nil
}

// SetBool stores "1" or "0".
func (c *Context) SetBool(path string, value bool) error {
	if value {
		return c.Set(path, "1")
	}

	return c.Set(path, "0")
}

// GetInt parses an option as a base-10 integer.
func (c *Context) GetInt(path ...string) (int, error) {
	s, err := c.GetString(path...)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &Error{Kind: KindInvalidArgument, Message: strconv.Quote(s) + " is not an integer", Err: err}
	}

	return n, nil
}

// SetInt stores the decimal form of value.
func (c *Context) SetInt(path string, value int) error {
	return c.Set(path, strconv.Itoa(value))
}

func (c *Context) optionValue(path []string) (Value, error) {
	ptr, err := c.Lookup(path...)
	if err != nil {
		return Value{}, err
	}

	if ptr.Target() != ElementOption {
		return Value{}, newError(KindInvalidArgument, "%q does not name an option", ptr.Path.String())
	}

	if !ptr.Complete {
		return Value{}, notFound(ptr.Path)
	}

	return ptr.opt.value, nil
}
