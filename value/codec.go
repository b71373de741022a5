// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+)$`)
)

// Decode converts textual input to a typed Value using a fixed
// precedence of pattern matches: boolean literal, null literal,
// integer, floating point, empty list literal, empty set literal.
// Text matching none of these is kept as a string unchanged, so
// Decode is total but not bijective over arbitrary strings.
func Decode(text string) Value {
	switch strings.ToLower(text) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "none":
		return Null()
	}

	if intPattern.MatchString(text) {
		i, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return Int(i)
		}
	}

	if floatPattern.MatchString(text) {
		f, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return Float(f)
		}
	}

	if text == "[]" {
		return List()
	}
	if text == "{}" {
		return Set()
	}

	return String(text)
}

// ConversionError occurs when an explicit conversion is requested
// for text that does not parse as the target kind.
type ConversionError struct {
	Kind  Kind
	Text  string
	Cause error
}

// Error implements the error interface.
func (e ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s: %s", e.Text, e.Kind, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e ConversionError) Unwrap() error {
	return e.Cause
}

// As converts text directly to the requested kind, bypassing
// inference. Only the kinds reachable from an explicit type flag are
// supported: bool, int, float, complex and string.
func As(kind Kind, text string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, ConversionError{Kind: kind, Text: text, Cause: err}
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, ConversionError{Kind: kind, Text: text, Cause: err}
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, ConversionError{Kind: kind, Text: text, Cause: err}
		}
		return Float(f), nil
	case KindComplex:
		c, err := strconv.ParseComplex(text, 128)
		if err != nil {
			return Value{}, ConversionError{Kind: kind, Text: text, Cause: err}
		}
		return Complex(c), nil
	case KindString:
		return String(text), nil
	default:
		return Value{}, ConversionError{
			Kind: kind,
			Text: text,
			Cause: fmt.Errorf("no direct conversion to %s", kind),
		}
	}
}
