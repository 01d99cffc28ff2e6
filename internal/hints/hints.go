// Package hints encodes and decodes the _MOTIF_WM_HINTS window property in the
// textual form printed and accepted by xprop.
package hints

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PropertyName is the X11 property holding the decoration hints.
const PropertyName = "_MOTIF_WM_HINTS"

// PropertyFormat is the xprop format string for PropertyName
// (flags, functions, decorations and status are cardinals, input mode is an integer).
const PropertyFormat = "32cccic"

const (
	fieldCount     = 5
	decorationsPos = 2
	separator      = ", "
	nameSeparator  = " = "

	// maxSafeInteger mirrors the largest integer a double can represent exactly.
	maxSafeInteger = 1<<53 - 1
)

// ErrInvalid is returned when a raw property value cannot be decoded.
var ErrInvalid = errors.New("invalid motif hints")

// Kind classifies a Hints value by its decorations field.
type Kind int

const (
	Unknown Kind = iota
	TitleBar
	NoTitleBar
)

func (k Kind) String() string {
	switch k {
	case TitleBar:
		return "title-bar"
	case NoTitleBar:
		return "no-title-bar"
	default:
		return "unknown"
	}
}

// Hints is the ordered five-field _MOTIF_WM_HINTS value.
type Hints struct {
	Flags       int64
	Functions   int64
	Decorations int64
	InputMode   int64
	Status      int64
}

// Canonical returns the fixed hints written by older releases: decorations
// enabled (2, 0, 1, 0, 0) or disabled (2, 0, 0, 0, 0).
func Canonical(titleBar bool) Hints {
	return Hints{Flags: 2}.WithTitleBar(titleBar)
}

// Kind reports whether h describes a title bar, no title bar, or neither.
func (h Hints) Kind() Kind {
	switch h.Decorations {
	case 1:
		return TitleBar
	case 0:
		return NoTitleBar
	default:
		return Unknown
	}
}

// WithTitleBar returns a copy of h with only the decorations field changed.
func (h Hints) WithTitleBar(titleBar bool) Hints {
	if titleBar {
		h.Decorations = 1
	} else {
		h.Decorations = 0
	}
	return h
}

func (h Hints) fields() [fieldCount]int64 {
	return [fieldCount]int64{h.Flags, h.Functions, h.Decorations, h.InputMode, h.Status}
}

func fromFields(f [fieldCount]int64) Hints {
	return Hints{
		Flags:       f[0],
		Functions:   f[1],
		Decorations: f[2],
		InputMode:   f[3],
		Status:      f[4],
	}
}

// String returns the encoded value.
func (h Hints) String() string {
	return Encode(h)
}

// Encode renders h as comma-space separated decimal integers.
func Encode(h Hints) string {
	f := h.fields()
	parts := make([]string, 0, fieldCount)
	for _, v := range f {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return strings.Join(parts, separator)
}

// Line renders h as a full "name = value" line, as xprop -notype prints it.
func Line(h Hints) string {
	return PropertyName + nameSeparator + Encode(h)
}

// Decode parses a "name = value" line printed by xprop. The property name must
// be PropertyName exactly.
func Decode(raw string) (Hints, error) {
	line := strings.TrimRight(raw, "\r\n")
	name, value, found := strings.Cut(line, nameSeparator)
	if !found {
		return Hints{}, fmt.Errorf("%w: missing %q in %q", ErrInvalid, nameSeparator, line)
	}
	if name != PropertyName {
		return Hints{}, fmt.Errorf("%w: got property %q, want %q", ErrInvalid, name, PropertyName)
	}
	return DecodeValue(value)
}

// DecodeValue parses the value part of the property line.
func DecodeValue(value string) (Hints, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, separator)
	if len(parts) != fieldCount {
		return Hints{}, fmt.Errorf("%w: got %d fields, want %d", ErrInvalid, len(parts), fieldCount)
	}

	var f [fieldCount]int64
	for i, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return Hints{}, fmt.Errorf("%w: field %d: %q is not an integer", ErrInvalid, i, part)
		}
		if v > maxSafeInteger || v < -maxSafeInteger {
			return Hints{}, fmt.Errorf("%w: field %d: %d out of range", ErrInvalid, i, v)
		}
		f[i] = v
	}
	return fromFields(f), nil
}
