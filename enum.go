// FILE: lixenwraith/namespace/enum.go
package namespace

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// EnumStyle selects how a symbolic name is resolved against an Enum.
type EnumStyle int

const (
	// EnumConstants is the constant-field style: the set may hold constants of
	// several types and only those of the target type are candidates. A miss
	// yields NoMatch rather than an error.
	EnumConstants EnumStyle = iota
	// EnumNative is a closed set of constants of one type. A miss is an error.
	EnumNative
)

type noMatch struct{}

func (noMatch) String() string { return "<no match>" }

// NoMatch is returned by constant-field resolution when no constant matches.
// It is distinct from nil; callers decide whether absence is fatal.
var NoMatch any = noMatch{}

var errNoConstant = errors.New("no enum constant matches")

// EnumConstant is one named constant of an Enum.
type EnumConstant struct {
	Name  string
	Value any
}

// Enum is a lookup table of named constants for one target type, built once
// and resolved many times.
type Enum struct {
	Type      reflect.Type
	Style     EnumStyle
	Constants []EnumConstant
}

// NewEnum builds an Enum whose target type is the type of zero.
// Native enums must only hold constants of that type.
func NewEnum(style EnumStyle, zero any, constants ...EnumConstant) (*Enum, error) {
	if zero == nil {
		return nil, errors.New("enum target type cannot be nil")
	}
	typ := reflect.TypeOf(zero)
	if style == EnumNative {
		for _, c := range constants {
			if reflect.TypeOf(c.Value) != typ {
				return nil, fmt.Errorf("native enum %s: constant %s has type %T", typ, c.Name, c.Value)
			}
		}
	}
	return &Enum{Type: typ, Style: style, Constants: constants}, nil
}

// Resolve resolves name according to the enum's style.
func (e *Enum) Resolve(name string) (any, error) {
	if e.Style == EnumNative {
		return e.ResolveNative(name)
	}
	return e.ResolveConstant(name), nil
}

// ResolveConstant searches constants whose own type equals the target type
// for a case-insensitive match of the trimmed name. It returns NoMatch when
// none is found.
func (e *Enum) ResolveConstant(name string) any {
	name = strings.TrimSpace(name)
	for _, c := range e.Constants {
		if reflect.TypeOf(c.Value) != e.Type {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return c.Value
		}
	}
	return NoMatch
}

// ResolveNative makes an exact-case pass over all constants and then a
// case-insensitive pass. The last match found wins, so a case-insensitive
// match scanned after an exact one replaces it.
func (e *Enum) ResolveNative(name string) (any, error) {
	var (
		result any
		found  bool
	)
	for _, c := range e.Constants {
		if c.Name == name {
			result, found = c.Value, true
		}
	}
	for _, c := range e.Constants {
		if strings.EqualFold(c.Name, name) {
			result, found = c.Value, true
		}
	}
	if !found {
		return nil, convErr(name, e.Type.String(), errNoConstant)
	}
	return result, nil
}
