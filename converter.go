// FILE: lixenwraith/namespace/converter.go
package namespace

import (
	"errors"
)

// ValueKey is the property key under which a converter receives the raw
// value bound to the base path itself.
const ValueKey = ""

// BeanConverterName is the registry name of the built-in bean converter.
const BeanConverterName = "bean"

// Converter produces a value from the attributed group of raw properties
// found under one base path. Keys are relative to the base path; attribute
// keys (type, format, ...) are included, and the base value, if any, is
// stored under ValueKey.
type Converter interface {
	Convert(props map[string]string, typeName string) (any, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(props map[string]string, typeName string) (any, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(props map[string]string, typeName string) (any, error) {
	return f(props, typeName)
}

// ConverterEnv is handed to a ConverterFactory when a converter is resolved.
type ConverterEnv struct {
	Registry  *Registry
	Delimiter string
}

var errNoBean = errors.New("no bean type registered")

// BeanConverter constructs a registered struct type and assigns each
// property to the member of the same name.
type BeanConverter struct {
	Registry  *Registry
	Delimiter string
}

// Convert implements Converter.
func (c *BeanConverter) Convert(props map[string]string, typeName string) (any, error) {
	t, ok := c.Registry.Bean(typeName)
	if !ok {
		return nil, convErr(props[ValueKey], typeName, errNoBean)
	}
	return c.Registry.DecodeBean(t, props, c.Delimiter)
}
