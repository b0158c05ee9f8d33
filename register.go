// FILE: lixenwraith/namespace/register.go
package namespace

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"sync"
	"time"
)

// Constructor builds a value from a single raw string.
type Constructor func(raw string) (any, error)

// ConverterFactory creates a Converter for the environment it is resolved in.
type ConverterFactory func(env ConverterEnv) Converter

// Registry maps type and converter names to the capabilities that
// materialize them: single-string constructors, enums, bean types and
// converter plugins. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	byType       map[reflect.Type]Constructor
	enums        map[string]*Enum
	enumsByType  map[reflect.Type]*Enum
	beans        map[string]reflect.Type
	converters   map[string]ConverterFactory
}

var errNoConstructor = errors.New("no constructor registered for type")

// NewRegistry creates a registry holding the built-in constructors
// (url, ip, cidr, duration) and the bean converter.
func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
		byType:       make(map[reflect.Type]Constructor),
		enums:        make(map[string]*Enum),
		enumsByType:  make(map[reflect.Type]*Enum),
		beans:        make(map[string]reflect.Type),
		converters:   make(map[string]ConverterFactory),
	}

	Register(r, "url", parseURL)
	Register(r, "ip", parseIP)
	Register(r, "cidr", parseCIDR)
	Register(r, "duration", time.ParseDuration)
	r.RegisterConverter(BeanConverterName, func(env ConverterEnv) Converter {
		return &BeanConverter{Registry: env.Registry, Delimiter: env.Delimiter}
	})

	return r
}

// Register adds a single-string constructor for T under name. The
// constructor is also used for bean members of type T.
func Register[T any](r *Registry, name string, fn func(string) (T, error)) {
	typ := reflect.TypeFor[T]()
	ctor := func(raw string) (any, error) {
		v, err := fn(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = ctor
	r.byType[typ] = ctor
}

// RegisterEnum makes e resolvable under name and for bean members of e.Type.
func (r *Registry) RegisterEnum(name string, e *Enum) error {
	if e == nil || e.Type == nil {
		return fmt.Errorf("enum %q has no target type", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.enums[name] = e
	r.enumsByType[e.Type] = e
	return nil
}

// RegisterBean registers the struct type of prototype under name. The
// prototype may be a struct value or a pointer to one.
func (r *Registry) RegisterBean(name string, prototype any) error {
	t := reflect.TypeOf(prototype)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("RegisterBean requires a struct or struct pointer, got %T", prototype)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.beans[name] = t
	return nil
}

// RegisterConverter makes a converter plugin resolvable by name.
func (r *Registry) RegisterConverter(name string, factory ConverterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[name] = factory
}

// Converter resolves and constructs the converter registered under name.
// delim is the path delimiter nested property keys are joined with.
func (r *Registry) Converter(name, delim string) (Converter, bool) {
	r.mu.RLock()
	factory, ok := r.converters[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(ConverterEnv{Registry: r, Delimiter: delim}), true
}

// Bean returns the struct type registered under name.
func (r *Registry) Bean(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.beans[name]
	return t, ok
}

// Enum returns the enum registered under name.
func (r *Registry) Enum(name string) (*Enum, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enums[name]
	return e, ok
}

func (r *Registry) constructorFor(t reflect.Type) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.byType[t]
	return fn, ok
}

func (r *Registry) enumFor(t reflect.Type) (*Enum, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enumsByType[t]
	return e, ok
}

// Convert coerces raw into the type named typeName. Built-in scalar names
// are tried first, then registered enums, then registered constructors.
// format, when set, is the date/time pattern for the date family.
func (r *Registry) Convert(raw, typeName, format string) (any, error) {
	if v, ok, err := convertBuiltin(raw, typeName, format); ok {
		return v, err
	}

	r.mu.RLock()
	e, isEnum := r.enums[typeName]
	ctor, isCtor := r.constructors[typeName]
	r.mu.RUnlock()

	if isEnum {
		v, err := e.Resolve(raw)
		if err != nil {
			return nil, err
		}
		if v == NoMatch {
			return nil, convErr(raw, typeName, errNoConstant)
		}
		return v, nil
	}

	if isCtor {
		v, err := ctor(raw)
		if err != nil {
			return nil, convErr(raw, typeName, err)
		}
		return v, nil
	}

	return nil, convErr(raw, typeName, errNoConstructor)
}

// parseIP handles net.IP construction
func parseIP(str string) (net.IP, error) {
	// SECURITY: Validate IP string format to prevent injection
	if len(str) > 45 { // Max IPv6 length
		return nil, fmt.Errorf("invalid IP length: %d", len(str))
	}
	ip := net.ParseIP(str)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", str)
	}
	return ip, nil
}

// parseCIDR handles net.IPNet construction
func parseCIDR(str string) (*net.IPNet, error) {
	if len(str) > 49 { // Max IPv6 CIDR length
		return nil, fmt.Errorf("invalid CIDR length: %d", len(str))
	}
	_, ipnet, err := net.ParseCIDR(str)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %w", err)
	}
	return ipnet, nil
}

// parseURL handles url.URL construction
func parseURL(str string) (*url.URL, error) {
	if len(str) > 2048 {
		return nil, fmt.Errorf("URL too long: %d bytes", len(str))
	}
	u, err := url.Parse(str)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	return u, nil
}
