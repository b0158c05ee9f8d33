// FILE: lixenwraith/namespace/decode.go
package namespace

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// beanTagName is the struct tag used to rename bean members and Scan targets.
const beanTagName = "ns"

var (
	timeType            = reflect.TypeOf(time.Time{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// reservedProps are the attribute keys a bean never assigns.
var reservedProps = map[string]struct{}{
	ValueKey:    {},
	AttrType:    {},
	AttrFormat:  {},
	AttrConvert: {},
	AttrFactory: {},
}

// DecodeBean constructs a new value of struct type t and assigns every
// property that names a member of t, coercing its raw string recursively.
// Properties without a matching member are ignored; members without a
// property keep their zero value. An empty raw value yields "" for strings,
// false for booleans, zero for numbers and nil for pointers and interfaces.
// Nested property keys are split on delim. A key ending in an attribute
// (port/type, started/format) is a hint for that member: the member's raw
// value is converted with the hinted type and format before assignment.
// The result is a pointer to t.
func (r *Registry) DecodeBean(t reflect.Type, props map[string]string, delim string) (any, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}

	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hints := make(map[string]map[string]string)
	var members []string
	for _, key := range keys {
		if _, reserved := reservedProps[key]; reserved {
			continue
		}
		if member, attr, ok := memberAttribute(key, delim); ok {
			if hints[member] == nil {
				hints[member] = make(map[string]string, 2)
			}
			hints[member][attr] = props[key]
			continue
		}
		members = append(members, key)
	}

	input := make(map[string]any, len(members))
	for _, key := range members {
		var value any = props[key]
		if typeName := hints[key][AttrType]; typeName != "" {
			v, err := r.Convert(props[key], typeName, hints[key][AttrFormat])
			if err != nil {
				return nil, err
			}
			value = v
		}
		setNestedValue(input, key, delim, value)
	}

	target := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target.Interface(),
		TagName: beanTagName,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			r.beanDecodeHook(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return nil, convErr(props[ValueKey], t.String(), err)
	}
	return target.Interface(), nil
}

// memberAttribute splits a nested key whose last segment is an attribute
// into the member it describes and the attribute name.
func memberAttribute(key, delim string) (member, attr string, ok bool) {
	segments := Split(key, delim)
	n := len(segments)
	if n < 2 {
		return "", "", false
	}
	attr = segments[n-1]
	if _, reserved := reservedProps[attr]; !reserved || attr == ValueKey {
		return "", "", false
	}
	return Join(segments[:n-1], delim), attr, true
}

// beanDecodeHook coerces raw strings into bean members using the same rules
// as scalar leaves.
func (r *Registry) beanDecodeHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		raw := reflect.ValueOf(data).String()
		if raw == "" && t.Kind() == reflect.Ptr {
			return nil, nil
		}

		v, handled, err := r.coerceTo(raw, t)
		if err != nil {
			return nil, err
		}
		if handled {
			return v, nil
		}

		if t.Kind() == reflect.Ptr {
			v, handled, err = r.coerceTo(raw, t.Elem())
			if err != nil {
				return nil, err
			}
			if handled {
				return v, nil
			}
		}

		// Pass through by default
		return data, nil
	}
}

// coerceTo converts raw into a value of type t. The second result reports
// whether t is a type this registry knows how to produce.
func (r *Registry) coerceTo(raw string, t reflect.Type) (any, bool, error) {
	if e, ok := r.enumFor(t); ok {
		if raw == "" {
			return reflect.Zero(t).Interface(), true, nil
		}
		v, err := e.Resolve(raw)
		if err != nil {
			return nil, true, err
		}
		if v == NoMatch {
			return nil, true, convErr(raw, t.String(), errNoConstant)
		}
		return v, true, nil
	}

	if ctor, ok := r.constructorFor(t); ok {
		if raw == "" {
			return reflect.Zero(t).Interface(), true, nil
		}
		v, err := ctor(raw)
		if err != nil {
			return nil, true, convErr(raw, t.String(), err)
		}
		return v, true, nil
	}

	if t == timeType {
		if raw == "" {
			return time.Time{}, true, nil
		}
		v, err := ParseDateTime(raw)
		return v, true, err
	}

	if t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if raw == "" {
			return p.Elem().Interface(), true, nil
		}
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return nil, true, convErr(raw, t.String(), err)
		}
		return p.Elem().Interface(), true, nil
	}

	var (
		v   any
		err error
	)
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(t).Interface(), true, nil
	case reflect.Interface:
		if raw == "" {
			return nil, true, nil
		}
		return raw, true, nil
	case reflect.Bool:
		if raw == "" {
			return reflect.Zero(t).Interface(), true, nil
		}
		v, err = ToBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			return reflect.Zero(t).Interface(), true, nil
		}
		v, err = toInt(raw, t.String(), t.Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw == "" {
			return reflect.Zero(t).Interface(), true, nil
		}
		v, err = toUint(raw, t.String(), t.Bits())
	case reflect.Float32, reflect.Float64:
		if raw == "" {
			return reflect.Zero(t).Interface(), true, nil
		}
		v, err = toFloat(raw, t.String(), t.Bits())
	default:
		return nil, false, nil
	}

	if err != nil {
		return nil, true, err
	}
	return reflect.ValueOf(v).Convert(t).Interface(), true, nil
}

// Scan decodes the subtree at path into target, which must be a non-nil
// pointer to a struct or map. Members are matched by the "ns" struct tag or,
// failing that, case-insensitively by name.
func (n *Node) Scan(path string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("target of Scan must be a non-nil pointer, got %T", target)
	}

	b, err := n.Lookup(path)
	if err != nil {
		return err
	}
	if !b.IsSubtree() {
		return pathErr("scan", n.qualify(path), ErrTypeMismatch)
	}
	section := b.Node().ToMap()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          beanTagName,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("failed to scan section %q into %T: %w", path, target, err)
	}
	return nil
}

// ToMap returns the subtree as nested maps of leaf values.
func (n *Node) ToMap() map[string]any {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()
	return n.toMap()
}

func (n *Node) toMap() map[string]any {
	out := make(map[string]any, len(n.bindings))
	for name, b := range n.bindings {
		if b.node != nil {
			out[name] = b.node.toMap()
		} else {
			out[name] = b.leaf.value
		}
	}
	return out
}
