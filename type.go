// FILE: lixenwraith/namespace/type.go
package namespace

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Get returns the value of the leaf at path. The second result is false if
// path is unbound or names a subtree.
func (n *Node) Get(path string) (any, bool) {
	b, err := n.Lookup(path)
	if err != nil || b.IsSubtree() {
		return nil, false
	}
	return b.Value(), true
}

// leafValue resolves path to a leaf value for the typed accessors.
func (n *Node) leafValue(path string) (any, error) {
	b, err := n.Lookup(path)
	if err != nil {
		return nil, err
	}
	if b.IsSubtree() {
		return nil, pathErr("get", n.qualify(path), ErrTypeMismatch)
	}
	return b.Value(), nil
}

// String retrieves a string value using the path.
// Attempts conversion from common types if the stored value isn't already a string.
func (n *Node) String(path string) (string, error) {
	val, err := n.leafValue(path)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	if strVal, ok := val.(string); ok {
		return strVal, nil
	}

	// Attempt conversion for common types
	switch v := val.(type) {
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("%w: cannot convert type %T to string for path %s", ErrTypeMismatch, val, path)
	}
}

// Int64 retrieves an int64 value using the path.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (n *Node) Int64(path string) (int64, error) {
	val, err := n.leafValue(path)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("%w: value for path %s is nil, cannot convert to int64", ErrTypeMismatch, path)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		// Check for potential overflow converting uint64 to int64
		maxInt64 := int64(^uint64(0) >> 1)
		if u > uint64(maxInt64) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d (type %T) to int64 for path %s: overflow", u, val, path)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		// Truncate float to int
		return int64(v.Float()), nil
	case reflect.String:
		s := v.String()
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, convErr(s, "int64", unwrapNumErr(err))
		}
		return i, nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("%w: cannot convert type %T to int64 for path %s", ErrTypeMismatch, val, path)
}

// Bool retrieves a boolean value using the path.
// Strings are read with the boolean token sets of ToBool; numbers are true when non-zero.
func (n *Node) Bool(path string) (bool, error) {
	val, err := n.leafValue(path)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, fmt.Errorf("%w: value for path %s is nil, cannot convert to bool", ErrTypeMismatch, path)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		return ToBool(v.String())
	// Numeric interpretation: 0 is false, non-zero is true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("%w: cannot convert type %T to bool for path %s", ErrTypeMismatch, val, path)
}

// Float64 retrieves a float64 value using the path.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (n *Node) Float64(path string) (float64, error) {
	val, err := n.leafValue(path)
	if err != nil {
		return 0.0, err
	}
	if val == nil {
		return 0.0, fmt.Errorf("%w: value for path %s is nil, cannot convert to float64", ErrTypeMismatch, path)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := v.String()
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0.0, convErr(s, "float64", unwrapNumErr(err))
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	}

	return 0.0, fmt.Errorf("%w: cannot convert type %T to float64 for path %s", ErrTypeMismatch, val, path)
}

// Time retrieves a time value using the path. Strings are parsed with the
// date/time fallback chain.
func (n *Node) Time(path string) (time.Time, error) {
	val, err := n.leafValue(path)
	if err != nil {
		return time.Time{}, err
	}

	switch v := val.(type) {
	case time.Time:
		return v, nil
	case string:
		return ParseDateTime(v)
	}
	return time.Time{}, fmt.Errorf("%w: cannot convert type %T to time for path %s", ErrTypeMismatch, val, path)
}

// Strings retrieves the leaf at path as a string sequence. A single-valued
// leaf yields a one element slice.
func (n *Node) Strings(path string) ([]string, error) {
	val, err := n.leafValue(path)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = fmt.Sprint(e)
		}
		return out, nil
	}

	s, err := n.String(path)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}
