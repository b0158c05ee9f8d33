// FILE: lixenwraith/namespace/coerce.go
package namespace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// NoChar is the unassigned character produced from an empty string.
// It lies outside the Unicode code space.
const NoChar rune = -1

var (
	trueTokens  = map[string]struct{}{"true": {}, "t": {}, "yes": {}, "y": {}, "on": {}, "1": {}, "x": {}, "-1": {}}
	falseTokens = map[string]struct{}{"false": {}, "f": {}, "no": {}, "n": {}, "off": {}, "0": {}, "": {}}
)

var errBadToken = errors.New("not a recognized boolean token")

// ToBool maps raw to a boolean by case-insensitive membership in the fixed
// true set {true,t,yes,y,on,1,x,-1} or false set {false,f,no,n,off,0,""}.
func ToBool(raw string) (bool, error) {
	token := strings.ToLower(raw)
	if _, ok := trueTokens[token]; ok {
		return true, nil
	}
	if _, ok := falseTokens[token]; ok {
		return false, nil
	}
	return false, convErr(raw, "boolean", errBadToken)
}

// ToChar returns the first character of raw, or NoChar for the empty string.
// Trailing characters are ignored.
func ToChar(raw string) rune {
	if raw == "" {
		return NoChar
	}
	r, _ := utf8.DecodeRuneInString(raw)
	return r
}

// toInt parses a base 10 signed integer of the given width and returns it
// as the matching Go type. Width 0 selects int.
func toInt(raw, typeName string, bits int) (any, error) {
	i, err := strconv.ParseInt(raw, 10, bitSize(bits))
	if err != nil {
		return nil, convErr(raw, typeName, unwrapNumErr(err))
	}
	switch bits {
	case 8:
		return int8(i), nil
	case 16:
		return int16(i), nil
	case 32:
		return int32(i), nil
	case 64:
		return i, nil
	default:
		return int(i), nil
	}
}

func toUint(raw, typeName string, bits int) (any, error) {
	u, err := strconv.ParseUint(raw, 10, bitSize(bits))
	if err != nil {
		return nil, convErr(raw, typeName, unwrapNumErr(err))
	}
	switch bits {
	case 8:
		return uint8(u), nil
	case 16:
		return uint16(u), nil
	case 32:
		return uint32(u), nil
	case 64:
		return u, nil
	default:
		return uint(u), nil
	}
}

func bitSize(bits int) int {
	if bits == 0 {
		return strconv.IntSize
	}
	return bits
}

func toFloat(raw, typeName string, bits int) (any, error) {
	f, err := strconv.ParseFloat(raw, bits)
	if err != nil {
		return nil, convErr(raw, typeName, unwrapNumErr(err))
	}
	if bits == 32 {
		return float32(f), nil
	}
	return f, nil
}

// unwrapNumErr drops the strconv wrapper, whose message repeats the input.
func unwrapNumErr(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}

// convertBuiltin handles the built-in scalar type names. The second result
// reports whether typeName was recognized.
func convertBuiltin(raw, typeName, format string) (any, bool, error) {
	var (
		v   any
		err error
	)

	switch strings.ToLower(typeName) {
	case "", "string":
		return raw, true, nil
	case "bool", "boolean":
		v, err = ToBool(raw)
	case "char", "rune":
		return ToChar(raw), true, nil
	case "int":
		v, err = toInt(raw, typeName, 0)
	case "int8":
		v, err = toInt(raw, typeName, 8)
	case "int16":
		v, err = toInt(raw, typeName, 16)
	case "int32":
		v, err = toInt(raw, typeName, 32)
	case "int64":
		v, err = toInt(raw, typeName, 64)
	case "uint":
		v, err = toUint(raw, typeName, 0)
	case "uint8", "byte":
		v, err = toUint(raw, typeName, 8)
	case "uint16":
		v, err = toUint(raw, typeName, 16)
	case "uint32":
		v, err = toUint(raw, typeName, 32)
	case "uint64":
		v, err = toUint(raw, typeName, 64)
	case "float32":
		v, err = toFloat(raw, typeName, 32)
	case "float64":
		v, err = toFloat(raw, typeName, 64)
	case "datetime", "timestamp", "time.time":
		if format != "" {
			v, err = ParseWithPattern(raw, format, typeName)
		} else {
			v, err = ParseDateTime(raw)
		}
	case "date":
		if format != "" {
			v, err = ParseWithPattern(raw, format, typeName)
		} else {
			v, err = ParseDate(raw)
		}
	case "time":
		if format != "" {
			v, err = ParseWithPattern(raw, format, typeName)
		} else {
			v, err = ParseTimeOfDay(raw)
		}
	default:
		return nil, false, nil
	}

	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// describe renders a value for debug output.
func describe(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case rune:
		if x == NoChar {
			return "<unassigned>"
		}
		return fmt.Sprintf("%d", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
