// FILE: lixenwraith/namespace/convenience.go
package namespace

import (
	"encoding"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Dump writes the subtree as a TOML document. Values TOML cannot represent
// natively are written as their text or string form.
func (n *Node) Dump(w io.Writer) error {
	n.t.mu.RLock()
	doc := n.dumpMap()
	n.t.mu.RUnlock()

	encoder := toml.NewEncoder(w)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode namespace as TOML: %w", err)
	}
	return nil
}

func (n *Node) dumpMap() map[string]any {
	out := make(map[string]any, len(n.bindings))
	for name, b := range n.bindings {
		if b.node != nil {
			out[name] = b.node.dumpMap()
			continue
		}
		out[name] = tomlSafe(b.leaf.value)
	}
	return out
}

// tomlSafe maps a leaf value onto the types the TOML encoder accepts.
func tomlSafe(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case string, bool, int, int8, int16, int32, int64, float32, float64, time.Time:
		return x
	case []string:
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = tomlSafe(e)
		}
		return out
	case encoding.TextMarshaler:
		if text, err := x.MarshalText(); err == nil {
			return string(text)
		}
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= uint64(^uint64(0)>>1) {
			return int64(u)
		}
	}
	return fmt.Sprintf("%+v", v)
}

// Debug returns one line per leaf with its path, value and declared type.
func (n *Node) Debug() string {
	var b strings.Builder
	b.WriteString("namespace")
	if n.path != "" {
		fmt.Fprintf(&b, " %s", n.path)
	}
	b.WriteString(":\n")

	_ = n.Walk(func(path string, leaf *Leaf) error {
		fmt.Fprintf(&b, "  %s = %s (%s)\n", path, describe(leaf.Value()), leaf.TypeName())
		return nil
	})
	return b.String()
}
