// FILE: lixenwraith/namespace/node.go
package namespace

import (
	"fmt"
	"sort"
	"sync"
)

// MergePolicy decides what happens when a leaf is bound over an existing leaf.
type MergePolicy int

const (
	// MergeOverwrite lets the later leaf replace the earlier one (last write wins).
	MergeOverwrite MergePolicy = iota
	// MergeStrict rejects duplicate leaves with ErrAlreadyBound.
	MergeStrict
)

// String returns the policy name.
func (p MergePolicy) String() string {
	switch p {
	case MergeOverwrite:
		return "overwrite"
	case MergeStrict:
		return "strict"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// tree is the state shared by every node of one namespace root.
// A single lock covers the whole tree so a merge is never observed half applied.
type tree struct {
	mu     sync.RWMutex
	delim  string
	policy MergePolicy
}

// Leaf is an immutable materialized value together with the declared type
// name that produced it.
type Leaf struct {
	value    any
	typeName string
}

// NewLeaf wraps value. An empty typeName is replaced by the Go type of value.
func NewLeaf(value any, typeName string) *Leaf {
	if typeName == "" {
		typeName = fmt.Sprintf("%T", value)
	}
	return &Leaf{value: value, typeName: typeName}
}

// Value returns the materialized value.
func (l *Leaf) Value() any { return l.value }

// TypeName returns the declared type the value was produced from.
func (l *Leaf) TypeName() string { return l.typeName }

// IsMulti reports whether the leaf holds an ordered sequence of values.
func (l *Leaf) IsMulti() bool {
	switch l.value.(type) {
	case []string, []any:
		return true
	}
	return false
}

// Values returns the leaf as a sequence: the elements of a multi-valued leaf,
// or a single element slice otherwise. The returned slice is a copy.
func (l *Leaf) Values() []any {
	switch v := l.value.(type) {
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []any:
		return append([]any(nil), v...)
	default:
		return []any{v}
	}
}

// String implements fmt.Stringer.
func (l *Leaf) String() string {
	return fmt.Sprintf("%v (%s)", l.value, l.typeName)
}

// Binding is a named slot holding either a nested Node or a Leaf.
type Binding struct {
	node *Node
	leaf *Leaf
}

// IsSubtree reports whether the binding holds a nested Node.
func (b Binding) IsSubtree() bool { return b.node != nil }

// Node returns the nested node, or nil for a leaf binding.
func (b Binding) Node() *Node { return b.node }

// Leaf returns the leaf, or nil for a subtree binding.
func (b Binding) Leaf() *Leaf { return b.leaf }

// Value returns the leaf value, or nil for a subtree binding.
func (b Binding) Value() any {
	if b.leaf == nil {
		return nil
	}
	return b.leaf.value
}

// Node is one level of the namespace hierarchy. It owns a mapping from local
// name to Binding and remembers its fully qualified path for diagnostics.
type Node struct {
	t        *tree
	path     string
	bindings map[string]Binding
}

// Option customizes a new namespace root.
type Option func(*tree)

// WithDelimiter sets the path delimiter. An empty delimiter is ignored.
func WithDelimiter(delim string) Option {
	return func(t *tree) {
		if delim != "" {
			t.delim = delim
		}
	}
}

// WithMergePolicy sets the policy used by Bind and Merge.
func WithMergePolicy(p MergePolicy) Option {
	return func(t *tree) {
		t.policy = p
	}
}

// New creates an empty namespace root.
func New(opts ...Option) *Node {
	t := &tree{delim: DefaultDelimiter, policy: MergeOverwrite}
	for _, opt := range opts {
		opt(t)
	}
	return newNode(t, "")
}

func newNode(t *tree, path string) *Node {
	return &Node{t: t, path: path, bindings: make(map[string]Binding)}
}

// Path returns the fully qualified path of the node; the root path is empty.
func (n *Node) Path() string { return n.path }

// Delimiter returns the path delimiter of the owning tree.
func (n *Node) Delimiter() string { return n.t.delim }

// Policy returns the merge policy of the owning tree.
func (n *Node) Policy() MergePolicy { return n.t.policy }

func (n *Node) qualify(rel string) string {
	return joinPath(n.path, rel, n.t.delim)
}

// Lookup resolves path segment by segment from n. The empty path resolves to
// n itself.
func (n *Node) Lookup(path string) (Binding, error) {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()
	return n.lookup(path)
}

func (n *Node) lookup(path string) (Binding, error) {
	if path == "" {
		return Binding{node: n}, nil
	}

	segments := Split(path, n.t.delim)
	current := n
	for i, segment := range segments {
		b, ok := current.bindings[segment]
		if !ok {
			return Binding{}, pathErr("lookup", n.qualify(Join(segments[:i+1], n.t.delim)), ErrNotFound)
		}
		if i == len(segments)-1 {
			return b, nil
		}
		if b.node == nil {
			return Binding{}, pathErr("lookup", n.qualify(Join(segments[:i+1], n.t.delim)), ErrTypeMismatch)
		}
		current = b.node
	}
	return Binding{}, pathErr("lookup", n.qualify(path), ErrNotFound)
}

// descend walks segments below n, creating missing subtrees when create is set.
func (n *Node) descend(op string, segments []string, create bool) (*Node, error) {
	current := n
	for i, segment := range segments {
		b, ok := current.bindings[segment]
		switch {
		case !ok && create:
			child := newNode(n.t, current.qualify(segment))
			current.bindings[segment] = Binding{node: child}
			current = child
		case !ok:
			return nil, pathErr(op, n.qualify(Join(segments[:i+1], n.t.delim)), ErrNotFound)
		case b.node == nil:
			return nil, pathErr(op, n.qualify(Join(segments[:i+1], n.t.delim)), ErrTypeMismatch)
		default:
			current = b.node
		}
	}
	return current, nil
}

// Bind binds value at path, creating intermediate subtrees as needed.
// A *Leaf is bound as is; any other value is wrapped with NewLeaf.
// Binding over a subtree fails with ErrAlreadyBound, as does binding over a
// leaf under MergeStrict.
func (n *Node) Bind(path string, value any) error {
	if _, ok := value.(*Node); ok {
		return pathErr("bind", n.qualify(path), ErrTypeMismatch)
	}
	leaf, ok := value.(*Leaf)
	if !ok {
		leaf = NewLeaf(value, "")
	}

	n.t.mu.Lock()
	defer n.t.mu.Unlock()
	return n.bind(path, leaf)
}

func (n *Node) bind(path string, leaf *Leaf) error {
	if path == "" {
		return pathErr("bind", n.path, ErrAlreadyBound)
	}

	segments := Split(path, n.t.delim)
	parent, err := n.descend("bind", segments[:len(segments)-1], true)
	if err != nil {
		return err
	}

	name := segments[len(segments)-1]
	if existing, ok := parent.bindings[name]; ok {
		if existing.node != nil || n.t.policy == MergeStrict {
			return pathErr("bind", parent.qualify(name), ErrAlreadyBound)
		}
	}
	parent.bindings[name] = Binding{leaf: leaf}
	return nil
}

// CreateSubtree returns the subtree at path, creating it and any missing
// intermediates. It fails with ErrAlreadyBound if path holds a leaf.
func (n *Node) CreateSubtree(path string) (*Node, error) {
	n.t.mu.Lock()
	defer n.t.mu.Unlock()

	if path == "" {
		return n, nil
	}

	segments := Split(path, n.t.delim)
	parent, err := n.descend("create", segments[:len(segments)-1], true)
	if err != nil {
		return nil, err
	}

	name := segments[len(segments)-1]
	if existing, ok := parent.bindings[name]; ok {
		if existing.node == nil {
			return nil, pathErr("create", parent.qualify(name), ErrAlreadyBound)
		}
		return existing.node, nil
	}
	child := newNode(n.t, parent.qualify(name))
	parent.bindings[name] = Binding{node: child}
	return child, nil
}

// Remove unbinds path and everything beneath it.
func (n *Node) Remove(path string) error {
	n.t.mu.Lock()
	defer n.t.mu.Unlock()

	if path == "" {
		return pathErr("remove", n.path, ErrTypeMismatch)
	}

	segments := Split(path, n.t.delim)
	parent, err := n.descend("remove", segments[:len(segments)-1], false)
	if err != nil {
		return err
	}

	name := segments[len(segments)-1]
	if _, ok := parent.bindings[name]; !ok {
		return pathErr("remove", parent.qualify(name), ErrNotFound)
	}
	delete(parent.bindings, name)
	return nil
}

// Names returns the sorted local names bound directly under n.
func (n *Node) Names() []string {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()
	return n.names()
}

func (n *Node) names() []string {
	names := make([]string, 0, len(n.bindings))
	for name := range n.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings directly under n.
func (n *Node) Len() int {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()
	return len(n.bindings)
}

// Walk calls fn for every leaf beneath n in name order. Paths passed to fn
// are relative to n. Walk stops at the first error returned by fn.
func (n *Node) Walk(fn func(path string, leaf *Leaf) error) error {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()
	return n.walk("", fn)
}

func (n *Node) walk(prefix string, fn func(string, *Leaf) error) error {
	for _, name := range n.names() {
		b := n.bindings[name]
		path := joinPath(prefix, name, n.t.delim)
		if b.node != nil {
			if err := b.node.walk(path, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(path, b.leaf); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of n as the root of a new tree with the same
// delimiter and policy. Leaves are shared since they are immutable.
func (n *Node) Clone() *Node {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	t := &tree{delim: n.t.delim, policy: n.t.policy}
	return copyNode(n, t, "")
}

func copyNode(src *Node, t *tree, path string) *Node {
	dst := newNode(t, path)
	for name, b := range src.bindings {
		if b.node != nil {
			dst.bindings[name] = Binding{node: copyNode(b.node, t, joinPath(path, name, t.delim))}
		} else {
			dst.bindings[name] = b
		}
	}
	return dst
}

// Merge recursively unions other into n using the tree's merge policy.
// Subtrees present in both are merged; a leaf present in both is replaced
// under MergeOverwrite and rejected under MergeStrict. A leaf meeting a
// subtree fails with ErrTypeMismatch. Merge is all-or-nothing: on error n is
// left unchanged.
func (n *Node) Merge(other *Node) error {
	_, err := n.merge(other, n.t.policy, ErrTypeMismatch)
	return err
}

// merge applies other under policy and reports the paths of replaced leaves.
// clash is the error used when a leaf meets a subtree.
func (n *Node) merge(other *Node, policy MergePolicy, clash error) ([]string, error) {
	// Snapshot other first so only one tree lock is held at a time.
	src := other.Clone()

	n.t.mu.Lock()
	defer n.t.mu.Unlock()

	if err := n.checkMerge(src, policy, clash); err != nil {
		return nil, err
	}
	var replaced []string
	n.applyMerge(src, &replaced)
	return replaced, nil
}

func (n *Node) checkMerge(src *Node, policy MergePolicy, clash error) error {
	for name, ob := range src.bindings {
		nb, ok := n.bindings[name]
		if !ok {
			continue
		}
		switch {
		case nb.node != nil && ob.node != nil:
			if err := nb.node.checkMerge(ob.node, policy, clash); err != nil {
				return err
			}
		case nb.node == nil && ob.node == nil:
			if policy == MergeStrict {
				return pathErr("merge", n.qualify(name), ErrAlreadyBound)
			}
		default:
			return pathErr("merge", n.qualify(name), clash)
		}
	}
	return nil
}

func (n *Node) applyMerge(src *Node, replaced *[]string) {
	for name, ob := range src.bindings {
		nb, ok := n.bindings[name]
		if ok && nb.node != nil && ob.node != nil {
			nb.node.applyMerge(ob.node, replaced)
			continue
		}
		if ok {
			*replaced = append(*replaced, n.qualify(name))
		}
		if ob.node != nil {
			n.bindings[name] = Binding{node: copyNode(ob.node, n.t, n.qualify(name))}
		} else {
			n.bindings[name] = ob
		}
	}
}
