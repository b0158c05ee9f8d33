// FILE: lixenwraith/namespace/loader.go
package namespace

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dario.cat/mergo"
	"go.uber.org/zap"
)

// Attribute suffixes recognized after a base key.
const (
	AttrType    = "type"
	AttrFormat  = "format"
	AttrConvert = "converter"
	AttrFactory = "factory"
)

// DefaultMaxFileSize bounds file sources when no limit is configured.
const DefaultMaxFileSize int64 = 10 << 20

var (
	errNoValue          = errors.New("attributes without a value")
	errUnknownConverter = errors.New("unknown converter")
)

// LoadOptions configures how records are turned into a namespace tree.
type LoadOptions struct {
	// Delimiter separates path segments in flat keys.
	// Default: "/"
	Delimiter string

	// Policy decides whether a later leaf replaces an earlier one at the
	// same path, across sources and when merging into the destination.
	// Default: MergeOverwrite
	Policy MergePolicy

	// FactoryAttributes are extra attribute suffixes that name a converter
	// when no explicit converter attribute is present.
	// Default: ["factory"]
	FactoryAttributes []string

	// MaxFileSize limits file sources created by the Builder.
	// Default: DefaultMaxFileSize
	MaxFileSize int64
}

// DefaultLoadOptions returns the standard load options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Delimiter:         DefaultDelimiter,
		Policy:            MergeOverwrite,
		FactoryAttributes: []string{AttrFactory},
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// normalize fills every zero field of opts from DefaultLoadOptions.
func (opts LoadOptions) normalize() (LoadOptions, error) {
	if err := mergo.Merge(&opts, DefaultLoadOptions()); err != nil {
		return LoadOptions{}, fmt.Errorf("failed to apply default load options: %w", err)
	}
	return opts, nil
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithRegistry sets the registry used to resolve types and converters.
// If not provided, NewRegistry() is used.
func WithRegistry(r *Registry) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.registry = r
		}
	}
}

// WithLogger sets the logger. If not provided, a no-op logger is used.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader ingests ordered flat records from one or more sources and merges
// the resulting tree into a destination node.
type Loader struct {
	opts     LoadOptions
	registry *Registry
	logger   *zap.Logger
}

// NewLoader creates a Loader. Zero fields of opts take their defaults.
func NewLoader(opts LoadOptions, options ...LoaderOption) (*Loader, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	l := &Loader{
		opts:     opts,
		registry: nil,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		opt(l)
	}
	if l.registry == nil {
		l.registry = NewRegistry()
	}
	return l, nil
}

// Options returns the effective load options.
func (l *Loader) Options() LoadOptions {
	return l.opts
}

// NewRoot creates an empty tree configured with the loader's delimiter and policy.
func (l *Loader) NewRoot() *Node {
	return New(WithDelimiter(l.opts.Delimiter), WithMergePolicy(l.opts.Policy))
}

// Build loads sources into a new root.
func (l *Loader) Build(sources ...Source) (*Node, error) {
	root := l.NewRoot()
	if err := l.Load(root, sources...); err != nil {
		return nil, err
	}
	return root, nil
}

// Load reads sources in order and merges them into dst. Later sources take
// precedence over earlier ones. The load is all-or-nothing: dst is only
// touched once every source has been read and materialized without error.
func (l *Loader) Load(dst *Node, sources ...Source) error {
	if dst.Delimiter() != l.opts.Delimiter {
		return fmt.Errorf("destination delimiter %q does not match loader delimiter %q", dst.Delimiter(), l.opts.Delimiter)
	}

	state := &loadState{multi: make(map[string]bool)}
	scratch := l.NewRoot()

	for _, src := range sources {
		records, err := src.Records(l.opts.Delimiter)
		if err != nil {
			return fmt.Errorf("failed to read source %s: %w", src.Name(), err)
		}
		l.logger.Debug("loading source",
			zap.String("source", src.Name()),
			zap.Int("records", len(records)))

		part, err := l.buildRecords(records, state)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}

		replaced, err := scratch.merge(part, l.opts.Policy, ErrStructuralConflict)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
		for _, path := range replaced {
			l.logger.Debug("leaf overridden by later source",
				zap.String("path", path),
				zap.String("source", src.Name()))
		}
	}

	replaced, err := dst.merge(scratch, l.opts.Policy, ErrTypeMismatch)
	if err != nil {
		return err
	}
	if len(replaced) > 0 {
		l.logger.Debug("existing leaves replaced", zap.Strings("paths", replaced))
	}
	return nil
}

// loadState carries what one Load invocation remembers across sources.
type loadState struct {
	// multi holds base paths that were multi-valued earlier in the load.
	multi map[string]bool
}

// attributedRecord groups the raw values and sibling attributes sharing one base path.
type attributedRecord struct {
	base     string
	depth    int
	values   []string
	attrs    map[string]string
	children []string
}

// buildRecords turns one source's records into a detached tree.
func (l *Loader) buildRecords(records []Record, state *loadState) (*Node, error) {
	delim := l.opts.Delimiter
	groups := make(map[string]*attributedRecord)
	var order []string

	// 1. Group records by base path, splitting off attribute suffixes
	for _, rec := range records {
		if rec.Key == "" {
			return nil, pathErr("load", rec.Key, fmt.Errorf("%w: empty key", ErrStructuralConflict))
		}
		base, attr := l.splitAttribute(rec.Key)
		g, ok := groups[base]
		if !ok {
			g = &attributedRecord{
				base:  base,
				depth: len(Split(base, delim)),
				attrs: make(map[string]string),
			}
			groups[base] = g
			order = append(order, base)
		}
		if attr == "" {
			g.values = append(g.values, rec.Value)
		} else {
			g.attrs[attr] = rec.Value
		}
	}

	// 2. Let converter-backed bases consume everything beneath them, outermost first
	byDepth := append([]string(nil), order...)
	sort.SliceStable(byDepth, func(i, j int) bool {
		return groups[byDepth[i]].depth < groups[byDepth[j]].depth
	})
	consumed := make(map[string]bool)
	for _, base := range byDepth {
		if consumed[base] || l.converterName(groups[base]) == "" {
			continue
		}
		prefix := base + delim
		for _, other := range order {
			if !consumed[other] && strings.HasPrefix(other, prefix) {
				consumed[other] = true
				groups[base].children = append(groups[base].children, other)
			}
		}
	}

	// 3. Every remaining proper prefix must be a subtree
	parents := make(map[string]bool)
	for _, base := range order {
		if consumed[base] {
			continue
		}
		segments := Split(base, delim)
		for i := 1; i < len(segments); i++ {
			parents[Join(segments[:i], delim)] = true
		}
	}

	// 4. Materialize leaves
	part := l.NewRoot()
	for _, base := range order {
		if consumed[base] {
			continue
		}
		if parents[base] {
			return nil, pathErr("load", base, fmt.Errorf("%w: used as both leaf and subtree", ErrStructuralConflict))
		}
		leaf, err := l.materialize(groups[base], groups, state)
		if err != nil {
			return nil, pathErr("load", base, err)
		}
		if err := part.Bind(base, leaf); err != nil {
			return nil, err
		}
	}

	return part, nil
}

// splitAttribute separates a trailing attribute segment from key.
func (l *Loader) splitAttribute(key string) (base, attr string) {
	segments := Split(key, l.opts.Delimiter)
	if len(segments) < 2 {
		return key, ""
	}
	last := segments[len(segments)-1]
	if !l.isAttribute(last) {
		return key, ""
	}
	return Join(segments[:len(segments)-1], l.opts.Delimiter), last
}

func (l *Loader) isAttribute(name string) bool {
	switch name {
	case AttrType, AttrFormat, AttrConvert:
		return true
	}
	for _, fa := range l.opts.FactoryAttributes {
		if name == fa {
			return true
		}
	}
	return false
}

// converterName returns the converter responsible for g, if any: the
// explicit converter attribute, then a factory hint, then the bean converter
// for a type registered as a bean.
func (l *Loader) converterName(g *attributedRecord) string {
	if name := g.attrs[AttrConvert]; name != "" {
		return name
	}
	for _, fa := range l.opts.FactoryAttributes {
		if name := g.attrs[fa]; name != "" {
			return name
		}
	}
	if typeName := g.attrs[AttrType]; typeName != "" {
		if _, ok := l.registry.Bean(typeName); ok {
			return BeanConverterName
		}
	}
	return ""
}

// materialize produces the leaf for one terminal attributed record.
func (l *Loader) materialize(g *attributedRecord, groups map[string]*attributedRecord, state *loadState) (*Leaf, error) {
	typeName := g.attrs[AttrType]
	format := g.attrs[AttrFormat]

	if name := l.converterName(g); name != "" {
		props := l.converterProps(g, groups)
		conv, ok := l.registry.Converter(name, l.opts.Delimiter)
		if !ok {
			return nil, convErr(props[ValueKey], typeName, fmt.Errorf("%w %q", errUnknownConverter, name))
		}
		v, err := conv.Convert(props, typeName)
		if err != nil {
			if errors.Is(err, ErrConversion) {
				return nil, err
			}
			return nil, convErr(props[ValueKey], typeName, err)
		}
		if typeName == "" {
			typeName = name
		}
		return NewLeaf(v, typeName), nil
	}

	if len(g.values) == 0 {
		return nil, convErr("", typeName, errNoValue)
	}

	if len(g.values) > 1 || state.multi[g.base] {
		state.multi[g.base] = true
		l.logger.Debug("multi-valued key",
			zap.String("path", g.base),
			zap.Int("values", len(g.values)))

		if typeName == "" {
			return NewLeaf(append([]string(nil), g.values...), "[]string"), nil
		}
		out := make([]any, len(g.values))
		for i, raw := range g.values {
			v, err := l.registry.Convert(raw, typeName, format)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return NewLeaf(out, "[]"+typeName), nil
	}

	raw := g.values[0]
	if typeName == "" {
		return NewLeaf(raw, "string"), nil
	}
	v, err := l.registry.Convert(raw, typeName, format)
	if err != nil {
		return nil, err
	}
	return NewLeaf(v, typeName), nil
}

// converterProps collects the attributed group handed to a converter:
// attributes, the base value under ValueKey and every consumed key beneath
// the base, relative to it.
func (l *Loader) converterProps(g *attributedRecord, groups map[string]*attributedRecord) map[string]string {
	delim := l.opts.Delimiter
	props := make(map[string]string, len(g.attrs)+len(g.children)+1)
	for k, v := range g.attrs {
		props[k] = v
	}
	if n := len(g.values); n > 0 {
		props[ValueKey] = g.values[n-1]
	}

	prefix := g.base + delim
	for _, child := range g.children {
		cg := groups[child]
		rel := strings.TrimPrefix(child, prefix)
		if n := len(cg.values); n > 0 {
			props[rel] = cg.values[n-1]
		}
		for k, v := range cg.attrs {
			props[rel+delim+k] = v
		}
	}
	return props
}
