// FILE: lixenwraith/namespace/builder.go
package namespace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ValidatorFunc defines the signature for a function that can validate a built namespace.
// It receives the fully loaded root and should return an error if validation fails.
type ValidatorFunc func(root *Node) error

// Builder provides a fluent interface for building namespaces
type Builder struct {
	opts       LoadOptions
	root       string
	sources    []Source
	envPrefix  string
	args       []string
	registry   *Registry
	logger     *zap.Logger
	cache      *Cache
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new namespace builder
func NewBuilder() *Builder {
	return &Builder{
		opts:       DefaultLoadOptions(),
		logger:     zap.NewNop(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithRoot sets the primary source: a file of a supported format or a
// directory tree read with DirSource.
func (b *Builder) WithRoot(path string) *Builder {
	b.root = path
	return b
}

// WithDelimiter sets the path delimiter
func (b *Builder) WithDelimiter(delim string) *Builder {
	if delim == "" {
		b.err = errors.New("delimiter must not be empty")
		return b
	}
	b.opts.Delimiter = delim
	return b
}

// WithMergePolicy sets the policy applied between sources
func (b *Builder) WithMergePolicy(p MergePolicy) *Builder {
	b.opts.Policy = p
	return b
}

// WithFactoryAttributes sets the attribute suffixes treated as factory hints
func (b *Builder) WithFactoryAttributes(names ...string) *Builder {
	b.opts.FactoryAttributes = names
	return b
}

// WithMaxFileSize limits the size of files read from the root
func (b *Builder) WithMaxFileSize(n int64) *Builder {
	b.opts.MaxFileSize = n
	return b
}

// WithRegistry sets the registry used to resolve types and converters
func (b *Builder) WithRegistry(r *Registry) *Builder {
	b.registry = r
	return b
}

// WithLogger sets the logger handed to the loader and cache
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithSharedCache makes Build reuse roots from c across builders with the
// same identity.
func (b *Builder) WithSharedCache(c *Cache) *Builder {
	if c == nil {
		b.err = errors.New("shared cache must not be nil")
		return b
	}
	b.cache = c
	return b
}

// WithSources appends sources loaded after the root, in order
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.sources = append(b.sources, sources...)
	return b
}

// WithEnvPrefix loads environment variables with the prefix after all other
// sources except command-line arguments
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	return b
}

// WithArgs sets the command-line arguments, loaded last
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build loads every configured source into a new root. With a shared cache
// the root is built once per identity and returned to every later caller.
func (b *Builder) Build() (*Node, error) {
	if b.err != nil {
		return nil, b.err
	}

	sources, err := b.sourceList()
	if err != nil {
		return nil, err
	}

	loader, err := NewLoader(b.opts, WithRegistry(b.registry), WithLogger(b.logger))
	if err != nil {
		return nil, err
	}

	build := func() (*Node, error) {
		root, err := loader.Build(sources...)
		if err != nil {
			return nil, err
		}
		// Run validators
		for _, validator := range b.validators {
			if err := validator(root); err != nil {
				return nil, fmt.Errorf("namespace validation failed: %w", err)
			}
		}
		return root, nil
	}

	if b.cache == nil {
		return build()
	}
	return b.cache.GetOrBuild(b.identity(loader.Options(), sources), build)
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Node {
	root, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("namespace build failed: %v", err))
	}
	return root
}

// BuildAndScan builds the namespace and decodes the subtree at path into target
func (b *Builder) BuildAndScan(path string, target any) error {
	root, err := b.Build()
	if err != nil {
		return err
	}
	if err := root.Scan(path, target); err != nil {
		return fmt.Errorf("failed to scan namespace into target: %w", err)
	}
	return nil
}

// sourceList assembles sources in precedence order: root, explicit
// sources, environment, arguments.
func (b *Builder) sourceList() ([]Source, error) {
	var sources []Source

	if b.root != "" {
		info, err := os.Stat(b.root)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, b.root)
			}
			return nil, fmt.Errorf("failed to stat root '%s': %w", b.root, err)
		}
		if info.IsDir() {
			sources = append(sources, DirSource{Root: b.root, MaxFileSize: b.opts.MaxFileSize})
		} else {
			sources = append(sources, FileSource{Path: b.root, MaxFileSize: b.opts.MaxFileSize})
		}
	}

	sources = append(sources, b.sources...)

	if b.envPrefix != "" {
		sources = append(sources, EnvSource{Prefix: b.envPrefix})
	}
	if len(b.args) > 0 {
		sources = append(sources, ArgsSource{Args: b.args})
	}
	return sources, nil
}

func (b *Builder) identity(opts LoadOptions, sources []Source) Identity {
	root := b.root
	if abs, err := filepath.Abs(root); err == nil && root != "" {
		root = abs
	}

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}

	return Identity{
		Root:      root,
		Delimiter: opts.Delimiter,
		Shared:    true,
		Policy:    opts.Policy,
		Sources:   strings.Join(names, ","),

		FactoryAttributes: strings.Join(opts.FactoryAttributes, ","),
		Registry:          b.registry,
	}
}
