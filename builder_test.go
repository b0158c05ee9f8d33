// FILE: lixenwraith/namespace/builder_test.go
package namespace

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder tests source assembly and precedence
func TestBuilder(t *testing.T) {
	t.Run("FileRoot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.toml")
		writeFile(t, path, `
[server]
host = "localhost"
port = 8080
`)
		root, err := NewBuilder().WithRoot(path).Build()
		require.NoError(t, err)

		host, err := root.String("server/host")
		require.NoError(t, err)
		assert.Equal(t, "localhost", host)

		port, err := root.Int64("server/port")
		require.NoError(t, err)
		assert.Equal(t, int64(8080), port)
	})

	t.Run("DirectoryRoot", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "default.properties"), "name = demo\n")
		writeFile(t, filepath.Join(dir, "db.properties"), "host = db.local\nport = 5432\nport/type = int\n")

		root, err := NewBuilder().WithRoot(dir).Build()
		require.NoError(t, err)

		v, _ := root.Get("name")
		assert.Equal(t, "demo", v)
		v, _ = root.Get("db/port")
		assert.Equal(t, 5432, v)
	})

	t.Run("Precedence", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.properties")
		writeFile(t, path, "a = file\nb = file\nc = file\nd = file\n")
		t.Setenv("NSBUILD_C", "env")
		t.Setenv("NSBUILD_D", "env")

		root, err := NewBuilder().
			WithRoot(path).
			WithSources(StaticSource("static", recs("b", "static", "c", "static", "d", "static")...)).
			WithEnvPrefix("NSBUILD_").
			WithArgs([]string{"--d=args"}).
			Build()
		require.NoError(t, err)

		for path, want := range map[string]string{"a": "file", "b": "static", "c": "env", "d": "args"} {
			v, _ := root.Get(path)
			assert.Equal(t, want, v, path)
		}
	})

	t.Run("MissingRoot", func(t *testing.T) {
		_, err := NewBuilder().WithRoot(filepath.Join(t.TempDir(), "absent.toml")).Build()
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("NoSources", func(t *testing.T) {
		root, err := NewBuilder().Build()
		require.NoError(t, err)
		assert.Equal(t, 0, root.Len())
	})

	t.Run("Options", func(t *testing.T) {
		root, err := NewBuilder().
			WithDelimiter(".").
			WithMergePolicy(MergeStrict).
			WithSources(StaticSource("s", recs("a.b", "1")...)).
			Build()
		require.NoError(t, err)
		assert.Equal(t, ".", root.Delimiter())
		assert.Equal(t, MergeStrict, root.Policy())

		_, err = NewBuilder().
			WithMergePolicy(MergeStrict).
			WithSources(
				StaticSource("one", recs("a", "1")...),
				StaticSource("two", recs("a", "2")...),
			).
			Build()
		assert.ErrorIs(t, err, ErrAlreadyBound)

		_, err = NewBuilder().WithDelimiter("").Build()
		assert.Error(t, err)
	})

	t.Run("RegistryAndFactories", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterConverter("upper", func(ConverterEnv) Converter {
			return ConverterFunc(func(props map[string]string, _ string) (any, error) {
				return "[" + props[ValueKey] + "]", nil
			})
		})

		root, err := NewBuilder().
			WithRegistry(r).
			WithFactoryAttributes("maker").
			WithSources(StaticSource("s", recs("a", "x", "a/maker", "upper")...)).
			Build()
		require.NoError(t, err)
		v, _ := root.Get("a")
		assert.Equal(t, "[x]", v)
	})

	t.Run("MaxFileSize", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.properties")
		writeFile(t, path, "a = 0123456789\n")
		_, err := NewBuilder().WithRoot(path).WithMaxFileSize(4).Build()
		assert.Error(t, err)
	})
}

// TestBuilderValidators tests post-build validation
func TestBuilderValidators(t *testing.T) {
	src := StaticSource("s", recs("port", "70000", "port/type", "int")...)

	var order []string
	root, err := NewBuilder().
		WithSources(src).
		WithValidator(func(*Node) error { order = append(order, "first"); return nil }).
		WithValidator(nil).
		WithValidator(func(*Node) error { order = append(order, "second"); return nil }).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, root)
	assert.Equal(t, []string{"first", "second"}, order)

	errRange := errors.New("port out of range")
	_, err = NewBuilder().
		WithSources(src).
		WithValidator(func(root *Node) error {
			port, err := root.Int64("port")
			if err != nil {
				return err
			}
			if port > 65535 {
				return errRange
			}
			return nil
		}).
		Build()
	assert.ErrorIs(t, err, errRange)
}

// TestBuilderScan tests BuildAndScan and MustBuild
func TestBuilderScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, `
server:
  host: example.com
  port: 443
  timeout: 5s
  tags:
    - a
    - b
`)

	var server struct {
		Host    string
		Port    int
		Timeout time.Duration
		Tags    []string
	}
	require.NoError(t, NewBuilder().WithRoot(path).BuildAndScan("server", &server))
	assert.Equal(t, "example.com", server.Host)
	assert.Equal(t, 443, server.Port)
	assert.Equal(t, 5*time.Second, server.Timeout)
	assert.Equal(t, []string{"a", "b"}, server.Tags)

	assert.Error(t, NewBuilder().WithRoot(path).BuildAndScan("server/host", &server))

	assert.NotPanics(t, func() { NewBuilder().WithRoot(path).MustBuild() })
	assert.Panics(t, func() { NewBuilder().WithRoot(filepath.Join(t.TempDir(), "none.yaml")).MustBuild() })
}

// TestRootDiscovery tests locating the root
func TestRootDiscovery(t *testing.T) {
	t.Run("SearchPath", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "svc.yaml"), "found: yes\n")

		opts := DefaultDiscoveryOptions("svc")
		opts.Paths = []string{dir}
		opts.UseCurrentDir = false
		opts.UseXDG = false

		root, err := NewBuilder().WithRootDiscovery(opts).Build()
		require.NoError(t, err)
		found, err := root.Bool("found")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("DirectoryByName", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "svc", "default.properties"), "k = v\n")

		opts := DiscoveryOptions{Name: "svc", Extensions: []string{".toml"}, Paths: []string{dir}}
		root, err := NewBuilder().WithRootDiscovery(opts).Build()
		require.NoError(t, err)
		v, _ := root.Get("k")
		assert.Equal(t, "v", v)
	})

	t.Run("EnvVarBeatsSearch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "svc.yaml"), "from: search\n")
		explicit := filepath.Join(dir, "explicit.properties")
		writeFile(t, explicit, "from = env\n")
		t.Setenv("SVC_ROOT", explicit)

		opts := DefaultDiscoveryOptions("svc")
		opts.Paths = []string{dir}
		assert.Equal(t, explicit, discoverRoot(opts, nil))
	})

	t.Run("FlagBeatsEnvVar", func(t *testing.T) {
		t.Setenv("SVC_ROOT", "/from/env")
		opts := DefaultDiscoveryOptions("svc")
		assert.Equal(t, "/from/flag", discoverRoot(opts, []string{"--root", "/from/flag"}))
		assert.Equal(t, "/from/flag", discoverRoot(opts, []string{"--root=/from/flag"}))
	})

	t.Run("NothingFound", func(t *testing.T) {
		opts := DiscoveryOptions{Name: "absent", Extensions: []string{".toml"}, Paths: []string{t.TempDir()}}
		root, err := NewBuilder().WithRootDiscovery(opts).Build()
		require.NoError(t, err)
		assert.Equal(t, 0, root.Len())
	})

	t.Run("XDGPaths", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/xdg/home")
		t.Setenv("XDG_CONFIG_DIRS", "/xdg/a:/xdg/b")
		assert.Equal(t, []string{"/xdg/home/svc", "/xdg/a/svc", "/xdg/b/svc"}, getXDGConfigPaths("svc"))
	})
}
