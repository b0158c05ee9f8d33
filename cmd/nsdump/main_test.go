// FILE: lixenwraith/namespace/cmd/nsdump/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := buildCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestNsdump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.properties")
	require.NoError(t, os.WriteFile(path, []byte("db/host = localhost\ndb/port = 5432\ndb/port/type = int\n"), 0644))

	t.Run("Dump", func(t *testing.T) {
		out, err := run(t, path)
		require.NoError(t, err)
		assert.Contains(t, out, "[db]")
		assert.Contains(t, out, `host = "localhost"`)
		assert.Contains(t, out, "port = 5432")
	})

	t.Run("Lookup", func(t *testing.T) {
		out, err := run(t, path, "--lookup", "db/port", "--lookup", "db")
		require.NoError(t, err)
		assert.Contains(t, out, "db/port = 5432 (int)")
		assert.Contains(t, out, "namespace db:")
	})

	t.Run("MissingLookup", func(t *testing.T) {
		_, err := run(t, path, "--lookup", "db/user")
		assert.Error(t, err)
	})

	t.Run("MissingRoot", func(t *testing.T) {
		_, err := run(t, filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}
