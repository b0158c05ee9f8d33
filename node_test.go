// FILE: lixenwraith/namespace/node_test.go
package namespace

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSplitJoin tests literal tokenization of flat keys
func TestSplitJoin(t *testing.T) {
	t.Run("EmptyStringIsOneSegment", func(t *testing.T) {
		assert.Equal(t, []string{""}, Split("", "/"))
	})

	t.Run("NoCollapsing", func(t *testing.T) {
		assert.Equal(t, []string{"a", "", "b"}, Split("a//b", "/"))
		assert.Equal(t, []string{"", "a", ""}, Split("/a/", "/"))
	})

	t.Run("MultiCharacterDelimiter", func(t *testing.T) {
		assert.Equal(t, []string{"db", "host"}, Split("db::host", "::"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, tc := range []struct{ s, delim string }{
			{"a/b/c", "/"},
			{"a.b.c", "."},
			{"plain", "/"},
			{"x::y", "::"},
		} {
			first := Split(tc.s, tc.delim)
			assert.Equal(t, first, Split(Join(first, tc.delim), tc.delim), tc.s)
		}
	})
}

// TestNodeBindLookup tests bind and lookup round-trips
func TestNodeBindLookup(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("server/host", "localhost"))
		require.NoError(t, root.Bind("server/port", NewLeaf(int32(8080), "int32")))

		b, err := root.Lookup("server/host")
		require.NoError(t, err)
		assert.False(t, b.IsSubtree())
		assert.Equal(t, "localhost", b.Value())
		assert.Equal(t, "string", b.Leaf().TypeName())

		b, err = root.Lookup("server/port")
		require.NoError(t, err)
		assert.Equal(t, int32(8080), b.Value())
		assert.Equal(t, "int32", b.Leaf().TypeName())
	})

	t.Run("IntermediateSubtrees", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("a/b/c", "v"))

		b, err := root.Lookup("a/b")
		require.NoError(t, err)
		require.True(t, b.IsSubtree())
		assert.Equal(t, "a/b", b.Node().Path())
		assert.Equal(t, []string{"c"}, b.Node().Names())
	})

	t.Run("EmptyPathIsSelf", func(t *testing.T) {
		root := New()
		b, err := root.Lookup("")
		require.NoError(t, err)
		assert.Same(t, root, b.Node())
	})

	t.Run("NotFound", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("a/b", "v"))

		_, err := root.Lookup("a/missing")
		assert.ErrorIs(t, err, ErrNotFound)

		var pe *PathError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "a/missing", pe.Path)
	})

	t.Run("DescendIntoLeaf", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("a", "v"))

		_, err := root.Lookup("a/b")
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("RelativeLookupQualifiesErrors", func(t *testing.T) {
		root := New()
		sub, err := root.CreateSubtree("x/y")
		require.NoError(t, err)

		_, err = sub.Lookup("z")
		var pe *PathError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "x/y/z", pe.Path)
	})

	t.Run("CustomDelimiter", func(t *testing.T) {
		root := New(WithDelimiter("."))
		require.NoError(t, root.Bind("db.host", "h"))
		v, ok := root.Get("db.host")
		assert.True(t, ok)
		assert.Equal(t, "h", v)
	})
}

// TestNodeConflicts tests leaf/subtree collisions
func TestNodeConflicts(t *testing.T) {
	t.Run("LeafThenSubtree", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("p", "v"))

		_, err := root.CreateSubtree("p")
		assert.ErrorIs(t, err, ErrAlreadyBound)
	})

	t.Run("SubtreeThenLeaf", func(t *testing.T) {
		root := New()
		_, err := root.CreateSubtree("p")
		require.NoError(t, err)

		err = root.Bind("p", "v")
		assert.ErrorIs(t, err, ErrAlreadyBound)
	})

	t.Run("CreateSubtreeIdempotent", func(t *testing.T) {
		root := New()
		first, err := root.CreateSubtree("a/b")
		require.NoError(t, err)
		second, err := root.CreateSubtree("a/b")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("OverwriteLeaf", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("k", "one"))
		require.NoError(t, root.Bind("k", "two"))
		v, _ := root.Get("k")
		assert.Equal(t, "two", v)
	})

	t.Run("StrictRejectsDuplicateLeaf", func(t *testing.T) {
		root := New(WithMergePolicy(MergeStrict))
		require.NoError(t, root.Bind("k", "one"))
		assert.ErrorIs(t, root.Bind("k", "two"), ErrAlreadyBound)
	})

	t.Run("NodeIsNotAValue", func(t *testing.T) {
		root := New()
		assert.ErrorIs(t, root.Bind("k", New()), ErrTypeMismatch)
	})

	t.Run("Remove", func(t *testing.T) {
		root := New()
		require.NoError(t, root.Bind("a/b", "v"))
		require.NoError(t, root.Remove("a"))
		_, err := root.Lookup("a/b")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, root.Remove("a"), ErrNotFound)
	})
}

// TestNodeMerge tests recursive union of trees
func TestNodeMerge(t *testing.T) {
	t.Run("UnionAndOverwrite", func(t *testing.T) {
		dst := New()
		require.NoError(t, dst.Bind("a/x", "1"))
		require.NoError(t, dst.Bind("a/y", "2"))

		src := New()
		require.NoError(t, src.Bind("a/y", "3"))
		require.NoError(t, src.Bind("b", "4"))

		require.NoError(t, dst.Merge(src))

		want := map[string]any{
			"a": map[string]any{"x": "1", "y": "3"},
			"b": "4",
		}
		if diff := cmp.Diff(want, dst.ToMap()); diff != "" {
			t.Errorf("merged tree mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("StrictIsAllOrNothing", func(t *testing.T) {
		dst := New(WithMergePolicy(MergeStrict))
		require.NoError(t, dst.Bind("a/x", "1"))

		src := New()
		require.NoError(t, src.Bind("a/new", "n"))
		require.NoError(t, src.Bind("a/x", "2"))

		err := dst.Merge(src)
		assert.ErrorIs(t, err, ErrAlreadyBound)

		// Nothing from src is visible
		_, err = dst.Lookup("a/new")
		assert.ErrorIs(t, err, ErrNotFound)
		v, _ := dst.Get("a/x")
		assert.Equal(t, "1", v)
	})

	t.Run("LeafMeetsSubtree", func(t *testing.T) {
		dst := New()
		require.NoError(t, dst.Bind("a", "leaf"))
		src := New()
		require.NoError(t, src.Bind("a/b", "v"))

		assert.ErrorIs(t, dst.Merge(src), ErrTypeMismatch)
	})

	t.Run("MergedSubtreesBelongToDestination", func(t *testing.T) {
		dst := New()
		src := New()
		require.NoError(t, src.Bind("a/b", "v"))
		require.NoError(t, dst.Merge(src))

		// Later changes to src do not leak into dst
		require.NoError(t, src.Bind("a/c", "w"))
		_, err := dst.Lookup("a/c")
		assert.ErrorIs(t, err, ErrNotFound)

		b, err := dst.Lookup("a")
		require.NoError(t, err)
		assert.Equal(t, "a", b.Node().Path())
	})
}

// TestNodeWalkClone tests traversal and deep copies
func TestNodeWalkClone(t *testing.T) {
	root := New()
	require.NoError(t, root.Bind("b/y", "2"))
	require.NoError(t, root.Bind("a", "1"))
	require.NoError(t, root.Bind("b/x", "3"))

	var paths []string
	require.NoError(t, root.Walk(func(path string, leaf *Leaf) error {
		paths = append(paths, path)
		return nil
	}))
	assert.Equal(t, []string{"a", "b/x", "b/y"}, paths)

	clone := root.Clone()
	require.NoError(t, clone.Bind("c", "4"))
	_, err := root.Lookup("c")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, clone.Len())
	assert.Equal(t, 2, root.Len())
}

// TestNodeConcurrentAccess tests concurrent lookups during merges
func TestNodeConcurrentAccess(t *testing.T) {
	root := New()
	require.NoError(t, root.Bind("stable", "s"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			src := New()
			_ = src.Bind("dyn/a", "1")
			_ = src.Bind("dyn/b", "2")
			_ = root.Merge(src)
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v, ok := root.Get("stable")
				assert.True(t, ok)
				assert.Equal(t, "s", v)
				if b, err := root.Lookup("dyn"); err == nil {
					// A merge is never observed half applied
					assert.Len(t, b.Node().Names(), 2)
				}
			}
		}()
	}
	wg.Wait()
}
