// Package storetest checks that a switcher.SessionStore behaves like the
// in-memory reference.
package storetest

import (
	"testing"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Run(t *testing.T, store switcher.SessionStore) {
	t.Run("missing", func(t *testing.T) {
		_, ok, err := store.GetSession("nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		want := switcher.SessionState{Source: layouts.Russian, Text: "руддщ, мир", Cursor: 1}
		require.NoError(t, store.SetSession("last", want))

		got, ok, err := store.GetSession("last")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		want := switcher.SessionState{Source: layouts.English, Text: "ghbdtn", Cursor: 0}
		require.NoError(t, store.SetSession("last", want))

		got, ok, err := store.GetSession("last")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.SetSession("tmp", switcher.SessionState{Source: layouts.English}))
		require.NoError(t, store.DeleteSession("tmp"))
		require.NoError(t, store.DeleteSession("tmp"), "deleting twice is fine")

		_, ok, err := store.GetSession("tmp")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("resumes rotation", func(t *testing.T) {
		sw, err := switcher.NewSwitcher(layouts.Default)
		require.NoError(t, err)

		sess, err := sw.StartSession(layouts.English, "qwerty")
		require.NoError(t, err)
		sess.Next()
		require.NoError(t, store.SetSession("rot", sess.State()))

		state, ok, err := store.GetSession("rot")
		require.NoError(t, err)
		require.True(t, ok)

		resumed, err := sw.RestoreSession(state)
		require.NoError(t, err)
		assert.Equal(t, "qwerty", resumed.Current())
		assert.Equal(t, "йцукен", resumed.Next())
	})
}
