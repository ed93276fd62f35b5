package refdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovcs/geovcs/internal/objhash"
)

func newRefDbs(t *testing.T) map[string]RefDb {
	t.Helper()
	badgerDb, err := NewBadgerRefDb(BadgerRefDbOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { badgerDb.Close() })

	return map[string]RefDb{
		"memory": NewMemRefDb(),
		"badger": badgerDb,
	}
}

func TestPutGetRef(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			id := objhash.Sum([]byte("commit"))
			require.NoError(t, db.PutRef("refs/heads/master", id))

			got, ok, err := db.GetRef("refs/heads/master")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, id, got)
		})
	}
}

func TestGetRefAbsent(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := db.GetRef("refs/heads/nope")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPutGetSymRef(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.PutSymRef("HEAD", "refs/heads/master"))

			target, ok, err := db.GetSymRef("HEAD")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "refs/heads/master", target)

			_, ok, err = db.GetRef("HEAD")
			require.NoError(t, err)
			assert.False(t, ok, "a symbolic ref must not resolve through GetRef")
		})
	}
}

func TestRemove(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			id := objhash.Sum([]byte("x"))
			require.NoError(t, db.PutRef("refs/heads/feature", id))

			raw, ok, err := db.Remove("refs/heads/feature")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, id.String(), raw)

			_, ok, err = db.GetRef("refs/heads/feature")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRemoveAbsentReportsNotFound(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := db.Remove("refs/heads/never-existed")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestGetAllAndRemoveAllByPrefix(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.PutRef("refs/heads/a", objhash.Sum([]byte("a"))))
			require.NoError(t, db.PutRef("refs/heads/b", objhash.Sum([]byte("b"))))
			require.NoError(t, db.PutRef("refs/tags/v1", objhash.Sum([]byte("v1"))))

			heads, err := db.GetAll("refs/heads/")
			require.NoError(t, err)
			assert.Len(t, heads, 2)

			all, err := db.GetAll("")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			removed, err := db.RemoveAll("refs/heads/")
			require.NoError(t, err)
			assert.Len(t, removed, 2)

			remaining, err := db.GetAll("")
			require.NoError(t, err)
			assert.Len(t, remaining, 1)
		})
	}
}

func TestLockUnlock(t *testing.T) {
	for name, db := range newRefDbs(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Lock())
			require.NoError(t, db.Unlock())
			// Lock must be reusable once released.
			require.NoError(t, db.Lock())
			require.NoError(t, db.Unlock())
		})
	}
}

func TestLockTimesOutWhenAlreadyHeld(t *testing.T) {
	db := NewMemRefDb()
	db.timeout = 10_000_000 // 10ms, keep the test fast
	require.NoError(t, db.Lock())
	defer db.Unlock()

	err := db.Lock()
	assert.ErrorIs(t, err, ErrLockTimeout)
}
