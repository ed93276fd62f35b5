package reftx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/refdb"
)

func TestReadBeforeCreateFindsNothingAndCreateRunsOnce(t *testing.T) {
	db := refdb.NewMemRefDb()
	v := New(db)

	_, _, err := v.GetRef("refs/heads/master")
	assert.NoError(t, err, "GetRef before Create simply finds nothing, not an error")

	require.NoError(t, v.Create())
	assert.ErrorIs(t, v.Create(), ErrAlreadyCreated)
}

func TestCloseRequiresOpenView(t *testing.T) {
	db := refdb.NewMemRefDb()
	v := New(db)
	assert.ErrorIs(t, v.Close(), ErrAlreadyClosed)

	require.NoError(t, v.Create())
	require.NoError(t, v.Close())
	assert.ErrorIs(t, v.Close(), ErrAlreadyClosed)
}

func TestWritesInsideTxAreIsolatedFromSharedNamespace(t *testing.T) {
	db := refdb.NewMemRefDb()
	id := objhash.Sum([]byte("c1"))
	require.NoError(t, db.PutRef("refs/heads/master", id))

	v := New(db)
	require.NoError(t, v.Create())

	updated := objhash.Sum([]byte("c2"))
	require.NoError(t, v.PutRef("refs/heads/master", updated))

	got, ok, err := v.GetRef("refs/heads/master")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, updated, got, "the transaction's own view must see its own write")

	sharedGot, ok, err := db.GetRef("refs/heads/master")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, sharedGot, "the shared namespace must be untouched until commit")
}

func TestCloseRemovesTransactionSubtree(t *testing.T) {
	db := refdb.NewMemRefDb()
	require.NoError(t, db.PutRef("refs/heads/master", objhash.Sum([]byte("c1"))))

	v := New(db)
	require.NoError(t, v.Create())
	require.NoError(t, v.PutRef("refs/heads/feature", objhash.Sum([]byte("c2"))))
	require.NoError(t, v.Close())

	all, err := db.GetAll("")
	require.NoError(t, err)
	for k := range all {
		assert.NotContains(t, k, "transactions/", "Close must remove every key under the transaction's live namespace")
	}
}

func TestGetAllOverlaysLiveOnTopOfOrig(t *testing.T) {
	db := refdb.NewMemRefDb()
	original := objhash.Sum([]byte("orig"))
	require.NoError(t, db.PutRef("refs/heads/master", original))

	v := New(db)
	require.NoError(t, v.Create())

	updated := objhash.Sum([]byte("updated"))
	require.NoError(t, v.PutRef("refs/heads/master", updated))
	require.NoError(t, v.PutRef("refs/heads/new-branch", objhash.Sum([]byte("new"))))

	entries, err := v.GetAll("refs/")
	require.NoError(t, err)

	masterRaw, ok := entries["refs/heads/master"]
	require.True(t, ok)
	assert.Equal(t, updated.String(), masterRaw, "live write must shadow the orig snapshot")

	_, ok = entries["refs/heads/new-branch"]
	assert.True(t, ok, "a ref created only inside the tx must still appear")
}

func TestRemoveInsideTxRevealsOrigOnNextRead(t *testing.T) {
	db := refdb.NewMemRefDb()
	original := objhash.Sum([]byte("orig"))
	require.NoError(t, db.PutRef("refs/heads/master", original))

	v := New(db)
	require.NoError(t, v.Create())

	updated := objhash.Sum([]byte("updated"))
	require.NoError(t, v.PutRef("refs/heads/master", updated))

	_, ok, err := v.Remove("refs/heads/master")
	require.NoError(t, err)
	assert.True(t, ok)

	got, ok, err := v.GetRef("refs/heads/master")
	require.NoError(t, err)
	assert.True(t, ok, "removing the live override must fall back to the committed orig value")
	assert.Equal(t, original, got)
}

func TestHeadRefsAreSnapshottedButNotIntoOrig(t *testing.T) {
	db := refdb.NewMemRefDb()
	require.NoError(t, db.PutSymRef(model.HEAD, "refs/heads/master"))
	require.NoError(t, db.PutRef("refs/heads/master", objhash.Sum([]byte("c1"))))

	v := New(db)
	require.NoError(t, v.Create())

	target, ok, err := v.GetSymRef(model.HEAD)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refs/heads/master", target)

	// Removing HEAD's live entry must not reveal a pre-transaction value
	// from orig/, since HEAD is never snapshotted there.
	_, ok, err = v.Remove(model.HEAD)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = v.GetSymRef(model.HEAD)
	require.NoError(t, err)
	assert.False(t, ok, "HEAD must not resurrect from orig/ once its live entry is removed")
}

func TestSymbolicRefTargetDoesNotLeakInternalNamespace(t *testing.T) {
	db := refdb.NewMemRefDb()
	v := New(db)
	require.NoError(t, v.Create())

	require.NoError(t, v.PutSymRef(model.HEAD, "refs/heads/master"))
	target, ok, err := v.GetSymRef(model.HEAD)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refs/heads/master", target)
	assert.NotContains(t, target, "transactions/")
}

func TestTxIDIsUnique(t *testing.T) {
	db := refdb.NewMemRefDb()
	v1 := New(db)
	v2 := New(db)
	assert.NotEqual(t, v1.TxID(), v2.TxID())
}

func TestConcurrentTransactionsAreMutuallyIsolated(t *testing.T) {
	db := refdb.NewMemRefDb()
	require.NoError(t, db.PutRef("refs/heads/master", objhash.Sum([]byte("base"))))

	v1 := New(db)
	require.NoError(t, v1.Create())
	v2 := New(db)
	require.NoError(t, v2.Create())

	require.NoError(t, v1.PutRef("refs/heads/master", objhash.Sum([]byte("from-v1"))))
	require.NoError(t, v2.PutRef("refs/heads/master", objhash.Sum([]byte("from-v2"))))

	got1, _, err := v1.GetRef("refs/heads/master")
	require.NoError(t, err)
	got2, _, err := v2.GetRef("refs/heads/master")
	require.NoError(t, err)

	assert.NotEqual(t, got1, got2, "each transaction's view must be independent of the other's writes")
}
