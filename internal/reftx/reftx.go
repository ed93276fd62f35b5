// Package reftx implements TxRefView (spec.md §4.1): a namespaced
// decorator over a refdb.RefDb giving each open transaction an isolated,
// copy-on-begin view of every named pointer, so that any command
// executing inside a transaction sees a coherent view of refs without
// any awareness of transactions itself.
//
// The decorator is itself a RefDb, confining all reads and writes to a
// per-transaction subtree:
//
//	transactions/<T>/       the live namespace; every write lands here
//	transactions/<T>/orig/  a read-only snapshot taken at Create()
package reftx

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/refdb"
)

// Errors returned when the create/close lifecycle is violated.
var (
	ErrAlreadyCreated = errors.New("reftx: Create already called")
	ErrNotCreated     = errors.New("reftx: Create has not been called")
	ErrAlreadyClosed  = errors.New("reftx: view already closed")
)

const transactionsRoot = "transactions/"

// headNames are the well-known head refs snapshotted into the live
// namespace but never into orig/.
var headNames = []string{model.HEAD, model.WorkHead, model.StageHead}

// state tracks the view's lifecycle. Create succeeds only once and Close
// only on an open view; the other operations do not check the state.
type state int

const (
	stateNew state = iota
	stateOpen
	stateClosed
)

// TxRefView presents the full RefDb interface over an isolated
// transaction namespace. The zero value is not usable; construct with
// New.
type TxRefView struct {
	db    refdb.RefDb
	txID  string
	mu    sync.Mutex
	state state
}

// New allocates a TxRefView with a fresh transaction id, wrapping db.
// Create must be called before any other method.
func New(db refdb.RefDb) *TxRefView {
	return &TxRefView{db: db, txID: uuid.NewString()}
}

// TxID returns the transaction's UUID.
func (v *TxRefView) TxID() string {
	return v.txID
}

func (v *TxRefView) livePrefix() string {
	return transactionsRoot + v.txID + "/"
}

func (v *TxRefView) origPrefix() string {
	return transactionsRoot + v.txID + "/orig/"
}

func (v *TxRefView) liveKey(name string) string {
	return v.livePrefix() + name
}

func (v *TxRefView) origKey(name string) string {
	return v.origPrefix() + name
}

// Create snapshots the live ref namespace: HEAD, WORK_HEAD, STAGE_HEAD,
// and every ref under refs/ are copied into the live namespace; every
// ref under refs/ is additionally copied into orig/. The three head
// refs are deliberately not copied into orig/, matching the source
// contract: a command that overwrites a head inside the transaction
// must not be able to "revert" it to the pre-transaction value by
// deleting its live entry.
func (v *TxRefView) Create() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != stateNew {
		return ErrAlreadyCreated
	}

	for _, name := range headNames {
		raw, found, err := getRaw(v.db, name)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := putRaw(v.db, v.liveKey(name), raw); err != nil {
			return err
		}
	}

	userRefs, err := v.db.GetAll(model.UserRefPrefix)
	if err != nil {
		return err
	}
	for name, raw := range userRefs {
		if err := putRaw(v.db, v.liveKey(name), raw); err != nil {
			return err
		}
		if err := putRaw(v.db, v.origKey(name), raw); err != nil {
			return err
		}
	}

	v.state = stateOpen
	return nil
}

// Close removes the entire transactions/<T>/ subtree, discarding the
// live namespace and the orig/ snapshot alike.
func (v *TxRefView) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != stateOpen {
		return ErrAlreadyClosed
	}
	if _, err := v.db.RemoveAll(v.livePrefix()); err != nil {
		return err
	}
	v.state = stateClosed
	return nil
}

// Lock delegates to the underlying RefDb; TxRefView holds no locks of
// its own.
func (v *TxRefView) Lock() error { return v.db.Lock() }

// Unlock delegates to the underlying RefDb.
func (v *TxRefView) Unlock() error { return v.db.Unlock() }

// resolve implements the read rule shared by GetRef/GetSymRef: live
// always wins over orig; a name absent from live but present in orig is
// returned from orig (the "revert to committed" behavior within the
// transaction described by the source contract).
func (v *TxRefView) resolve(name string) (raw string, found bool, err error) {
	raw, found, err = getRaw(v.db, v.liveKey(name))
	if err != nil || found {
		return raw, found, err
	}
	return getRaw(v.db, v.origKey(name))
}

// GetRef implements refdb.RefDb.
func (v *TxRefView) GetRef(name string) (objhash.ObjectId, bool, error) {
	raw, found, err := v.resolve(name)
	if err != nil || !found || strings.HasPrefix(raw, model.SymRefValuePrefix) {
		return objhash.Null, false, err
	}
	id, err := objhash.Parse(raw)
	if err != nil {
		return objhash.Null, false, err
	}
	return id, true, nil
}

// GetSymRef implements refdb.RefDb. The returned target has this
// transaction's live prefix stripped if present, so that a symbolic
// value stored with an internal-form target never leaks the
// transaction's namespace to the caller.
func (v *TxRefView) GetSymRef(name string) (string, bool, error) {
	raw, found, err := v.resolve(name)
	if err != nil || !found || !strings.HasPrefix(raw, model.SymRefValuePrefix) {
		return "", false, err
	}
	target := strings.TrimPrefix(raw, model.SymRefValuePrefix)
	target = strings.TrimPrefix(target, v.livePrefix())
	return target, true, nil
}

// PutRef implements refdb.RefDb: writes to live/<name> only.
func (v *TxRefView) PutRef(name string, id objhash.ObjectId) error {
	return v.db.PutRef(v.liveKey(name), id)
}

// PutSymRef implements refdb.RefDb: writes to live/<name> only. The
// target is stored exactly as supplied: internal prefix rewriting is
// applied to the key (via liveKey), never to a symbolic ref's value.
func (v *TxRefView) PutSymRef(name string, target string) error {
	return v.db.PutSymRef(v.liveKey(name), target)
}

// Remove implements refdb.RefDb: removes only live/<name>, returning
// its prior raw value. A ref removed from live reappears on the next
// Get if it still exists in orig — this is intentional; true deletion
// is a higher layer's concern (e.g. a tombstone recorded outside this
// view).
func (v *TxRefView) Remove(name string) (string, bool, error) {
	return v.db.Remove(v.liveKey(name))
}

// RemoveAll implements refdb.RefDb: removes the live/<prefix> subtree
// only, returning the removed entries under their externalized names.
func (v *TxRefView) RemoveAll(prefix string) (map[string]string, error) {
	removed, err := v.db.RemoveAll(v.liveKey(prefix))
	if err != nil {
		return nil, err
	}
	return v.externalize(removed), nil
}

// GetAll implements refdb.RefDb: reads orig/<prefix>, translates keys
// back to external form, then overlays live/<prefix> (again
// externalized) on top — live entries shadow orig entries.
func (v *TxRefView) GetAll(prefix string) (map[string]string, error) {
	origEntries, err := v.db.GetAll(v.origKey(prefix))
	if err != nil {
		return nil, err
	}
	result := v.externalize(origEntries)

	liveEntries, err := v.db.GetAll(v.liveKey(prefix))
	if err != nil {
		return nil, err
	}
	for k, val := range v.externalize(liveEntries) {
		result[k] = val
	}
	return result, nil
}

// externalize strips this view's namespace prefix from every key in
// raw (mapping an internal "transactions/<T>/.../name" or
// "transactions/<T>/name" key back to its bare external name).
func (v *TxRefView) externalize(raw map[string]string) map[string]string {
	result := make(map[string]string, len(raw))
	orig, live := v.origPrefix(), v.livePrefix()
	for k, val := range raw {
		name := strings.TrimPrefix(k, orig)
		name = strings.TrimPrefix(name, live)
		result[name] = val
	}
	return result
}

// getRaw fetches name's stored value from db in whichever encoding it
// was written (direct or symbolic), since the RefDb contract only
// exposes typed accessors.
func getRaw(db refdb.RefDb, name string) (string, bool, error) {
	if id, ok, err := db.GetRef(name); err != nil {
		return "", false, err
	} else if ok {
		return id.String(), true, nil
	}
	if target, ok, err := db.GetSymRef(name); err != nil {
		return "", false, err
	} else if ok {
		return model.SymRefValuePrefix + target, true, nil
	}
	return "", false, nil
}

// putRaw writes a raw value (as returned by getRaw) to name, dispatching
// to PutRef or PutSymRef depending on its encoding.
func putRaw(db refdb.RefDb, name string, raw string) error {
	if strings.HasPrefix(raw, model.SymRefValuePrefix) {
		return db.PutSymRef(name, strings.TrimPrefix(raw, model.SymRefValuePrefix))
	}
	id, err := objhash.Parse(raw)
	if err != nil {
		return fmt.Errorf("reftx: snapshot %s: %w", name, err)
	}
	return db.PutRef(name, id)
}
