package fakebackend

import (
	"maps"
	"sort"
	"sync"
	"time"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
)

type record = map[string]any

type storedFile struct {
	name        string
	contentType string
	content     []byte
}

// recordStore keeps schemaless records per collection.
type recordStore struct {
	collections map[string]map[int]record
	files       map[int]storedFile // document id to content
	nextID      map[string]int
	now         func() time.Time
	lock        sync.RWMutex
}

func newRecordStore(now func() time.Time) *recordStore {
	return &recordStore{
		collections: make(map[string]map[int]record),
		files:       make(map[int]storedFile),
		nextID:      make(map[string]int),
		now:         now,
	}
}

func (rs *recordStore) Create(collection string, fields record) record {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.create(collection, fields)
}

func (rs *recordStore) create(collection string, fields record) record {
	if rs.collections[collection] == nil {
		rs.collections[collection] = make(map[int]record)
	}
	rs.nextID[collection]++
	id := rs.nextID[collection]

	rec := maps.Clone(fields)
	if rec == nil {
		rec = record{}
	}
	rec["id"] = id
	rec["created_at"] = rs.now().UTC().Format(time.RFC3339)
	rs.collections[collection][id] = rec
	return maps.Clone(rec)
}

// CreateFile stores a document record together with its content.
func (rs *recordStore) CreateFile(fields record, file storedFile) record {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	rec := rs.create("documents", fields)
	rs.files[rec["id"].(int)] = file
	return rec
}

func (rs *recordStore) File(id int) (storedFile, error) {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	f, ok := rs.files[id]
	if !ok {
		return storedFile{}, portalerrors.ErrNotFound
	}
	return f, nil
}

func (rs *recordStore) Get(collection string, id int) (record, error) {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	rec, ok := rs.collections[collection][id]
	if !ok {
		return nil, portalerrors.ErrNotFound
	}
	return maps.Clone(rec), nil
}

// List returns the records of collection ordered by id.
func (rs *recordStore) List(collection string) []record {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	out := make([]record, 0, len(rs.collections[collection]))
	for _, rec := range rs.collections[collection] {
		out = append(out, maps.Clone(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["id"].(int) < out[j]["id"].(int)
	})
	return out
}

// Update replaces the record's fields, or merges them when partial is set.
// The id and creation time are kept.
func (rs *recordStore) Update(collection string, id int, fields record, partial bool) (record, error) {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	rec, ok := rs.collections[collection][id]
	if !ok {
		return nil, portalerrors.ErrNotFound
	}
	updated := record{}
	if partial {
		updated = maps.Clone(rec)
	}
	maps.Copy(updated, fields)
	updated["id"] = id
	updated["created_at"] = rec["created_at"]
	rs.collections[collection][id] = updated
	return maps.Clone(updated), nil
}

func (rs *recordStore) Delete(collection string, id int) error {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	if _, ok := rs.collections[collection][id]; !ok {
		return portalerrors.ErrNotFound
	}
	delete(rs.collections[collection], id)
	if collection == "documents" {
		delete(rs.files, id)
	}
	return nil
}
