package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/tstore"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("query")

// Options configures a collection
type Options struct {
	Name        string // Key the collection is stored under ("" = name of the record type)
	Compression string // Compression of the collection file, only used by Open
}

// Collection keeps all records of one type in a single store entry. Every
// mutation loads the whole collection, changes it in memory and writes it back.
// Mutations are serialized within the process, not across processes.
type Collection[T Record] struct {
	mu    sync.Mutex
	name  string
	store *tstore.TypedStore
}

// Open creates a gob typed store at root and a collection on top of it
func Open[T Record](root string, opts *Options) (*Collection[T], error) {
	if opts == nil {
		opts = &Options{}
	}
	ts, err := tstore.Open(root, &tstore.Options{
		Serialization: codec.SerializationGob,
		Compression:   opts.Compression,
	})
	if err != nil {
		return nil, err
	}
	return New[T](ts, opts)
}

// New creates a collection in an existing typed store. The store must be able
// to serialize []T, json stores reject slices of structs.
func New[T Record](ts *tstore.TypedStore, opts *Options) (*Collection[T], error) {
	if opts == nil {
		opts = &Options{}
	}
	name := opts.Name
	if name == "" {
		name = typeName[T]()
	}
	if name == "" {
		return nil, store.NewError(store.RetCConfiguration, "query: collection needs a name for unnamed record types")
	}

	log.Infof("opened collection %s in %s", name, ts.Store().Path())
	return &Collection[T]{name: name, store: ts}, nil
}

// Name returns the key the collection is stored under
func (c *Collection[T]) Name() string {
	return c.name
}

// Query loads the collection. A collection that was never written is empty.
func (c *Collection[T]) Query() (*QuerySet[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return nil, err
	}
	return NewQuerySet(c.name, items), nil
}

// Add appends records whose uid is not yet part of the collection and returns
// the updated collection
func (c *Collection[T]) Add(records ...T) (*QuerySet[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkUIDs(records); err != nil {
		return nil, err
	}
	items, err := c.load()
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(items)+len(records))
	for _, item := range items {
		known[item.RecordUID()] = struct{}{}
	}
	added := 0
	for _, r := range records {
		if _, ok := known[r.RecordUID()]; ok {
			continue
		}
		known[r.RecordUID()] = struct{}{}
		items = append(items, r)
		added++
	}

	log.Debugf("%s: added %d of %d records", c.name, added, len(records))
	if err := c.save(items); err != nil {
		return nil, err
	}
	return NewQuerySet(c.name, items), nil
}

// Set replaces the whole collection with records. Later records with an
// already seen uid are dropped.
func (c *Collection[T]) Set(records ...T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkUIDs(records); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(records))
	unique := make([]T, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.RecordUID()]; ok {
			continue
		}
		seen[r.RecordUID()] = struct{}{}
		unique = append(unique, r)
	}

	log.Debugf("%s: set %d records", c.name, len(unique))
	return c.save(unique)
}

// Update replaces the stored record with the uid of record. It reports whether
// such a record existed, nothing is written otherwise.
func (c *Collection[T]) Update(record T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return false, err
	}
	for i, item := range items {
		if item.RecordUID() == record.RecordUID() {
			items[i] = record
			log.Debugf("%s: updated record %s", c.name, record.RecordUID())
			return true, c.save(items)
		}
	}
	return false, nil
}

// Delete removes the records with the uids of the given records and returns
// how many were removed
func (c *Collection[T]) Delete(records ...T) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deleteLocked(records)
}

// DeleteBy removes every record whose field equals value
func (c *Collection[T]) DeleteBy(field string, value any) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return 0, err
	}
	matches := NewQuerySet(c.name, items).Where(field, value).All()
	if len(matches) == 0 {
		return 0, nil
	}
	return c.deleteLocked(matches)
}

// RemoveDuplicates rewrites the collection keeping the first of every group of
// records that are equal apart from their uid. It returns how many were removed.
func (c *Collection[T]) RemoveDuplicates() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return 0, err
	}
	unique := NewQuerySet(c.name, items).RemoveDuplicates().All()
	removed := len(items) - len(unique)
	if removed == 0 {
		return 0, nil
	}

	log.Debugf("%s: removed %d duplicates", c.name, removed)
	return removed, c.save(unique)
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func (c *Collection[T]) deleteLocked(records []T) (int, error) {
	items, err := c.load()
	if err != nil {
		return 0, err
	}

	remove := make(map[string]struct{}, len(records))
	for _, r := range records {
		remove[r.RecordUID()] = struct{}{}
	}
	kept := items[:0]
	for _, item := range items {
		if _, ok := remove[item.RecordUID()]; !ok {
			kept = append(kept, item)
		}
	}
	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	log.Debugf("%s: deleted %d records", c.name, removed)
	return removed, c.save(kept)
}

func (c *Collection[T]) load() ([]T, error) {
	var items []T
	err := c.store.GetInto(c.name, &items)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Warningf("%s: cannot load collection: %v", c.name, err)
		return nil, err
	}
	return items, nil
}

func (c *Collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	if err := c.store.Set(c.name, items); err != nil {
		log.Warningf("%s: cannot store collection: %v", c.name, err)
		return err
	}
	return nil
}

func checkUIDs[T Record](records []T) error {
	for i, r := range records {
		if r.RecordUID() == "" {
			return store.NewError(store.RetCInvalidKey, fmt.Sprintf("query: record %d has no uid", i))
		}
	}
	return nil
}

// typeName returns the name of T without package path, pointers are dereferenced
func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	// generic instantiations carry package paths in brackets
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}
