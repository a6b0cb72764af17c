package query

import (
	"crypto/sha256"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/google/uuid"
)

// Record is implemented by every value kept in a Collection. Embedding Model
// satisfies it.
type Record interface {
	RecordUID() string
}

// Model carries the identity of a record
type Model struct {
	UID string `json:"uid"`
}

// NewModel returns a model with a fresh random uid
func NewModel() Model {
	return Model{UID: uuid.NewString()}
}

// RecordUID returns the uid of the record
func (m Model) RecordUID() string {
	return m.UID
}

// --------------------------------------------------------------------------
// QuerySet
// --------------------------------------------------------------------------

// QuerySet is an in-memory snapshot of a collection. Filters return new sets and
// never touch the store.
type QuerySet[T Record] struct {
	name  string
	items []T
}

// NewQuerySet wraps items in a query set
func NewQuerySet[T Record](name string, items []T) *QuerySet[T] {
	return &QuerySet[T]{name: name, items: items}
}

// Where keeps the records whose field equals value. The field is looked up by
// name (case-insensitive, promoted fields included). Records without the field
// never match.
func (q *QuerySet[T]) Where(field string, value any) *QuerySet[T] {
	return q.Filter(func(item T) bool {
		return fieldEquals(item, field, value)
	})
}

// Filter keeps the records for which pred returns true
func (q *QuerySet[T]) Filter(pred func(T) bool) *QuerySet[T] {
	result := make([]T, 0, len(q.items))
	for _, item := range q.items {
		if pred(item) {
			result = append(result, item)
		}
	}
	return &QuerySet[T]{name: q.name, items: result}
}

// All returns the records of the set
func (q *QuerySet[T]) All() []T {
	return q.items
}

// First returns the first record of the set, ok is false for an empty set
func (q *QuerySet[T]) First() (first T, ok bool) {
	if len(q.items) == 0 {
		return first, false
	}
	return q.items[0], true
}

// Len returns the number of records in the set
func (q *QuerySet[T]) Len() int {
	return len(q.items)
}

// Name returns the collection name the set was loaded from
func (q *QuerySet[T]) Name() string {
	return q.name
}

// RemoveDuplicates keeps the first of every group of records that are equal
// apart from their uid
func (q *QuerySet[T]) RemoveDuplicates() *QuerySet[T] {
	seen := make(map[[sha256.Size]byte]struct{}, len(q.items))
	result := make([]T, 0, len(q.items))
	for _, item := range q.items {
		digest, err := contentDigest(item)
		if err != nil {
			// records without a json form are never considered duplicates
			log.Debugf("%s: keeping record %s without content digest: %v", q.name, item.RecordUID(), err)
			result = append(result, item)
			continue
		}
		if _, ok := seen[digest]; ok {
			continue
		}
		seen[digest] = struct{}{}
		result = append(result, item)
	}
	return &QuerySet[T]{name: q.name, items: result}
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

var canonicalJSON = codec.NewJSONSerializer()

// contentDigest hashes the canonical json form of a record without its uid
func contentDigest(item any) ([sha256.Size]byte, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	var fields any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return [sha256.Size]byte{}, err
	}
	if m, ok := fields.(map[string]any); ok {
		delete(m, "uid")
	}
	canonical, err := canonicalJSON.Marshal(fields)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}

func fieldEquals(item any, field string, value any) bool {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return false
	}

	f := v.FieldByName(field)
	if !f.IsValid() {
		f = v.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, field) })
	}
	if !f.IsValid() || !f.CanInterface() {
		return false
	}

	want := reflect.ValueOf(value)
	if !want.IsValid() {
		return isNil(f)
	}
	if want.Type() != f.Type() && isNumber(want.Kind()) && isNumber(f.Kind()) {
		want = want.Convert(f.Type())
		// converting 1.5 to int must not match 1
		if !reflect.DeepEqual(want.Convert(reflect.ValueOf(value).Type()).Interface(), value) {
			return false
		}
	}
	return reflect.DeepEqual(f.Interface(), want.Interface())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
