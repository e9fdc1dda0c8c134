package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type memoryStore[T Document] struct {
	mu         sync.RWMutex
	collection Collection
	newDoc     func() T
	// order keeps insertion order so unsorted listings are stable.
	order []bson.ObjectID
	docs  map[bson.ObjectID][]byte
}

// NewMemoryStore returns a Store that keeps BSON encoded documents in process
// memory. It honours unique fields and owner scoping like the MongoDB store.
func NewMemoryStore[T Document](collection Collection, newDoc func() T) Store[T] {
	return &memoryStore[T]{
		collection: collection,
		newDoc:     newDoc,
		docs:       make(map[bson.ObjectID][]byte),
	}
}

type storedDoc struct {
	id     bson.ObjectID
	raw    []byte
	fields bson.M
}

func (s *memoryStore[T]) Find(_ context.Context, params FindParams) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []T{}

	query, ok := s.collection.query(params.Filter)
	if !ok {
		return docs, nil
	}

	matched, err := s.match(query)
	if err != nil {
		return nil, err
	}

	if params.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i].fields[params.SortBy], matched[j].fields[params.SortBy])
			if params.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if params.Skip > 0 {
		if params.Skip >= int64(len(matched)) {
			return docs, nil
		}
		matched = matched[params.Skip:]
	}
	if params.Limit > 0 && params.Limit < int64(len(matched)) {
		matched = matched[:params.Limit]
	}

	for _, m := range matched {
		doc, err := s.decode(m.raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *memoryStore[T]) FindOne(_ context.Context, filter Filter) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T

	found, err := s.first(filter)
	if err != nil {
		return zero, err
	}

	return s.decode(found.raw)
}

func (s *memoryStore[T]) Insert(_ context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.GetID()
	if id.IsZero() {
		id = bson.NewObjectID()
	}
	if _, exists := s.docs[id]; exists {
		return fmt.Errorf("%w: _id %s", ErrDuplicateKey, id.Hex())
	}

	now := time.Now()
	doc.SetID(id)
	doc.SetCreatedAt(now)
	doc.SetUpdatedAt(now)

	raw, err := s.encode(id, doc)
	if err != nil {
		return err
	}

	s.docs[id] = raw
	s.order = append(s.order, id)

	return nil
}

func (s *memoryStore[T]) Replace(_ context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.GetID()
	if _, exists := s.docs[id]; !exists {
		return ErrNotFound
	}

	doc.SetUpdatedAt(time.Now())

	raw, err := s.encode(id, doc)
	if err != nil {
		return err
	}

	s.docs[id] = raw

	return nil
}

func (s *memoryStore[T]) Delete(_ context.Context, filter Filter) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T

	found, err := s.first(filter)
	if err != nil {
		return zero, err
	}

	doc, err := s.decode(found.raw)
	if err != nil {
		return zero, err
	}

	s.remove(found.id)

	return doc, nil
}

func (s *memoryStore[T]) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, ok := s.collection.query(filter)
	if !ok {
		return 0, nil
	}

	matched, err := s.match(query)
	if err != nil {
		return 0, err
	}

	for _, m := range matched {
		s.remove(m.id)
	}

	return int64(len(matched)), nil
}

func (s *memoryStore[T]) Push(_ context.Context, id bson.ObjectID, field string, value any) error {
	return s.update(id, func(fields bson.M) error {
		current, exists := fields[field]
		if !exists || current == nil {
			fields[field] = bson.A{value}
			return nil
		}

		arr, ok := current.(bson.A)
		if !ok {
			return fmt.Errorf("field %q is not an array", field)
		}
		fields[field] = append(arr, value)

		return nil
	})
}

func (s *memoryStore[T]) Pull(_ context.Context, id bson.ObjectID, field string, value any) error {
	return s.update(id, func(fields bson.M) error {
		current, exists := fields[field]
		if !exists || current == nil {
			return nil
		}

		arr, ok := current.(bson.A)
		if !ok {
			return fmt.Errorf("field %q is not an array", field)
		}

		kept := bson.A{}
		for _, v := range arr {
			if compareValues(v, value) != 0 {
				kept = append(kept, v)
			}
		}
		fields[field] = kept

		return nil
	})
}

func (s *memoryStore[T]) Set(_ context.Context, id bson.ObjectID, field string, value any) error {
	return s.update(id, func(fields bson.M) error {
		fields[field] = value
		return nil
	})
}

// update applies change to the stored fields of the document with id under
// the write lock.
func (s *memoryStore[T]) update(id bson.ObjectID, change func(fields bson.M) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, exists := s.docs[id]
	if !exists {
		return ErrNotFound
	}

	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return err
	}

	if err := change(fields); err != nil {
		return err
	}
	fields[updatedAtField] = time.Now()

	raw, err := bson.Marshal(fields)
	if err != nil {
		return err
	}
	if err := s.checkUnique(id, raw); err != nil {
		return err
	}

	s.docs[id] = raw

	return nil
}

func (s *memoryStore[T]) Ping(context.Context) error {
	return nil
}

func (s *memoryStore[T]) first(filter Filter) (storedDoc, error) {
	query, ok := s.collection.query(filter)
	if !ok {
		return storedDoc{}, ErrNotFound
	}

	matched, err := s.match(query)
	if err != nil {
		return storedDoc{}, err
	}
	if len(matched) == 0 {
		return storedDoc{}, ErrNotFound
	}

	return matched[0], nil
}

func (s *memoryStore[T]) match(query bson.M) ([]storedDoc, error) {
	var matched []storedDoc
	for _, id := range s.order {
		raw := s.docs[id]

		var fields bson.M
		if err := bson.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}

		if matches(fields, query) {
			matched = append(matched, storedDoc{id: id, raw: raw, fields: fields})
		}
	}
	return matched, nil
}

// encode marshals doc and rejects it when a unique field collides with
// another stored document.
func (s *memoryStore[T]) encode(id bson.ObjectID, doc T) ([]byte, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(id, raw); err != nil {
		return nil, err
	}

	return raw, nil
}

func (s *memoryStore[T]) checkUnique(id bson.ObjectID, raw []byte) error {
	if len(s.collection.UniqueFields) == 0 {
		return nil
	}

	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return err
	}

	for _, field := range s.collection.UniqueFields {
		others, err := s.match(bson.M{field: fields[field]})
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.id != id {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, field)
			}
		}
	}

	return nil
}

func (s *memoryStore[T]) decode(raw []byte) (T, error) {
	doc := s.newDoc()
	if err := bson.Unmarshal(raw, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

func (s *memoryStore[T]) remove(id bson.ObjectID) {
	delete(s.docs, id)
	for i, current := range s.order {
		if current == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// matches applies MongoDB equality semantics: a scalar condition on an array
// field matches when any element is equal.
func matches(fields, query bson.M) bool {
	for key, want := range query {
		got, ok := fields[key]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}

		if arr, isArray := got.(bson.A); isArray {
			if _, wantArray := want.(bson.A); !wantArray {
				if !containsValue(arr, want) {
					return false
				}
				continue
			}
		}

		if compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func containsValue(arr bson.A, want any) bool {
	for _, v := range arr {
		if compareValues(v, want) == 0 {
			return true
		}
	}
	return false
}

// compareValues orders BSON values of the same family. Missing values sort
// first; values of unrelated types compare by their type name.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return compareOrdered(x, y)
		}
	}
	if x, ok := toMillis(a); ok {
		if y, ok := toMillis(b); ok {
			return compareOrdered(x, y)
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareOrdered(boolRank(x), boolRank(y))
		}
	case bson.ObjectID:
		if y, ok := b.(bson.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex())
		}
	}

	if reflect.DeepEqual(a, b) {
		return 0
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toMillis(v any) (int64, bool) {
	switch t := v.(type) {
	case bson.DateTime:
		return int64(t), true
	case time.Time:
		return t.UnixMilli(), true
	default:
		return 0, false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareOrdered[N int | int64 | float64](x, y N) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
