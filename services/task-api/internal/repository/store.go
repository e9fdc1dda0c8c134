package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Document is an entity that can be stored in a collection.
type Document interface {
	GetID() bson.ObjectID
	SetID(id bson.ObjectID)
	// GetOwner returns the identifier of the user that owns the document.
	GetOwner() bson.ObjectID
	SetCreatedAt(t time.Time)
	SetUpdatedAt(t time.Time)
}

// Filter selects documents. Nil fields are ignored; Match holds extra
// equality conditions keyed by stored field name.
type Filter struct {
	ID    *bson.ObjectID
	Owner *bson.ObjectID
	Match bson.M
}

// FindParams defines the parameters for filtering, sorting and paginating documents.
type FindParams struct {
	Filter   Filter
	Limit    int64
	Skip     int64
	SortBy   string
	SortDesc bool
}

// Store defines the collection operations the use cases rely on.
type Store[T Document] interface {
	Find(ctx context.Context, params FindParams) ([]T, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	Insert(ctx context.Context, doc T) error
	Replace(ctx context.Context, doc T) error
	Delete(ctx context.Context, filter Filter) (T, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	// Push appends value to the array field of the document with id.
	Push(ctx context.Context, id bson.ObjectID, field string, value any) error
	// Pull removes every element equal to value from the array field.
	Pull(ctx context.Context, id bson.ObjectID, field string, value any) error
	Set(ctx context.Context, id bson.ObjectID, field string, value any) error
	Ping(ctx context.Context) error
}

// Collection describes where documents of one kind live and which of their
// fields carry constraints.
type Collection struct {
	Name         string
	OwnerField   string
	UniqueFields []string
}

// updatedAtField is the stored name of the modification timestamp shared by
// every document kind.
const updatedAtField = "updated_at"

var (
	UserCollection = Collection{Name: "users", OwnerField: "_id", UniqueFields: []string{"email"}}
	TaskCollection = Collection{Name: "tasks", OwnerField: "owner"}
)

// query builds the bson filter for f. It returns false when f can match no
// document, which happens when the owner field is the identifier and the two
// disagree.
func (c Collection) query(f Filter) (bson.M, bool) {
	query := bson.M{}
	for k, v := range f.Match {
		query[k] = v
	}

	if f.ID != nil {
		query["_id"] = *f.ID
	}

	if f.Owner != nil {
		if current, ok := query[c.OwnerField].(bson.ObjectID); ok && current != *f.Owner {
			return nil, false
		}
		query[c.OwnerField] = *f.Owner
	}

	return query, true
}
