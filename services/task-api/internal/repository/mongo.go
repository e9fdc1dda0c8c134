package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type mongoStore[T Document] struct {
	db         *mongo.Database
	collection Collection
	newDoc     func() T
}

// NewMongoStore returns a Store backed by a MongoDB collection and creates the
// indexes the collection needs.
func NewMongoStore[T Document](
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	collection Collection,
	newDoc func() T,
) Store[T] {
	var indexes []mongo.IndexModel
	for _, field := range collection.UniqueFields {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}
	if collection.OwnerField != "_id" {
		indexes = append(indexes, mongo.IndexModel{
			Keys: bson.D{{Key: collection.OwnerField, Value: 1}},
		})
	}

	if len(indexes) > 0 {
		if _, err := db.Collection(collection.Name).Indexes().CreateMany(ctx, indexes); err != nil {
			logger.Fatal().Err(err).Str("collection", collection.Name).Msg("failed to create indexes")
		}
	}

	return &mongoStore[T]{db: db, collection: collection, newDoc: newDoc}
}

func (s *mongoStore[T]) coll() *mongo.Collection {
	return s.db.Collection(s.collection.Name)
}

func (s *mongoStore[T]) Find(ctx context.Context, params FindParams) ([]T, error) {
	docs := []T{}

	query, ok := s.collection.query(params.Filter)
	if !ok {
		return docs, nil
	}

	cursor, err := s.coll().Find(ctx, query, findOptions(params))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		doc := s.newDoc()
		if err := cursor.Decode(doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (s *mongoStore[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T

	query, ok := s.collection.query(filter)
	if !ok {
		return zero, ErrNotFound
	}

	result := s.coll().FindOne(ctx, query)
	if result.Err() != nil {
		return zero, translateError(result.Err())
	}

	doc := s.newDoc()
	if err := result.Decode(doc); err != nil {
		return zero, err
	}

	return doc, nil
}

func (s *mongoStore[T]) Insert(ctx context.Context, doc T) error {
	now := time.Now()
	doc.SetCreatedAt(now)
	doc.SetUpdatedAt(now)

	result, err := s.coll().InsertOne(ctx, doc)
	if err != nil {
		return translateError(err)
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return errors.New("failed to convert inserted ID to ObjectID")
	}
	doc.SetID(objectID)

	return nil
}

func (s *mongoStore[T]) Replace(ctx context.Context, doc T) error {
	doc.SetUpdatedAt(time.Now())

	result, err := s.coll().ReplaceOne(ctx, bson.M{"_id": doc.GetID()}, doc)
	if err != nil {
		return translateError(err)
	}

	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore[T]) Delete(ctx context.Context, filter Filter) (T, error) {
	var zero T

	query, ok := s.collection.query(filter)
	if !ok {
		return zero, ErrNotFound
	}

	result := s.coll().FindOneAndDelete(ctx, query)
	if result.Err() != nil {
		return zero, translateError(result.Err())
	}

	doc := s.newDoc()
	if err := result.Decode(doc); err != nil {
		return zero, err
	}

	return doc, nil
}

func (s *mongoStore[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	query, ok := s.collection.query(filter)
	if !ok {
		return 0, nil
	}

	result, err := s.coll().DeleteMany(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (s *mongoStore[T]) Push(ctx context.Context, id bson.ObjectID, field string, value any) error {
	return s.update(ctx, id, bson.M{
		"$push": bson.M{field: value},
		"$set":  bson.M{updatedAtField: time.Now()},
	})
}

func (s *mongoStore[T]) Pull(ctx context.Context, id bson.ObjectID, field string, value any) error {
	return s.update(ctx, id, bson.M{
		"$pull": bson.M{field: value},
		"$set":  bson.M{updatedAtField: time.Now()},
	})
}

func (s *mongoStore[T]) Set(ctx context.Context, id bson.ObjectID, field string, value any) error {
	return s.update(ctx, id, bson.M{
		"$set": bson.M{field: value, updatedAtField: time.Now()},
	})
}

func (s *mongoStore[T]) update(ctx context.Context, id bson.ObjectID, update bson.M) error {
	result, err := s.coll().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateError(err)
	}

	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore[T]) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func translateError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicateKey, err)
	default:
		return err
	}
}

func findOptions(params FindParams) *options.FindOptionsBuilder {
	opts := options.Find()
	if params.Limit > 0 {
		opts.SetLimit(params.Limit)
	}
	if params.Skip > 0 {
		opts.SetSkip(params.Skip)
	}
	if params.SortBy != "" {
		sortOrder := 1
		if params.SortDesc {
			sortOrder = -1
		}
		opts.SetSort(bson.D{{Key: params.SortBy, Value: sortOrder}})
	}

	return opts
}
