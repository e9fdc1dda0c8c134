package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/repository"
	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
	"github.com/vasapolrittideah/task-tracker-api/shared/validation"
)

// Entity is a document that knows how to normalize and validate itself
// before it is persisted.
type Entity interface {
	repository.Document
	// Prepare runs before every write; fields names the keys the caller supplied.
	Prepare(fields []string) error
}

// Model describes an entity kind handled by a DocumentUsecase.
type Model[T Entity] struct {
	Name string
	New  func() T
}

// DocumentUsecase defines the generic find, create, update and delete
// operations shared by every entity kind.
type DocumentUsecase[T Entity] interface {
	ListAll(ctx context.Context) ([]T, error)
	List(ctx context.Context, params repository.FindParams) ([]T, error)
	Create(ctx context.Context, data map[string]any) (T, error)
	GetByID(ctx context.Context, id string) (T, error)
	GetByIDAndOwner(ctx context.Context, id string, owner bson.ObjectID) (T, error)
	UpdateByID(ctx context.Context, id string, data map[string]any, allowed []string) (T, error)
	UpdateByIDAndOwner(
		ctx context.Context,
		id string,
		owner bson.ObjectID,
		data map[string]any,
		allowed []string,
	) (T, error)
	DeleteByID(ctx context.Context, id string) (T, error)
	DeleteByIDAndOwner(ctx context.Context, id string, owner bson.ObjectID) (T, error)
	DeleteAllByOwner(ctx context.Context, owner bson.ObjectID) (int64, error)
}

var ErrMalformedID = apperr.BadRequest("invalid id")

type documentUsecase[T Entity] struct {
	model Model[T]
	store repository.Store[T]
}

// NewDocumentUsecase creates a DocumentUsecase for model backed by store.
func NewDocumentUsecase[T Entity](model Model[T], store repository.Store[T]) DocumentUsecase[T] {
	return &documentUsecase[T]{model: model, store: store}
}

func (u *documentUsecase[T]) ListAll(ctx context.Context) ([]T, error) {
	return u.List(ctx, repository.FindParams{})
}

func (u *documentUsecase[T]) List(ctx context.Context, params repository.FindParams) ([]T, error) {
	docs, err := u.store.Find(ctx, params)
	if err != nil {
		return nil, u.storeError(err)
	}

	return docs, nil
}

func (u *documentUsecase[T]) Create(ctx context.Context, data map[string]any) (T, error) {
	var zero T

	doc := u.model.New()
	if err := decodeInto(doc, data); err != nil {
		return zero, err
	}
	doc.SetID(bson.NilObjectID)

	if err := u.prepare(doc, data); err != nil {
		return zero, err
	}

	if err := u.store.Insert(ctx, doc); err != nil {
		return zero, u.storeError(err)
	}

	return doc, nil
}

func (u *documentUsecase[T]) GetByID(ctx context.Context, id string) (T, error) {
	return u.get(ctx, id, nil)
}

func (u *documentUsecase[T]) GetByIDAndOwner(ctx context.Context, id string, owner bson.ObjectID) (T, error) {
	return u.get(ctx, id, &owner)
}

func (u *documentUsecase[T]) UpdateByID(
	ctx context.Context,
	id string,
	data map[string]any,
	allowed []string,
) (T, error) {
	return u.update(ctx, id, nil, data, allowed)
}

func (u *documentUsecase[T]) UpdateByIDAndOwner(
	ctx context.Context,
	id string,
	owner bson.ObjectID,
	data map[string]any,
	allowed []string,
) (T, error) {
	return u.update(ctx, id, &owner, data, allowed)
}

func (u *documentUsecase[T]) DeleteByID(ctx context.Context, id string) (T, error) {
	return u.delete(ctx, id, nil)
}

func (u *documentUsecase[T]) DeleteByIDAndOwner(ctx context.Context, id string, owner bson.ObjectID) (T, error) {
	return u.delete(ctx, id, &owner)
}

func (u *documentUsecase[T]) DeleteAllByOwner(ctx context.Context, owner bson.ObjectID) (int64, error) {
	count, err := u.store.DeleteMany(ctx, repository.Filter{Owner: &owner})
	if err != nil {
		return 0, u.storeError(err)
	}

	return count, nil
}

func (u *documentUsecase[T]) get(ctx context.Context, id string, owner *bson.ObjectID) (T, error) {
	var zero T

	objectID, err := parseID(id)
	if err != nil {
		return zero, err
	}

	doc, err := u.store.FindOne(ctx, repository.Filter{ID: &objectID, Owner: owner})
	if err != nil {
		return zero, u.storeError(err)
	}

	return doc, nil
}

func (u *documentUsecase[T]) update(
	ctx context.Context,
	id string,
	owner *bson.ObjectID,
	data map[string]any,
	allowed []string,
) (T, error) {
	var zero T

	if disallowed := disallowedFields(data, allowed); len(disallowed) > 0 {
		return zero, apperr.Forbidden(fmt.Sprintf("updating %v is not allowed", disallowed))
	}

	doc, err := u.get(ctx, id, owner)
	if err != nil {
		return zero, err
	}

	if err := decodeInto(doc, data); err != nil {
		return zero, err
	}

	if err := u.prepare(doc, data); err != nil {
		return zero, err
	}

	if err := u.store.Replace(ctx, doc); err != nil {
		return zero, u.storeError(err)
	}

	return doc, nil
}

func (u *documentUsecase[T]) delete(ctx context.Context, id string, owner *bson.ObjectID) (T, error) {
	var zero T

	objectID, err := parseID(id)
	if err != nil {
		return zero, err
	}

	doc, err := u.store.Delete(ctx, repository.Filter{ID: &objectID, Owner: owner})
	if err != nil {
		return zero, u.storeError(err)
	}

	return doc, nil
}

func (u *documentUsecase[T]) prepare(doc T, data map[string]any) error {
	fields := make([]string, 0, len(data))
	for field := range data {
		fields = append(fields, field)
	}

	err := doc.Prepare(fields)
	if err == nil {
		return nil
	}

	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return apperr.Wrap(apperr.KindBadRequest, verr.Error(), verr)
	}

	return apperr.Internal(err)
}

func (u *documentUsecase[T]) storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(fmt.Sprintf("%s not found", u.model.Name))
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperr.Wrap(apperr.KindConflict, fmt.Sprintf("%s already exists", u.model.Name), err)
	default:
		return apperr.Internal(err)
	}
}

func parseID(id string) (bson.ObjectID, error) {
	if !validation.IsObjectID(id) {
		return bson.NilObjectID, ErrMalformedID
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrMalformedID
	}

	return objectID, nil
}

// decodeInto copies the supplied fields onto doc using its JSON field names.
func decodeInto(doc any, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "invalid request body", err)
	}

	if err := json.Unmarshal(raw, doc); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "invalid field value", err)
	}

	return nil
}

func disallowedFields(data map[string]any, allowed []string) []string {
	var disallowed []string
	for field := range data {
		if !slices.Contains(allowed, field) {
			disallowed = append(disallowed, field)
		}
	}
	sort.Strings(disallowed)
	return disallowed
}
