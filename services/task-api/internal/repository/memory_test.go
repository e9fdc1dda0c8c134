package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type note struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Title     string        `bson:"title"`
	Slug      string        `bson:"slug"`
	Done      bool          `bson:"done"`
	Rank      int           `bson:"rank"`
	Tags      []string      `bson:"tags"`
	Owner     bson.ObjectID `bson:"owner"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func (n *note) GetID() bson.ObjectID { return n.ID }
func (n *note) SetID(id bson.ObjectID) { n.ID = id }
func (n *note) GetOwner() bson.ObjectID { return n.Owner }
func (n *note) SetCreatedAt(t time.Time) { n.CreatedAt = t }
func (n *note) SetUpdatedAt(t time.Time) { n.UpdatedAt = t }

var noteCollection = Collection{Name: "notes", OwnerField: "owner", UniqueFields: []string{"slug"}}

func newNoteStore(t *testing.T) Store[*note] {
	t.Helper()
	return NewMemoryStore(noteCollection, func() *note { return &note{} })
}

func TestMemoryStoreInsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)
	owner := bson.NewObjectID()

	n := &note{Title: "first", Slug: "first", Owner: owner, Tags: []string{"a", "b"}}
	require.NoError(t, store.Insert(ctx, n))
	assert.False(t, n.ID.IsZero())
	assert.False(t, n.CreatedAt.IsZero())

	got, err := store.FindOne(ctx, Filter{ID: &n.ID, Owner: &owner})
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	got, err = store.FindOne(ctx, Filter{Match: bson.M{"tags": "b"}})
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	stranger := bson.NewObjectID()
	_, err = store.FindOne(ctx, Filter{ID: &n.ID, Owner: &stranger})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)

	n := &note{Title: "first", Slug: "first"}
	require.NoError(t, store.Insert(ctx, n))

	n.Title = "changed without saving"

	got, err := store.FindOne(ctx, Filter{ID: &n.ID})
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestMemoryStoreUniqueFields(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)

	first := &note{Title: "one", Slug: "same"}
	require.NoError(t, store.Insert(ctx, first))
	assert.ErrorIs(t, store.Insert(ctx, &note{Title: "two", Slug: "same"}), ErrDuplicateKey)

	second := &note{Title: "two", Slug: "other"}
	require.NoError(t, store.Insert(ctx, second))

	second.Slug = "same"
	assert.ErrorIs(t, store.Replace(ctx, second), ErrDuplicateKey)

	first.Title = "renamed"
	require.NoError(t, store.Replace(ctx, first))
}

func TestMemoryStoreReplaceMissing(t *testing.T) {
	err := newNoteStore(t).Replace(context.Background(), &note{ID: bson.NewObjectID()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFindSortAndPaginate(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)
	owner := bson.NewObjectID()

	for i, title := range []string{"c", "a", "d", "b"} {
		require.NoError(t, store.Insert(ctx, &note{Title: title, Slug: title, Rank: i, Done: i%2 == 0, Owner: owner}))
	}
	require.NoError(t, store.Insert(ctx, &note{Title: "z", Slug: "z", Owner: bson.NewObjectID()}))

	all, err := store.Find(ctx, FindParams{Filter: Filter{Owner: &owner}, SortBy: "title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, titles(all))

	page, err := store.Find(ctx, FindParams{Filter: Filter{Owner: &owner}, SortBy: "rank", SortDesc: true, Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, titles(page))

	done, err := store.Find(ctx, FindParams{Filter: Filter{Owner: &owner, Match: bson.M{"done": true}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, titles(done))

	none, err := store.Find(ctx, FindParams{Filter: Filter{Owner: &owner}, Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)
	owner := bson.NewObjectID()

	keep := &note{Title: "keep", Slug: "keep"}
	require.NoError(t, store.Insert(ctx, keep))
	for _, slug := range []string{"x", "y"} {
		require.NoError(t, store.Insert(ctx, &note{Title: slug, Slug: slug, Owner: owner}))
	}

	removed, err := store.Delete(ctx, Filter{ID: &keep.ID})
	require.NoError(t, err)
	assert.Equal(t, "keep", removed.Title)

	_, err = store.Delete(ctx, Filter{ID: &keep.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := store.DeleteMany(ctx, Filter{Owner: &owner})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	rest, err := store.Find(ctx, FindParams{})
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestCollectionQueryOwnerIsID(t *testing.T) {
	id := bson.NewObjectID()
	other := bson.NewObjectID()

	query, ok := UserCollection.query(Filter{ID: &id, Owner: &id})
	require.True(t, ok)
	assert.Equal(t, bson.M{"_id": id}, query)

	_, ok = UserCollection.query(Filter{ID: &id, Owner: &other})
	assert.False(t, ok)
}

func titles(notes []*note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func TestMemoryStoreFieldUpdates(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)

	n := &note{Title: "tagged", Slug: "tagged"}
	require.NoError(t, store.Insert(ctx, n))

	require.NoError(t, store.Push(ctx, n.ID, "tags", "a"))
	require.NoError(t, store.Push(ctx, n.ID, "tags", "b"))
	require.NoError(t, store.Push(ctx, n.ID, "tags", "a"))

	got, err := store.FindOne(ctx, Filter{ID: &n.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, got.Tags)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.Pull(ctx, n.ID, "tags", "a"))
	got, err = store.FindOne(ctx, Filter{ID: &n.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Tags)

	require.NoError(t, store.Set(ctx, n.ID, "tags", []string{}))
	got, err = store.FindOne(ctx, Filter{ID: &n.ID})
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	assert.Equal(t, "tagged", got.Title)

	assert.Error(t, store.Push(ctx, n.ID, "title", "x"))

	missing := bson.NewObjectID()
	assert.ErrorIs(t, store.Push(ctx, missing, "tags", "a"), ErrNotFound)
	assert.ErrorIs(t, store.Pull(ctx, missing, "tags", "a"), ErrNotFound)
	assert.ErrorIs(t, store.Set(ctx, missing, "tags", nil), ErrNotFound)
}

func TestMemoryStoreSetHonoursUniqueFields(t *testing.T) {
	ctx := context.Background()
	store := newNoteStore(t)

	first := &note{Title: "one", Slug: "one"}
	second := &note{Title: "two", Slug: "two"}
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, second))

	assert.ErrorIs(t, store.Set(ctx, second.ID, "slug", "one"), ErrDuplicateKey)

	got, err := store.FindOne(ctx, Filter{ID: &second.ID})
	require.NoError(t, err)
	assert.Equal(t, "two", got.Slug)
}
