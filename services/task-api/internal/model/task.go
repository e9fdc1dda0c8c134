package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-tracker-api/shared/validation"
)

// TaskUpdatableFields lists the fields an owner may change on a task.
var TaskUpdatableFields = []string{"description", "completed"}

// TaskSortFields maps the sortable JSON field names of a task to their
// stored names.
var TaskSortFields = map[string]string{
	"description": "description",
	"completed":   "completed",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// Task represents a unit of work owned by a user.
type Task struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Description string        `bson:"description"   json:"description" validate:"required"`
	Completed   bool          `bson:"completed"     json:"completed"`
	Owner       bson.ObjectID `bson:"owner"         json:"owner"`
	CreatedAt   time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at"    json:"updatedAt"`
}

// NewTask returns an empty task ready to be decoded into.
func NewTask() *Task {
	return &Task{}
}

func (t *Task) GetID() bson.ObjectID { return t.ID }
func (t *Task) SetID(id bson.ObjectID) { t.ID = id }
func (t *Task) GetOwner() bson.ObjectID { return t.Owner }
func (t *Task) SetCreatedAt(ts time.Time) { t.CreatedAt = ts }
func (t *Task) SetUpdatedAt(ts time.Time) { t.UpdatedAt = ts }

// Prepare normalizes and validates the task before it is persisted.
func (t *Task) Prepare(_ []string) error {
	t.Description = strings.TrimSpace(t.Description)

	if t.Owner.IsZero() {
		return validation.Invalid("owner", "owner is a required field")
	}

	return validation.Struct(t)
}
