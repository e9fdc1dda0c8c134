package model

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-tracker-api/shared/security"
	"github.com/vasapolrittideah/task-tracker-api/shared/validation"
)

// UserUpdatableFields lists the fields a user may change on their own record.
var UserUpdatableFields = []string{"name", "age", "password"}

// User represents an account of the task tracker. Password holds plaintext
// only between decoding a request and Prepare; afterwards it is an argon2 hash.
type User struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string        `bson:"name"          json:"name"     validate:"required"`
	Email     string        `bson:"email"         json:"email"    validate:"required,email"`
	Age       int           `bson:"age"           json:"age"      validate:"gte=0"`
	Password  string        `bson:"password"      json:"password" validate:"required"`
	Tokens    []string      `bson:"tokens"        json:"-"`
	CreatedAt time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at"    json:"updatedAt"`
}

// NewUser returns an empty user ready to be decoded into.
func NewUser() *User {
	return &User{Tokens: []string{}}
}

func (u *User) GetID() bson.ObjectID { return u.ID }
func (u *User) SetID(id bson.ObjectID) { u.ID = id }
func (u *User) GetOwner() bson.ObjectID { return u.ID }
func (u *User) SetCreatedAt(t time.Time) { u.CreatedAt = t }
func (u *User) SetUpdatedAt(t time.Time) { u.UpdatedAt = t }

type passwordInput struct {
	Password string `json:"password" validate:"password"`
}

// Prepare normalizes and validates the user before it is persisted. fields
// names the keys that were supplied by the caller; a supplied password is
// checked for strength and replaced by its hash.
func (u *User) Prepare(fields []string) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Tokens == nil {
		u.Tokens = []string{}
	}

	if u.ID.IsZero() && !slices.Contains(fields, "age") {
		return validation.Invalid("age", "age is a required field")
	}

	if err := validation.Struct(u); err != nil {
		return err
	}

	if !slices.Contains(fields, "password") {
		return nil
	}

	if err := validation.Struct(passwordInput{Password: u.Password}); err != nil {
		return err
	}

	hash, err := security.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hash

	return nil
}

// HasToken reports whether token was issued to the user and not revoked.
func (u *User) HasToken(token string) bool {
	return slices.Contains(u.Tokens, token)
}

type userView struct {
	ID        bson.ObjectID `json:"_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Age       int           `json:"age"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// MarshalJSON omits the password hash and the token list.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}
