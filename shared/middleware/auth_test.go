package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
)

type account struct {
	Name string
}

type fakeAuthenticator struct {
	tokens map[string]*account
	calls  int
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*account, error) {
	f.calls++
	if token == "broken" {
		return nil, apperr.Unauthorized("invalid token")
	}
	user, ok := f.tokens[token]
	if !ok {
		return nil, apperr.Unauthorized("please authenticate")
	}
	return user, nil
}

func TestAuthenticate(t *testing.T) {
	authenticator := &fakeAuthenticator{tokens: map[string]*account{"good": {Name: "alice"}}}

	var gotUser *account
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext[*account](r.Context())
		gotToken = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Authenticate[*account](authenticator)(next)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusBadRequest},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "unverifiable token", header: "Bearer broken", status: http.StatusUnauthorized},
		{name: "revoked token", header: "Bearer revoked", status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", status: http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotUser, gotToken = nil, ""

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "alice", gotUser.Name)
				assert.Equal(t, "good", gotToken)
			} else {
				assert.Nil(t, gotUser)
			}
		})
	}
}

func TestAuthenticateSkipsLookupWithoutHeader(t *testing.T) {
	authenticator := &fakeAuthenticator{}
	handler := Authenticate[*account](authenticator)(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, authenticator.calls)
}
