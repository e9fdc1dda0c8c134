package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/config"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/repository"
	"github.com/vasapolrittideah/task-tracker-api/shared/auth"
)

var errStoreDown = errors.New("connection refused")

type testEnv struct {
	cfg       *config.TaskAPIConfig
	userStore *countingStore[*model.User]
	taskStore *countingStore[*model.Task]
	users     DocumentUsecase[*model.User]
	tasks     DocumentUsecase[*model.Task]
	auth      AuthUsecase
	account   AccountUsecase
	mail      *fakeMailSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.TaskAPIConfig{
		Port: 3000,
		DB:   config.DBConfig{Driver: config.DBDriverMemory},
		Token: config.TokenConfig{
			Secret:    "test-secret",
			Issuer:    "task-api",
			ExpiresIn: time.Hour,
		},
	}

	userStore := &countingStore[*model.User]{
		Store: repository.NewMemoryStore(repository.UserCollection, model.NewUser),
	}
	taskStore := &countingStore[*model.Task]{
		Store: repository.NewMemoryStore(repository.TaskCollection, model.NewTask),
	}

	users := NewDocumentUsecase(Model[*model.User]{Name: "user", New: model.NewUser}, repository.Store[*model.User](userStore))
	tasks := NewDocumentUsecase(Model[*model.Task]{Name: "task", New: model.NewTask}, repository.Store[*model.Task](taskStore))
	authUsecase := NewAuthUsecase(userStore, auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer), cfg)

	mail := &fakeMailSender{}
	logger := zerolog.Nop()

	return &testEnv{
		cfg:       cfg,
		userStore: userStore,
		taskStore: taskStore,
		users:     users,
		tasks:     tasks,
		auth:      authUsecase,
		account:   NewAccountUsecase(users, tasks, authUsecase, NewMailNotifier(mail), &logger),
		mail:      mail,
	}
}

func validUserData(email string) map[string]any {
	return map[string]any{
		"name":     "A",
		"email":    email,
		"age":      30,
		"password": "Abcdef1!",
	}
}

// countingStore records how many calls reach the wrapped store and can be
// switched into a failing mode.
type countingStore[T repository.Document] struct {
	repository.Store[T]

	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *countingStore[T]) hit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return errStoreDown
	}
	return nil
}

func (s *countingStore[T]) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore[T]) Find(ctx context.Context, params repository.FindParams) ([]T, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.Store.Find(ctx, params)
}

func (s *countingStore[T]) FindOne(ctx context.Context, filter repository.Filter) (T, error) {
	if err := s.hit(); err != nil {
		var zero T
		return zero, err
	}
	return s.Store.FindOne(ctx, filter)
}

func (s *countingStore[T]) Insert(ctx context.Context, doc T) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.Store.Insert(ctx, doc)
}

func (s *countingStore[T]) Replace(ctx context.Context, doc T) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.Store.Replace(ctx, doc)
}

func (s *countingStore[T]) Delete(ctx context.Context, filter repository.Filter) (T, error) {
	if err := s.hit(); err != nil {
		var zero T
		return zero, err
	}
	return s.Store.Delete(ctx, filter)
}

func (s *countingStore[T]) DeleteMany(ctx context.Context, filter repository.Filter) (int64, error) {
	if err := s.hit(); err != nil {
		return 0, err
	}
	return s.Store.DeleteMany(ctx, filter)
}

type sentMail struct {
	to      []string
	subject string
}

type fakeMailSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailSender) SendHTML(to []string, subject, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject})
	return nil
}
