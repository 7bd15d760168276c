// internal/jobs/jobs_test.go
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"repohub/internal/model"
	"repohub/internal/store"
)

// MockStore is a mock of the store.Store interface.
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) CreateRepositoryIfAbsent(ctx context.Context, arg store.CreateRepositoryParams) (model.Repository, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(model.Repository), args.Error(1)
}
func (m *MockStore) GetRepositoryByName(ctx context.Context, name string) (model.Repository, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Repository), args.Error(1)
}
func (m *MockStore) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Repository), args.Error(1)
}
func (m *MockStore) SetRepositoryBlockReason(ctx context.Context, id int64, reason *model.BlockReason) (model.Repository, error) {
	args := m.Called(ctx, id, reason)
	return args.Get(0).(model.Repository), args.Error(1)
}
func (m *MockStore) AddContributor(ctx context.Context, repositoryID, userID int64) error {
	args := m.Called(ctx, repositoryID, userID)
	return args.Error(0)
}
func (m *MockStore) ListContributors(ctx context.Context, repositoryID int64) ([]model.User, error) {
	args := m.Called(ctx, repositoryID)
	return args.Get(0).([]model.User), args.Error(1)
}
func (m *MockStore) UpsertUser(ctx context.Context, arg store.UpsertUserParams) (model.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *MockStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *MockStore) SetUserBlockReason(ctx context.Context, id int64, reason *model.BlockReason) (model.User, error) {
	args := m.Called(ctx, id, reason)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *MockStore) MarkEmailVerified(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockStore) UpsertOrganization(ctx context.Context, arg store.UpsertOrganizationParams) (model.Organization, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(model.Organization), args.Error(1)
}

// MockProvider is a mock of the Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetAuthenticatedUser(ctx context.Context, token string) (*model.AccountPayload, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountPayload), args.Error(1)
}
func (m *MockProvider) ListUserOrganizations(ctx context.Context, token string) ([]model.OwnerPayload, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]model.OwnerPayload), args.Error(1)
}
func (m *MockProvider) ListUserRepositories(ctx context.Context, token string) ([]model.RepoPayload, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]model.RepoPayload), args.Error(1)
}

// MockReconciler is a mock of the Reconciler interface.
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, payload *model.RepoPayload, force bool) (*model.Repository, error) {
	args := m.Called(ctx, payload, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Repository), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func strPtr(s string) *string { return &s }

func TestQueue_RunsEnqueuedTasks(t *testing.T) {
	queue := NewQueue(2, 8, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Start(ctx)

	var (
		mu  sync.Mutex
		ran []string
	)
	done := make(chan struct{})
	for _, name := range []string{"a", "b", "c"} {
		name := name
		queue.Enqueue(Task{
			Name: name,
			Run: func(context.Context) error {
				mu.Lock()
				ran = append(ran, name)
				if len(ran) == 3 {
					close(done)
				}
				mu.Unlock()
				return nil
			},
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}
	mu.Lock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ran)
	mu.Unlock()
}

func TestQueue_FailureDoesNotStopWorkers(t *testing.T) {
	queue := NewQueue(1, 8, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Start(ctx)

	done := make(chan struct{})
	queue.Enqueue(Task{Name: "boom", Run: func(context.Context) error { return errors.New("boom") }})
	queue.Enqueue(Task{Name: "after", Run: func(context.Context) error { close(done); return nil }})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a failed task")
	}
}

func TestRunner_DispatchBatch(t *testing.T) {
	st := new(MockStore)
	provider := new(MockProvider)
	rec := new(MockReconciler)
	runner := NewRunner(st, provider, rec, testLogger())

	user := model.User{ID: 9, Login: "acme", GithubAccessToken: "gho_token"}

	// Each job signals completion through its terminal store call.
	var wg sync.WaitGroup
	wg.Add(3)

	provider.On("GetAuthenticatedUser", mock.Anything, "gho_token").
		Return(&model.AccountPayload{ID: 9, Login: "acme", Name: strPtr("Acme Dev")}, nil).Once()
	st.On("UpsertUser", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { wg.Done() }).Return(user, nil).Once()
	provider.On("ListUserOrganizations", mock.Anything, "gho_token").
		Return([]model.OwnerPayload{{ID: 42, Type: "Organization", Login: "acme-inc"}}, nil).Once()
	st.On("UpsertOrganization", mock.Anything, store.UpsertOrganizationParams{ID: 42, Login: "acme-inc"}).
		Run(func(mock.Arguments) { wg.Done() }).Return(model.Organization{ID: 42, Login: "acme-inc"}, nil).Once()
	provider.On("ListUserRepositories", mock.Anything, "gho_token").
		Return([]model.RepoPayload{{ID: 1, FullName: "acme/widget"}}, nil).Once()
	rec.On("Reconcile", mock.Anything, mock.Anything, false).
		Return(&model.Repository{ID: 1, Name: "acme/widget"}, nil).Once()
	st.On("AddContributor", mock.Anything, int64(1), int64(9)).
		Run(func(mock.Arguments) { wg.Done() }).Return(nil).Once()

	queue := NewQueue(3, 8, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Start(ctx)

	runner.DispatchBatch(queue, user)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not finish")
	}

	st.AssertExpectations(t)
	provider.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestRunner_LoadUserRepositories_SkipsRejected(t *testing.T) {
	st := new(MockStore)
	provider := new(MockProvider)
	rec := new(MockReconciler)
	runner := NewRunner(st, provider, rec, testLogger())

	user := model.User{ID: 9, Login: "acme", GithubAccessToken: "gho_token"}
	payloads := []model.RepoPayload{
		{ID: 1, FullName: "acme/widget"},
		{ID: 2, FullName: "acme/private-fork"},
	}

	provider.On("ListUserRepositories", mock.Anything, "gho_token").Return(payloads, nil).Once()
	rec.On("Reconcile", mock.Anything, &payloads[0], false).
		Return(&model.Repository{ID: 1, Name: "acme/widget"}, nil).Once()
	// Rejected payloads yield no repository and no error.
	rec.On("Reconcile", mock.Anything, &payloads[1], false).Return(nil, nil).Once()
	st.On("AddContributor", mock.Anything, int64(1), int64(9)).Return(nil).Once()

	err := runner.LoadUserRepositories(context.Background(), user)

	require.NoError(t, err)
	st.AssertNumberOfCalls(t, "AddContributor", 1)
	rec.AssertExpectations(t)
}

func TestRunner_SyncUserOrganizations_FallsBackToDefaultCredential(t *testing.T) {
	st := new(MockStore)
	provider := new(MockProvider)
	runner := NewRunner(st, provider, new(MockReconciler), testLogger())

	// A user with no stored token carries no credential; the provider gets
	// the empty token and uses the service default.
	provider.On("ListUserOrganizations", mock.Anything, "").
		Return([]model.OwnerPayload{}, nil).Once()

	err := runner.SyncUserOrganizations(context.Background(), model.User{ID: 9, Login: "acme"})

	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestRunner_UpdateUserDetails_PropagatesAPIErrors(t *testing.T) {
	st := new(MockStore)
	provider := new(MockProvider)
	runner := NewRunner(st, provider, new(MockReconciler), testLogger())

	apiErr := errors.New("401 bad credentials")
	provider.On("GetAuthenticatedUser", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	err := runner.UpdateUserDetails(context.Background(), model.User{ID: 9})

	assert.ErrorIs(t, err, apiErr)
	st.AssertNotCalled(t, "UpsertUser")
}
