package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplecatalog/internal/api/client"
	"peoplecatalog/internal/api/dto/common"
	"peoplecatalog/internal/api/dto/v1/person"
)

// fakeAPI implements persons.API with overridable behavior, in the
// style of the repository mocks used elsewhere in this codebase.
type fakeAPI struct {
	mu         sync.Mutex
	listCalls  []person.ListQuery
	listFunc   func(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error)
	createFunc func(ctx context.Context, payload person.CreateRequest) (*person.Person, error)
	updateFunc func(ctx context.Context, personID string, payload person.UpdateRequest) error
	deleteFunc func(ctx context.Context, personID string) error

	updatedID      string
	updatedPayload person.UpdateRequest
	deletedID      string
}

func emptyPage(query person.ListQuery) *person.PagedResponse {
	return &person.PagedResponse{
		Items:    []person.Person{},
		Page:     query.Page,
		PageSize: query.PageSize,
	}
}

func (f *fakeAPI) List(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, query)
	fn := f.listFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, query)
	}
	return emptyPage(query), nil
}

func (f *fakeAPI) Create(ctx context.Context, payload person.CreateRequest) (*person.Person, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, payload)
	}
	return &person.Person{PersonID: "p-new", IsActive: true}, nil
}

func (f *fakeAPI) Update(ctx context.Context, personID string, payload person.UpdateRequest) error {
	f.mu.Lock()
	f.updatedID = personID
	f.updatedPayload = payload
	f.mu.Unlock()
	if f.updateFunc != nil {
		return f.updateFunc(ctx, personID, payload)
	}
	return nil
}

func (f *fakeAPI) Delete(ctx context.Context, personID string) error {
	f.mu.Lock()
	f.deletedID = personID
	f.mu.Unlock()
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, personID)
	}
	return nil
}

func (f *fakeAPI) calls() []person.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]person.ListQuery, len(f.listCalls))
	copy(out, f.listCalls)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func transportError(status int, detail string) error {
	return &client.RequestError{
		Status:  status,
		Message: "request failed",
		Problem: &common.Problem{Detail: detail, Status: status},
	}
}

func TestStartFetchesInitialPage(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()

	waitFor(t, func() bool { return store.State().Data != nil })

	state := store.State()
	assert.Equal(t, 1, state.Page)
	assert.Equal(t, 10, state.PageSize)
	require.NotNil(t, state.IsActive)
	assert.True(t, *state.IsActive) // default view shows active records

	calls := api.calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].IsActive)
	assert.True(t, *calls[0].IsActive)
}

func TestLastRequestWins(t *testing.T) {
	release := map[string]chan struct{}{
		"":     make(chan struct{}),
		"john": make(chan struct{}),
	}
	totals := map[string]int64{"": 111, "john": 222}

	api := &fakeAPI{}
	api.listFunc = func(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error) {
		search := strings.TrimSpace(query.Search)
		<-release[search]
		page := emptyPage(query)
		page.TotalItems = totals[search]
		return page, nil
	}

	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond), WithActiveFilter(nil))
	store.Start()
	waitFor(t, func() bool { return len(api.calls()) == 1 })

	// The filter changes while the first fetch is still in flight.
	store.SetSearch("john")
	waitFor(t, func() bool { return len(api.calls()) == 2 })

	// The newer request resolves first and is committed.
	close(release["john"])
	waitFor(t, func() bool {
		state := store.State()
		return state.Data != nil && state.Data.TotalItems == 222
	})

	// The superseded request resolves afterwards and must be discarded.
	close(release[""])
	time.Sleep(50 * time.Millisecond)
	state := store.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, int64(222), state.Data.TotalItems)
	assert.False(t, state.Fetching)
}

func TestSearchIsDebounced(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(40*time.Millisecond), WithActiveFilter(nil))
	store.Start()
	waitFor(t, func() bool { return len(api.calls()) == 1 })

	// Rapid keystrokes within the quiet period fire a single fetch.
	store.SetSearch("J")
	store.SetSearch("Jo")
	store.SetSearch("  John  ")

	waitFor(t, func() bool { return len(api.calls()) == 2 })
	time.Sleep(80 * time.Millisecond)

	calls := api.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "John", calls[1].Search) // trimmed form goes out
	assert.Equal(t, 1, calls[1].Page)
}

func TestFilterChangeResetsPage(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })

	store.SetPage(3)
	waitFor(t, func() bool { return store.State().Data != nil && store.State().Data.Page == 3 })

	store.SetActive(nil)
	assert.Equal(t, 1, store.State().Page)

	store.SetPage(5)
	store.SetSearch("doe")
	assert.Equal(t, 1, store.State().Page)
}

func TestCachedKeyDoesNotRefetch(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })

	store.SetPage(2)
	waitFor(t, func() bool { return store.State().Data != nil && store.State().Data.Page == 2 })
	require.Len(t, api.calls(), 2)

	// Returning to page 1 is served from the cache.
	store.SetPage(1)
	state := store.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, 1, state.Data.Page)
	assert.False(t, state.Fetching)

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, api.calls(), 2)
}

func TestPreviousDataKeptWhileFetching(t *testing.T) {
	releasePage2 := make(chan struct{})
	api := &fakeAPI{}
	api.listFunc = func(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error) {
		if query.Page == 2 {
			<-releasePage2
		}
		return emptyPage(query), nil
	}

	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })

	store.SetPage(2)
	waitFor(t, func() bool { return store.State().Fetching })

	// The page 1 rows stay visible while page 2 is in flight.
	state := store.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, 1, state.Data.Page)
	assert.True(t, state.Busy())

	close(releasePage2)
	waitFor(t, func() bool {
		state := store.State()
		return state.Data != nil && state.Data.Page == 2 && !state.Fetching
	})
}

func TestMutationInvalidatesAndRefetches(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })
	require.Len(t, api.calls(), 1)

	store.OpenCreateForm()
	assert.True(t, store.State().FormOpen)

	err := store.CreatePerson(context.Background(), person.CreateRequest{
		FirstName: "John", LastName: "Doe", Email: "john@example.com", DocumentNumber: "DOC-1",
	})
	require.NoError(t, err)

	// Success discards every cached page and re-fetches the active key.
	waitFor(t, func() bool { return len(api.calls()) == 2 })

	state := store.State()
	assert.False(t, state.FormOpen)
	assert.Nil(t, state.Editing)
	assert.Equal(t, "Person created", state.Notice)
	assert.Nil(t, state.MutationError)
}

func TestMutationFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{}
	api.createFunc = func(ctx context.Context, payload person.CreateRequest) (*person.Person, error) {
		return nil, transportError(400, "Invalid payload")
	}

	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })
	require.Len(t, api.calls(), 1)

	store.OpenCreateForm()
	err := store.CreatePerson(context.Background(), person.CreateRequest{
		FirstName: "John", LastName: "Doe", Email: "john@example.com", DocumentNumber: "DOC-1",
	})
	require.Error(t, err)

	state := store.State()
	assert.True(t, state.FormOpen, "form stays open with its input")
	require.NotNil(t, state.MutationError)
	assert.Equal(t, "Invalid payload", state.MutationError.Message)
	assert.Equal(t, 400, state.MutationError.Status)
	assert.False(t, state.Mutating)

	// No invalidation happened: the list was not re-fetched.
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, api.calls(), 1)
}

func TestSubmitFormDispatchesUpdateForEditing(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })

	editing := person.Person{PersonID: "p-9", FirstName: "John", LastName: "Doe",
		Email: "john@example.com", DocumentNumber: "DOC-9", IsActive: true}
	store.OpenEditForm(editing)

	values := ValuesFromPerson(editing)
	values.IsActive = false
	require.NoError(t, store.SubmitForm(context.Background(), values))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "p-9", api.updatedID)
	assert.False(t, api.updatedPayload.IsActive)
}

func TestSubmitFormBlocksInvalidInput(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.OpenCreateForm()

	err := store.SubmitForm(context.Background(), Values{FirstName: "J"})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Fields, "firstName")
	assert.Contains(t, validationErr.Fields, "email")

	// Nothing reached the server and the form is still open.
	assert.Empty(t, api.calls())
	assert.True(t, store.State().FormOpen)
}

func TestCloseFormBlockedWhileMutating(t *testing.T) {
	releaseCreate := make(chan struct{})
	api := &fakeAPI{}
	api.createFunc = func(ctx context.Context, payload person.CreateRequest) (*person.Person, error) {
		<-releaseCreate
		return &person.Person{PersonID: "p-new", IsActive: true}, nil
	}

	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.OpenCreateForm()

	done := make(chan error, 1)
	go func() {
		done <- store.CreatePerson(context.Background(), person.CreateRequest{
			FirstName: "John", LastName: "Doe", Email: "john@example.com", DocumentNumber: "DOC-1",
		})
	}()
	waitFor(t, func() bool { return store.State().Mutating })

	assert.ErrorIs(t, store.CloseForm(), ErrMutationInFlight)
	assert.ErrorIs(t, store.DeletePerson(context.Background(), "p-2"), ErrMutationInFlight)

	close(releaseCreate)
	require.NoError(t, <-done)
	assert.False(t, store.State().FormOpen)
}

func TestListErrorRetainsPreviousData(t *testing.T) {
	api := &fakeAPI{}
	api.listFunc = func(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error) {
		if query.Page == 2 {
			return nil, transportError(500, "Backend unavailable")
		}
		return emptyPage(query), nil
	}

	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })

	store.SetPage(2)
	waitFor(t, func() bool { return store.State().ListError != nil })

	state := store.State()
	assert.Equal(t, "Backend unavailable", state.ListError.Message)
	require.NotNil(t, state.Data, "previous page stays next to the inline error")
	assert.Equal(t, 1, state.Data.Page)

	// Navigating back to the cached page clears the error.
	store.SetPage(1)
	state = store.State()
	assert.Nil(t, state.ListError)
}

func TestDeleteMutation(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))
	store.Start()
	waitFor(t, func() bool { return store.State().Data != nil })

	require.NoError(t, store.DeletePerson(context.Background(), "p-3"))
	waitFor(t, func() bool { return len(api.calls()) == 2 })

	api.mu.Lock()
	deletedID := api.deletedID
	api.mu.Unlock()
	assert.Equal(t, "p-3", deletedID)
	assert.Equal(t, "Person deleted", store.State().Notice)
}

func TestSubscribePublishesChanges(t *testing.T) {
	api := &fakeAPI{}
	store := NewStore(context.Background(), api, WithDebounce(time.Millisecond))

	var mu sync.Mutex
	var seen []State
	unsubscribe := store.Subscribe(func(state State) {
		mu.Lock()
		seen = append(seen, state)
		mu.Unlock()
	})

	store.Start()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range seen {
			if s.Data != nil {
				return true
			}
		}
		return false
	})

	unsubscribe()
	mu.Lock()
	count := len(seen)
	mu.Unlock()

	store.SetPage(2)
	waitFor(t, func() bool { return store.State().Data != nil && store.State().Data.Page == 2 })

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, count, "no publishes after unsubscribe")
}
