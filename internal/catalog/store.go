package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"peoplecatalog/internal/api/client"
	"peoplecatalog/internal/api/dto/v1/person"
	"peoplecatalog/internal/api/persons"
)

// DefaultDebounce is the quiet period a search value must survive
// before it participates in the cache key and goes to the server.
const DefaultDebounce = 350 * time.Millisecond

var (
	// ErrMutationInFlight is returned when a second mutation is issued
	// or the form is closed while one is still committing.
	ErrMutationInFlight = errors.New("a mutation is in flight")
)

// State is the synchronization layer's published view state.
// Data holds the committed page for the active key; while a new key's
// fetch is in flight the previous page is kept so the view never
// flashes empty. ListError and MutationError are already classified.
type State struct {
	Page     int
	PageSize int
	Search   string // raw input, not yet debounced
	IsActive *bool  // nil means "all"

	Data     *person.PagedResponse
	Fetching bool
	Mutating bool

	ListError     *client.Classified
	MutationError *client.Classified
	Notice        string

	FormOpen bool
	Editing  *person.Person // nil while creating
}

// Busy reports whether the list fetch or any mutation is in flight.
// Interactive controls are disabled while Busy so overlapping
// conflicting operations cannot be issued.
func (s State) Busy() bool {
	return s.Fetching || s.Mutating
}

// Store keeps a paginated, filtered, searchable persons list consistent
// with server mutations. Fetches carry a sequence number so only the
// most recently requested key's result is committed (last-request-wins);
// superseded responses are discarded. Every successful mutation
// invalidates the whole cache namespace and re-fetches the active key.
type Store struct {
	mu    sync.Mutex
	ctx   context.Context
	api   persons.API
	cache *listCache

	state           State
	committedSearch string // debounced value that participates in the key
	debounce        time.Duration
	searchTimer     *time.Timer
	seq             uint64 // sequence of the most recently issued fetch

	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce overrides the search debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(s *Store) { s.state.PageSize = size }
}

// WithActiveFilter sets the initial tri-state active filter.
func WithActiveFilter(isActive *bool) Option {
	return func(s *Store) { s.state.IsActive = isActive }
}

// NewStore creates a store over the given persons API. The initial view
// is page 1, page size 10, no search, active records only.
func NewStore(ctx context.Context, api persons.API, opts ...Option) *Store {
	active := true
	s := &Store{
		ctx:      ctx,
		api:      api,
		cache:    newListCache(),
		debounce: DefaultDebounce,
		subs:     make(map[int]func(State)),
		state: State{
			Page:     1,
			PageSize: 10,
			IsActive: &active,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called with a state snapshot on every
// published change. It returns an unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// State returns a snapshot of the current view state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start triggers the initial fetch for the current key.
func (s *Store) Start() {
	s.mu.Lock()
	s.ensureFetchLocked()
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// Stop cancels any pending debounce timer.
func (s *Store) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
}

// SetPage navigates to a page. Out-of-range pages are not clamped
// against totalPages; a page past the end simply renders empty until
// the user navigates back.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.state.Page = page
	s.ensureFetchLocked()
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// SetPageSize changes the page size and resets to page 1.
func (s *Store) SetPageSize(size int) {
	s.mu.Lock()
	s.state.PageSize = size
	s.state.Page = 1
	s.ensureFetchLocked()
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// SetActive changes the tri-state active filter and resets to page 1.
func (s *Store) SetActive(isActive *bool) {
	s.mu.Lock()
	s.state.IsActive = isActive
	s.state.Page = 1
	s.ensureFetchLocked()
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// SetSearch records the raw search input and resets to page 1. The
// value does not alter the cache key until it survives the debounce
// window uninterrupted, so rapid input does not fire one fetch per
// keystroke.
func (s *Store) SetSearch(raw string) {
	s.mu.Lock()
	s.state.Search = raw
	s.state.Page = 1
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchTimer = time.AfterFunc(s.debounce, func() {
		s.commitSearch(raw)
	})
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// commitSearch promotes a debounced value into the cache key.
func (s *Store) commitSearch(raw string) {
	s.mu.Lock()
	if s.state.Search != raw {
		// A newer keystroke superseded this one.
		s.mu.Unlock()
		return
	}
	s.committedSearch = raw
	s.ensureFetchLocked()
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// Refresh discards every cached page and re-fetches the active key.
func (s *Store) Refresh() {
	s.mu.Lock()
	s.cache.InvalidateAll()
	s.startFetchLocked()
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// OpenCreateForm opens the form with no editing selection.
func (s *Store) OpenCreateForm() {
	s.mu.Lock()
	s.state.FormOpen = true
	s.state.Editing = nil
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// OpenEditForm opens the form for an existing record.
func (s *Store) OpenEditForm(p person.Person) {
	s.mu.Lock()
	s.state.FormOpen = true
	s.state.Editing = &p
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// CloseForm closes the form and clears the editing selection. Closing
// is refused while a submission is committing.
func (s *Store) CloseForm() error {
	s.mu.Lock()
	if s.state.Mutating {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.state.FormOpen = false
	s.state.Editing = nil
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	return nil
}

// SubmitForm validates the collected values and issues the create or
// update mutation depending on the editing selection. Validation
// failures block submission entirely and never reach the server.
func (s *Store) SubmitForm(ctx context.Context, values Values) error {
	normalized, fieldErrors := values.Validate()
	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}

	s.mu.Lock()
	editing := s.state.Editing
	s.mu.Unlock()

	if editing == nil {
		return s.CreatePerson(ctx, normalized.CreatePayload())
	}
	return s.UpdatePerson(ctx, editing.PersonID, normalized.UpdatePayload())
}

// CreatePerson issues a create mutation.
func (s *Store) CreatePerson(ctx context.Context, payload person.CreateRequest) error {
	if err := s.beginMutation(); err != nil {
		return err
	}
	_, err := s.api.Create(ctx, payload)
	s.finishMutation(err, "Person created")
	return err
}

// UpdatePerson issues an update mutation for the given record.
func (s *Store) UpdatePerson(ctx context.Context, personID string, payload person.UpdateRequest) error {
	if err := s.beginMutation(); err != nil {
		return err
	}
	err := s.api.Update(ctx, personID, payload)
	s.finishMutation(err, "Person updated")
	return err
}

// DeletePerson issues a soft-delete mutation for the given record.
func (s *Store) DeletePerson(ctx context.Context, personID string) error {
	if err := s.beginMutation(); err != nil {
		return err
	}
	err := s.api.Delete(ctx, personID)
	s.finishMutation(err, "Person deleted")
	return err
}

func (s *Store) beginMutation() error {
	s.mu.Lock()
	if s.state.Mutating {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.state.Mutating = true
	s.state.Notice = ""
	s.state.MutationError = nil
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	return nil
}

// finishMutation commits the outcome of a mutation. On success the
// whole cache namespace is discarded, the active key re-fetched and
// the form closed. On failure nothing but the classified error
// changes: no optimistic mutation happened, so there is nothing to
// roll back and the form keeps its input.
func (s *Store) finishMutation(err error, notice string) {
	s.mu.Lock()
	s.state.Mutating = false
	if err != nil {
		classified := client.Classify(err)
		s.state.MutationError = &classified
	} else {
		s.state.Notice = notice
		s.state.FormOpen = false
		s.state.Editing = nil
		s.cache.InvalidateAll()
		s.startFetchLocked()
	}
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

func (s *Store) currentKeyLocked() ListKey {
	return newListKey(s.state.Page, s.state.PageSize, s.committedSearch, s.state.IsActive)
}

// ensureFetchLocked commits the cached page for the current key when
// one exists, and starts a fetch otherwise.
func (s *Store) ensureFetchLocked() {
	key := s.currentKeyLocked()
	if data, ok := s.cache.Get(key); ok {
		s.state.Data = data
		s.state.ListError = nil
		s.state.Fetching = false
		return
	}
	s.startFetchLocked()
}

// startFetchLocked issues a fetch for the current key. The previous
// page stays displayed until the result arrives. The sequence number
// captured here decides whether the response may be committed: a
// response belonging to a superseded request is cached for its own key
// but never applied to view state.
func (s *Store) startFetchLocked() {
	s.seq++
	seq := s.seq
	key := s.currentKeyLocked()
	gen := s.cache.Generation()
	s.state.Fetching = true

	query := person.ListQuery{
		Page:     key.Page,
		PageSize: key.PageSize,
		Search:   key.Search,
	}
	switch key.Active {
	case "true":
		active := true
		query.IsActive = &active
	case "false":
		active := false
		query.IsActive = &active
	}

	go func() {
		data, err := s.api.List(s.ctx, query)

		s.mu.Lock()
		if seq != s.seq || key != s.currentKeyLocked() {
			s.mu.Unlock()
			if err == nil {
				s.cache.Put(key, data, gen)
			}
			return
		}

		s.state.Fetching = false
		if err != nil {
			classified := client.Classify(err)
			s.state.ListError = &classified
			// Previous data is retained next to the inline error.
		} else {
			s.state.ListError = nil
			s.state.Data = data
			s.cache.Put(key, data, gen)
		}
		notify := s.publishLocked()
		s.mu.Unlock()
		notify()
	}()
}

// publishLocked snapshots state and the subscriber list; the returned
// function must be called after the lock is released so subscribers
// can call back into the store.
func (s *Store) publishLocked() func() {
	state := s.state
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(state)
		}
	}
}
