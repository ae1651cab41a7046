package mockapi

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"peoplecatalog/internal/api/dto/v1/person"
)

var (
	ErrNotFound          = errors.New("person not found")
	ErrDuplicateDocument = errors.New("document number already exists")
)

// memStore is the fixture's in-memory persons collection. Listing
// returns records in creation order, which stands in for the real
// backend's server-defined ordering.
type memStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*person.Person
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*person.Person)}
}

func (s *memStore) list(query person.ListQuery) *person.PagedResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(query.Search))

	matched := make([]person.Person, 0, len(s.order))
	for _, id := range s.order {
		p := s.byID[id]
		if query.IsActive != nil && p.IsActive != *query.IsActive {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, *p)
	}

	total := int64(len(matched))
	totalPages := int((total + int64(query.PageSize) - 1) / int64(query.PageSize))

	start := (query.Page - 1) * query.PageSize
	end := start + query.PageSize
	items := []person.Person{}
	if start < len(matched) {
		if end > len(matched) {
			end = len(matched)
		}
		items = matched[start:end]
	}

	resp := &person.PagedResponse{
		Items:       items,
		Page:        query.Page,
		PageSize:    query.PageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     query.Page < totalPages,
		HasPrevious: query.Page > 1,
		IsActive:    query.IsActive,
	}
	if search != "" {
		echoed := strings.TrimSpace(query.Search)
		resp.Search = &echoed
	}
	return resp
}

// matchesSearch checks a case-insensitive substring match over name,
// email and document number.
func matchesSearch(p *person.Person, search string) bool {
	haystacks := []string{
		p.FirstName + " " + p.LastName,
		p.Email,
		p.DocumentNumber,
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), search) {
			return true
		}
	}
	return false
}

func (s *memStore) create(req person.CreateRequest) (*person.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.documentTakenLocked(req.DocumentNumber, "") {
		return nil, ErrDuplicateDocument
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p := &person.Person{
		PersonID:       uuid.NewString(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		BirthDate:      req.BirthDate,
		DocumentNumber: req.DocumentNumber,
		CreatedDate:    &now,
		IsActive:       true,
	}
	s.byID[p.PersonID] = p
	s.order = append(s.order, p.PersonID)
	return p, nil
}

func (s *memStore) update(id string, req person.UpdateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if s.documentTakenLocked(req.DocumentNumber, id) {
		return ErrDuplicateDocument
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p.FirstName = req.FirstName
	p.LastName = req.LastName
	p.Email = req.Email
	p.Phone = req.Phone
	p.BirthDate = req.BirthDate
	p.DocumentNumber = req.DocumentNumber
	p.IsActive = req.IsActive
	p.UpdatedDate = &now
	return nil
}

// softDelete marks the record inactive; it is never removed.
func (s *memStore) softDelete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC().Format(time.RFC3339)
	p.IsActive = false
	p.UpdatedDate = &now
	return nil
}

func (s *memStore) documentTakenLocked(documentNumber, excludeID string) bool {
	for id, p := range s.byID {
		if id != excludeID && p.DocumentNumber == documentNumber {
			return true
		}
	}
	return false
}

func (s *memStore) insert(p person.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PersonID == "" {
		p.PersonID = uuid.NewString()
	}
	copied := p
	s.byID[copied.PersonID] = &copied
	s.order = append(s.order, copied.PersonID)
}

func (s *memStore) snapshot() []person.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]person.Person, 0, len(s.byID))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}
