package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplecatalog/internal/api/client"
	"peoplecatalog/internal/api/dto/v1/person"
	"peoplecatalog/internal/api/persons"
)

func newFixture(t *testing.T, seed ...person.Person) (*Server, *persons.Client) {
	t.Helper()
	server := NewServer(nil, RateLimit{})
	server.Seed(seed...)
	ts := httptest.NewServer(server.Engine())
	t.Cleanup(ts.Close)
	return server, persons.NewClient(client.New(ts.URL, 2*time.Second))
}

func seedPerson(id, firstName, lastName, email, documentNumber string, active bool) person.Person {
	return person.Person{
		PersonID:       id,
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		DocumentNumber: documentNumber,
		IsActive:       active,
	}
}

func TestCreateThenList(t *testing.T) {
	_, api := newFixture(t)

	created, err := api.Create(context.Background(), person.CreateRequest{
		FirstName:      "John",
		LastName:       "Doe",
		Email:          "john@example.com",
		DocumentNumber: "DOC-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.PersonID)
	assert.True(t, created.IsActive, "new records start active")
	require.NotNil(t, created.CreatedDate)

	page, err := api.List(context.Background(), person.ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.PersonID, page.Items[0].PersonID)
}

func TestDuplicateDocumentConflict(t *testing.T) {
	_, api := newFixture(t, seedPerson("p-1", "John", "Doe", "john@example.com", "DOC-1", true))

	_, err := api.Create(context.Background(), person.CreateRequest{
		FirstName:      "Jane",
		LastName:       "Roe",
		Email:          "jane@example.com",
		DocumentNumber: "DOC-1",
	})
	require.Error(t, err)

	classified := client.Classify(err)
	assert.Equal(t, http.StatusConflict, classified.Status)
	assert.Equal(t, "Document number already exists", classified.Message)
}

func TestUpdateExcludesSelfFromDuplicateCheck(t *testing.T) {
	server, api := newFixture(t,
		seedPerson("p-1", "John", "Doe", "john@example.com", "DOC-1", true),
		seedPerson("p-2", "Jane", "Roe", "jane@example.com", "DOC-2", true),
	)

	// Keeping your own document number is not a conflict.
	err := api.Update(context.Background(), "p-1", person.UpdateRequest{
		FirstName: "Johnny", LastName: "Doe", Email: "john@example.com",
		DocumentNumber: "DOC-1", IsActive: true,
	})
	require.NoError(t, err)

	// Taking another record's document number is.
	err = api.Update(context.Background(), "p-1", person.UpdateRequest{
		FirstName: "Johnny", LastName: "Doe", Email: "john@example.com",
		DocumentNumber: "DOC-2", IsActive: true,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, client.Classify(err).Status)

	stored := server.Persons()
	assert.Equal(t, "Johnny", stored[0].FirstName)
	assert.Equal(t, "DOC-1", stored[0].DocumentNumber)
	require.NotNil(t, stored[0].UpdatedDate)
}

func TestDeleteIsSoft(t *testing.T) {
	server, api := newFixture(t, seedPerson("p-1", "John", "Doe", "john@example.com", "DOC-1", true))

	require.NoError(t, api.Delete(context.Background(), "p-1"))

	// The record is flipped inactive, not removed.
	stored := server.Persons()
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsActive)

	active := true
	page, err := api.List(context.Background(), person.ListQuery{Page: 1, PageSize: 10, IsActive: &active})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	inactive := false
	page, err = api.List(context.Background(), person.ListQuery{Page: 1, PageSize: 10, IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p-1", page.Items[0].PersonID)
}

func TestDeleteUnknownPerson(t *testing.T) {
	_, api := newFixture(t)

	err := api.Delete(context.Background(), "missing")
	require.Error(t, err)
	classified := client.Classify(err)
	assert.Equal(t, http.StatusNotFound, classified.Status)
	assert.Equal(t, "Person not found", classified.Message)
}

func TestListSearchMatching(t *testing.T) {
	_, api := newFixture(t,
		seedPerson("p-1", "John", "Doe", "john@example.com", "DOC-1", true),
		seedPerson("p-2", "Jane", "Roe", "jane@other.org", "DOC-2", true),
		seedPerson("p-3", "Johan", "Smith", "johan@example.com", "XYZ-9", true),
	)

	tests := []struct {
		name    string
		search  string
		wantIDs []string
	}{
		{"partial name", "joh", []string{"p-1", "p-3"}},
		{"full name spans first and last", "jane roe", []string{"p-2"}},
		{"email domain", "other.org", []string{"p-2"}},
		{"document number", "xyz", []string{"p-3"}},
		{"no match", "nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := api.List(context.Background(), person.ListQuery{
				Page: 1, PageSize: 10, Search: tt.search,
			})
			require.NoError(t, err)

			var ids []string
			for _, p := range page.Items {
				ids = append(ids, p.PersonID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			if len(tt.wantIDs) > 0 {
				require.NotNil(t, page.Search)
			}
		})
	}
}

func TestListPaginationMath(t *testing.T) {
	seed := make([]person.Person, 0, 7)
	for _, p := range []struct{ id, doc string }{
		{"p-1", "DOC-1"}, {"p-2", "DOC-2"}, {"p-3", "DOC-3"}, {"p-4", "DOC-4"},
		{"p-5", "DOC-5"}, {"p-6", "DOC-6"}, {"p-7", "DOC-7"},
	} {
		seed = append(seed, seedPerson(p.id, "John", "Doe", p.id+"@example.com", p.doc, true))
	}
	_, api := newFixture(t, seed...)

	page, err := api.List(context.Background(), person.ListQuery{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "p-4", page.Items[0].PersonID)

	// The final page carries the remainder.
	page, err = api.List(context.Background(), person.ListQuery{Page: 3, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasNext)

	// A page past the end renders empty rather than failing.
	page, err = api.List(context.Background(), person.ListQuery{Page: 9, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(7), page.TotalItems)
}

func TestListRejectsMalformedParameters(t *testing.T) {
	server := NewServer(nil, RateLimit{})
	ts := httptest.NewServer(server.Engine())
	t.Cleanup(ts.Close)
	c := client.New(ts.URL, 2*time.Second)

	for _, bad := range []struct{ key, value string }{
		{"page", "zero"}, {"page", "0"}, {"pageSize", "-5"}, {"isActive", "maybe"},
	} {
		params := url.Values{}
		params.Set(bad.key, bad.value)
		err := c.Do(context.Background(), http.MethodGet, "/api/persons", params, nil, nil)
		require.Error(t, err, "%s=%s", bad.key, bad.value)
		assert.Equal(t, http.StatusBadRequest, client.Classify(err).Status, "%s=%s", bad.key, bad.value)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	_, api := newFixture(t)

	badDate := "12/04/1988"
	_, err := api.Create(context.Background(), person.CreateRequest{
		FirstName:      "John",
		LastName:       "Doe",
		Email:          "not-an-email",
		BirthDate:      &badDate,
		DocumentNumber: "DOC-1",
	})
	require.Error(t, err)

	var reqErr *client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	require.NotNil(t, reqErr.Problem)
	assert.Equal(t, "Invalid payload", reqErr.Problem.Detail)
	assert.Contains(t, reqErr.Problem.Errors, "Email")
	assert.Contains(t, reqErr.Problem.Errors, "BirthDate")
}

func TestRateLimitExceeded(t *testing.T) {
	server := NewServer(nil, RateLimit{RPS: 1, Burst: 2})
	ts := httptest.NewServer(server.Engine())
	t.Cleanup(ts.Close)
	c := client.New(ts.URL, 2*time.Second)

	var limited bool
	for i := 0; i < 5; i++ {
		err := c.Do(context.Background(), http.MethodGet, "/api/persons", nil, nil, nil)
		if err != nil {
			classified := client.Classify(err)
			assert.Equal(t, http.StatusTooManyRequests, classified.Status)
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of requests should trip the limiter")
}
