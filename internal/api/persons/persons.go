package persons

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"peoplecatalog/internal/api/client"
	"peoplecatalog/internal/api/dto/v1/person"
)

const basePath = "/api/persons"

// API is the persons collection contract the synchronization layer
// depends on.
type API interface {
	List(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error)
	Create(ctx context.Context, payload person.CreateRequest) (*person.Person, error)
	Update(ctx context.Context, personID string, payload person.UpdateRequest) error
	Delete(ctx context.Context, personID string) error
}

// Client is the persons resource client. It owns request-parameter
// shaping and nothing else: failures propagate to the caller unchanged.
type Client struct {
	http *client.Client
}

// NewClient creates a persons resource client on top of the HTTP adapter.
func NewClient(httpClient *client.Client) *Client {
	return &Client{http: httpClient}
}

// List fetches one page of the collection. Page and pageSize are always
// sent; search only when its trimmed form is non-empty (and then the
// trimmed form is what goes on the wire); isActive only when set, so
// "all" is expressed by omission.
func (c *Client) List(ctx context.Context, query person.ListQuery) (*person.PagedResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("pageSize", strconv.Itoa(query.PageSize))
	if search := strings.TrimSpace(query.Search); search != "" {
		params.Set("search", search)
	}
	if query.IsActive != nil {
		params.Set("isActive", strconv.FormatBool(*query.IsActive))
	}

	var page person.PagedResponse
	if err := c.http.Do(ctx, http.MethodGet, basePath, params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Create posts a new person and returns the created record.
func (c *Client) Create(ctx context.Context, payload person.CreateRequest) (*person.Person, error) {
	var created person.Person
	if err := c.http.Do(ctx, http.MethodPost, basePath, nil, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update puts the full payload, including the active flag, to the
// record's path.
func (c *Client) Update(ctx context.Context, personID string, payload person.UpdateRequest) error {
	return c.http.Do(ctx, http.MethodPut, basePath+"/"+url.PathEscape(personID), nil, payload, nil)
}

// Delete asks the server to soft-delete the record. The server flips
// isActive, not the client.
func (c *Client) Delete(ctx context.Context, personID string) error {
	return c.http.Do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(personID), nil, nil, nil)
}
