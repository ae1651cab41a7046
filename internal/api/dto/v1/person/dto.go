package person

// Person represents a catalog record as returned by the API.
// PersonID is opaque and immutable; CreatedDate/UpdatedDate are
// server-assigned and read-only. IsActive=false means soft-deleted.
type Person struct {
	PersonID       string  `json:"personId"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	BirthDate      *string `json:"birthDate,omitempty"` // "YYYY-MM-DD"
	DocumentNumber string  `json:"documentNumber"`
	CreatedDate    *string `json:"createdDate,omitempty"`
	UpdatedDate    *string `json:"updatedDate,omitempty"`
	IsActive       bool    `json:"isActive"`
}

// CreateRequest is the payload for creating a person. It carries
// exactly the editable fields: no identity, no active flag.
type CreateRequest struct {
	FirstName      string  `json:"firstName" binding:"required,min=2"`
	LastName       string  `json:"lastName" binding:"required,min=2"`
	Email          string  `json:"email" binding:"required,email"`
	Phone          *string `json:"phone"`
	BirthDate      *string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
	DocumentNumber string  `json:"documentNumber" binding:"required"`
}

// UpdateRequest is the payload for updating a person. Flipping
// IsActive through an update is the only way to re-activate a record.
type UpdateRequest struct {
	FirstName      string  `json:"firstName" binding:"required,min=2"`
	LastName       string  `json:"lastName" binding:"required,min=2"`
	Email          string  `json:"email" binding:"required,email"`
	Phone          *string `json:"phone"`
	BirthDate      *string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
	DocumentNumber string  `json:"documentNumber" binding:"required"`
	IsActive       bool    `json:"isActive"`
}

// PagedResponse is one page of the persons collection. Page is 1-based;
// ordering is defined by the server. Search and IsActive echo the
// filters the page was computed with.
type PagedResponse struct {
	Items       []Person `json:"items"`
	Page        int      `json:"page"`
	PageSize    int      `json:"pageSize"`
	TotalItems  int64    `json:"totalItems"`
	TotalPages  int      `json:"totalPages"`
	HasNext     bool     `json:"hasNext"`
	HasPrevious bool     `json:"hasPrevious"`
	Search      *string  `json:"search,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// ListQuery holds the list-view parameters. Search is the raw input;
// trimming happens at the resource client before transmission. A nil
// IsActive means "all".
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	IsActive *bool
}
