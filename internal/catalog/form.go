package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"peoplecatalog/internal/api/dto/v1/person"
)

var validate = validator.New()

// Values holds the form subsystem's editable fields. Validation runs
// on the trimmed values, so surrounding whitespace never satisfies a
// length rule.
type Values struct {
	FirstName      string `validate:"required,min=2"`
	LastName       string `validate:"required,min=2"`
	Email          string `validate:"required,email"`
	Phone          string
	BirthDate      string `validate:"omitempty,datetime=2006-01-02"`
	DocumentNumber string `validate:"required"`
	IsActive       bool
}

// ValuesFromPerson prefills form values from an existing record for
// the edit flow.
func ValuesFromPerson(p person.Person) Values {
	values := Values{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		DocumentNumber: p.DocumentNumber,
		IsActive:       p.IsActive,
	}
	if p.Phone != nil {
		values.Phone = *p.Phone
	}
	if p.BirthDate != nil {
		values.BirthDate = *p.BirthDate
	}
	return values
}

// ValidationError carries field-scoped messages for input that failed
// validation. It blocks submission entirely; nothing partial is sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate normalizes the values and checks them. It returns the
// normalized copy and a map of field-scoped messages, empty when the
// input is valid.
func (v Values) Validate() (Values, map[string]string) {
	normalized := v.normalized()

	err := validate.Struct(normalized)
	if err == nil {
		return normalized, nil
	}

	fieldErrors := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := fieldName(e.Field())
			if _, seen := fieldErrors[field]; !seen {
				fieldErrors[field] = fieldMessage(e.Field())
			}
		}
	}
	return normalized, fieldErrors
}

func (v Values) normalized() Values {
	return Values{
		FirstName:      strings.TrimSpace(v.FirstName),
		LastName:       strings.TrimSpace(v.LastName),
		Email:          strings.TrimSpace(v.Email),
		Phone:          strings.TrimSpace(v.Phone),
		BirthDate:      strings.TrimSpace(v.BirthDate),
		DocumentNumber: strings.TrimSpace(v.DocumentNumber),
		IsActive:       v.IsActive,
	}
}

// CreatePayload emits the create request. Empty optional fields become
// explicit nulls, never empty strings; the birth date stays a plain
// "YYYY-MM-DD" calendar value with no time component.
func (v Values) CreatePayload() person.CreateRequest {
	normalized := v.normalized()
	return person.CreateRequest{
		FirstName:      normalized.FirstName,
		LastName:       normalized.LastName,
		Email:          normalized.Email,
		Phone:          optional(normalized.Phone),
		BirthDate:      optional(normalized.BirthDate),
		DocumentNumber: normalized.DocumentNumber,
	}
}

// UpdatePayload emits the update request, the only payload that
// carries the active flag.
func (v Values) UpdatePayload() person.UpdateRequest {
	base := v.CreatePayload()
	return person.UpdateRequest{
		FirstName:      base.FirstName,
		LastName:       base.LastName,
		Email:          base.Email,
		Phone:          base.Phone,
		BirthDate:      base.BirthDate,
		DocumentNumber: base.DocumentNumber,
		IsActive:       v.IsActive,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func fieldName(structField string) string {
	switch structField {
	case "FirstName":
		return "firstName"
	case "LastName":
		return "lastName"
	case "Email":
		return "email"
	case "Phone":
		return "phone"
	case "BirthDate":
		return "birthDate"
	case "DocumentNumber":
		return "documentNumber"
	}
	return structField
}

func fieldMessage(structField string) string {
	switch structField {
	case "FirstName", "LastName":
		return "Min 2 characters"
	case "Email":
		return "Invalid email"
	case "BirthDate":
		return "Invalid date"
	case "DocumentNumber":
		return "Document number is required"
	}
	return "Invalid value"
}
