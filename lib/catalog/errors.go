package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by id finds no record
	ErrNotFound = errors.New("not found")
	// ErrStorageCorrupt is returned when a stored slot can not be decoded
	ErrStorageCorrupt = errors.New("storage corrupt")
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock is returned by the reject stock policy
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownTable is returned for table names outside the storage layout
	ErrUnknownTable = errors.New("unknown table")
)

// FieldError describes one invalid field
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError lists the invalid fields of a record.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Has reports whether field is among the invalid fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// validator collects field errors of one record
type validator struct {
	entity string
	fields []FieldError
}

func newValidator(entity string) *validator {
	return &validator{entity: entity}
}

func (v *validator) check(ok bool, field, msg string) {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Msg: msg})
	}
}

func (v *validator) required(value, field string) {
	v.check(strings.TrimSpace(value) != "", field, "is required")
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Entity: v.entity, Fields: v.fields}
}

// DanglingRef is a reference to a record that no longer exists. Deletes
// never cascade, so these are expected after admin deletes.
type DanglingRef struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Field  string `json:"field"`
	Ref    string `json:"ref"`
}

func (d DanglingRef) String() string {
	return fmt.Sprintf("%s %s: %s %q does not exist", d.Entity, d.ID, d.Field, d.Ref)
}
