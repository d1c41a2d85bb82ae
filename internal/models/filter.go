// internal/models/filter.go
package models

import (
	"time"
)

const (
	DefaultPage     = 0
	DefaultPageSize = 10
)

// ApplicationFilter is the optional set of listing constraints.
// Zero values mean "no constraint"; present fields are combined with AND.
type ApplicationFilter struct {
	Status      ApplicationStatus
	NationalID  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// IsEmpty reports whether no filter dimension is set.
func (f ApplicationFilter) IsEmpty() bool {
	return f.Status == "" && f.NationalID == "" && f.CreatedFrom == nil && f.CreatedTo == nil
}

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Normalize applies the listing defaults and clamps negative input.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = DefaultPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset returns the row offset of the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

const (
	dateTimeLayout = "2006-01-02T15:04:05"
	dateLayout     = "2006-01-02"
)

// ParseLowerBound parses a createdFrom query value. A full ISO local date-time
// is taken as-is; a bare date means the start of that day.
func ParseLowerBound(value string) (time.Time, error) {
	if t, err := time.Parse(dateTimeLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ParseUpperBound parses a createdTo query value. A full ISO local date-time
// is taken as-is; a bare date means the end of that day (23:59:59.999999999).
func ParseUpperBound(value string) (time.Time, error) {
	if t, err := time.Parse(dateTimeLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Nanosecond), nil
}
