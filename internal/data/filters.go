package data

import (
	"sort"
	"strings"

	"github.com/paisapath/PaisaPath/internal/validator"
)

// Filters holds the pagination and sort parameters read from a list request's
// query string. SortSafelist is set per endpoint.
type Filters struct {
	Page         int
	PageSize     int
	Sort         string
	SortSafelist []string
}

// Metadata describes the pagination of a list response.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

func (f Filters) limit() int {
	return f.PageSize
}

func (f Filters) offset() int {
	return (f.Page - 1) * f.PageSize
}

// sortField returns the sort key with any leading hyphen stripped, as long as
// it is on the safelist.
func (f Filters) sortField() string {
	for _, safeValue := range f.SortSafelist {
		if f.Sort == safeValue {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	return ""
}

func (f Filters) sortDescending() bool {
	return strings.HasPrefix(f.Sort, "-")
}

func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(validator.PermittedValue(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
}

// calculateMetadata computes the pagination metadata for a total record count
// and the requested page/page size.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     (totalRecords + pageSize - 1) / pageSize,
		TotalRecords: totalRecords,
	}
}

// PaginateGoals sorts the goal list per the filters and cuts out the requested
// page, returning the page plus the pagination metadata for the full list.
// The input slice is not modified.
func PaginateGoals(goals []Goal, filters Filters) ([]Goal, Metadata) {
	sorted := make([]Goal, len(goals))
	copy(sorted, goals)
	sortGoals(sorted, filters)

	metadata := calculateMetadata(len(sorted), filters.Page, filters.PageSize)

	start := filters.offset()
	if start >= len(sorted) {
		return []Goal{}, metadata
	}
	end := start + filters.limit()
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], metadata
}

func sortGoals(goals []Goal, filters Filters) {
	field := filters.sortField()
	if field == "" {
		return
	}
	descending := filters.sortDescending()
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if descending {
			a, b = b, a
		}
		switch field {
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "target_date":
			return a.TargetDate.Before(b.TargetDate)
		case "priority":
			return a.Priority < b.Priority
		case "title":
			return a.Title < b.Title
		default:
			return false
		}
	})
}
