package data

import (
	"testing"
	"time"

	"github.com/paisapath/PaisaPath/internal/validator"
)

func filterFixtureGoals() []Goal {
	goals := make([]Goal, 0, 4)
	for _, seed := range []struct {
		id       string
		title    string
		priority int
		created  time.Time
	}{
		{id: "g1", title: "Bike", priority: 2, created: date(2024, time.March, 1)},
		{id: "g2", title: "Annapurna trek", priority: 5, created: date(2024, time.January, 15)},
		{id: "g3", title: "Laptop", priority: 1, created: date(2024, time.February, 10)},
		{id: "g4", title: "Emergency fund", priority: 4, created: date(2024, time.April, 2)},
	} {
		goal := baselineGoal()
		goal.ID = seed.id
		goal.Title = seed.title
		goal.Priority = seed.priority
		goal.CreatedAt = seed.created
		goals = append(goals, goal)
	}
	return goals
}

func goalIDs(goals []Goal) []string {
	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	return ids
}

func TestPaginateGoals(t *testing.T) {
	safelist := []string{"", "created_at", "-created_at", "priority", "-priority", "title", "-title"}

	tests := []struct {
		name     string
		filters  Filters
		wantIDs  []string
		wantMeta Metadata
	}{
		{
			name:    "unsorted keeps input order",
			filters: Filters{Page: 1, PageSize: 10, Sort: "", SortSafelist: safelist},
			wantIDs: []string{"g1", "g2", "g3", "g4"},
			wantMeta: Metadata{
				CurrentPage: 1, PageSize: 10, FirstPage: 1, LastPage: 1, TotalRecords: 4,
			},
		},
		{
			name:    "sort by priority ascending",
			filters: Filters{Page: 1, PageSize: 10, Sort: "priority", SortSafelist: safelist},
			wantIDs: []string{"g3", "g1", "g4", "g2"},
			wantMeta: Metadata{
				CurrentPage: 1, PageSize: 10, FirstPage: 1, LastPage: 1, TotalRecords: 4,
			},
		},
		{
			name:    "sort by created_at descending",
			filters: Filters{Page: 1, PageSize: 10, Sort: "-created_at", SortSafelist: safelist},
			wantIDs: []string{"g4", "g1", "g3", "g2"},
			wantMeta: Metadata{
				CurrentPage: 1, PageSize: 10, FirstPage: 1, LastPage: 1, TotalRecords: 4,
			},
		},
		{
			name:    "second page of two",
			filters: Filters{Page: 2, PageSize: 2, Sort: "title", SortSafelist: safelist},
			wantIDs: []string{"g4", "g3"},
			wantMeta: Metadata{
				CurrentPage: 2, PageSize: 2, FirstPage: 1, LastPage: 2, TotalRecords: 4,
			},
		},
		{
			name:    "page beyond the end is empty",
			filters: Filters{Page: 9, PageSize: 10, Sort: "", SortSafelist: safelist},
			wantIDs: []string{},
			wantMeta: Metadata{
				CurrentPage: 9, PageSize: 10, FirstPage: 1, LastPage: 1, TotalRecords: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := filterFixtureGoals()
			page, metadata := PaginateGoals(input, tt.filters)

			gotIDs := goalIDs(page)
			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("PaginateGoals() ids = %v, want %v", gotIDs, tt.wantIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Fatalf("PaginateGoals() ids = %v, want %v", gotIDs, tt.wantIDs)
				}
			}
			if metadata != tt.wantMeta {
				t.Errorf("PaginateGoals() metadata = %+v, want %+v", metadata, tt.wantMeta)
			}

			// the input order is preserved
			inputIDs := goalIDs(input)
			for i, want := range []string{"g1", "g2", "g3", "g4"} {
				if inputIDs[i] != want {
					t.Errorf("PaginateGoals() reordered the input slice: %v", inputIDs)
					break
				}
			}
		})
	}
}

func TestPaginateGoals_Empty(t *testing.T) {
	page, metadata := PaginateGoals(nil, Filters{Page: 1, PageSize: 20})
	if len(page) != 0 {
		t.Errorf("PaginateGoals() page = %v, want empty", page)
	}
	if metadata != (Metadata{}) {
		t.Errorf("PaginateGoals() metadata = %+v, want zero value", metadata)
	}
}

func TestValidateFilters(t *testing.T) {
	safelist := []string{"", "created_at", "-created_at"}

	tests := []struct {
		name    string
		filters Filters
		wantErr bool
	}{
		{
			name:    "valid",
			filters: Filters{Page: 1, PageSize: 20, Sort: "-created_at", SortSafelist: safelist},
			wantErr: false,
		},
		{
			name:    "zero page",
			filters: Filters{Page: 0, PageSize: 20, Sort: "", SortSafelist: safelist},
			wantErr: true,
		},
		{
			name:    "oversized page size",
			filters: Filters{Page: 1, PageSize: 500, Sort: "", SortSafelist: safelist},
			wantErr: true,
		},
		{
			name:    "sort value off the safelist",
			filters: Filters{Page: 1, PageSize: 20, Sort: "priority", SortSafelist: safelist},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			ValidateFilters(v, tt.filters)
			if v.Valid() == tt.wantErr {
				t.Errorf("ValidateFilters() valid = %v, wantErr %v (errors: %v)", v.Valid(), tt.wantErr, v.Errors)
			}
		})
	}
}
