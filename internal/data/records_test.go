package data

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGoalRecordRoundTrip(t *testing.T) {
	completedAt := date(2024, time.February, 20)
	goal := baselineGoal()
	goal.Milestones[0].IsCompleted = true
	goal.Milestones[0].CompletedAt = &completedAt
	goal.Metadata = map[string]any{
		"color":  "red",
		"weight": float64(2.5),
		"nested": map[string]any{"enabled": true},
		"tags":   []any{"vehicle", "personal"},
		"note":   nil,
	}

	decoded, err := GoalFromRecord(goal.ToRecord())
	if err != nil {
		t.Fatalf("GoalFromRecord() error = %v", err)
	}
	if !decoded.Equal(goal) {
		t.Errorf("round-tripped goal differs from the original\n got: %+v\nwant: %+v", decoded, goal)
	}
}

// The record survives a trip through actual JSON text, where decimals become
// float64s and timestamps become strings.
func TestGoalRecordRoundTripThroughJSON(t *testing.T) {
	goal := baselineGoal()

	raw, err := json.Marshal(goal.ToRecord())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	decoded, err := GoalFromRecord(record)
	if err != nil {
		t.Fatalf("GoalFromRecord() error = %v", err)
	}
	if !decoded.Equal(goal) {
		t.Errorf("JSON round-tripped goal differs from the original\n got: %+v\nwant: %+v", decoded, goal)
	}
}

func TestGoalFromRecord_Defaults(t *testing.T) {
	record := baselineGoal().ToRecord()
	for _, field := range []string{
		"currentAmount", "currency", "category", "type", "isCompleted",
		"isActive", "priority", "monthlyContribution", "imageUrl",
		"metadata", "milestones",
	} {
		delete(record, field)
	}

	goal, err := GoalFromRecord(record)
	if err != nil {
		t.Fatalf("GoalFromRecord() error = %v", err)
	}

	if !goal.CurrentAmount.Equal(decimal.Zero) {
		t.Errorf("CurrentAmount = %s, want 0", goal.CurrentAmount)
	}
	if goal.Currency != DefaultGoalCurrency {
		t.Errorf("Currency = %q, want %q", goal.Currency, DefaultGoalCurrency)
	}
	if goal.Category != GoalCategoryOther {
		t.Errorf("Category = %q, want %q", goal.Category, GoalCategoryOther)
	}
	if goal.Type != GoalTypeSavings {
		t.Errorf("Type = %q, want %q", goal.Type, GoalTypeSavings)
	}
	if goal.IsCompleted {
		t.Errorf("IsCompleted = true, want false")
	}
	if !goal.IsActive {
		t.Errorf("IsActive = false, want true")
	}
	if goal.Priority != DefaultGoalPriority {
		t.Errorf("Priority = %d, want %d", goal.Priority, DefaultGoalPriority)
	}
	if goal.MonthlyContribution != nil {
		t.Errorf("MonthlyContribution = %s, want nil", goal.MonthlyContribution)
	}
	if goal.ImageURL != nil {
		t.Errorf("ImageURL = %q, want nil", *goal.ImageURL)
	}
	if len(goal.Milestones) != 0 {
		t.Errorf("Milestones = %v, want none", goal.Milestones)
	}
}

func TestGoalFromRecord_TolerantShapes(t *testing.T) {
	record := baselineGoal().ToRecord()
	record["targetAmount"] = "120000.50"           // decimal as string
	record["currentAmount"] = float64(30000)       // decimal as JSON number
	record["priority"] = float64(2)                // int as JSON number
	record["startDate"] = "2024-01-01"             // date-only timestamp
	record["targetDate"] = "2024-07-01T00:00:00Z"  // RFC 3339
	record["category"] = "definitely_not_a_thing"  // unknown enum string
	record["type"] = "gambling"                    // unknown enum string
	record["monthlyContribution"] = "not a number" // optional, ill-shaped

	goal, err := GoalFromRecord(record)
	if err != nil {
		t.Fatalf("GoalFromRecord() error = %v", err)
	}

	if want := decimal.NewFromFloat(120000.50); !goal.TargetAmount.Equal(want) {
		t.Errorf("TargetAmount = %s, want %s", goal.TargetAmount, want)
	}
	if want := decimal.NewFromInt(30000); !goal.CurrentAmount.Equal(want) {
		t.Errorf("CurrentAmount = %s, want %s", goal.CurrentAmount, want)
	}
	if goal.Priority != 2 {
		t.Errorf("Priority = %d, want 2", goal.Priority)
	}
	if want := date(2024, time.January, 1); !goal.StartDate.Equal(want) {
		t.Errorf("StartDate = %s, want %s", goal.StartDate, want)
	}
	if goal.Category != GoalCategoryOther {
		t.Errorf("Category = %q, want fallback %q", goal.Category, GoalCategoryOther)
	}
	if goal.Type != GoalTypeSavings {
		t.Errorf("Type = %q, want fallback %q", goal.Type, GoalTypeSavings)
	}
	if goal.MonthlyContribution != nil {
		t.Errorf("MonthlyContribution = %s, want nil for an undecodable value", goal.MonthlyContribution)
	}
}

func TestGoalFromRecord_MissingRequiredFields(t *testing.T) {
	required := []string{
		"id", "userId", "title", "description", "targetAmount",
		"startDate", "targetDate", "createdAt", "updatedAt",
	}

	for _, field := range required {
		t.Run("missing "+field, func(t *testing.T) {
			record := baselineGoal().ToRecord()
			delete(record, field)
			_, err := GoalFromRecord(record)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("GoalFromRecord() error = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestGoalFromRecord_IllShapedRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{name: "boolean target amount", field: "targetAmount", value: true},
		{name: "numeric user id", field: "userId", value: float64(42)},
		{name: "unparseable start date", field: "startDate", value: "yesterday-ish"},
		{name: "scalar milestones", field: "milestones", value: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := baselineGoal().ToRecord()
			record[tt.field] = tt.value
			_, err := GoalFromRecord(record)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("GoalFromRecord() error = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestMilestoneFromRecord(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr bool
	}{
		{
			name:    "well formed",
			mutate:  func(r map[string]any) {},
			wantErr: false,
		},
		{
			name:    "missing id",
			mutate:  func(r map[string]any) { delete(r, "id") },
			wantErr: true,
		},
		{
			name:    "missing created at",
			mutate:  func(r map[string]any) { delete(r, "createdAt") },
			wantErr: true,
		},
		{
			name:    "null completed at stays nil",
			mutate:  func(r map[string]any) { r["completedAt"] = nil },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := baselineGoal().Milestones[0].ToRecord()
			tt.mutate(record)
			milestone, err := MilestoneFromRecord(record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MilestoneFromRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("MilestoneFromRecord() error = %v, want ErrMalformedRecord", err)
				}
				return
			}
			if milestone.CompletedAt != nil {
				t.Errorf("CompletedAt = %s, want nil", milestone.CompletedAt)
			}
		})
	}
}

// A malformed milestone inside an otherwise valid goal record poisons the goal.
func TestGoalFromRecord_MalformedMilestone(t *testing.T) {
	record := baselineGoal().ToRecord()
	entries := record["milestones"].([]any)
	broken := entries[0].(map[string]any)
	delete(broken, "targetAmount")

	_, err := GoalFromRecord(record)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("GoalFromRecord() error = %v, want ErrMalformedRecord", err)
	}
}
