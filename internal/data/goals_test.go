package data

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paisapath/PaisaPath/internal/validator"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// baselineGoal returns a fully-populated goal used across the metric and
// update tests: 120,000 target, 30,000 saved, January through July 2024.
func baselineGoal() Goal {
	contribution := decimal.NewFromInt(15000)
	imageURL := "https://cdn.example.com/goals/bike.png"
	return Goal{
		ID:                  "goal-001",
		UserID:              "user-42",
		Title:               "New motorbike",
		Description:         "Save up for a commuter bike",
		TargetAmount:        decimal.NewFromInt(120000),
		CurrentAmount:       decimal.NewFromInt(30000),
		Currency:            "NPR",
		MonthlyContribution: &contribution,
		StartDate:           date(2024, time.January, 1),
		TargetDate:          date(2024, time.July, 1),
		Category:            GoalCategoryVacation,
		Type:                GoalTypeSavings,
		CreatedAt:           date(2024, time.January, 1),
		UpdatedAt:           date(2024, time.January, 1),
		IsCompleted:         false,
		IsActive:            true,
		Priority:            4,
		ImageURL:            &imageURL,
		Metadata: map[string]any{
			"color": "red",
			"tags":  []any{"vehicle", "personal"},
		},
		Milestones: []Milestone{
			{
				ID:           "ms-001",
				Title:        "Down payment",
				Description:  "First chunk saved",
				TargetAmount: decimal.NewFromInt(40000),
				TargetDate:   date(2024, time.March, 1),
				CreatedAt:    date(2024, time.January, 1),
			},
			{
				ID:           "ms-002",
				Title:        "Halfway there",
				Description:  "Second chunk saved",
				TargetAmount: decimal.NewFromInt(60000),
				TargetDate:   date(2024, time.May, 1),
				CreatedAt:    date(2024, time.January, 1),
			},
		},
	}
}

func TestGoal_ProgressPercentage(t *testing.T) {
	tests := []struct {
		name          string
		targetAmount  decimal.Decimal
		currentAmount decimal.Decimal
		want          decimal.Decimal
	}{
		{
			name:          "quarter of the way",
			targetAmount:  decimal.NewFromInt(120000),
			currentAmount: decimal.NewFromInt(30000),
			want:          decimal.NewFromInt(25),
		},
		{
			name:          "negative current clamps to zero",
			targetAmount:  decimal.NewFromInt(1000),
			currentAmount: decimal.NewFromInt(-500),
			want:          decimal.Zero,
		},
		{
			name:          "overflowed current clamps to one hundred",
			targetAmount:  decimal.NewFromInt(1000),
			currentAmount: decimal.NewFromInt(25000),
			want:          decimal.NewFromInt(100),
		},
		{
			name:          "zero target returns zero, not a division error",
			targetAmount:  decimal.Zero,
			currentAmount: decimal.NewFromInt(500),
			want:          decimal.Zero,
		},
		{
			name:          "negative target returns zero",
			targetAmount:  decimal.NewFromInt(-100),
			currentAmount: decimal.NewFromInt(500),
			want:          decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := baselineGoal()
			goal.TargetAmount = tt.targetAmount
			goal.CurrentAmount = tt.currentAmount
			got := goal.ProgressPercentage()
			if !got.Equal(tt.want) {
				t.Errorf("ProgressPercentage() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGoal_RemainingAmount(t *testing.T) {
	tests := []struct {
		name          string
		targetAmount  decimal.Decimal
		currentAmount decimal.Decimal
		want          decimal.Decimal
	}{
		{
			name:          "normal remainder",
			targetAmount:  decimal.NewFromInt(120000),
			currentAmount: decimal.NewFromInt(30000),
			want:          decimal.NewFromInt(90000),
		},
		{
			name:          "overflowed current never goes negative",
			targetAmount:  decimal.NewFromInt(1000),
			currentAmount: decimal.NewFromInt(9999),
			want:          decimal.Zero,
		},
		{
			name:          "negative current never exceeds target",
			targetAmount:  decimal.NewFromInt(1000),
			currentAmount: decimal.NewFromInt(-9999),
			want:          decimal.NewFromInt(1000),
		},
		{
			name:          "zero target has nothing remaining",
			targetAmount:  decimal.Zero,
			currentAmount: decimal.NewFromInt(100),
			want:          decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := baselineGoal()
			goal.TargetAmount = tt.targetAmount
			goal.CurrentAmount = tt.currentAmount
			got := goal.RemainingAmount()
			if !got.Equal(tt.want) {
				t.Errorf("RemainingAmount() = %s, want %s", got, tt.want)
			}
		})
	}
}

// The concrete mid-period scenario: a quarter saved with half the period gone
// is not on track.
func TestGoal_OnTrackScenario(t *testing.T) {
	goal := baselineGoal()
	now := date(2024, time.April, 1)

	if got := goal.ProgressPercentage(); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("ProgressPercentage() = %s, want 25", got)
	}
	// 91 of 182 whole days elapsed
	if got := goal.TotalDays(); got != 182 {
		t.Errorf("TotalDays() = %d, want 182", got)
	}
	if got := goal.ExpectedProgress(now); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("ExpectedProgress() = %s, want 50", got)
	}
	if goal.IsOnTrack(now) {
		t.Errorf("IsOnTrack() = true, want false (25%% actual vs 45%% threshold)")
	}
	if got := goal.DaysRemaining(now); got != 91 {
		t.Errorf("DaysRemaining() = %d, want 91", got)
	}
	// 90,000 over ceil(91/30.44) = 3 months
	if got := goal.RequiredMonthlySavings(now); !got.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("RequiredMonthlySavings() = %s, want 30000", got)
	}
	if goal.IsOverdue(now) {
		t.Errorf("IsOverdue() = true, want false")
	}
}

func TestGoal_PastTargetDate(t *testing.T) {
	goal := baselineGoal()
	goal.CurrentAmount = decimal.NewFromInt(115000)
	now := date(2024, time.September, 15)

	if got := goal.DaysRemaining(now); got != 0 {
		t.Errorf("DaysRemaining() = %d, want 0 for a past target date", got)
	}
	if !goal.IsOverdue(now) {
		t.Errorf("IsOverdue() = false, want true")
	}
	// 5,000 remaining with no months left is due outright, not divided.
	if got := goal.RequiredMonthlySavings(now); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("RequiredMonthlySavings() = %s, want the lump sum 5000", got)
	}

	goal.IsCompleted = true
	if goal.IsOverdue(now) {
		t.Errorf("IsOverdue() = true for a completed goal, want false")
	}
}

// An inverted or empty period counts as fully elapsed rather than dividing by zero.
func TestGoal_InconsistentPeriod(t *testing.T) {
	goal := baselineGoal()
	goal.StartDate = date(2024, time.July, 1)
	goal.TargetDate = date(2024, time.July, 1)
	now := date(2024, time.April, 1)

	if got := goal.TotalDays(); got != 0 {
		t.Errorf("TotalDays() = %d, want 0", got)
	}
	if got := goal.ExpectedProgress(now); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ExpectedProgress() = %s, want 100", got)
	}
	if goal.IsOnTrack(now) {
		t.Errorf("IsOnTrack() = true, want false (25%% actual vs 90%% threshold)")
	}

	goal.CurrentAmount = decimal.NewFromInt(110000)
	if !goal.IsOnTrack(now) {
		t.Errorf("IsOnTrack() = false, want true at 91.67%% actual")
	}
}

func TestGoal_CopyWith(t *testing.T) {
	original := baselineGoal()
	newAmount := decimal.NewFromInt(55000)

	updated := original.CopyWith(GoalUpdate{CurrentAmount: &newAmount})

	if !updated.CurrentAmount.Equal(newAmount) {
		t.Errorf("CopyWith() CurrentAmount = %s, want %s", updated.CurrentAmount, newAmount)
	}
	// every other field carries over
	reverted := updated
	reverted.CurrentAmount = original.CurrentAmount
	if !reverted.Equal(original) {
		t.Errorf("CopyWith() changed a field other than CurrentAmount")
	}
	// the receiver is untouched
	if !original.CurrentAmount.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("CopyWith() mutated the receiver's CurrentAmount")
	}
	if !original.Equal(baselineGoal()) {
		t.Errorf("CopyWith() mutated the receiver")
	}
}

func TestGoal_CopyWithDetachesStorage(t *testing.T) {
	original := baselineGoal()
	copied := original.CopyWith(GoalUpdate{})

	if !copied.Equal(original) {
		t.Fatalf("CopyWith(zero update) should produce an equal goal")
	}

	copied.Milestones[0].Title = "changed"
	copied.Metadata["color"] = "blue"
	*copied.MonthlyContribution = decimal.NewFromInt(1)

	if original.Milestones[0].Title != "Down payment" {
		t.Errorf("copy shares milestone storage with the receiver")
	}
	if original.Metadata["color"] != "red" {
		t.Errorf("copy shares metadata storage with the receiver")
	}
	if !original.MonthlyContribution.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("copy shares the monthly contribution pointer with the receiver")
	}
}

func TestGoal_CopyWithReplacesMilestonesWholesale(t *testing.T) {
	original := baselineGoal()
	replacement := []Milestone{
		{
			ID:           "ms-100",
			Title:        "Only milestone",
			Description:  "The new single milestone",
			TargetAmount: decimal.NewFromInt(120000),
			TargetDate:   date(2024, time.June, 1),
			CreatedAt:    date(2024, time.February, 1),
		},
	}

	updated := original.CopyWith(GoalUpdate{Milestones: &replacement})

	if len(updated.Milestones) != 1 || updated.Milestones[0].ID != "ms-100" {
		t.Fatalf("CopyWith() milestones = %v, want the replacement list", updated.Milestones)
	}
	if len(original.Milestones) != 2 {
		t.Errorf("CopyWith() mutated the receiver's milestone list")
	}
}

func TestParseGoalCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     GoalCategory
	}{
		{name: "known category", category: "travel", want: GoalCategoryTravel},
		{name: "unknown category falls back", category: "not_a_real_category", want: GoalCategoryOther},
		{name: "empty category falls back", category: "", want: GoalCategoryOther},
		{name: "case sensitive", category: "Travel", want: GoalCategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseGoalCategory(tt.category); got != tt.want {
				t.Errorf("ParseGoalCategory(%q) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}

func TestParseGoalType(t *testing.T) {
	tests := []struct {
		name     string
		goalType string
		want     GoalType
	}{
		{name: "known type", goalType: "debtPayoff", want: GoalTypeDebtPayoff},
		{name: "unknown type falls back", goalType: "speculation", want: GoalTypeSavings},
		{name: "empty type falls back", goalType: "", want: GoalTypeSavings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseGoalType(tt.goalType); got != tt.want {
				t.Errorf("ParseGoalType(%q) = %q, want %q", tt.goalType, got, tt.want)
			}
		})
	}
}

func TestValidateGoal(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Goal)
		wantErr bool
	}{
		{
			name:    "valid goal",
			mutate:  func(g *Goal) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(g *Goal) { g.Title = "" },
			wantErr: true,
		},
		{
			name:    "zero target amount",
			mutate:  func(g *Goal) { g.TargetAmount = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "bad currency length",
			mutate:  func(g *Goal) { g.Currency = "NPRS" },
			wantErr: true,
		},
		{
			name:    "priority out of range",
			mutate:  func(g *Goal) { g.Priority = 6 },
			wantErr: true,
		},
		{
			name:    "target date before start date",
			mutate:  func(g *Goal) { g.TargetDate = g.StartDate.AddDate(0, -1, 0) },
			wantErr: true,
		},
		{
			name: "non-positive monthly contribution",
			mutate: func(g *Goal) {
				zero := decimal.Zero
				g.MonthlyContribution = &zero
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := baselineGoal()
			tt.mutate(&goal)
			v := validator.New()
			ValidateGoal(v, &goal)
			if v.Valid() == tt.wantErr {
				t.Errorf("ValidateGoal() valid = %v, wantErr %v (errors: %v)", v.Valid(), tt.wantErr, v.Errors)
			}
		})
	}
}
