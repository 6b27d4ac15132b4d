package data

import (
	"math"
	"time"

	"github.com/paisapath/PaisaPath/internal/validator"
	"github.com/shopspring/decimal"
)

const (
	DefaultGoalCurrency = "NPR"
	DefaultGoalPriority = 3
	MinGoalPriority     = 1
	MaxGoalPriority     = 5

	// average Gregorian month length, used when projecting monthly savings
	daysPerMonth = 30.44
)

// GoalCategory classifies what a goal is saved towards. Unknown values decode
// to GoalCategoryOther rather than failing.
type GoalCategory string

const (
	GoalCategoryEmergency  GoalCategory = "emergency"
	GoalCategoryTravel     GoalCategory = "travel"
	GoalCategoryHouse      GoalCategory = "house"
	GoalCategoryCar        GoalCategory = "car"
	GoalCategoryEducation  GoalCategory = "education"
	GoalCategoryInvestment GoalCategory = "investment"
	GoalCategoryRetirement GoalCategory = "retirement"
	GoalCategoryWedding    GoalCategory = "wedding"
	GoalCategoryHealth     GoalCategory = "health"
	GoalCategoryBusiness   GoalCategory = "business"
	GoalCategoryGadgets    GoalCategory = "gadgets"
	GoalCategoryVacation   GoalCategory = "vacation"
	GoalCategoryOther      GoalCategory = "other"
)

// GoalType is the financial mechanism of a goal. Unknown values decode to
// GoalTypeSavings rather than failing.
type GoalType string

const (
	GoalTypeSavings    GoalType = "savings"
	GoalTypeDebtPayoff GoalType = "debtPayoff"
	GoalTypeInvestment GoalType = "investment"
	GoalTypePurchase   GoalType = "purchase"
	GoalTypeEmergency  GoalType = "emergency"
)

// ParseGoalCategory maps a category string to its constant, falling back to
// GoalCategoryOther for anything unrecognized.
func ParseGoalCategory(category string) GoalCategory {
	switch GoalCategory(category) {
	case GoalCategoryEmergency, GoalCategoryTravel, GoalCategoryHouse,
		GoalCategoryCar, GoalCategoryEducation, GoalCategoryInvestment,
		GoalCategoryRetirement, GoalCategoryWedding, GoalCategoryHealth,
		GoalCategoryBusiness, GoalCategoryGadgets, GoalCategoryVacation,
		GoalCategoryOther:
		return GoalCategory(category)
	default:
		return GoalCategoryOther
	}
}

// ParseGoalType maps a type string to its constant, falling back to
// GoalTypeSavings for anything unrecognized.
func ParseGoalType(goalType string) GoalType {
	switch GoalType(goalType) {
	case GoalTypeSavings, GoalTypeDebtPayoff, GoalTypeInvestment,
		GoalTypePurchase, GoalTypeEmergency:
		return GoalType(goalType)
	default:
		return GoalTypeSavings
	}
}

// Goal represents a user's financial goal. A Goal is an immutable value: it is
// never modified after construction, all updates go through CopyWith producing
// a fresh value. CurrentAmount is stored raw (it may be negative or exceed the
// target, e.g. an overflowed ledger); the derived accessors clamp on read.
type Goal struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"userId"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	TargetAmount        decimal.Decimal  `json:"targetAmount"`
	CurrentAmount       decimal.Decimal  `json:"currentAmount"`
	Currency            string           `json:"currency"`
	MonthlyContribution *decimal.Decimal `json:"monthlyContribution"`
	StartDate           time.Time        `json:"startDate"`
	TargetDate          time.Time        `json:"targetDate"`
	Category            GoalCategory     `json:"category"`
	Type                GoalType         `json:"type"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	IsCompleted         bool             `json:"isCompleted"`
	IsActive            bool             `json:"isActive"`
	Priority            int              `json:"priority"`
	ImageURL            *string          `json:"imageUrl"`
	Metadata            map[string]any   `json:"metadata"`
	Milestones          []Milestone      `json:"milestones"`
}

// Milestone is a sub-target within a goal, with its own amount, deadline and
// completion state. Insertion order of the milestone slice is preserved for
// display but has no bearing on any computation.
type Milestone struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	TargetDate   time.Time       `json:"targetDate"`
	IsCompleted  bool            `json:"isCompleted"`
	CreatedAt    time.Time       `json:"createdAt"`
	CompletedAt  *time.Time      `json:"completedAt"`
}

// GoalUpdate carries field-level overrides for CopyWith. A nil field means
// "keep the prior value". Milestones are replaced wholesale; there is no
// per-milestone patch at this level.
type GoalUpdate struct {
	Title               *string
	Description         *string
	TargetAmount        *decimal.Decimal
	CurrentAmount       *decimal.Decimal
	Currency            *string
	MonthlyContribution *decimal.Decimal
	StartDate           *time.Time
	TargetDate          *time.Time
	Category            *GoalCategory
	Type                *GoalType
	UpdatedAt           *time.Time
	IsCompleted         *bool
	IsActive            *bool
	Priority            *int
	ImageURL            *string
	Metadata            *map[string]any
	Milestones          *[]Milestone
}

// CopyWith produces a new Goal with the given overrides applied. The receiver
// is never mutated and the result shares no slice or map storage with it.
func (g Goal) CopyWith(update GoalUpdate) Goal {
	out := g
	if update.Title != nil {
		out.Title = *update.Title
	}
	if update.Description != nil {
		out.Description = *update.Description
	}
	if update.TargetAmount != nil {
		out.TargetAmount = *update.TargetAmount
	}
	if update.CurrentAmount != nil {
		out.CurrentAmount = *update.CurrentAmount
	}
	if update.Currency != nil {
		out.Currency = *update.Currency
	}
	if update.MonthlyContribution != nil {
		contribution := *update.MonthlyContribution
		out.MonthlyContribution = &contribution
	}
	if update.StartDate != nil {
		out.StartDate = *update.StartDate
	}
	if update.TargetDate != nil {
		out.TargetDate = *update.TargetDate
	}
	if update.Category != nil {
		out.Category = *update.Category
	}
	if update.Type != nil {
		out.Type = *update.Type
	}
	if update.UpdatedAt != nil {
		out.UpdatedAt = *update.UpdatedAt
	}
	if update.IsCompleted != nil {
		out.IsCompleted = *update.IsCompleted
	}
	if update.IsActive != nil {
		out.IsActive = *update.IsActive
	}
	if update.Priority != nil {
		out.Priority = *update.Priority
	}
	if update.ImageURL != nil {
		imageURL := *update.ImageURL
		out.ImageURL = &imageURL
	}
	if update.Metadata != nil {
		out.Metadata = *update.Metadata
	}
	if update.Milestones != nil {
		out.Milestones = *update.Milestones
	}
	// detach the remaining reference fields from the receiver
	if update.MonthlyContribution == nil && g.MonthlyContribution != nil {
		contribution := *g.MonthlyContribution
		out.MonthlyContribution = &contribution
	}
	if update.ImageURL == nil && g.ImageURL != nil {
		imageURL := *g.ImageURL
		out.ImageURL = &imageURL
	}
	out.Metadata = cloneMetadata(out.Metadata)
	out.Milestones = cloneMilestones(out.Milestones)
	return out
}

func cloneMilestones(milestones []Milestone) []Milestone {
	if milestones == nil {
		return nil
	}
	cloned := make([]Milestone, len(milestones))
	for i, m := range milestones {
		if m.CompletedAt != nil {
			completedAt := *m.CompletedAt
			m.CompletedAt = &completedAt
		}
		cloned[i] = m
	}
	return cloned
}

func cloneMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	cloned := make(map[string]any, len(metadata))
	for key, value := range metadata {
		cloned[key] = cloneJSONValue(value)
	}
	return cloned
}

func cloneJSONValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMetadata(v)
	case []any:
		cloned := make([]any, len(v))
		for i, item := range v {
			cloned[i] = cloneJSONValue(item)
		}
		return cloned
	default:
		return v
	}
}

// ==============================================================================
// Derived metrics
// ==============================================================================
// All metrics are pure functions of the goal and, where time matters, an
// explicit reference instant. Nothing here reads the wall clock: callers at
// the outermost layer (handlers, schedulers) pass time.Now().

// ProgressPercentage returns currentAmount/targetAmount as a percentage,
// clamped to [0,100]. A non-positive target yields 0 rather than dividing.
func (g Goal) ProgressPercentage() decimal.Decimal {
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	progress := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	return clampDecimal(progress, decimal.Zero, decimal.NewFromInt(100))
}

// RemainingAmount returns targetAmount-currentAmount clamped to
// [0, targetAmount]: never negative, never more than the target itself.
func (g Goal) RemainingAmount() decimal.Decimal {
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	return clampDecimal(remaining, decimal.Zero, g.TargetAmount)
}

// DaysRemaining returns the whole days between now and the target date, or 0
// once the target date has passed.
func (g Goal) DaysRemaining(now time.Time) int {
	days := wholeDaysBetween(now, g.TargetDate)
	if days < 0 {
		return 0
	}
	return days
}

// TotalDays returns the whole days between the start and target dates. It may
// be zero or negative when the dates are inconsistent; ExpectedProgress and
// friends define a fallback for that case.
func (g Goal) TotalDays() int {
	return wholeDaysBetween(g.StartDate, g.TargetDate)
}

// IsOverdue reports whether the target date has passed without completion.
func (g Goal) IsOverdue(now time.Time) bool {
	return now.After(g.TargetDate) && !g.IsCompleted
}

// ExpectedProgress returns the percentage of the goal period elapsed at the
// reference instant. When the period is empty or inverted (TotalDays <= 0) it
// is treated as fully elapsed and 100 is returned.
func (g Goal) ExpectedProgress(now time.Time) decimal.Decimal {
	totalDays := g.TotalDays()
	if totalDays <= 0 {
		return decimal.NewFromInt(100)
	}
	elapsedDays := wholeDaysBetween(g.StartDate, now)
	return decimal.NewFromInt(int64(elapsedDays)).
		Div(decimal.NewFromInt(int64(totalDays))).
		Mul(decimal.NewFromInt(100))
}

// IsOnTrack reports whether actual progress is within 90% of the progress
// expected from elapsed time alone.
func (g Goal) IsOnTrack(now time.Time) bool {
	threshold := g.ExpectedProgress(now).Mul(decimal.NewFromFloat(0.9))
	return g.ProgressPercentage().GreaterThanOrEqual(threshold)
}

// RequiredMonthlySavings returns the amount to save per month to reach the
// target on time. When no whole month remains the full remaining amount is
// due outright.
func (g Goal) RequiredMonthlySavings(now time.Time) decimal.Decimal {
	remaining := g.RemainingAmount()
	daysUntilTarget := wholeDaysBetween(now, g.TargetDate)
	remainingMonths := int(math.Ceil(float64(daysUntilTarget) / daysPerMonth))
	if remainingMonths <= 0 {
		return remaining
	}
	return remaining.Div(decimal.NewFromInt(int64(remainingMonths)))
}

// Equal reports field-wise equality between two goals, including nested
// milestones in order. Timestamps compare with time.Time.Equal and amounts
// with decimal.Equal so representation differences don't matter.
func (g Goal) Equal(other Goal) bool {
	if g.ID != other.ID ||
		g.UserID != other.UserID ||
		g.Title != other.Title ||
		g.Description != other.Description ||
		g.Currency != other.Currency ||
		g.Category != other.Category ||
		g.Type != other.Type ||
		g.IsCompleted != other.IsCompleted ||
		g.IsActive != other.IsActive ||
		g.Priority != other.Priority {
		return false
	}
	if !g.TargetAmount.Equal(other.TargetAmount) || !g.CurrentAmount.Equal(other.CurrentAmount) {
		return false
	}
	if !equalDecimalPtr(g.MonthlyContribution, other.MonthlyContribution) {
		return false
	}
	if !equalStringPtr(g.ImageURL, other.ImageURL) {
		return false
	}
	if !g.StartDate.Equal(other.StartDate) ||
		!g.TargetDate.Equal(other.TargetDate) ||
		!g.CreatedAt.Equal(other.CreatedAt) ||
		!g.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	if !equalMetadata(g.Metadata, other.Metadata) {
		return false
	}
	if len(g.Milestones) != len(other.Milestones) {
		return false
	}
	for i := range g.Milestones {
		if !g.Milestones[i].Equal(other.Milestones[i]) {
			return false
		}
	}
	return true
}

// Equal reports field-wise equality between two milestones.
func (m Milestone) Equal(other Milestone) bool {
	if m.ID != other.ID ||
		m.Title != other.Title ||
		m.Description != other.Description ||
		m.IsCompleted != other.IsCompleted {
		return false
	}
	if !m.TargetAmount.Equal(other.TargetAmount) {
		return false
	}
	if !m.TargetDate.Equal(other.TargetDate) || !m.CreatedAt.Equal(other.CreatedAt) {
		return false
	}
	switch {
	case m.CompletedAt == nil && other.CompletedAt == nil:
		return true
	case m.CompletedAt == nil || other.CompletedAt == nil:
		return false
	default:
		return m.CompletedAt.Equal(*other.CompletedAt)
	}
}

// wholeDaysBetween truncates the span between two instants to whole days. The
// result is negative when 'to' precedes 'from'.
func wholeDaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func clampDecimal(value, low, high decimal.Decimal) decimal.Decimal {
	if value.LessThan(low) {
		return low
	}
	if value.GreaterThan(high) {
		return high
	}
	return value
}

func equalDecimalPtr(a, b *decimal.Decimal) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.Equal(*b)
	}
}

func equalStringPtr(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}

func equalMetadata(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for key, valueA := range a {
		valueB, ok := b[key]
		if !ok || !equalJSONValue(valueA, valueB) {
			return false
		}
	}
	return true
}

func equalJSONValue(a, b any) bool {
	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		return ok && equalMetadata(va, vb)
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !equalJSONValue(va[i], vb[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// ==============================================================================
// Validators
// ==============================================================================
// These guard API input only. Decoded records are accepted as stored (the raw
// ledger may hold values a fresh request could not submit).

func ValidateGoalTitle(v *validator.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(len(title) <= 255, "title", "must not be more than 255 bytes long")
}

func ValidateGoalDescription(v *validator.Validator, description string) {
	v.Check(description != "", "description", "must be provided")
	v.Check(len(description) <= 500, "description", "must not be more than 500 bytes long")
}

func ValidateGoalTargetAmount(v *validator.Validator, targetAmount decimal.Decimal) {
	v.Check(targetAmount.GreaterThan(decimal.Zero), "target_amount", "must be greater than 0")
}

func ValidateGoalCurrencyCode(v *validator.Validator, currencyCode string) {
	v.Check(currencyCode != "", "currency", "must be provided")
	v.Check(len(currencyCode) == 3, "currency", "must be 3 bytes long")
}

func ValidateGoalPriority(v *validator.Validator, priority int) {
	v.Check(priority >= MinGoalPriority && priority <= MaxGoalPriority, "priority", "must be between 1 and 5")
}

func ValidateGoalDates(v *validator.Validator, startDate, targetDate time.Time) {
	v.Check(!startDate.IsZero(), "start_date", "must be provided")
	v.Check(!targetDate.IsZero(), "target_date", "must be provided")
	v.Check(targetDate.After(startDate), "target_date", "must be after start date")
}

func ValidateGoal(v *validator.Validator, goal *Goal) {
	ValidateGoalTitle(v, goal.Title)
	ValidateGoalDescription(v, goal.Description)
	ValidateGoalTargetAmount(v, goal.TargetAmount)
	ValidateGoalCurrencyCode(v, goal.Currency)
	ValidateGoalPriority(v, goal.Priority)
	ValidateGoalDates(v, goal.StartDate, goal.TargetDate)
	if goal.MonthlyContribution != nil {
		v.Check(goal.MonthlyContribution.GreaterThan(decimal.Zero), "monthly_contribution", "must be greater than 0")
	}
}

func ValidateMilestone(v *validator.Validator, milestone *Milestone) {
	v.Check(milestone.ID != "", "milestone_id", "must be provided")
	ValidateGoalTitle(v, milestone.Title)
	ValidateGoalTargetAmount(v, milestone.TargetAmount)
	v.Check(!milestone.TargetDate.IsZero(), "milestone_target_date", "must be provided")
}
