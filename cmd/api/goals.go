package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paisapath/PaisaPath/internal/data"
	"github.com/paisapath/PaisaPath/internal/validator"
	"github.com/shopspring/decimal"
)

//==============================================================================================================
// GOAL HANDLERS
//==============================================================================================================

// goalProgression pairs a goal with its derived metrics, all evaluated at one
// reference instant so a single response is internally consistent.
type goalProgression struct {
	Goal                   data.Goal       `json:"goal"`
	ProgressPercentage     decimal.Decimal `json:"progress_percentage"`
	ExpectedProgress       decimal.Decimal `json:"expected_progress"`
	RemainingAmount        decimal.Decimal `json:"remaining_amount"`
	DaysRemaining          int             `json:"days_remaining"`
	TotalDays              int             `json:"total_days"`
	IsOverdue              bool            `json:"is_overdue"`
	IsOnTrack              bool            `json:"is_on_track"`
	RequiredMonthlySavings decimal.Decimal `json:"required_monthly_savings"`
}

func (app *application) goalProgressionAt(goal data.Goal, now time.Time) goalProgression {
	return goalProgression{
		Goal:                   goal,
		ProgressPercentage:     goal.ProgressPercentage(),
		ExpectedProgress:       goal.ExpectedProgress(now),
		RemainingAmount:        goal.RemainingAmount(),
		DaysRemaining:          goal.DaysRemaining(now),
		TotalDays:              goal.TotalDays(),
		IsOverdue:              goal.IsOverdue(now),
		IsOnTrack:              goal.IsOnTrack(now),
		RequiredMonthlySavings: goal.RequiredMonthlySavings(now),
	}
}

// createNewGoalHandler() is a handler function that handles the creation of a Goal.
// We validate the received inputs in our input struct. If everything is okay we
// verify the currency code against the cached rates and save the goal record.
func (app *application) createNewGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	var input struct {
		ID                  string           `json:"id"`
		Title               string           `json:"title"`
		Description         string           `json:"description"`
		TargetAmount        decimal.Decimal  `json:"targetAmount"`
		CurrentAmount       decimal.Decimal  `json:"currentAmount"`
		Currency            string           `json:"currency"`
		MonthlyContribution *decimal.Decimal `json:"monthlyContribution"`
		StartDate           time.Time        `json:"startDate"`
		TargetDate          time.Time        `json:"targetDate"`
		Category            string           `json:"category"`
		Type                string           `json:"type"`
		Priority            *int             `json:"priority"`
		ImageURL            *string          `json:"imageUrl"`
		Metadata            map[string]any   `json:"metadata"`
		Milestones          []data.Milestone `json:"milestones"`
	}
	// Decode the request body into the input struct
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	// Apply the documented defaults for anything the client left out.
	if input.Currency == "" {
		input.Currency = data.DefaultGoalCurrency
	}
	priority := data.DefaultGoalPriority
	if input.Priority != nil {
		priority = *input.Priority
	}
	now := time.Now().UTC()
	newGoal := data.Goal{
		ID:                  input.ID,
		UserID:              userID,
		Title:               input.Title,
		Description:         input.Description,
		TargetAmount:        input.TargetAmount,
		CurrentAmount:       input.CurrentAmount,
		Currency:            input.Currency,
		MonthlyContribution: input.MonthlyContribution,
		StartDate:           input.StartDate,
		TargetDate:          input.TargetDate,
		Category:            data.ParseGoalCategory(input.Category),
		Type:                data.ParseGoalType(input.Type),
		CreatedAt:           now,
		UpdatedAt:           now,
		IsActive:            true,
		Priority:            priority,
		ImageURL:            input.ImageURL,
		Metadata:            input.Metadata,
		Milestones:          input.Milestones,
	}
	// Perform validation
	v := validator.New()
	v.Check(newGoal.ID != "", "id", "must be provided")
	if data.ValidateGoal(v, &newGoal); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	for i := range newGoal.Milestones {
		data.ValidateMilestone(v, &newGoal.Milestones[i])
	}
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	// check if provided currency code is supported
	if err := app.verifyCurrencyInRedis(newGoal.Currency); err != nil {
		v.AddError("currency", "currency code is not supported")
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	// Save the goal record
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	err = app.goals.Create(ctx, newGoal)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateGoal):
			app.conflictResponse(w, r, "a goal with this ID already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	// Return a 201 Created status code along with the goal in the response body
	err = app.writeJSON(w, http.StatusCreated, envelope{"goal": newGoal}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// getGoalByIDHandler() returns a single goal record.
func (app *application) getGoalByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	goalID, err := app.readStringParam(r, "goalID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	goal, err := app.goals.Get(ctx, userID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrGoalNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	err = app.writeJSON(w, http.StatusOK, envelope{"goal": goal}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// getAllGoalsForUserHandler() returns a paginated list of a user's goals.
func (app *application) getAllGoalsForUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	var input struct {
		data.Filters
	}
	// validate if queries are provided
	v := validator.New()
	// Call r.URL.Query() to get the url.Values map containing the query string data.
	qs := r.URL.Query()
	// get the page & pagesizes as ints and set to the embedded struct
	input.Filters.Page = app.readInt(qs, "page", 1, v)
	input.Filters.PageSize = app.readInt(qs, "page_size", 18, v)
	input.Filters.Sort = app.readString(qs, "sort", "")
	input.Filters.SortSafelist = []string{"", "created_at", "-created_at", "priority", "-priority", "target_date", "-target_date", "title", "-title"}
	// Perform validation
	if data.ValidateFilters(v, input.Filters); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	goals, err := app.goals.ListForUser(ctx, userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	page, metadata := data.PaginateGoals(goals, input.Filters)
	err = app.writeJSON(w, http.StatusOK, envelope{"metadata": metadata, "goals": page}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// getGoalProgressionForUserHandler() returns each of a user's goals together with
// its derived metrics. This is the one read path that consults the wall clock;
// every metric below it takes the instant as a parameter.
func (app *application) getGoalProgressionForUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	goals, err := app.goals.ListForUser(ctx, userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	now := time.Now().UTC()
	progressions := make([]goalProgression, 0, len(goals))
	for _, goal := range goals {
		progressions = append(progressions, app.goalProgressionAt(goal, now))
	}
	err = app.writeJSON(w, http.StatusOK, envelope{"evaluated_at": now, "progression": progressions}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateGoalHandler() is a handler function that handles the updating of a Goal.
// The stored goal is never mutated: the pointer-field input is turned into a
// field-level override set and CopyWith produces the replacement record.
func (app *application) updateGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	goalID, err := app.readStringParam(r, "goalID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	var input struct {
		Title               *string          `json:"title"`
		Description         *string          `json:"description"`
		TargetAmount        *decimal.Decimal `json:"targetAmount"`
		CurrentAmount       *decimal.Decimal `json:"currentAmount"`
		Currency            *string          `json:"currency"`
		MonthlyContribution *decimal.Decimal `json:"monthlyContribution"`
		StartDate           *time.Time       `json:"startDate"`
		TargetDate          *time.Time       `json:"targetDate"`
		Category            *string          `json:"category"`
		Type                *string          `json:"type"`
		IsCompleted         *bool            `json:"isCompleted"`
		IsActive            *bool            `json:"isActive"`
		Priority            *int             `json:"priority"`
		ImageURL            *string          `json:"imageUrl"`
		Metadata            *map[string]any  `json:"metadata"`
	}
	// Get goal details from the store
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	goal, err := app.goals.Get(ctx, userID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrGoalNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	// Decode request body into the input struct
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	update := data.GoalUpdate{
		Title:               input.Title,
		Description:         input.Description,
		TargetAmount:        input.TargetAmount,
		CurrentAmount:       input.CurrentAmount,
		Currency:            input.Currency,
		MonthlyContribution: input.MonthlyContribution,
		StartDate:           input.StartDate,
		TargetDate:          input.TargetDate,
		IsCompleted:         input.IsCompleted,
		IsActive:            input.IsActive,
		Priority:            input.Priority,
		ImageURL:            input.ImageURL,
		Metadata:            input.Metadata,
	}
	if input.Category != nil {
		category := data.ParseGoalCategory(*input.Category)
		update.Category = &category
	}
	if input.Type != nil {
		goalType := data.ParseGoalType(*input.Type)
		update.Type = &goalType
	}
	now := time.Now().UTC()
	update.UpdatedAt = &now
	updatedGoal := goal.CopyWith(update)
	// Perform validation on the resulting record
	v := validator.New()
	if data.ValidateGoal(v, &updatedGoal); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	// check the currency code only when it actually changed
	if input.Currency != nil && *input.Currency != goal.Currency {
		if err := app.verifyCurrencyInRedis(updatedGoal.Currency); err != nil {
			v.AddError("currency", "currency code is not supported")
			app.failedValidationResponse(w, r, v.Errors)
			return
		}
	}
	err = app.goals.Save(ctx, updatedGoal)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	err = app.writeJSON(w, http.StatusOK, envelope{"goal": updatedGoal}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// replaceGoalMilestonesHandler() replaces a goal's milestone list wholesale.
// There is no per-milestone patch: the list is the unit of update.
func (app *application) replaceGoalMilestonesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	goalID, err := app.readStringParam(r, "goalID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	var input struct {
		Milestones []data.Milestone `json:"milestones"`
	}
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	now := time.Now().UTC()
	v := validator.New()
	milestoneIDs := make([]string, 0, len(input.Milestones))
	for i := range input.Milestones {
		if input.Milestones[i].CreatedAt.IsZero() {
			input.Milestones[i].CreatedAt = now
		}
		data.ValidateMilestone(v, &input.Milestones[i])
		milestoneIDs = append(milestoneIDs, input.Milestones[i].ID)
	}
	v.Check(validator.Unique(milestoneIDs), "milestone_id", "must be unique within the goal")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	goal, err := app.goals.Get(ctx, userID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrGoalNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	updatedGoal := goal.CopyWith(data.GoalUpdate{
		Milestones: &input.Milestones,
		UpdatedAt:  &now,
	})
	err = app.goals.Save(ctx, updatedGoal)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	err = app.writeJSON(w, http.StatusOK, envelope{"goal": updatedGoal}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteGoalByIDHandler() removes a goal record. Removal lives here, outside
// the entity, with the rest of the persistence concerns.
func (app *application) deleteGoalByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readStringParam(r, "userID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	goalID, err := app.readStringParam(r, "goalID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	ctx, cancel := data.ContextGenerator(r.Context(), data.DefaultStoreContextTimeout)
	defer cancel()
	err = app.goals.Delete(ctx, userID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrGoalNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	// send the response
	message := fmt.Sprintf("goal with ID %s has been deleted", goalID)
	err = app.writeJSON(w, http.StatusOK, envelope{"message": message}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
