package main

import (
	"context"
	"time"

	"github.com/paisapath/PaisaPath/internal/data"
	"go.uber.org/zap"
)

// trackGoalProgressScheduleHandler() is a cronjob method that sets a cronJob to run hourly
// to mark goals whose saved amount has reached the target as completed.
func (app *application) trackGoalProgressScheduleHandler() {
	app.logger.Info("Starting the goal progress handler..", zap.String("time", time.Now().String()))
	trackingInterval := "0 * * * *"

	_, err := app.config.scheduler.goalProgressCron.AddFunc(trackingInterval, app.trackGoalProgress)
	if err != nil {
		app.logger.Error("Error adding [trackGoalProgress] to scheduler", zap.Error(err))
	}
	// Run the tracking first before starting the cron
	app.trackGoalProgress()
	// start the cron scheduler
	app.config.scheduler.goalProgressCron.Start()
}

// trackOverdueGoalsScheduleHandler() is a cronjob method that sets a cronJob to run at the
// end of every day to surface goals that have slipped past their target date.
func (app *application) trackOverdueGoalsScheduleHandler() {
	app.logger.Info("Starting the overdue goal handler..", zap.String("time", time.Now().String()))
	updateInterval := "0 0 * * *"

	_, err := app.config.scheduler.overdueGoalsCron.AddFunc(updateInterval, app.trackOverdueGoals)
	if err != nil {
		app.logger.Error("Error adding [trackOverdueGoals] to scheduler", zap.Error(err))
	}
	// Run the tracking first before starting the cron
	app.trackOverdueGoals()
	// start the cron scheduler
	app.config.scheduler.overdueGoalsCron.Start()
}

// trackGoalProgress() sweeps every user's goals and completes the ones that have
// reached their target amount. The reference instant is read once here; the
// model itself never consults the clock.
func (app *application) trackGoalProgress() {
	app.logger.Info("Tracking goal progress", zap.String("time", time.Now().String()))
	ctx, cancel := data.ContextGenerator(context.Background(), 30*time.Second)
	defer cancel()
	userIDs, err := app.goals.Users(ctx)
	if err != nil {
		app.logger.Error("Error listing users for goal progress tracking", zap.Error(err))
		return
	}
	now := time.Now().UTC()
	completed := 0
	for _, userID := range userIDs {
		goals, err := app.goals.ListForUser(ctx, userID)
		if err != nil {
			app.logger.Error("Error listing goals for user", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		for _, goal := range goals {
			if goal.IsCompleted || !goal.IsActive {
				continue
			}
			if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
				done := true
				updatedGoal := goal.CopyWith(data.GoalUpdate{
					IsCompleted: &done,
					UpdatedAt:   &now,
				})
				if err := app.goals.Save(ctx, updatedGoal); err != nil {
					app.logger.Error("Error completing goal", zap.String("goal_id", goal.ID), zap.Error(err))
					continue
				}
				completed++
			}
		}
	}
	app.logger.Info("tracked goal progress", zap.Int("completed goal count", completed))
}

// trackOverdueGoals() counts active goals past their target date per user and logs
// them, which feeds the mobile client's nudge dashboards.
func (app *application) trackOverdueGoals() {
	app.logger.Info("Tracking overdue goals", zap.String("time", time.Now().String()))
	ctx, cancel := data.ContextGenerator(context.Background(), 30*time.Second)
	defer cancel()
	userIDs, err := app.goals.Users(ctx)
	if err != nil {
		app.logger.Error("Error listing users for overdue tracking", zap.Error(err))
		return
	}
	now := time.Now().UTC()
	for _, userID := range userIDs {
		goals, err := app.goals.ListForUser(ctx, userID)
		if err != nil {
			app.logger.Error("Error listing goals for user", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		overdue := 0
		for _, goal := range goals {
			if goal.IsActive && goal.IsOverdue(now) {
				overdue++
			}
		}
		if overdue > 0 {
			app.logger.Info("user has overdue goals", zap.String("user_id", userID), zap.Int("overdue_count", overdue))
		}
	}
}
