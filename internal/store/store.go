// Package store persists goals as field-tagged records in Redis. Every field
// of a goal is written under a stable numeric tag rather than its name, so
// records survive additive schema evolution: new fields get new tags, and a
// decoder skips tags it does not know. Tags are append-only; removing or
// reordering one breaks every record already written.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/paisapath/PaisaPath/internal/data"
	"github.com/shopspring/decimal"
)

// Goal field tags. The ordering mirrors the storage schema the mobile client
// shipped with, so records written by either side stay mutually readable.
const (
	goalTagID = iota
	goalTagUserID
	goalTagTitle
	goalTagDescription
	goalTagTargetAmount
	goalTagCurrentAmount
	goalTagStartDate
	goalTagTargetDate
	goalTagCategory
	goalTagType
	goalTagCreatedAt
	goalTagUpdatedAt
	goalTagIsCompleted
	goalTagImageURL
	goalTagMilestones
	goalTagMonthlyContribution
	goalTagPriority
	goalTagIsActive
	goalTagCurrency
	goalTagMetadata
)

// Milestones carry no tag envelope of their own: they are stored as one JSON
// value under goalTagMilestones because they evolve with the goal schema as a
// unit.

const (
	goalKeyPrefix   = "goals"
	usersIndexKey   = "goals:users"
	timestampLayout = time.RFC3339Nano
)

// GoalStore reads and writes goal records against Redis. Each goal is one hash
// keyed goals:<userID>:<goalID> whose fields are the numeric tags above; a
// per-user set indexes the user's goal IDs and a global set indexes user IDs
// for the schedulers.
type GoalStore struct {
	Client *redis.Client
}

func NewGoalStore(client *redis.Client) *GoalStore {
	return &GoalStore{Client: client}
}

func goalKey(userID, goalID string) string {
	return fmt.Sprintf("%s:%s:%s", goalKeyPrefix, userID, goalID)
}

func userIndexKey(userID string) string {
	return fmt.Sprintf("%s:index:%s", goalKeyPrefix, userID)
}

// Create stores a new goal, failing with ErrDuplicateGoal when a record with
// the same ID already exists for the user.
func (s *GoalStore) Create(ctx context.Context, goal data.Goal) error {
	exists, err := s.Client.Exists(ctx, goalKey(goal.UserID, goal.ID)).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return data.ErrDuplicateGoal
	}
	return s.Save(ctx, goal)
}

// Save writes the goal record, replacing any previous version, and maintains
// the user and goal indexes in the same pipeline.
func (s *GoalStore) Save(ctx context.Context, goal data.Goal) error {
	fields, err := encodeGoalFields(goal)
	if err != nil {
		return err
	}
	args := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		args[field] = value
	}
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, goalKey(goal.UserID, goal.ID), args)
	pipe.SAdd(ctx, userIndexKey(goal.UserID), goal.ID)
	pipe.SAdd(ctx, usersIndexKey, goal.UserID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves one goal record, returning ErrGoalNotFound when no record
// exists under the key.
func (s *GoalStore) Get(ctx context.Context, userID, goalID string) (data.Goal, error) {
	fields, err := s.Client.HGetAll(ctx, goalKey(userID, goalID)).Result()
	if err != nil {
		return data.Goal{}, err
	}
	if len(fields) == 0 {
		return data.Goal{}, data.ErrGoalNotFound
	}
	return decodeGoalFields(fields)
}

// Delete removes a goal record and its index entry. Deleting a goal that does
// not exist returns ErrGoalNotFound.
func (s *GoalStore) Delete(ctx context.Context, userID, goalID string) error {
	deleted, err := s.Client.Del(ctx, goalKey(userID, goalID)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return data.ErrGoalNotFound
	}
	return s.Client.SRem(ctx, userIndexKey(userID), goalID).Err()
}

// ListForUser returns all of a user's goals ordered by creation time then ID,
// skipping index entries whose record has already been deleted.
func (s *GoalStore) ListForUser(ctx context.Context, userID string) ([]data.Goal, error) {
	goalIDs, err := s.Client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	goals := make([]data.Goal, 0, len(goalIDs))
	for _, goalID := range goalIDs {
		goal, err := s.Get(ctx, userID, goalID)
		if err != nil {
			if errors.Is(err, data.ErrGoalNotFound) {
				continue
			}
			return nil, err
		}
		goals = append(goals, goal)
	}
	sort.SliceStable(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.Before(goals[j].CreatedAt)
		}
		return goals[i].ID < goals[j].ID
	})
	return goals, nil
}

// Users returns every user ID that has stored at least one goal.
func (s *GoalStore) Users(ctx context.Context) ([]string, error) {
	return s.Client.SMembers(ctx, usersIndexKey).Result()
}

// ==============================================================================
// Tag codec
// ==============================================================================
// The codec is pure: it maps a goal to and from the tag->string hash without
// touching Redis, which is what the unit tests exercise.

// encodeGoalFields flattens a goal into the tagged hash representation.
// Optional fields that are unset are simply omitted from the hash.
func encodeGoalFields(goal data.Goal) (map[string]string, error) {
	fields := map[string]string{
		tag(goalTagID):            goal.ID,
		tag(goalTagUserID):        goal.UserID,
		tag(goalTagTitle):         goal.Title,
		tag(goalTagDescription):   goal.Description,
		tag(goalTagTargetAmount):  goal.TargetAmount.String(),
		tag(goalTagCurrentAmount): goal.CurrentAmount.String(),
		tag(goalTagStartDate):     goal.StartDate.UTC().Format(timestampLayout),
		tag(goalTagTargetDate):    goal.TargetDate.UTC().Format(timestampLayout),
		tag(goalTagCategory):      string(goal.Category),
		tag(goalTagType):          string(goal.Type),
		tag(goalTagCreatedAt):     goal.CreatedAt.UTC().Format(timestampLayout),
		tag(goalTagUpdatedAt):     goal.UpdatedAt.UTC().Format(timestampLayout),
		tag(goalTagIsCompleted):   encodeBool(goal.IsCompleted),
		tag(goalTagPriority):      strconv.Itoa(goal.Priority),
		tag(goalTagIsActive):      encodeBool(goal.IsActive),
		tag(goalTagCurrency):      goal.Currency,
	}
	if goal.MonthlyContribution != nil {
		fields[tag(goalTagMonthlyContribution)] = goal.MonthlyContribution.String()
	}
	if goal.ImageURL != nil {
		fields[tag(goalTagImageURL)] = *goal.ImageURL
	}
	if goal.Metadata != nil {
		blob, err := json.Marshal(goal.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding goal metadata: %w", err)
		}
		fields[tag(goalTagMetadata)] = string(blob)
	}
	milestoneRecords := make([]map[string]any, 0, len(goal.Milestones))
	for _, milestone := range goal.Milestones {
		milestoneRecords = append(milestoneRecords, milestone.ToRecord())
	}
	blob, err := json.Marshal(milestoneRecords)
	if err != nil {
		return nil, fmt.Errorf("encoding goal milestones: %w", err)
	}
	fields[tag(goalTagMilestones)] = string(blob)
	return fields, nil
}

// decodeGoalFields rebuilds a goal from the tagged hash. Unknown tags are
// ignored so records written by a newer schema still decode; missing required
// tags fail with ErrMalformedRecord.
func decodeGoalFields(fields map[string]string) (data.Goal, error) {
	var goal data.Goal
	var err error

	if goal.ID, err = requireTag(fields, goalTagID); err != nil {
		return data.Goal{}, err
	}
	if goal.UserID, err = requireTag(fields, goalTagUserID); err != nil {
		return data.Goal{}, err
	}
	if goal.Title, err = requireTag(fields, goalTagTitle); err != nil {
		return data.Goal{}, err
	}
	if goal.Description, err = requireTag(fields, goalTagDescription); err != nil {
		return data.Goal{}, err
	}
	if goal.TargetAmount, err = requireDecimalTag(fields, goalTagTargetAmount); err != nil {
		return data.Goal{}, err
	}
	if goal.StartDate, err = requireTimeTag(fields, goalTagStartDate); err != nil {
		return data.Goal{}, err
	}
	if goal.TargetDate, err = requireTimeTag(fields, goalTagTargetDate); err != nil {
		return data.Goal{}, err
	}
	if goal.CreatedAt, err = requireTimeTag(fields, goalTagCreatedAt); err != nil {
		return data.Goal{}, err
	}
	if goal.UpdatedAt, err = requireTimeTag(fields, goalTagUpdatedAt); err != nil {
		return data.Goal{}, err
	}

	goal.CurrentAmount = decimal.Zero
	if raw, ok := fields[tag(goalTagCurrentAmount)]; ok {
		if amount, decErr := decimal.NewFromString(raw); decErr == nil {
			goal.CurrentAmount = amount
		}
	}
	goal.Category = data.ParseGoalCategory(fields[tag(goalTagCategory)])
	goal.Type = data.ParseGoalType(fields[tag(goalTagType)])
	goal.IsCompleted = fields[tag(goalTagIsCompleted)] == "1"
	goal.IsActive = true
	if raw, ok := fields[tag(goalTagIsActive)]; ok {
		goal.IsActive = raw == "1"
	}
	goal.Priority = data.DefaultGoalPriority
	if raw, ok := fields[tag(goalTagPriority)]; ok {
		if priority, convErr := strconv.Atoi(raw); convErr == nil {
			goal.Priority = priority
		}
	}
	goal.Currency = data.DefaultGoalCurrency
	if raw, ok := fields[tag(goalTagCurrency)]; ok && raw != "" {
		goal.Currency = raw
	}
	if raw, ok := fields[tag(goalTagMonthlyContribution)]; ok {
		if contribution, decErr := decimal.NewFromString(raw); decErr == nil {
			goal.MonthlyContribution = &contribution
		}
	}
	if raw, ok := fields[tag(goalTagImageURL)]; ok {
		imageURL := raw
		goal.ImageURL = &imageURL
	}
	if raw, ok := fields[tag(goalTagMetadata)]; ok {
		var metadata map[string]any
		if jsonErr := json.Unmarshal([]byte(raw), &metadata); jsonErr != nil {
			return data.Goal{}, fmt.Errorf("%w: tag %d holds invalid metadata", data.ErrMalformedRecord, goalTagMetadata)
		}
		goal.Metadata = metadata
	}
	if raw, ok := fields[tag(goalTagMilestones)]; ok {
		var entries []map[string]any
		if jsonErr := json.Unmarshal([]byte(raw), &entries); jsonErr != nil {
			return data.Goal{}, fmt.Errorf("%w: tag %d holds invalid milestones", data.ErrMalformedRecord, goalTagMilestones)
		}
		goal.Milestones = make([]data.Milestone, 0, len(entries))
		for _, entry := range entries {
			milestone, msErr := data.MilestoneFromRecord(entry)
			if msErr != nil {
				return data.Goal{}, msErr
			}
			goal.Milestones = append(goal.Milestones, milestone)
		}
	}

	return goal, nil
}

func tag(fieldTag int) string {
	return strconv.Itoa(fieldTag)
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func requireTag(fields map[string]string, fieldTag int) (string, error) {
	raw, ok := fields[tag(fieldTag)]
	if !ok {
		return "", fmt.Errorf("%w: missing required tag %d", data.ErrMalformedRecord, fieldTag)
	}
	return raw, nil
}

func requireDecimalTag(fields map[string]string, fieldTag int) (decimal.Decimal, error) {
	raw, err := requireTag(fields, fieldTag)
	if err != nil {
		return decimal.Decimal{}, err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: tag %d holds an invalid amount", data.ErrMalformedRecord, fieldTag)
	}
	return amount, nil
}

func requireTimeTag(fields map[string]string, fieldTag int) (time.Time, error) {
	raw, err := requireTag(fields, fieldTag)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: tag %d holds an invalid timestamp", data.ErrMalformedRecord, fieldTag)
	}
	return t, nil
}
