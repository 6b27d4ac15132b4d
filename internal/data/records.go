package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// ErrMalformedRecord is returned by the record decoders when a required field
// is missing or has an incompatible shape. Optional fields never trigger it:
// they fall back to their documented defaults, and unrecognized enumeration
// strings fall back to their default variant.
var ErrMalformedRecord = errors.New("malformed record")

// ToRecord serializes the goal to a JSON-compatible mapping with the exact
// field set and casing used by the stored and transmitted records. Timestamps
// are RFC 3339 UTC text so records sort lexicographically by date; enums are
// their canonical name strings; milestones keep their insertion order.
func (g Goal) ToRecord() map[string]any {
	milestones := make([]any, 0, len(g.Milestones))
	for _, m := range g.Milestones {
		milestones = append(milestones, m.ToRecord())
	}
	record := map[string]any{
		"id":                  g.ID,
		"userId":              g.UserID,
		"title":               g.Title,
		"description":         g.Description,
		"targetAmount":        g.TargetAmount,
		"currentAmount":       g.CurrentAmount,
		"currency":            g.Currency,
		"monthlyContribution": nil,
		"startDate":           encodeTimestamp(g.StartDate),
		"targetDate":          encodeTimestamp(g.TargetDate),
		"category":            string(g.Category),
		"type":                string(g.Type),
		"createdAt":           encodeTimestamp(g.CreatedAt),
		"updatedAt":           encodeTimestamp(g.UpdatedAt),
		"isCompleted":         g.IsCompleted,
		"isActive":            g.IsActive,
		"priority":            g.Priority,
		"imageUrl":            nil,
		"metadata":            nil,
		"milestones":          milestones,
	}
	if g.MonthlyContribution != nil {
		record["monthlyContribution"] = *g.MonthlyContribution
	}
	if g.ImageURL != nil {
		record["imageUrl"] = *g.ImageURL
	}
	if g.Metadata != nil {
		record["metadata"] = cloneMetadata(g.Metadata)
	}
	return record
}

// ToRecord serializes the milestone to a JSON-compatible mapping.
func (m Milestone) ToRecord() map[string]any {
	record := map[string]any{
		"id":           m.ID,
		"title":        m.Title,
		"description":  m.Description,
		"targetAmount": m.TargetAmount,
		"targetDate":   encodeTimestamp(m.TargetDate),
		"isCompleted":  m.IsCompleted,
		"createdAt":    encodeTimestamp(m.CreatedAt),
		"completedAt":  nil,
	}
	if m.CompletedAt != nil {
		record["completedAt"] = encodeTimestamp(*m.CompletedAt)
	}
	return record
}

// GoalFromRecord decodes a goal from a JSON-compatible mapping. It is the
// exact left-inverse of ToRecord for well-formed input. Missing optional
// fields take their defaults, unknown enum strings fall back, and a missing or
// ill-shaped required field yields ErrMalformedRecord naming the field.
func GoalFromRecord(record map[string]any) (Goal, error) {
	var goal Goal
	var err error

	if goal.ID, err = requireString(record, "id"); err != nil {
		return Goal{}, err
	}
	if goal.UserID, err = requireString(record, "userId"); err != nil {
		return Goal{}, err
	}
	if goal.Title, err = requireString(record, "title"); err != nil {
		return Goal{}, err
	}
	if goal.Description, err = requireString(record, "description"); err != nil {
		return Goal{}, err
	}
	if goal.TargetAmount, err = requireDecimal(record, "targetAmount"); err != nil {
		return Goal{}, err
	}
	if goal.StartDate, err = requireTimestamp(record, "startDate"); err != nil {
		return Goal{}, err
	}
	if goal.TargetDate, err = requireTimestamp(record, "targetDate"); err != nil {
		return Goal{}, err
	}
	if goal.CreatedAt, err = requireTimestamp(record, "createdAt"); err != nil {
		return Goal{}, err
	}
	if goal.UpdatedAt, err = requireTimestamp(record, "updatedAt"); err != nil {
		return Goal{}, err
	}

	goal.CurrentAmount = optionalDecimal(record, "currentAmount", decimal.Zero)
	goal.Currency = optionalString(record, "currency", DefaultGoalCurrency)
	goal.Category = ParseGoalCategory(optionalString(record, "category", ""))
	goal.Type = ParseGoalType(optionalString(record, "type", ""))
	goal.IsCompleted = optionalBool(record, "isCompleted", false)
	goal.IsActive = optionalBool(record, "isActive", true)
	goal.Priority = optionalInt(record, "priority", DefaultGoalPriority)

	if value, ok := record["monthlyContribution"]; ok && value != nil {
		if contribution, decErr := decodeDecimal(value); decErr == nil {
			goal.MonthlyContribution = &contribution
		}
	}
	if value, ok := record["imageUrl"]; ok && value != nil {
		if imageURL, isString := value.(string); isString {
			goal.ImageURL = &imageURL
		}
	}
	if value, ok := record["metadata"]; ok && value != nil {
		if metadata, isMap := value.(map[string]any); isMap {
			goal.Metadata = normalizeMetadata(metadata)
		}
	}

	if value, ok := record["milestones"]; ok && value != nil {
		entries, isSlice := value.([]any)
		if !isSlice {
			return Goal{}, fmt.Errorf("%w: field %q has an incompatible shape", ErrMalformedRecord, "milestones")
		}
		goal.Milestones = make([]Milestone, 0, len(entries))
		for _, entry := range entries {
			entryRecord, isMap := entry.(map[string]any)
			if !isMap {
				return Goal{}, fmt.Errorf("%w: field %q contains a non-object entry", ErrMalformedRecord, "milestones")
			}
			milestone, msErr := MilestoneFromRecord(entryRecord)
			if msErr != nil {
				return Goal{}, msErr
			}
			goal.Milestones = append(goal.Milestones, milestone)
		}
	}

	return goal, nil
}

// MilestoneFromRecord decodes a milestone from a JSON-compatible mapping with
// the same required/optional rules as GoalFromRecord.
func MilestoneFromRecord(record map[string]any) (Milestone, error) {
	var milestone Milestone
	var err error

	if milestone.ID, err = requireString(record, "id"); err != nil {
		return Milestone{}, err
	}
	if milestone.Title, err = requireString(record, "title"); err != nil {
		return Milestone{}, err
	}
	if milestone.Description, err = requireString(record, "description"); err != nil {
		return Milestone{}, err
	}
	if milestone.TargetAmount, err = requireDecimal(record, "targetAmount"); err != nil {
		return Milestone{}, err
	}
	if milestone.TargetDate, err = requireTimestamp(record, "targetDate"); err != nil {
		return Milestone{}, err
	}
	if milestone.CreatedAt, err = requireTimestamp(record, "createdAt"); err != nil {
		return Milestone{}, err
	}

	milestone.IsCompleted = optionalBool(record, "isCompleted", false)
	if value, ok := record["completedAt"]; ok && value != nil {
		if completedAt, tsErr := decodeTimestampValue(value); tsErr == nil {
			milestone.CompletedAt = &completedAt
		}
	}

	return milestone, nil
}

// ==============================================================================
// Field decoding helpers
// ==============================================================================

func encodeTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func requireString(record map[string]any, field string) (string, error) {
	value, ok := record[field]
	if !ok || value == nil {
		return "", fmt.Errorf("%w: missing required field %q", ErrMalformedRecord, field)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q has an incompatible shape", ErrMalformedRecord, field)
	}
	return s, nil
}

func requireDecimal(record map[string]any, field string) (decimal.Decimal, error) {
	value, ok := record[field]
	if !ok || value == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: missing required field %q", ErrMalformedRecord, field)
	}
	d, err := decodeDecimal(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: field %q has an incompatible shape", ErrMalformedRecord, field)
	}
	return d, nil
}

func requireTimestamp(record map[string]any, field string) (time.Time, error) {
	value, ok := record[field]
	if !ok || value == nil {
		return time.Time{}, fmt.Errorf("%w: missing required field %q", ErrMalformedRecord, field)
	}
	t, err := decodeTimestampValue(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: field %q has an incompatible shape", ErrMalformedRecord, field)
	}
	return t, nil
}

// decodeDecimal accepts the numeric shapes a record value can arrive in:
// a decimal built in-process, JSON numbers, or a decimal string.
func decodeDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported numeric shape %T", value)
	}
}

// decodeTimestampValue parses stored textual timestamps. dateparse keeps us
// tolerant of the ISO 8601 variants older records were written with.
func decodeTimestampValue(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return dateparse.ParseAny(v)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp shape %T", value)
	}
}

func optionalString(record map[string]any, field, fallback string) string {
	if value, ok := record[field]; ok && value != nil {
		if s, isString := value.(string); isString {
			return s
		}
	}
	return fallback
}

func optionalBool(record map[string]any, field string, fallback bool) bool {
	if value, ok := record[field]; ok && value != nil {
		if b, isBool := value.(bool); isBool {
			return b
		}
	}
	return fallback
}

func optionalInt(record map[string]any, field string, fallback int) int {
	if value, ok := record[field]; ok && value != nil {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		}
	}
	return fallback
}

func optionalDecimal(record map[string]any, field string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := record[field]; ok && value != nil {
		if d, err := decodeDecimal(value); err == nil {
			return d
		}
	}
	return fallback
}

// normalizeMetadata restricts metadata to the closed JSON value set: string,
// number, bool, null, array, object. Anything else is silently dropped, the
// same way an unknown enum string is replaced rather than rejected.
func normalizeMetadata(metadata map[string]any) map[string]any {
	normalized := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if cleaned, ok := normalizeJSONValue(value); ok {
			normalized[key] = cleaned
		}
	}
	return normalized
}

func normalizeJSONValue(value any) (any, bool) {
	switch v := value.(type) {
	case nil, string, bool, float64, int, int64:
		return v, true
	case json.Number:
		return v, true
	case []any:
		cleaned := make([]any, 0, len(v))
		for _, item := range v {
			if cleanedItem, ok := normalizeJSONValue(item); ok {
				cleaned = append(cleaned, cleanedItem)
			}
		}
		return cleaned, true
	case map[string]any:
		return normalizeMetadata(v), true
	default:
		return nil, false
	}
}
