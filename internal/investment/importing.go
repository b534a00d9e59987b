package investment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
)

type ImportResult struct {
	Imported  []*Activity
	New       []ActivityParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming ActivityParams
	Existing *Activity
}

type dupKey struct {
	Date    string
	Type    ActivityType
	Amount  string
	Details string
}

// activityKey identifies an activity for import deduplication.
func activityKey(t ActivityType, amount string, date time.Time, details string) dupKey {
	return dupKey{
		Date:    date.Format(time.DateOnly),
		Type:    t,
		Amount:  amount,
		Details: details,
	}
}

func paramsKey(p ActivityParams) dupKey {
	return activityKey(p.Type, SignedAmount(p.Type, p.Amount).StringFixed(2), p.Date, p.Details)
}

// ImportActivities appends statement rows to an investment's ledger. Rows matching existing
// activities are returned as conflicts and nothing is written until CreateActivities confirms them.
func (s *Service) ImportActivities(ctx context.Context, id, owner uuid.UUID, params []ActivityParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	if _, err := s.GetOwned(ctx, id, owner); err != nil {
		return nil, err
	}

	activities, err := paramsToActivities(id, params)
	if err != nil {
		return nil, err
	}

	itx, err := s.repo.BeginImport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Activity, len(duplicates))
	for _, d := range duplicates {
		lookup[activityKey(d.Type, d.Amount.StringFixed(2), d.Date, d.Details)] = d
	}

	var newParams []ActivityParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[paramsKey(p)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	if err := itx.CreateActivities(ctx, activities); err != nil {
		return nil, fmt.Errorf("create activities: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	s.log.Info().Stringer("investment_id", id).Int("count", len(activities)).Msg("capital activities imported")

	return &ImportResult{Imported: activities}, nil
}

// CreateActivities writes a confirmed import selection without deduplication.
func (s *Service) CreateActivities(ctx context.Context, id, owner uuid.UUID, params []ActivityParams) ([]*Activity, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if _, err := s.GetOwned(ctx, id, owner); err != nil {
		return nil, err
	}

	activities, err := paramsToActivities(id, params)
	if err != nil {
		return nil, err
	}

	itx, err := s.repo.BeginImport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	if err := itx.CreateActivities(ctx, activities); err != nil {
		return nil, fmt.Errorf("create activities: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return activities, nil
}

func paramsToActivities(id uuid.UUID, params []ActivityParams) ([]*Activity, error) {
	activities := make([]*Activity, len(params))

	for i, p := range params {
		a, err := NewActivity(id, p.Type, p.Amount, p.Date, p.Details)
		if err != nil {
			return nil, apperr.Field(fmt.Sprintf("activities[%d]", i), err.Error())
		}

		activities[i] = a
	}

	return activities, nil
}
