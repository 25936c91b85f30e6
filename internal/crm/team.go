package crm

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

const defaultLookupConcurrency = 8

// DeriveTeam builds the team from the staff assigned to leads. Lookups run
// concurrently (at most concurrency at a time); staff whose lookup fails are
// dropped and only logged. The result keeps the order in which ids first
// appear in leads. If ctx ends before the lookups finish, DeriveTeam returns
// an upstream timeout instead of a partial team.
func DeriveTeam(ctx context.Context, source StaffSource, leads []Record, concurrency int, logger *zap.Logger) ([]Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}

	ids := AssignedStaffIDs(leads)
	resolved := make([]Record, len(ids))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			staff, err := source.GetStaff(ctx, id)
			if err != nil {
				logger.Warn("dropping staff from team", zap.String("staff_id", id), zap.Error(err))
				return nil
			}
			if staff != nil {
				resolved[i] = decorateStaff(staff)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewUpstreamTimeout(err)
	}

	team := make([]Record, 0, len(resolved))
	for _, staff := range resolved {
		if staff != nil {
			team = append(team, staff)
		}
	}
	logger.Debug("team derived from leads", zap.Int("assigned_ids", len(ids)), zap.Int("resolved", len(team)))
	return team, nil
}
