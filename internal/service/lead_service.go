package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/crm"
	"github.com/spec-kit/salesflow/internal/domain"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

// LeadService exposes CRM data to authenticated viewers.
type LeadService struct {
	gateway crm.Gateway
	logger  *zap.Logger
}

// NewLeadService builds the service.
func NewLeadService(gateway crm.Gateway, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{gateway: gateway, logger: logger}
}

// ListLeads returns the leads visible to viewer: everything for admins, only
// the leads assigned to their own staff id for sdr users.
func (s *LeadService) ListLeads(ctx context.Context, viewer domain.SessionUser) ([]crm.Record, error) {
	leads, err := s.gateway.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	visible := VisibleLeads(leads, viewer)
	s.logger.Debug("leads listed",
		zap.Int64("viewer_id", viewer.ID),
		zap.Int("total", len(leads)),
		zap.Int("visible", len(visible)))
	return visible, nil
}

// VisibleLeads applies row-level filtering for viewer. An sdr without a
// linked staff id sees nothing.
func VisibleLeads(leads []crm.Record, viewer domain.SessionUser) []crm.Record {
	if viewer.IsAdmin() {
		if leads == nil {
			return []crm.Record{}
		}
		return leads
	}
	out := make([]crm.Record, 0)
	staffID := strings.TrimSpace(viewer.StaffID())
	if viewer.Role != domain.RoleSDR || staffID == "" {
		return out
	}
	for _, lead := range leads {
		if crm.AssignedTo(lead) == staffID {
			out = append(out, lead)
		}
	}
	return out
}

// ListTeam returns the sales team.
func (s *LeadService) ListTeam(ctx context.Context) ([]crm.Record, error) {
	return s.gateway.ListTeam(ctx)
}

// GetStaff returns one staff record.
func (s *LeadService) GetStaff(ctx context.Context, staffID string) (crm.Record, error) {
	if err := requireID("staff id", staffID); err != nil {
		return nil, err
	}
	return s.gateway.GetStaff(ctx, staffID)
}

// LeadActivities returns the activity log of a lead the viewer can see.
func (s *LeadService) LeadActivities(ctx context.Context, viewer domain.SessionUser, leadID string) (json.RawMessage, error) {
	if err := s.requireVisibleLead(ctx, viewer, leadID); err != nil {
		return nil, err
	}
	return s.gateway.LeadActivities(ctx, leadID)
}

// LeadReminders returns the reminders of a lead the viewer can see.
func (s *LeadService) LeadReminders(ctx context.Context, viewer domain.SessionUser, leadID string) (json.RawMessage, error) {
	if err := s.requireVisibleLead(ctx, viewer, leadID); err != nil {
		return nil, err
	}
	return s.gateway.LeadReminders(ctx, leadID)
}

// requireVisibleLead reports a lead outside the viewer's rows as not found,
// the same answer an unknown id gets.
func (s *LeadService) requireVisibleLead(ctx context.Context, viewer domain.SessionUser, leadID string) error {
	if err := requireID("lead id", leadID); err != nil {
		return err
	}
	if viewer.IsAdmin() {
		return nil
	}
	leads, err := s.gateway.ListLeads(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(leadID)
	for _, lead := range VisibleLeads(leads, viewer) {
		if crm.LeadID(lead) == id {
			return nil
		}
	}
	s.logger.Debug("lead hidden from viewer", zap.Int64("viewer_id", viewer.ID), zap.String("lead_id", id))
	return apperrors.NewNotFound("lead", map[string]any{"id": id})
}

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return nil
}
