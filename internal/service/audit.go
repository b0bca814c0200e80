package service

import (
	"context"

	"github.com/Payphone-Digital/tracker/internal/dto"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/model"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
)

// AuditEntry describes one authentication outcome
type AuditEntry struct {
	UserID   string
	Email    string
	Event    string
	Success  bool
	Metadata map[string]interface{}
}

// AuditRecorder stores authentication outcomes. Recording never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type nopAuditRecorder struct{}

func (nopAuditRecorder) Record(context.Context, AuditEntry) {}

type authEventRepository interface {
	Create(ctx context.Context, event *model.AuthEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error)
}

type AuditService struct {
	repo authEventRepository
}

func NewAuditService(repo authEventRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	event := &model.AuthEvent{
		Email:     entry.Email,
		Event:     entry.Event,
		Success:   entry.Success,
		Metadata:  entry.Metadata,
		IP:        ctxutil.GetClientIP(ctx),
		UserAgent: truncate(ctxutil.GetUserAgent(ctx), 255),
	}
	if entry.UserID != "" {
		userID := entry.UserID
		event.UserID = &userID
	}

	// The audit row outlives a cancelled request
	if err := s.repo.Create(context.WithoutCancel(ctx), event); err != nil {
		logger.ErrorWithContext(ctx, "Failed to record auth event").
			String("event", entry.Event).
			String("email", entry.Email).
			Err(err).
			Log()
	}
}

// ListForUser returns the newest auth events of one account
func (s *AuditService) ListForUser(ctx context.Context, userID string, limit int) ([]dto.AuthEventResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ListAuthEvents")

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	events, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list auth events").
			String("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	res := make([]dto.AuthEventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, dto.AuthEventResponse{
			Event:     e.Event,
			Success:   e.Success,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
