package services

import (
	"context"
	"errors"
	"time"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CashSessionService runs the cash drawer lifecycle and its reconciliation.
type CashSessionService interface {
	Open(ctx context.Context, actor models.Actor, req models.OpenCashSessionRequest) (*models.CashSession, error)
	Close(ctx context.Context, actor models.Actor, req models.CloseCashSessionRequest) (*models.CashSession, error)
	Current(ctx context.Context, actor models.Actor) (*models.CashSession, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.CashSession, error)
	List(ctx context.Context, actor models.Actor, page, limit int) ([]models.CashSession, int64, error)
	Summary(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ShiftSummary, error)
}

type cashSessionServiceImpl struct {
	store  repository.Store
	logger *zap.Logger
	now    Clock
}

// NewCashSessionService creates a new CashSessionService.
func NewCashSessionService(store repository.Store, logger *zap.Logger, now Clock) CashSessionService {
	return &cashSessionServiceImpl{store: store, logger: logger, now: clockOrDefault(now)}
}

func (s *cashSessionServiceImpl) Open(ctx context.Context, actor models.Actor, req models.OpenCashSessionRequest) (*models.CashSession, error) {
	if req.OpeningCashCents < 0 {
		return nil, apperrors.Validation("opening_cash_cents cannot be negative")
	}

	now := s.now()
	cs := &models.CashSession{
		ID:               uuid.New(),
		TenantID:         actor.TenantID,
		Status:           models.CashSessionStatusOpen,
		OpeningCashCents: req.OpeningCashCents,
		OpenedBy:         actor.UserID,
		OpenedAt:         now,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		_, err := tx.CashSessions().FindOpenForUpdate(ctx, actor.TenantID)
		if err == nil {
			return apperrors.Conflict("a cash session is already open")
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return repoError(err, "cash session")
		}
		if err := tx.CashSessions().Create(ctx, cs); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("a cash session is already open")
			}
			return repoError(err, "cash session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cash session opened",
		zap.String("session_id", cs.ID.String()),
		zap.Int64("opening_cash_cents", cs.OpeningCashCents),
	)
	return cs, nil
}

// Close reconciles the open drawer against the cash captured since it opened.
func (s *cashSessionServiceImpl) Close(ctx context.Context, actor models.Actor, req models.CloseCashSessionRequest) (*models.CashSession, error) {
	if req.ClosingCashCents < 0 {
		return nil, apperrors.Validation("closing_cash_cents cannot be negative")
	}

	var session *models.CashSession
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		cs, err := tx.CashSessions().FindOpenForUpdate(ctx, actor.TenantID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("no open cash session")
		}
		if err != nil {
			return repoError(err, "cash session")
		}

		closedAt := s.now()
		cashIn, err := tx.Orders().SumCapturedPayments(ctx, actor.TenantID, models.PaymentProviderCash, cs.OpenedAt, &closedAt)
		if err != nil {
			return repoError(err, "payments")
		}
		expected := cs.OpeningCashCents + cashIn
		closing := req.ClosingCashCents
		difference := closing - expected

		cs.Status = models.CashSessionStatusClosed
		cs.ClosingCashCents = &closing
		cs.ExpectedCashCents = &expected
		cs.CashDifferenceCents = &difference
		cs.ClosedBy = &actor.UserID
		cs.ClosedAt = &closedAt
		if req.Notes != "" {
			cs.Notes = req.Notes
		}
		cs.UpdatedAt = closedAt
		if err := tx.CashSessions().Update(ctx, cs); err != nil {
			return repoError(err, "cash session")
		}
		if err := tx.Outbox().Append(ctx, models.NewCashSessionClosedEvent(cs, closedAt)); err != nil {
			return repoError(err, "cash session event")
		}
		session = cs
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cash session closed",
		zap.String("session_id", session.ID.String()),
		zap.Int64("expected_cash_cents", *session.ExpectedCashCents),
		zap.Int64("cash_difference_cents", *session.CashDifferenceCents),
	)
	return session, nil
}

func (s *cashSessionServiceImpl) Current(ctx context.Context, actor models.Actor) (*models.CashSession, error) {
	cs, err := s.store.CashSessions().FindOpen(ctx, actor.TenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("no open cash session")
	}
	if err != nil {
		return nil, repoError(err, "cash session")
	}
	return cs, nil
}

func (s *cashSessionServiceImpl) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.CashSession, error) {
	cs, err := s.store.CashSessions().FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repoError(err, "cash session")
	}
	return cs, nil
}

func (s *cashSessionServiceImpl) List(ctx context.Context, actor models.Actor, page, limit int) ([]models.CashSession, int64, error) {
	sessions, total, err := s.store.CashSessions().List(ctx, actor.TenantID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list cash sessions", zap.Error(err))
		return nil, 0, repoError(err, "cash sessions")
	}
	return sessions, total, nil
}

// Summary reports the closed orders of a session window. An open session is
// summarised up to now.
func (s *cashSessionServiceImpl) Summary(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ShiftSummary, error) {
	cs, err := s.store.CashSessions().FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repoError(err, "cash session")
	}
	to := s.now()
	if cs.ClosedAt != nil {
		to = *cs.ClosedAt
	}
	orders, err := s.store.Orders().ListClosedOpenedBetween(ctx, actor.TenantID, cs.OpenedAt, to)
	if err != nil {
		return nil, repoError(err, "orders")
	}
	summary := SummarizeShift(cs.ID, cs.OpenedAt, to, orders)
	return &summary, nil
}

// SummarizeShift folds PAID and CANCELLED orders into a ShiftSummary. Other
// orders are ignored.
func SummarizeShift(sessionID uuid.UUID, from, to time.Time, orders []models.Order) models.ShiftSummary {
	summary := models.ShiftSummary{
		SessionID:        sessionID,
		From:             from,
		To:               to,
		PaymentsByMethod: map[models.PaymentProvider]int64{},
	}
	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusPaid:
			summary.PaidOrders++
			summary.SalesCents += o.TotalCents
			summary.SubtotalCents += o.SubtotalCents
			summary.TaxCents += o.TaxCents
			summary.DiscountCents += o.DiscountCents
			summary.TipCents += o.TipCents
		case models.OrderStatusCancelled:
			summary.CancelledOrders++
		default:
			continue
		}
		for _, p := range o.Payments {
			switch p.Status {
			case models.PaymentStatusCaptured:
				summary.PaymentsByMethod[p.Provider] += p.AmountCents
			case models.PaymentStatusRefunded:
				summary.RefundCents += p.AmountCents
			}
		}
		for _, it := range o.Items {
			if it.Status == models.ItemStatusVoid {
				summary.VoidItemCount++
			}
		}
	}
	return summary
}
