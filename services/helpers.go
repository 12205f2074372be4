package services

import (
	"context"
	"errors"
	"time"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time

func clockOrDefault(now Clock) Clock {
	if now == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return now
}

// repoError maps repository sentinels onto application errors. Errors that
// already carry a kind pass through untouched.
func repoError(err error, entity string) error {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("%s not found", entity)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("%s already exists", entity)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(apperrors.KindInternal, "Request cancelled", err)
	default:
		return apperrors.Internal("Failed to process "+entity, err)
	}
}

func requireManager(actor models.Actor, action string) error {
	if !actor.Role.IsManagerOrAbove() {
		return apperrors.Forbidden("%s requires OWNER, ADMIN or MANAGER role", action)
	}
	return nil
}

// effectiveTaxRate returns the tenant's default rate, or zero when none is set.
func effectiveTaxRate(ctx context.Context, tx repository.Store, tenantID uuid.UUID) (decimal.Decimal, error) {
	rate, err := tx.Catalog().FindDefaultTaxRate(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, repoError(err, "tax rate")
	}
	return rate.Rate, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
