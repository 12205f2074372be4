package controllers

import (
	"strconv"

	apperrors "pos-service/common/errors"
	"pos-service/middleware"
	"pos-service/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 20

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "20")); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}
	return pageInt, limitInt
}

func paginationMeta(page, limit int, total int64) gin.H {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
		"has_more":    total > int64(page*limit),
	}
}

// actorOrAbort returns the authenticated actor or writes 401.
func actorOrAbort(ctx *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		apperrors.HandleGin(ctx, apperrors.Unauthorized("Unauthorized"))
		return models.Actor{}, false
	}
	return actor, true
}

func uuidParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		apperrors.HandleGin(ctx, apperrors.Validation("%s must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional UUID query parameter. ok is false when the
// value is present but malformed; the response has then been written.
func uuidQuery(ctx *gin.Context, name string) (*uuid.UUID, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		apperrors.HandleGin(ctx, apperrors.Validation("%s must be a UUID", name))
		return nil, false
	}
	return &id, true
}

// bindJSON decodes and validates the body. Failures are written as
// validation errors.
func bindJSON(ctx *gin.Context, dst any) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		apperrors.HandleGin(ctx, apperrors.Validation("Invalid request: %v", err))
		return false
	}
	return true
}
