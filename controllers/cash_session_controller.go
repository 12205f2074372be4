package controllers

import (
	"net/http"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/services"

	"github.com/gin-gonic/gin"
)

// CashSessionController handles drawer open/close and shift reports.
type CashSessionController struct {
	cashSessionService services.CashSessionService
}

func NewCashSessionController(cashSessionService services.CashSessionService) *CashSessionController {
	return &CashSessionController{cashSessionService: cashSessionService}
}

func (cc *CashSessionController) Open(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.OpenCashSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	session, err := cc.cashSessionService.Open(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"cash_session": session})
}

// Close handles POST /cash-sessions/current/close against the tenant's open session.
func (cc *CashSessionController) Close(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CloseCashSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	session, err := cc.cashSessionService.Close(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cash_session": session})
}

func (cc *CashSessionController) Current(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}

	session, err := cc.cashSessionService.Current(ctx.Request.Context(), actor)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cash_session": session})
}

func (cc *CashSessionController) Get(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	session, err := cc.cashSessionService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cash_session": session})
}

func (cc *CashSessionController) List(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	sessions, total, err := cc.cashSessionService.List(ctx.Request.Context(), actor, page, limit)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cash_sessions": sessions, "meta": paginationMeta(page, limit, total)})
}

// Summary handles GET /cash-sessions/:id/summary.
func (cc *CashSessionController) Summary(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	summary, err := cc.cashSessionService.Summary(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"summary": summary})
}
