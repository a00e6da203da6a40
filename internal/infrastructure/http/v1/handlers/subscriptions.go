package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsletter/internal/core/apperror"
	"newsletter/internal/domain/subscription"
)

// SubscriptionHandler exposes the subscribe/confirm flow. The spec treats
// this as "simple CRUD... out of scope" but the confirmed status it
// produces is load-bearing for every core invariant, so it's implemented
// minimally to exercise the pipeline end-to-end.
type SubscriptionHandler struct {
	repo subscription.Repository
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(repo subscription.Repository) *SubscriptionHandler {
	return &SubscriptionHandler{repo: repo}
}

type subscribeRequest struct {
	Email string `form:"email" binding:"required"`
	Name  string `form:"name" binding:"required"`
}

// Subscribe creates a pending_confirmation subscription.
// POST /subscriptions
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperror.NewValidation("invalid subscription payload"))
		return
	}

	sub, err := h.repo.Create(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     sub.ID.String(),
		"status": sub.Status,
	})
}

// Confirm transitions a subscription to confirmed via its token.
// GET /subscriptions/confirm
func (h *SubscriptionHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		_ = c.Error(apperror.NewValidation("missing confirmation token"))
		return
	}

	if err := h.repo.ConfirmByToken(c.Request.Context(), token); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}
