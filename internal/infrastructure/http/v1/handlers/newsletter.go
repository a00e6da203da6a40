package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsletter/internal/core/apperror"
	appctx "newsletter/internal/core/context"
	"newsletter/internal/domain/newsletter"
)

// NewsletterHandler exposes the admin publish form target (component D)
// plus the minimal dashboard/listing routes HTML rendering would
// otherwise serve.
type NewsletterHandler struct {
	publish *newsletter.PublishService
}

// NewNewsletterHandler constructs a NewsletterHandler.
func NewNewsletterHandler(publish *newsletter.PublishService) *NewsletterHandler {
	return &NewsletterHandler{publish: publish}
}

type publishFormRequest struct {
	Title          string `form:"title" binding:"required"`
	TextContent    string `form:"text_content" binding:"required"`
	HTMLContent    string `form:"html_content" binding:"required"`
	IdempotencyKey string `form:"idempotency_key" binding:"required"`
}

// PublishIssue runs the publish transaction and redirects to the admin
// newsletters page, replaying a previously completed submission's
// response verbatim when the idempotency key has already been used.
// POST /admin/newsletters
func (h *NewsletterHandler) PublishIssue(c *gin.Context) {
	var form publishFormRequest
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(apperror.NewValidation("invalid publish form"))
		return
	}

	userID := appctx.GetUserID(c.Request.Context())

	resp, err := h.publish.Publish(c.Request.Context(), userID, newsletter.PublishForm{
		Title:          form.Title,
		TextContent:    form.TextContent,
		HTMLContent:    form.HTMLContent,
		IdempotencyKey: form.IdempotencyKey,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	location := resp.Location
	if resp.FlashMsg != "" {
		location += "?flash=" + resp.FlashMsg
	}
	c.Redirect(int(resp.StatusCode), location)
}

// Dashboard is a minimal JSON stand-in for the admin dashboard page (HTML
// rendering is out of scope).
// GET /admin/dashboard
func (h *NewsletterHandler) Dashboard(c *gin.Context) {
	username := ""
	if u := appctx.GetUser(c.Request.Context()); u != nil {
		username = u.Username
	}
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// NewIssueForm is a minimal JSON stand-in for the publish form page.
// GET /admin/newsletters
func (h *NewsletterHandler) NewIssueForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"flash":  c.Query("flash"),
		"fields": []string{"title", "text_content", "html_content", "idempotency_key"},
	})
}
