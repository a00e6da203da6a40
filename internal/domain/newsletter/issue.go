// Package newsletter implements the issue-publication transaction
// (component D) and the data the delivery worker consumes.
package newsletter

import (
	"time"

	"newsletter/internal/core/id"
)

// Issue is a published newsletter issue. Written once by Publish, then
// immutable.
type Issue struct {
	ID          id.ID  `db:"newsletter_issue_id"`
	Title       string `db:"title"`
	TextContent string `db:"text_content"`
	HTMLContent string `db:"html_content"`
	PublishedAt time.Time `db:"published_at"`
}

// DeliveryTask is one (issue, subscriber) unit of work in the delivery
// queue. Primary key (IssueID, SubscriberEmail).
type DeliveryTask struct {
	IssueID         id.ID `db:"newsletter_issue_id"`
	SubscriberEmail string `db:"subscriber_email"`
	NRetries        int `db:"n_retries"`
	RetryAfter      *time.Time `db:"retry_after"`
}
