// Package notify tells the site owner about new contact submissions by email,
// either inline or through the job queue.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/queue"
)

// Notifier announces a persisted submission.
type Notifier interface {
	Notify(ctx context.Context, sub *models.ContactSubmission) error
}

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, email models.NotificationEmail) error
}

// EmailNotifier renders and sends the notification in the request path.
type EmailNotifier struct {
	renderer *Renderer
	sender   Sender
}

// NewEmailNotifier creates a notifier that sends synchronously.
func NewEmailNotifier(renderer *Renderer, sender Sender) *EmailNotifier {
	return &EmailNotifier{renderer: renderer, sender: sender}
}

// Notify renders sub and sends it.
func (n *EmailNotifier) Notify(ctx context.Context, sub *models.ContactSubmission) error {
	email, err := n.renderer.Render(sub)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, *email); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// QueueNotifier renders the notification and hands it to the worker through the queue.
type QueueNotifier struct {
	renderer  *Renderer
	publisher queue.Publisher
}

// NewQueueNotifier creates a notifier that defers delivery to the worker.
func NewQueueNotifier(renderer *Renderer, publisher queue.Publisher) *QueueNotifier {
	return &QueueNotifier{renderer: renderer, publisher: publisher}
}

// Notify enqueues a contact_notification job.
func (n *QueueNotifier) Notify(ctx context.Context, sub *models.ContactSubmission) error {
	if n.publisher == nil {
		return errors.New("notification queue not configured")
	}
	email, err := n.renderer.Render(sub)
	if err != nil {
		return err
	}
	if err := n.publisher.Enqueue(ctx, queue.NewNotificationJob(sub.ID, email)); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

var (
	_ Notifier = (*EmailNotifier)(nil)
	_ Notifier = (*QueueNotifier)(nil)
)
