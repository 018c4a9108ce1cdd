package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus represents where a contact submission is in its review lifecycle
type SubmissionStatus string

const (
	SubmissionStatusUnread   SubmissionStatus = "unread"
	SubmissionStatusRead     SubmissionStatus = "read"
	SubmissionStatusArchived SubmissionStatus = "archived"
)

// SubmissionStatuses lists every status in lifecycle order.
var SubmissionStatuses = []SubmissionStatus{
	SubmissionStatusUnread,
	SubmissionStatusRead,
	SubmissionStatusArchived,
}

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusUnread, SubmissionStatusRead, SubmissionStatusArchived:
		return true
	default:
		return false
	}
}

// ContactSubmission is a persisted message from the site's contact form.
type ContactSubmission struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Message   string           `json:"message"`
	Status    SubmissionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ContactRequest is the body of POST /api/contact.
// Length limits count characters, not bytes. Presence of each field is
// checked while decoding, so an empty string reports as too short.
type ContactRequest struct {
	Name    string `json:"name" validate:"min=2,max=50"`
	Email   string `json:"email" validate:"email"`
	Message string `json:"message" validate:"min=10,max=1000"`
}

// NewSubmission builds an unread submission from a validated request.
// ID and timestamps are left for the persistence layer to assign.
func (r ContactRequest) NewSubmission() *ContactSubmission {
	return &ContactSubmission{
		Name:    r.Name,
		Email:   r.Email,
		Message: r.Message,
		Status:  SubmissionStatusUnread,
	}
}

// SubmissionStats counts submissions per status.
type SubmissionStats map[SubmissionStatus]int

// Total sums all statuses.
func (s SubmissionStats) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}
