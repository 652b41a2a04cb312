package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/shiftswap/internal/shared"
)

// Notification is a realtime notification recorded in local history.
type Notification struct {
	id        string
	sequence  int
	kind      string
	message   string
	userID    string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewNotification creates a [Notification] of kind for the session owner userID.
func NewNotification(sequence int, kind, message, userID string) *Notification {
	now := time.Now()
	return &Notification{
		sequence:  sequence,
		kind:      kind,
		message:   message,
		userID:    userID,
		createdAt: now,
		updatedAt: now,
	}
}

func (n *Notification) ID() string            { return n.id }
func (n *Notification) Sequence() int         { return n.sequence }
func (n *Notification) Kind() string          { return n.kind }
func (n *Notification) Message() string       { return n.message }
func (n *Notification) UserID() string        { return n.userID }
func (n *Notification) CreatedAt() time.Time  { return n.createdAt }
func (n *Notification) UpdatedAt() time.Time  { return n.updatedAt }
func (n *Notification) DeletedAt() *time.Time { return n.deletedAt }

func (n *Notification) SetID(id string)           { n.id = id }
func (n *Notification) SetSequence(seq int)       { n.sequence = seq }
func (n *Notification) SetMessage(msg string)     { n.message = msg }
func (n *Notification) SetCreatedAt(t time.Time)  { n.createdAt = t }
func (n *Notification) SetUpdatedAt(t time.Time)  { n.updatedAt = t }
func (n *Notification) SetDeletedAt(t *time.Time) { n.deletedAt = t }

// Validate checks required fields.
func (n *Notification) Validate() error {
	if n.kind == "" {
		return fmt.Errorf("%w: notification kind is required", shared.ErrInvalidInput)
	}
	if n.message == "" {
		return fmt.Errorf("%w: notification message is required", shared.ErrInvalidInput)
	}
	return nil
}
