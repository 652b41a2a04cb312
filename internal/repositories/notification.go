package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/shared"
)

var _ models.Repository[*models.Notification] = (*NotificationRepository)(nil)

// NotificationRepository implements [models.Repository] for [models.Notification] history.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new [NotificationRepository] with the given database connection
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification with a generated ID and the next sequence number.
func (r *NotificationRepository) Create(n *models.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "notifications")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO notifications (id, sequence, kind, message, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, id, sequence, n.Kind(), n.Message(), n.UserID(), n.CreatedAt(), n.UpdatedAt()); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notification: %w", err)
	}

	n.SetID(id)
	n.SetSequence(sequence)
	return nil
}

// Record stores a notification of kind shown to userID.
func (r *NotificationRepository) Record(kind, message, userID string) error {
	return r.Create(models.NewNotification(0, kind, message, userID))
}

// Get retrieves a notification by ID, excluding soft-deleted rows
func (r *NotificationRepository) Get(id string) (*models.Notification, error) {
	query := `
		SELECT id, sequence, kind, message, user_id, created_at, updated_at, deleted_at
		FROM notifications
		WHERE id = ? AND deleted_at IS NULL
	`

	n, err := scanNotification(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: notification %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}

	return n, nil
}

// Update rewrites the message of an existing notification.
func (r *NotificationRepository) Update(n *models.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	result, err := r.db.Exec(
		"UPDATE notifications SET message = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		n.Message(), now, n.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	if err := requireRow(result, n.ID()); err != nil {
		return err
	}

	n.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a notification by ID
func (r *NotificationRepository) Delete(id string) error {
	result, err := r.db.Exec(
		"UPDATE notifications SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return requireRow(result, id)
}

// List returns notifications newest first.
//
// Supported criteria: "kind" (string), "user_id" (string), "limit" (int).
func (r *NotificationRepository) List(criteria map[string]any) ([]*models.Notification, error) {
	query := `
		SELECT id, sequence, kind, message, user_id, created_at, updated_at, deleted_at
		FROM notifications
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// Clear permanently removes all notification history.
func (r *NotificationRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM notifications"); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (*models.Notification, error) {
	var (
		id        string
		sequence  int
		kind      string
		message   string
		userID    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &kind, &message, &userID, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	n := models.NewNotification(sequence, kind, message, userID)
	n.SetID(id)
	n.SetCreatedAt(createdAt)
	n.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		n.SetDeletedAt(&deletedAt.Time)
	}
	return n, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: notification %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}
