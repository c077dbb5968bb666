package maillog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
)

// Send outcome values recorded on email log rows.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Repository records outbound relay sends. Reserve doubles as the dedupe
// gate: the unique dedupe key guarantees at most one row per logical send.
type Repository interface {
	Reserve(ctx context.Context, entry Entry) (*models.EmailLog, bool, error)
	MarkResult(ctx context.Context, id uuid.UUID, status string, attempts int, lastError *string) error
}

// Entry describes a send about to be attempted.
type Entry struct {
	Recipient string
	Template  string
	Subject   string
	DedupeKey string
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an email log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// Reserve inserts a pending row, returning false when the dedupe key already
// claimed this send.
func (r *repositoryImpl) Reserve(ctx context.Context, entry Entry) (*models.EmailLog, bool, error) {
	row := &models.EmailLog{
		ID:        uuid.New(),
		Recipient: entry.Recipient,
		Template:  entry.Template,
		Subject:   entry.Subject,
		Status:    StatusPending,
	}
	if entry.DedupeKey != "" {
		key := entry.DedupeKey
		row.DedupeKey = &key
	}

	result := r.db.WithContext(ctx).
		Exec(`INSERT INTO email_logs (id, recipient, template, subject, status, attempts, dedupe_key, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?)
ON CONFLICT (dedupe_key) DO NOTHING`,
			row.ID, row.Recipient, row.Template, row.Subject, row.Status, row.DedupeKey, time.Now().UTC())
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}
	return row, true, nil
}

func (r *repositoryImpl) MarkResult(ctx context.Context, id uuid.UUID, status string, attempts int, lastError *string) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastError,
		}).
		Error
}
