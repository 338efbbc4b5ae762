package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/database"
	"github.com/dharsanguruparan/imggen/internal/model"
)

// UploadRepository wraps the SQL for the uploads table.
type UploadRepository struct {
	db database.Querier
}

// NewUploadRepository constructs a repository.
func NewUploadRepository(db database.Querier) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts u, assigning its ID and CreatedAt.
func (r *UploadRepository) Create(ctx context.Context, u *model.Upload) error {
	u.ID = uuid.NewString()
	row := r.db.QueryRow(ctx, `
		INSERT INTO uploads (id, user_id, thread_id, title, purpose, mime_type, size_bytes,
			storage_provider, storage_bucket, storage_key, public_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, u.ID, u.UserID, u.ThreadID, u.Title, string(u.Purpose), u.MimeType, u.SizeBytes,
		u.StorageProvider, u.StorageBucket, u.StorageKey, u.PublicURL)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// Get returns an upload by id.
func (r *UploadRepository) Get(ctx context.Context, id string) (*model.Upload, error) {
	var (
		u        model.Upload
		purpose  string
		threadID sql.NullString
		title    sql.NullString
	)
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, thread_id, title, purpose, mime_type, size_bytes,
			storage_provider, storage_bucket, storage_key, public_url, created_at
		FROM uploads WHERE id=$1
	`, id)
	err := row.Scan(&u.ID, &u.UserID, &threadID, &title, &purpose, &u.MimeType, &u.SizeBytes,
		&u.StorageProvider, &u.StorageBucket, &u.StorageKey, &u.PublicURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("select upload: %w", err)
	}
	u.Purpose = model.Purpose(purpose)
	if threadID.Valid {
		v := threadID.String
		u.ThreadID = &v
	}
	if title.Valid {
		v := title.String
		u.Title = &v
	}
	return &u, nil
}
