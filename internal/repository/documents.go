package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/DocPortal/internal/models"
)

// PostgresDocumentRepository stores documents of every category in a single
// table with one shared id sequence.
type PostgresDocumentRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresDocumentRepository creates a new PostgresDocumentRepository using the provided *sql.DB.
func NewPostgresDocumentRepository(db *sql.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{DB: db}
}

// InsertDocument stores d and fills in its generated ID and CreatedAt.
func (r *PostgresDocumentRepository) InsertDocument(ctx context.Context, d *models.Document) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO documents (user_id, category, filename, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, d.UserID, string(d.Category), d.Filename, d.Data).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertDocument: %w", err)
	}
	return nil
}

// FindDocument returns the metadata of document id if it belongs to userID.
// Data is left nil. Any miss yields models.ErrDocumentNotFound.
func (r *PostgresDocumentRepository) FindDocument(ctx context.Context, id int64, userID string) (*models.Document, error) {
	var (
		d   models.Document
		cat string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, category, filename, created_at FROM documents
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&d.ID, &d.UserID, &cat, &d.Filename, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("FindDocument %d: %w", id, models.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FindDocument: %w", err)
	}
	d.Category = models.Category(cat)
	return &d, nil
}

// LoadDocument is FindDocument plus the stored bytes.
func (r *PostgresDocumentRepository) LoadDocument(ctx context.Context, id int64, userID string) (*models.Document, error) {
	var (
		d   models.Document
		cat string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, category, filename, data, created_at FROM documents
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&d.ID, &d.UserID, &cat, &d.Filename, &d.Data, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LoadDocument %d: %w", id, models.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadDocument: %w", err)
	}
	d.Category = models.Category(cat)
	return &d, nil
}

// ListDocuments returns every document of category c owned by userID, oldest first.
func (r *PostgresDocumentRepository) ListDocuments(ctx context.Context, userID string, c models.Category) ([]models.DocumentInfo, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, category, filename, created_at FROM documents
		WHERE user_id = $1 AND category = $2
		ORDER BY id
	`, userID, string(c))
	if err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	return scanInfos(rows)
}

// ListUserDocuments returns every document owned by userID across all categories.
func (r *PostgresDocumentRepository) ListUserDocuments(ctx context.Context, userID string) ([]models.DocumentInfo, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, category, filename, created_at FROM documents
		WHERE user_id = $1
		ORDER BY category, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUserDocuments: %w", err)
	}
	return scanInfos(rows)
}

func scanInfos(rows *sql.Rows) ([]models.DocumentInfo, error) {
	defer rows.Close()

	infos := []models.DocumentInfo{}
	for rows.Next() {
		var (
			info models.DocumentInfo
			cat  string
		)
		if err := rows.Scan(&info.ID, &cat, &info.Filename, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		info.Category = models.Category(cat)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return infos, nil
}
