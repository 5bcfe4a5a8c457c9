package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/DocPortal/internal/models"
)

func setupDocMock(t *testing.T) (*PostgresDocumentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresDocumentRepository(db), mock, func() { db.Close() }
}

func TestInsertDocument_Success(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents (user_id, category, filename, data)`)).
		WithArgs("alice", "education", "report.pdf", []byte("%PDF-1.4")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created))

	d := &models.Document{UserID: "alice", Category: models.Education, Filename: "report.pdf", Data: []byte("%PDF-1.4")}
	if err := repo.InsertDocument(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != 42 || !d.CreatedAt.Equal(created) {
		t.Errorf("generated fields not set: %+v", d)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestInsertDocument_Error(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents`)).
		WillReturnError(errors.New("insert failed"))

	err := repo.InsertDocument(context.Background(), &models.Document{UserID: "a", Category: models.Health})
	if err == nil || !regexp.MustCompile(`InsertDocument`).MatchString(err.Error()) {
		t.Errorf("expected InsertDocument error, got %v", err)
	}
}

func TestFindDocument(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	q := regexp.QuoteMeta(`SELECT id, user_id, category, filename, created_at FROM documents`)
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs(int64(7), "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category", "filename", "created_at"}).
			AddRow(int64(7), "alice", "health", "scan.png", now))
	mock.ExpectQuery(q).
		WithArgs(int64(7), "mallory").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category", "filename", "created_at"}))

	d, err := repo.FindDocument(context.Background(), 7, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Category != models.Health || d.Filename != "scan.png" || d.Data != nil {
		t.Errorf("unexpected document: %+v", d)
	}

	_, err = repo.FindDocument(context.Background(), 7, "mallory")
	if !errors.Is(err, models.ErrDocumentNotFound) {
		t.Errorf("FindDocument for other user error = %v; want ErrDocumentNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLoadDocument(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	q := regexp.QuoteMeta(`SELECT id, user_id, category, filename, data, created_at FROM documents`)
	mock.ExpectQuery(q).
		WithArgs(int64(3), "bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category", "filename", "data", "created_at"}).
			AddRow(int64(3), "bob", "transport", "ticket.pdf", []byte("bytes"), time.Now()))
	mock.ExpectQuery(q).
		WithArgs(int64(4), "bob").
		WillReturnError(errors.New("conn reset"))

	d, err := repo.LoadDocument(context.Background(), 3, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(d.Data) != "bytes" || d.Category != models.Transport {
		t.Errorf("unexpected document: %+v", d)
	}

	_, err = repo.LoadDocument(context.Background(), 4, "bob")
	if err == nil || errors.Is(err, models.ErrDocumentNotFound) {
		t.Errorf("LoadDocument error = %v; want driver error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "category", "filename", "created_at"}).
		AddRow(int64(1), "service", "a.txt", time.Now()).
		AddRow(int64(5), "service", "b.txt", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, category, filename, created_at FROM documents`)).
		WithArgs("carol", "service").
		WillReturnRows(rows)

	infos, err := repo.ListDocuments(context.Background(), "carol", models.Service)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 || infos[0].ID != 1 || infos[1].Filename != "b.txt" {
		t.Errorf("unexpected infos: %+v", infos)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListDocuments_EmptyIsNonNil(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, category, filename, created_at FROM documents`)).
		WithArgs("dave", "health").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "filename", "created_at"}))

	infos, err := repo.ListDocuments(context.Background(), "dave", models.Health)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if infos == nil || len(infos) != 0 {
		t.Errorf("infos = %#v; want empty non-nil slice", infos)
	}
}

func TestListUserDocuments(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "category", "filename", "created_at"}).
		AddRow(int64(2), "education", "diploma.pdf", time.Now()).
		AddRow(int64(9), "health", "xray.png", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1`)).
		WithArgs("erin").
		WillReturnRows(rows)

	infos, err := repo.ListUserDocuments(context.Background(), "erin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 || infos[0].Category != models.Education || infos[1].Category != models.Health {
		t.Errorf("unexpected infos: %+v", infos)
	}
}

func TestListDocuments_ScanError(t *testing.T) {
	repo, mock, cleanup := setupDocMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "category", "filename", "created_at"}).
		AddRow("not-a-number", "health", "x", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, category, filename, created_at FROM documents`)).
		WillReturnRows(rows)

	if _, err := repo.ListDocuments(context.Background(), "x", models.Health); err == nil {
		t.Error("expected scan error, got nil")
	}
}
