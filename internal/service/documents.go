package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atinyakov/DocPortal/internal/models"
	"github.com/atinyakov/DocPortal/internal/storage"
	"go.uber.org/zap"
)

// Source selects where Retrieve reads document bytes from.
type Source string

const (
	// FromDatabase serves the blob stored with the row. Every row keeps
	// the bytes it was uploaded with.
	FromDatabase Source = "database"
	// FromDisk streams <uploads>/<category>/<filename>. A later upload with
	// the same name in the same category replaces what older rows serve.
	FromDisk Source = "disk"
)

// DocumentRepository defines the persistence operations needed by the DocumentService.
type DocumentRepository interface {
	// InsertDocument stores d and fills in its ID and CreatedAt.
	InsertDocument(ctx context.Context, d *models.Document) error
	// FindDocument returns metadata for a document owned by userID.
	FindDocument(ctx context.Context, id int64, userID string) (*models.Document, error)
	// LoadDocument returns metadata and bytes for a document owned by userID.
	LoadDocument(ctx context.Context, id int64, userID string) (*models.Document, error)
	// ListDocuments lists a user's documents in one category.
	ListDocuments(ctx context.Context, userID string, c models.Category) ([]models.DocumentInfo, error)
	// ListUserDocuments lists a user's documents in every category.
	ListUserDocuments(ctx context.Context, userID string) ([]models.DocumentInfo, error)
}

// UserDirectory answers whether an upload owner exists.
type UserDirectory interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

// FileStore is the on-disk half of document storage.
type FileStore interface {
	Save(c models.Category, name string, r io.Reader) error
	ReadFile(c models.Category, name string) ([]byte, error)
	Open(c models.Category, name string) (*os.File, error)
}

// Observer receives domain events for metrics.
type Observer interface {
	DocumentStored(c models.Category)
	DocumentServed(source string)
}

type nopObserver struct{}

func (nopObserver) DocumentStored(models.Category) {}
func (nopObserver) DocumentServed(string)          {}

// FileUpload is an incoming file as received from the client.
type FileUpload struct {
	// Filename is the client-supplied name, before sanitizing.
	Filename string
	// Content is nil when the request carried no file.
	Content io.Reader
}

// FileStream is a document ready to be sent to the client.
type FileStream struct {
	ID       int64
	Category models.Category
	Filename string
	ModTime  time.Time
	Content  io.ReadSeekCloser
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

// DocumentService implements upload, retrieval and listing of user documents.
type DocumentService struct {
	docs     DocumentRepository
	users    UserDirectory
	files    FileStore
	source   Source
	log      *zap.Logger
	observer Observer
}

// NewDocumentService constructs a DocumentService. source decides where
// Retrieve reads bytes from.
func NewDocumentService(docs DocumentRepository, users UserDirectory, files FileStore, source Source, log *zap.Logger) *DocumentService {
	return &DocumentService{
		docs:     docs,
		users:    users,
		files:    files,
		source:   source,
		log:      log,
		observer: nopObserver{},
	}
}

// WithObserver attaches an Observer for upload and download events.
func (s *DocumentService) WithObserver(o Observer) *DocumentService {
	s.observer = o
	return s
}

// Upload stores f for userID under category c.
//
// The file is written to disk first, overwriting any file of the same
// sanitized name in that category. If userID is unknown the file stays on
// disk and models.ErrUserNotFound is returned without inserting a row.
// Otherwise the file is read back and its bytes are inserted as a new row.
func (s *DocumentService) Upload(ctx context.Context, c models.Category, userID string, f FileUpload) (*models.DocumentInfo, error) {
	if f.Content == nil || f.Filename == "" {
		return nil, models.ErrNoFileSelected
	}
	name := storage.SanitizeFilename(f.Filename)
	if name == "" {
		return nil, fmt.Errorf("filename %q: %w", f.Filename, models.ErrNoFileSelected)
	}

	if err := s.files.Save(c, name, f.Content); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.log.Warn("upload left on disk without owner",
			zap.String("user", userID), zap.String("category", c.String()), zap.String("file", name))
		return nil, fmt.Errorf("upload for %q: %w", userID, models.ErrUserNotFound)
	}

	data, err := s.files.ReadFile(c, name)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{UserID: userID, Category: c, Filename: name, Data: data}
	if err := s.docs.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.observer.DocumentStored(c)
	s.log.Info("document uploaded",
		zap.Int64("id", doc.ID), zap.String("user", userID),
		zap.String("category", c.String()), zap.String("file", name), zap.Int("size", len(data)))

	info := doc.Info()
	return &info, nil
}

// Retrieve returns the content of document id if userID owns it. Any miss,
// including a row whose file has vanished from disk, is models.ErrDocumentNotFound.
func (s *DocumentService) Retrieve(ctx context.Context, id int64, userID string) (*FileStream, error) {
	if s.source == FromDisk {
		return s.retrieveFromDisk(ctx, id, userID)
	}

	doc, err := s.docs.LoadDocument(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.observer.DocumentServed(string(FromDatabase))
	return &FileStream{
		ID:       doc.ID,
		Category: doc.Category,
		Filename: doc.Filename,
		ModTime:  doc.CreatedAt,
		Content:  nopSeekCloser{bytes.NewReader(doc.Data)},
	}, nil
}

func (s *DocumentService) retrieveFromDisk(ctx context.Context, id int64, userID string) (*FileStream, error) {
	doc, err := s.docs.FindDocument(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	f, err := s.files.Open(doc.Category, doc.Filename)
	if err != nil {
		return nil, err
	}
	modTime := doc.CreatedAt
	if st, err := f.Stat(); err == nil {
		modTime = st.ModTime()
	}

	s.observer.DocumentServed(string(FromDisk))
	return &FileStream{
		ID:       doc.ID,
		Category: doc.Category,
		Filename: doc.Filename,
		ModTime:  modTime,
		Content:  f,
	}, nil
}

// ListDocuments lists userID's documents in category c.
func (s *DocumentService) ListDocuments(ctx context.Context, c models.Category, userID string) ([]models.DocumentInfo, error) {
	return s.docs.ListDocuments(ctx, userID, c)
}

// ListAll groups all of userID's documents by category. Every category is
// present in the result, possibly with an empty slice.
func (s *DocumentService) ListAll(ctx context.Context, userID string) (map[models.Category][]models.DocumentInfo, error) {
	infos, err := s.docs.ListUserDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[models.Category][]models.DocumentInfo, len(models.Categories))
	for _, c := range models.Categories {
		out[c] = []models.DocumentInfo{}
	}
	for _, info := range infos {
		out[info.Category] = append(out[info.Category], info)
	}
	return out, nil
}
