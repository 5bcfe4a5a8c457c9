// Package storage manages the on-disk upload tree:
// <root>/{education,health,service,transport}/<sanitized filename>.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/atinyakov/DocPortal/internal/models"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// tempPrefix marks in-flight uploads; they are never listed or served.
const tempPrefix = ".upload-"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// ErrInvalidName is returned for names that would escape the category directory.
var ErrInvalidName = errors.New("invalid file name")

// SanitizeFilename reduces name to a safe storage key. Accented letters are
// decomposed (NFKD) so their ASCII base survives, path separators and
// whitespace runs become underscores, everything outside [A-Za-z0-9_.-] is
// dropped, and leading/trailing dots and underscores are trimmed. The result
// may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// FileInfo describes a stored file.
type FileInfo struct {
	Name    string
	ModTime time.Time
}

// Disk is the filesystem half of document storage.
type Disk struct {
	root string
}

// NewDisk creates root and the four category directories if absent.
func NewDisk(root string) (*Disk, error) {
	for _, c := range models.Categories {
		if err := os.MkdirAll(filepath.Join(root, string(c)), 0o750); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Disk{root: root}, nil
}

// Root returns the upload root directory.
func (d *Disk) Root() string { return d.root }

// Dir returns the directory holding files of category c.
func (d *Disk) Dir(c models.Category) string {
	return filepath.Join(d.root, string(c))
}

func (d *Disk) path(c models.Category, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.HasPrefix(name, tempPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.Dir(c), name), nil
}

// Save writes r to <root>/<c>/<name>, replacing any existing file with the
// same name. The write goes through a temporary file and a rename, so readers
// see either the old or the new content; concurrent writers race and the last
// rename wins.
func (d *Disk) Save(c models.Category, name string, r io.Reader) error {
	dst, err := d.path(c, name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.Dir(c), tempPrefix+uuid.NewString()+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename upload: %w", err)
	}
	return nil
}

// ReadFile returns the full content of a stored file.
func (d *Disk) ReadFile(c models.Category, name string) ([]byte, error) {
	p, err := d.path(c, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return data, nil
}

// Open opens a stored file for streaming. A missing file is reported as
// models.ErrDocumentNotFound.
func (d *Disk) Open(c models.Category, name string) (*os.File, error) {
	p, err := d.path(c, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s/%s: %w", c, name, models.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (d *Disk) Remove(c models.Category, name string) error {
	p, err := d.path(c, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return nil
}

// List returns the regular files stored under category c, skipping
// in-flight uploads.
func (d *Disk) List(c models.Category) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.Dir(c))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}
