// Package filestore keeps uploaded files (avatars and property images) in a local directory.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Directory new files are kept in until they replace the live ones
const stagingRoot = "staging"

var ErrInvalidName = errors.New("invalid file name")

// File uploaded by a client
type Upload struct {
	// Name as the client sent it, only its extension or base name is used
	Name    string
	Content io.Reader
}

type Store struct {
	// Directory all files are stored in
	root string

	// URL path the root directory is served at, e.g. "/uploads"
	urlPrefix string
}

// Create store and its root directory if it does not exist
func New(root string, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("can't create uploads directory. Err: %w", err)
	}

	return &Store{
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

// Root directory, to serve files from
func (s *Store) Root() string {
	return s.root
}

// Save file as dir/name and return its URL
// Existing file with the same name is overwritten
func (s *Store) Save(dir string, name string, r io.Reader) (string, error) {
	dir, name, err := clean(dir, name)
	if err != nil {
		return "", err
	}

	fullDir := s.path(dir)
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("can't create directory. Err: %w", err)
	}

	f, err := os.Create(filepath.Join(fullDir, name))
	if err != nil {
		return "", fmt.Errorf("can't create file. Err: %w", err)
	}
	defer f.Close() // nolint:errcheck

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("can't write file. Err: %w", err)
	}

	return s.URL(dir, name), nil
}

// URL the file dir/name is served at
func (s *Store) URL(dir string, name string) string {
	return path.Join(s.urlPrefix, dir, name)
}

// Remove file by its URL, missing file is not an error
func (s *Store) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return ErrInvalidName
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("can't remove file. Err: %w", err)
	}
	return nil
}

// Remove directory with all its files, missing directory is not an error
func (s *Store) RemoveDir(dir string) error {
	dir, err := cleanDir(dir)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(s.path(dir)); err != nil {
		return fmt.Errorf("can't remove directory. Err: %w", err)
	}
	return nil
}

// Unique directory to save files to before they replace the live ones with Replace
func StagingDir() string {
	return path.Join(stagingRoot, uuid.NewString())
}

// Replace dir and all its files with the staged directory
// The staged directory does not exist afterwards
func (s *Store) Replace(staged string, dir string) error {
	staged, err := cleanDir(staged)
	if err != nil {
		return err
	}
	dir, err = cleanDir(dir)
	if err != nil {
		return err
	}

	dst := s.path(dir)
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("can't remove directory. Err: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("can't create directory. Err: %w", err)
	}
	if err := os.Rename(s.path(staged), dst); err != nil {
		return fmt.Errorf("can't move staged directory. Err: %w", err)
	}
	return nil
}

// Plain file name the upload is stored with
// Client directories are dropped, hidden and empty names are rejected
func BaseName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *Store) path(dir string) string {
	return filepath.Join(s.root, filepath.FromSlash(dir))
}

// Directory has to stay inside the root
func cleanDir(dir string) (string, error) {
	dir = path.Clean(dir)
	if dir == "." || !filepath.IsLocal(filepath.FromSlash(dir)) {
		return "", ErrInvalidName
	}
	return dir, nil
}

func clean(dir string, name string) (string, string, error) {
	dir, err := cleanDir(dir)
	if err != nil {
		return "", "", err
	}
	name, err = BaseName(name)
	if err != nil {
		return "", "", err
	}
	return dir, name, nil
}
