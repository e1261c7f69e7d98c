package progress

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/crypto/blake2b"
)

var safeStudentID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const hashedPrefix = "~"

// FileStore keeps one JSON file per student under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file a student's record lives in. Ids that are not plain
// file names are hashed with BLAKE2b-256 and given a "~" prefix, which no
// plain id can contain, so a raw id never lands on another id's hashed file.
func (s *FileStore) Path(studentID string) string {
	name := studentID
	if !safeStudentID.MatchString(studentID) {
		sum := blake2b.Sum256([]byte(studentID))
		name = hashedPrefix + hex.EncodeToString(sum[:])
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(_ context.Context, studentID string) (*StudentProgress, error) {
	data, err := os.ReadFile(s.Path(studentID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read progress %s: %w", studentID, err)
	}
	p, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", studentID, err)
	}
	return p, nil
}

// Save writes to a temp file and renames it over the record, so readers
// never observe a partial write.
func (s *FileStore) Save(_ context.Context, studentID string, p *StudentProgress) error {
	data, err := encode(p)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", studentID, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".progress-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write progress %s: %w", studentID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync progress %s: %w", studentID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close progress %s: %w", studentID, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(studentID)); err != nil {
		return fmt.Errorf("rename progress %s: %w", studentID, err)
	}
	return nil
}
