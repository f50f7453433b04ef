package kvstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileStore keeps one JSON file per key in a directory. Writes go through a
// temp file and rename, and readers and writers of the same key are
// serialized with flock so that separate processes can share the directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) valuePath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) lockPath(key string) string {
	return filepath.Join(s.dir, key+".lock")
}

// Get reads the value for key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var data []byte
	var found bool
	err := s.withLock(key, syscall.LOCK_SH, func() error {
		var err error
		data, err = os.ReadFile(s.valuePath(key))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, found, nil
}

// Set writes value for key atomically. Writing identical bytes is a no-op.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.withLock(key, syscall.LOCK_EX, func() error {
		return s.writeLocked(key, value)
	})
}

// Update reads, modifies, and writes key while holding an exclusive lock.
func (s *FileStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.withLock(key, syscall.LOCK_EX, func() error {
		current, err := os.ReadFile(s.valuePath(key))
		found := err == nil
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", key, err)
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}
		return s.writeLocked(key, next)
	})
}

// writeLocked replaces the file for key. The caller holds the key's lock.
func (s *FileStore) writeLocked(key string, value []byte) error {
	path := s.valuePath(key)
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, value) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", key, err)
	}

	tmpFile, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(value)
	if err1 := tmpFile.Sync(); err1 != nil && err == nil {
		err = err1
	}
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp file for %s: %w", key, err)
	}

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) withLock(key string, how int, fn func() error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.lockPath(key), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), how); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	return fn()
}
