package client

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// Record is the durable client-side impersonation state. Only the Controller writes it.
type Record struct {
	IsPlatform bool   `yaml:"is_platform"`
	Verified   bool   `yaml:"verified"`
	TargetID   string `yaml:"target_id,omitempty"`
	TargetName string `yaml:"target_name,omitempty"`
}

func (r Record) HasTarget() bool {
	return r.TargetID != ""
}

type Storage interface {
	Load() (Record, bool, error)
	Save(r Record) error
	Clear() error
}

// FileStorage keeps the record in a YAML file readable only by the current user.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Load() (Record, bool, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, errors.Wrap(err, "read impersonation state")
	}
	var r Record
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Record{}, false, errors.Wrap(err, "decode impersonation state")
	}
	return r, true, nil
}

func (s *FileStorage) Save(r Record) error {
	raw, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode impersonation state")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	tmp, err := os.CreateTemp(dir, ".impersonation-*")
	if err != nil {
		return errors.Wrap(err, "create temp state file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod state file")
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write state file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close state file")
	}
	return os.Rename(tmpName, s.path)
}

func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove impersonation state")
	}
	return nil
}

type MemoryStorage struct {
	mu     sync.Mutex
	record *Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return Record{}, false, nil
	}
	return *s.record, true, nil
}

func (s *MemoryStorage) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &r
	return nil
}

func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	return nil
}
