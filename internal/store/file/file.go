package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/s22625/voxfs/internal/model"
)

// SessionFile is the name of the session document inside the state dir
const SessionFile = "session.yaml"

// FileStore implements store.Store using a YAML file in the state directory
type FileStore struct {
	stateDir string
	now      func() time.Time
}

// New creates a FileStore rooted at stateDir. The directory is created on
// first save, not here.
func New(stateDir string) (*FileStore, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("state dir is empty")
	}
	absPath, err := filepath.Abs(stateDir)
	if err != nil {
		return nil, fmt.Errorf("invalid state dir: %w", err)
	}
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("state dir is not a directory: %s", absPath)
	}
	return &FileStore{stateDir: absPath, now: time.Now}, nil
}

// StateDir returns the state directory root
func (s *FileStore) StateDir() string {
	return s.stateDir
}

// Path returns the session file path
func (s *FileStore) Path() string {
	return filepath.Join(s.stateDir, SessionFile)
}

// Load reads the session file
func (s *FileStore) Load() (*model.Session, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Session{}, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	sess := &model.Session{}
	if err := yaml.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", s.Path(), err)
	}
	return sess, nil
}

// Save writes the session through a temp file so readers never see a
// partial document
func (s *FileStore) Save(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("nil session")
	}
	if err := os.MkdirAll(s.stateDir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	toSave := *session
	toSave.UpdatedAt = s.now().UTC().Truncate(time.Second)

	data, err := yaml.Marshal(&toSave)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(s.stateDir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	session.UpdatedAt = toSave.UpdatedAt
	return nil
}

// Clear deletes the session file. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Update loads the session, applies fn and saves the result
func (s *FileStore) Update(fn func(*model.Session)) (*model.Session, error) {
	sess, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(sess)
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}
