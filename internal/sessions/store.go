package sessions

import (
	"bytes"
	"fmt"
	"os"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store persists the active session between process restarts
type Store interface {
	Save(session *models.Session) error
	Load() *models.Session
	Clear() error
}

// FileStore keeps the session as YAML in a single owner-only file
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(session *models.Session) error {

	if session == nil {
		return fmt.Errorf("cannot save an empty session")
	}

	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(session); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush session: %w", err)
	}

	// Only allow read/write access to the owner
	if err := common.WriteFileSecure(f.path, buf.Bytes()); err != nil {
		logrus.WithError(err).WithField("path", f.path).Errorln("Failed to write session file")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"path":    f.path,
		"session": session.ID,
	}).Infoln("Session saved")

	return nil
}

// Load returns nil when there is no usable session on disk. A file that
// does not decode is treated the same as a missing one.
func (f *FileStore) Load() *models.Session {

	file, err := os.Open(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", f.path).Warnln("Failed to open session file")
		}
		return nil
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil || fileInfo.Size() == 0 {
		return nil
	}

	var session models.Session
	if err := yaml.NewDecoder(file).Decode(&session); err != nil {
		logrus.WithError(err).WithField("path", f.path).Warnln("Failed to parse session file, ignoring it")
		return nil
	}

	if session.Version != models.SessionVersion {
		logrus.WithFields(logrus.Fields{
			"path":    f.path,
			"version": session.Version,
		}).Warnln("Session file has an unknown version, ignoring it")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"path":    f.path,
		"session": session.ID,
	}).Infoln("Loaded session from file")

	return &session
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
