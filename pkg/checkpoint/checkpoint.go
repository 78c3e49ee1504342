package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hockeyscraper/pkg/logger"
)

// FirstPage is returned when no usable checkpoint exists
const FirstPage = 1

// Store persists the next listing page to fetch
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a checkpoint store backed by path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{
		path:   path,
		logger: log.WithField("component", "checkpoint"),
	}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Read returns the stored page number. Missing, unparsable or
// non-positive contents all yield FirstPage.
func (s *Store) Read() int {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("Failed to read checkpoint, starting from first page")
		}
		return FirstPage
	}

	page, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || page < FirstPage {
		s.logger.WarnWithFields("Ignoring invalid checkpoint contents", map[string]interface{}{
			"path":     s.path,
			"contents": strings.TrimSpace(string(data)),
		})
		return FirstPage
	}

	return page
}

// Write replaces the stored page number atomically
func (s *Store) Write(page int) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if _, err := file.WriteString(strconv.Itoa(page)); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"next_page": page,
	})
	return nil
}

// Delete removes the checkpoint file
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	s.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
