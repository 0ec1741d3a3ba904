package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"emirates-studios/internal/models"
)

// ErrInvalidSettings is returned when showcase settings fail validation
var ErrInvalidSettings = errors.New("invalid showcase settings")

// ShowcaseStore manages showcase settings and slide images in a JSON file
type ShowcaseStore struct {
	mu       sync.RWMutex
	filePath string
	dataPath string
	defaults models.ShowcaseSettings
	data     *models.ShowcasesFile
	logger   *zap.Logger
}

// NewShowcaseStore creates a new showcase store and loads data
func NewShowcaseStore(dataPath string, defaults models.ShowcaseSettings, logger *zap.Logger) (*ShowcaseStore, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &ShowcaseStore{
		filePath: filepath.Join(dataPath, "showcases.json"),
		dataPath: dataPath,
		defaults: defaults,
		data: &models.ShowcasesFile{
			Showcases: make(map[string]*models.ShowcaseRecord),
		},
		logger: logger,
	}

	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load showcases: %w", err)
	}

	return store, nil
}

// Load reads showcases.json or keeps an empty structure if the file doesn't exist
func (s *ShowcaseStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		s.logger.Info("showcases file not found, starting empty", zap.String("path", s.filePath))
		return nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read showcases file: %w", err)
	}

	var file models.ShowcasesFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.logger.Warn("failed to parse showcases.json, using empty structure", zap.Error(err))
		return nil
	}
	if file.Showcases == nil {
		file.Showcases = make(map[string]*models.ShowcaseRecord)
	}
	for name, record := range file.Showcases {
		if record == nil {
			delete(file.Showcases, name)
			continue
		}
		if record.Settings == nil {
			continue
		}
		if err := validateSettings(*record.Settings); err != nil {
			s.logger.Warn("ignoring stored settings, using defaults",
				zap.String("showcase", name),
				zap.Error(err))
			record.Settings = nil
		}
	}

	s.data = &file
	s.logger.Info("loaded showcases",
		zap.Int("count", len(s.data.Showcases)),
		zap.String("path", s.filePath))
	return nil
}

// save atomically writes showcases.json (temp file → rename)
// Must be called with lock held
func (s *ShowcaseStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal showcases: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Save atomically writes showcases.json
func (s *ShowcaseStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// recordLocked returns the record for name, creating it if needed.
// Must be called with lock held
func (s *ShowcaseStore) recordLocked(name string) *models.ShowcaseRecord {
	record, exists := s.data.Showcases[name]
	if !exists {
		record = &models.ShowcaseRecord{
			Name:   name,
			Images: make(map[string]string),
		}
		s.data.Showcases[name] = record
	}
	if record.Images == nil {
		record.Images = make(map[string]string)
	}
	return record
}

// Settings returns the settings for a showcase, falling back to the defaults
func (s *ShowcaseStore) Settings(name string) models.ShowcaseSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.data.Showcases[NormalizeShowcase(name)]
	if !exists || record.Settings == nil {
		return s.defaults
	}
	return *record.Settings
}

// UpdateSettings stores playback settings for a showcase
func (s *ShowcaseStore) UpdateSettings(name string, settings models.ShowcaseSettings) error {
	name = NormalizeShowcase(name)
	if name == "" {
		return fmt.Errorf("%w: showcase is required", ErrInvalidSettings)
	}
	if err := validateSettings(settings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.recordLocked(name)
	record.Settings = &settings

	if err := s.save(); err != nil {
		return fmt.Errorf("failed to save after updating settings: %w", err)
	}

	s.logger.Info("updated showcase settings",
		zap.String("showcase", name),
		zap.Int("intervalMs", settings.IntervalMs),
		zap.Bool("autoAdvance", settings.AutoAdvance))
	return nil
}

func validateSettings(settings models.ShowcaseSettings) error {
	if settings.IntervalMs <= 0 || settings.IntervalMs > models.MaxIntervalMs {
		return fmt.Errorf("%w: intervalMs must be in [1, %d], got %d",
			ErrInvalidSettings, models.MaxIntervalMs, settings.IntervalMs)
	}
	return nil
}

// saveImageFile writes PNG data to disk and returns the path relative to the data dir
func (s *ShowcaseStore) saveImageFile(name, slideID string, data []byte) (string, error) {
	dirPath := filepath.Join(s.dataPath, "showcases", name, "slides")
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(dirPath, slideID+".png")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return filepath.ToSlash(filepath.Join("showcases", name, "slides", slideID+".png")), nil
}

// SaveSlideImage decodes a base64 PNG, writes it to disk and records it
func (s *ShowcaseStore) SaveSlideImage(name, slideID, imageBase64 string) (string, error) {
	name = NormalizeShowcase(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid showcase %q", name)
	}
	if slideID == "" || strings.ContainsAny(slideID, `/\`) || slideID == ".." {
		return "", fmt.Errorf("invalid slideId %q", slideID)
	}
	if imageBase64 == "" {
		return "", fmt.Errorf("imageBase64 is required")
	}

	base64Data := strings.TrimPrefix(imageBase64, "data:image/png;base64,")

	imageData, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	imagePath, err := s.saveImageFile(name, slideID, imageData)
	if err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.recordLocked(name)
	record.Images[slideID] = imagePath

	if err := s.save(); err != nil {
		return "", fmt.Errorf("failed to save after storing image: %w", err)
	}

	s.logger.Info("stored slide image",
		zap.String("showcase", name),
		zap.String("slideId", slideID),
		zap.String("path", imagePath))
	return imagePath, nil
}

// ImagePath returns the stored image for a slide, if any
func (s *ShowcaseStore) ImagePath(name, slideID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.data.Showcases[NormalizeShowcase(name)]
	if !exists {
		return "", false
	}
	path, ok := record.Images[slideID]
	return path, ok
}

// DataPath returns the directory holding showcases.json and images
func (s *ShowcaseStore) DataPath() string {
	return s.dataPath
}
