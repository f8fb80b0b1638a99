package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ValidationError reports malformed caller input. It is surfaced verbatim
// and never produced after a side effect has happened.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// IsValidationError reports whether err came from settings validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Store owns the settings record: single writer, read-through cache,
// persisted to a JSON file after every mutation.
type Store struct {
	mu       sync.RWMutex
	fs       afero.Fs
	path     string
	cur      Settings
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStore loads persisted settings merged over defaults. A missing or
// unreadable file just yields the defaults.
func NewStore(fs afero.Fs, path string, logger *zap.Logger) *Store {
	s := &Store{
		fs:       fs,
		path:     path,
		cur:      Default(),
		validate: validator.New(),
		logger:   logger,
	}

	bs, err := afero.ReadFile(fs, path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.With(zap.String("file", path), zap.Error(err)).Warn("settings read failed, using defaults")
		}
		return s
	}
	if err := json.Unmarshal(bs, &s.cur); err != nil {
		logger.With(zap.String("file", path), zap.Error(err)).Warn("settings parse failed, using defaults")
		s.cur = Default()
	}
	return s
}

// Get returns a snapshot of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Apply validates a partial update merged over the current settings, commits
// it, and persists. Validation failures leave the store untouched. A persist
// failure is logged but does not roll back the in-memory state.
func (s *Store) Apply(p Patch) (Settings, error) {
	return s.Update(func(cur *Settings) {
		p.applyTo(cur)
	})
}

// Update serializes a mutation of the settings record, validating the result
// before it is committed and persisted.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur
	fn(&next)

	if err := s.check(next); err != nil {
		return Settings{}, err
	}

	s.cur = next
	s.persist(next)
	return next, nil
}

func (s *Store) check(v Settings) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return &ValidationError{msg: describe(fields[0])}
	}
	return &ValidationError{msg: err.Error()}
}

func (s *Store) persist(v Settings) {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.logger.With(zap.Error(err)).Error("settings marshal failed")
		return
	}
	if err := afero.WriteFile(s.fs, s.path, bs, 0644); err != nil {
		s.logger.With(zap.String("file", s.path), zap.Error(err)).Error("settings save failed")
	}
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.StructField() {
	case "Mode":
		return "mode must be 'image' or 'dashboard'"
	case "City":
		return "city name too long"
	case "Units":
		return "units must be 'c' or 'f'"
	case "Interval":
		return "interval must be between 30 and 86400 seconds"
	case "Rotation":
		return "rotation must be 0, 90, 180, or 270 degrees"
	}
	return fmt.Sprintf("invalid %s value", field)
}
