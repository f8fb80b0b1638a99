package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"sync"

	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store persists the raster state shared by every display operation: the
// raster last written to the device ("current"), the pre-orientation
// post-dither raster it was derived from ("base"), the last dashboard
// preview, and transient resize previews. Last write wins, no versioning.
type Store struct {
	mu     sync.Mutex
	fs     afero.Fs
	logger *zap.Logger

	currentPath    string
	basePath       string
	dashboardPath  string
	previewDir     string
	lastResizePath string
}

func NewStore(fs afero.Fs, currentPath, basePath, dashboardPath, previewDir string, logger *zap.Logger) *Store {
	return &Store{
		fs:            fs,
		logger:        logger,
		currentPath:   currentPath,
		basePath:      basePath,
		dashboardPath: dashboardPath,
		previewDir:    previewDir,
	}
}

func (s *Store) SaveCurrent(img image.Image) error {
	return s.save(s.currentPath, img)
}

func (s *Store) SaveBase(img image.Image) error {
	return s.save(s.basePath, img)
}

func (s *Store) SaveDashboardPreview(img image.Image) error {
	return s.save(s.dashboardPath, img)
}

// SaveResizePreview writes a transient preview under a fresh name and
// remembers it as the latest, dropping the previous one.
func (s *Store) SaveResizePreview(img image.Image) error {
	file := path.Join(s.previewDir, fmt.Sprintf("resize_preview_%s.png", xid.New().String()))
	if err := s.save(file, img); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.lastResizePath
	s.lastResizePath = file
	s.mu.Unlock()

	if old != "" {
		if err := s.fs.Remove(old); err != nil {
			s.logger.With(zap.String("file", old), zap.Error(err)).Debug("stale preview remove failed")
		}
	}
	return nil
}

// ResizePreview returns the bytes of the most recent resize preview.
func (s *Store) ResizePreview() ([]byte, bool) {
	s.mu.Lock()
	file := s.lastResizePath
	s.mu.Unlock()

	if file == "" {
		return nil, false
	}
	bs, err := afero.ReadFile(s.fs, file)
	if err != nil {
		return nil, false
	}
	return bs, true
}

// LoadSource returns the canonical raster to re-display: the base raster if
// present, else the current raster.
func (s *Store) LoadSource() (image.Image, error) {
	for _, file := range []string{s.basePath, s.currentPath} {
		if img, err := s.load(file); err == nil {
			return img, nil
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, os.ErrNotExist
}

// Preview returns the bitmap appropriate to the given mode: the dashboard
// preview when in dashboard mode and one exists, else the last
// device-written raster, else the base raster.
func (s *Store) Preview(mode string) ([]byte, error) {
	candidates := []string{s.currentPath, s.basePath}
	if mode == "dashboard" {
		candidates = append([]string{s.dashboardPath}, candidates...)
	}

	for _, file := range candidates {
		if bs, err := afero.ReadFile(s.fs, file); err == nil {
			return bs, nil
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, os.ErrNotExist
}

func (s *Store) HasCurrent() bool {
	ok, _ := afero.Exists(s.fs, s.currentPath)
	return ok
}

func (s *Store) save(file string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s failed: %w", file, err)
	}
	if err := afero.WriteFile(s.fs, file, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s failed: %w", file, err)
	}
	return nil
}

func (s *Store) load(file string) (image.Image, error) {
	bs, err := afero.ReadFile(s.fs, file)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("decode %s failed: %w", file, err)
	}
	return img, nil
}
