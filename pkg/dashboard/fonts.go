package dashboard

import (
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontSet loads faces from an ordered list of font file paths, falling back
// to the built-in bitmap face when none can be read. Face never fails: a
// missing font must degrade fidelity, not the render.
type FontSet struct {
	mu     sync.Mutex
	fs     afero.Fs
	paths  []string
	logger *zap.Logger

	parsed *sfnt.Font
	tried  bool
	faces  map[float64]font.Face
}

func NewFontSet(fs afero.Fs, paths []string, logger *zap.Logger) *FontSet {
	return &FontSet{
		fs:     fs,
		paths:  paths,
		logger: logger,
		faces:  make(map[float64]font.Face),
	}
}

// Face returns a face for the requested point size.
func (f *FontSet) Face(size float64) font.Face {
	f.mu.Lock()
	defer f.mu.Unlock()

	if face, ok := f.faces[size]; ok {
		return face
	}

	face := f.newFace(size)
	f.faces[size] = face
	return face
}

func (f *FontSet) newFace(size float64) font.Face {
	if fnt := f.font(); fnt != nil {
		face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face
		}
		f.logger.With(zap.Float64("size", size), zap.Error(err)).Warn("face creation failed")
	}
	return basicfont.Face7x13
}

func (f *FontSet) font() *sfnt.Font {
	if f.tried {
		return f.parsed
	}
	f.tried = true

	for _, path := range f.paths {
		bs, err := afero.ReadFile(f.fs, path)
		if err != nil {
			continue
		}
		fnt, err := opentype.Parse(bs)
		if err != nil {
			f.logger.With(zap.String("font", path), zap.Error(err)).Warn("font parse failed")
			continue
		}
		f.parsed = fnt
		return fnt
	}

	f.logger.Warn("no usable font file, using built-in face")
	return nil
}
