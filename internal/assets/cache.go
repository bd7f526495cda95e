package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ivlev/lipsync2video/internal/config"
	"github.com/ivlev/lipsync2video/internal/source"
	"github.com/ivlev/lipsync2video/internal/viseme"
)

var (
	// ErrCharacterMissing means the subject image could not be loaded.
	ErrCharacterMissing = errors.New("assets: character image missing")
	// ErrNoMouths means none of the configured mouth images could be loaded.
	ErrNoMouths = errors.New("assets: no mouth images loaded")
)

var white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Mouths maps labels to their scaled mouth image.
type Mouths struct {
	images map[viseme.Label]*image.NRGBA
}

func NewMouths() *Mouths {
	return &Mouths{images: make(map[viseme.Label]*image.NRGBA)}
}

// Set stores img for l.
func (m *Mouths) Set(l viseme.Label, img *image.NRGBA) {
	m.images[l] = img
}

// Get returns the image for l and whether one was loaded.
func (m *Mouths) Get(l viseme.Label) (*image.NRGBA, bool) {
	if m == nil {
		return nil, false
	}
	img, ok := m.images[l]
	return img, ok
}

func (m *Mouths) Len() int {
	if m == nil {
		return 0
	}
	return len(m.images)
}

// Available is the set of labels with an image.
func (m *Mouths) Available() viseme.Set {
	var s viseme.Set
	if m == nil {
		return s
	}
	for l := range m.images {
		s = s.With(l)
	}
	return s
}

// Cache holds every image a render needs. It is read-only once loaded.
type Cache struct {
	Character       Layer
	Background      *image.NRGBA // opaque, same size as Character
	BackgroundFound bool
	Mouths          *Mouths
}

// LoadMouths loads and scales each configured mouth. Entries whose file is
// missing or unreadable are logged and left out.
func LoadMouths(dir string, table []config.MouthAsset, width, dpi int, log zerolog.Logger) *Mouths {
	mouths := NewMouths()
	for _, m := range table {
		path := filepath.Join(dir, m.File)
		img, err := source.LoadImage(path, dpi)
		if err != nil {
			log.Warn().Err(err).Str("label", m.Label.String()).Str("path", path).Msg("missing mouth image")
			continue
		}
		mouths.Set(m.Label, ResizeToWidth(ToNRGBA(img), width))
	}
	return mouths
}

// LoadCharacter loads the subject image and strips its backdrop.
func LoadCharacter(ctx context.Context, path string, dpi int, remover BackgroundRemover) (Layer, error) {
	raw, err := source.LoadImage(path, dpi)
	if err != nil {
		return Layer{}, fmt.Errorf("%w: %s: %v", ErrCharacterMissing, path, err)
	}

	if remover == nil {
		remover = NopRemover{}
	}
	img, err := remover.Remove(ctx, raw)
	if err != nil {
		return Layer{}, fmt.Errorf("assets: background removal for %s: %w", path, err)
	}

	return Layer{Image: ToNRGBA(img), HasAlpha: HasTransparency(img)}, nil
}

// LoadBackground loads the backdrop as an opaque w×h image. When the file is
// absent or unreadable a white canvas is returned with found=false.
func LoadBackground(path string, w, h, dpi int, log zerolog.Logger) (bg *image.NRGBA, found bool) {
	if path != "" {
		img, err := source.LoadImage(path, dpi)
		if err == nil {
			bg := ToNRGBA(img)
			dropAlpha(bg)
			return Resize(bg, w, h), true
		}
		log.Warn().Err(err).Str("path", path).Msg("background not loaded, using white canvas")
	}
	return SolidCanvas(w, h, white), false
}

// Load builds the cache from cfg. A missing character or an empty mouth set
// aborts the run.
func Load(ctx context.Context, cfg *config.Config, remover BackgroundRemover, log zerolog.Logger) (*Cache, error) {
	character, err := LoadCharacter(ctx, cfg.CharacterPath, cfg.DPI, remover)
	if err != nil {
		return nil, err
	}
	w, h := character.Size()
	log.Info().Int("width", w).Int("height", h).Bool("alpha", character.HasAlpha).Msg("character loaded")

	bg, found := LoadBackground(cfg.BackgroundPath, w, h, cfg.DPI, log)

	mouths := LoadMouths(cfg.MouthDir, cfg.Mouths, cfg.MouthWidth, cfg.DPI, log)
	if mouths.Len() == 0 {
		return nil, fmt.Errorf("%w from %s", ErrNoMouths, cfg.MouthDir)
	}

	names := make([]string, 0, mouths.Len())
	for _, l := range mouths.Available().Labels() {
		names = append(names, l.String())
	}
	log.Info().Strs("labels", names).Msg("mouth shapes available")

	return &Cache{
		Character:       character,
		Background:      bg,
		BackgroundFound: found,
		Mouths:          mouths,
	}, nil
}
