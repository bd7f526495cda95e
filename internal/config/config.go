package config

import (
	"path/filepath"
	"runtime"

	"github.com/ivlev/lipsync2video/internal/viseme"
)

// MouthAsset binds a mouth shape to an image file inside MouthDir.
type MouthAsset struct {
	Label viseme.Label `yaml:"label"`
	File  string       `yaml:"file"`
}

// Point is a pixel position on the character canvas.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type Config struct {
	CharacterPath  string       `yaml:"character"`
	BackgroundPath string       `yaml:"background"`
	MouthDir       string       `yaml:"mouth_dir"`
	Mouths         []MouthAsset `yaml:"mouths"`
	AudioPath      string       `yaml:"audio"`
	AudioDir       string       `yaml:"audio_dir"`

	OutputVideo string `yaml:"output_video"` // video-only, always written
	FinalOutput string `yaml:"final_output"` // muxed with audio when audio exists

	FPS              int     `yaml:"fps"`
	MouthPosition    Point   `yaml:"mouth_position"`
	MouthWidth       int     `yaml:"mouth_width"`
	FallbackDuration float64 `yaml:"fallback_duration"`
	EnergyMode       string  `yaml:"energy_mode"`
	DPI              int     `yaml:"dpi"`

	BackgroundRemoval string   `yaml:"background_removal"` // colorkey, command, none
	RemovalCommand    []string `yaml:"removal_command"`
	KeyTolerance      float64  `yaml:"key_tolerance"`

	SequenceInput  string `yaml:"sequence_input"`
	SequenceOutput string `yaml:"sequence_output"`

	Workers      int    `yaml:"workers"`
	OutputWidth  int    `yaml:"output_width"` // 0 keeps the canvas size
	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`
	LogLevel     string `yaml:"log_level"`
	ShowStats    bool   `yaml:"show_stats"`
	Debug        bool   `yaml:"debug"` // burn frame numbers into the video
	BuildVersion string `yaml:"-"`
}

// EncodeParams is what the encoder needs to know about the frame stream.
type EncodeParams struct {
	Width, Height int
	FPS           int
	Filter        string
	VideoEncoder  string
	Quality       int
	OutputWidth   int
	Debug         bool
}

// DefaultMouths is the stock mouth set: one PNG per label, named after it.
func DefaultMouths() []MouthAsset {
	labels := viseme.All()
	out := make([]MouthAsset, 0, len(labels))
	for _, l := range labels {
		out = append(out, MouthAsset{Label: l, File: l.String() + ".png"})
	}
	return out
}

// Default returns the configuration used when no file or flag overrides it.
func Default() *Config {
	assets := "assets"
	return &Config{
		CharacterPath:     filepath.Join(assets, "character.png"),
		BackgroundPath:    filepath.Join(assets, "background.png"),
		MouthDir:          filepath.Join(assets, "mouth_shapes"),
		Mouths:            DefaultMouths(),
		AudioPath:         "audio.wav",
		AudioDir:          filepath.Join("input", "audio"),
		OutputVideo:       "output_no_audio.mp4",
		FinalOutput:       "final_output.mp4",
		FPS:               30,
		MouthPosition:     Point{X: 1065, Y: 1050},
		MouthWidth:        340,
		FallbackDuration:  3.0,
		EnergyMode:        "mean-abs",
		DPI:               150,
		BackgroundRemoval: "colorkey",
		KeyTolerance:      15,
		Workers:           runtime.NumCPU(),
		VideoEncoder:      "libx264",
		Quality:           23,
		LogLevel:          "info",
	}
}
