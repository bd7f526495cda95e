package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ivlev/lipsync2video/internal/assets"
	"github.com/ivlev/lipsync2video/internal/cli"
	"github.com/ivlev/lipsync2video/internal/config"
	"github.com/ivlev/lipsync2video/internal/effects"
	"github.com/ivlev/lipsync2video/internal/engine"
	"github.com/ivlev/lipsync2video/internal/logging"
	"github.com/ivlev/lipsync2video/internal/system"
	"github.com/ivlev/lipsync2video/internal/video"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface. Every flag left at its zero value
// keeps the value from the config file (or the built-in default).
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" help:"Path to YAML config file (optional)"`

	Audio      string `short:"a" help:"Audio file (default: audio.wav, then the newest file in input/audio)"`
	Character  string `help:"Character image or PDF"`
	Background string `help:"Background image"`
	MouthDir   string `name:"mouth-dir" help:"Directory with mouth shape images"`

	Output string `short:"o" help:"Video-only output path"`
	Final  string `help:"Output path of the video muxed with audio"`

	FPS        int     `name:"fps" help:"Frames per second"`
	Mouth      string  `help:"Mouth anchor on the character as x,y"`
	MouthWidth int     `name:"mouth-width" help:"Width mouth images are scaled to"`
	Fallback   float64 `help:"Seconds of closed mouth rendered when audio is missing"`
	EnergyMode string  `name:"energy-mode" help:"Per-frame energy: mean-abs or rms"`
	Removal    string  `help:"Character background removal: colorkey, command or none"`

	SequenceInput  string `name:"sequence-input" type:"path" help:"Render a saved mouth sequence instead of classifying audio"`
	SequenceOutput string `name:"sequence-output" help:"Save the mouth sequence (file or directory)"`

	Workers     int    `short:"w" help:"Render workers (default: CPU count)"`
	OutputWidth int    `name:"output-width" help:"Scale the video to this width"`
	Encoder     string `help:"Video encoder: libx264, h264_nvenc, h264_videotoolbox or auto"`
	Quality     int    `short:"q" help:"Quality (x264 CRF, NVENC CQ, VideoToolbox bitrate = Q*100 kbit/s)"`

	LogLevel string `name:"log-level" help:"debug, info, warn or error"`
	JSON     bool   `help:"Log JSON instead of console text"`
	Stats    bool   `help:"Print timings and append them to benchmark.log"`
	Debug    bool   `help:"Burn frame numbers into the video"`

	Snapshot string  `type:"path" help:"Render a single frame to this PNG and exit"`
	At       float64 `help:"Snapshot time in seconds"`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("lipsync2video"),
		kong.Description("Audio-driven mouth animation for a still character"),
		kong.UsageOnError(),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if err := run(cliArgs); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(c *CLI) error {
	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := c.apply(cfg); err != nil {
		return err
	}
	cfg.BuildVersion = version

	if cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if c.Quality == 0 {
			cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Console: !c.JSON})
	if err != nil {
		return err
	}
	if cfg.VideoEncoder != "libx264" {
		log.Info().Str("encoder", cfg.VideoEncoder).Msg("hardware encoder selected")
	}

	remover, err := assets.NewRemover(cfg.BackgroundRemoval, cfg.KeyTolerance, cfg.RemovalCommand)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	project := engine.NewLipSyncProject(cfg, &video.FFmpegEncoder{}, &effects.DefaultEffect{}, remover,
		logging.Component(log, "engine"))

	if c.Snapshot != "" {
		return project.Snapshot(ctx, c.At, c.Snapshot)
	}

	report, err := project.Run(ctx)
	if err != nil {
		return err
	}
	cli.PrintSummary(os.Stdout, report)
	return nil
}

// apply copies every flag that was set onto cfg.
func (c *CLI) apply(cfg *config.Config) error {
	setString(&cfg.AudioPath, c.Audio)
	setString(&cfg.CharacterPath, c.Character)
	setString(&cfg.BackgroundPath, c.Background)
	setString(&cfg.MouthDir, c.MouthDir)
	setString(&cfg.OutputVideo, c.Output)
	setString(&cfg.FinalOutput, c.Final)
	setString(&cfg.EnergyMode, c.EnergyMode)
	setString(&cfg.BackgroundRemoval, c.Removal)
	setString(&cfg.SequenceInput, c.SequenceInput)
	setString(&cfg.SequenceOutput, c.SequenceOutput)
	setString(&cfg.VideoEncoder, c.Encoder)
	setString(&cfg.LogLevel, c.LogLevel)

	setInt(&cfg.FPS, c.FPS)
	setInt(&cfg.MouthWidth, c.MouthWidth)
	setInt(&cfg.Workers, c.Workers)
	setInt(&cfg.OutputWidth, c.OutputWidth)
	setInt(&cfg.Quality, c.Quality)

	if c.Fallback != 0 {
		cfg.FallbackDuration = c.Fallback
	}
	if c.Stats {
		cfg.ShowStats = true
	}
	if c.Debug {
		cfg.Debug = true
	}

	if c.Mouth != "" {
		p, err := parsePoint(c.Mouth)
		if err != nil {
			return err
		}
		cfg.MouthPosition = p
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func parsePoint(s string) (config.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return config.Point{}, fmt.Errorf("invalid mouth position %q, want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return config.Point{}, fmt.Errorf("invalid mouth x %q: %w", xs, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return config.Point{}, fmt.Errorf("invalid mouth y %q: %w", ys, err)
	}
	return config.Point{X: x, Y: y}, nil
}
