// Package engine drives one lip-sync render: assets, audio, classification,
// frame rendering and encoding.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/lipsync2video/internal/analyzer"
	"github.com/ivlev/lipsync2video/internal/assets"
	"github.com/ivlev/lipsync2video/internal/audio"
	"github.com/ivlev/lipsync2video/internal/config"
	"github.com/ivlev/lipsync2video/internal/director"
	"github.com/ivlev/lipsync2video/internal/effects"
	"github.com/ivlev/lipsync2video/internal/renderer"
	"github.com/ivlev/lipsync2video/internal/system"
	"github.com/ivlev/lipsync2video/internal/video"
	"github.com/ivlev/lipsync2video/internal/viseme"
)

// ErrNoFrames means the audio is shorter than a single frame.
var ErrNoFrames = errors.New("engine: audio shorter than one frame")

type LipSyncProject struct {
	Config  *config.Config
	Encoder video.VideoEncoder
	Effect  effects.Effect
	Remover assets.BackgroundRemover
	Audio   *audio.Loader
	Log     zerolog.Logger

	// Memory reports available bytes for batch sizing.
	Memory func() uint64
	// BenchmarkLog receives one line per run when ShowStats is set.
	BenchmarkLog string
}

func NewLipSyncProject(cfg *config.Config, ve video.VideoEncoder, eff effects.Effect, remover assets.BackgroundRemover, log zerolog.Logger) *LipSyncProject {
	return &LipSyncProject{
		Config:       cfg,
		Encoder:      ve,
		Effect:       eff,
		Remover:      remover,
		Audio:        &audio.Loader{Probe: system.GetAudioSampleRate},
		Log:          log,
		Memory:       system.AvailableMemory,
		BenchmarkLog: "benchmark.log",
	}
}

// Report summarises a finished run.
type Report struct {
	Frames          int
	FPS             int
	AudioPath       string // empty when the fallback animation was used
	Sequence        *director.Sequence
	SkippedOverlays int

	VideoPath    string
	FinalPath    string // empty when there was no audio to mux
	SequencePath string

	LoadTime   time.Duration
	RenderTime time.Duration
	MuxTime    time.Duration
	Total      time.Duration
}

// Duration is the length of the rendered video in seconds.
func (r *Report) Duration() float64 {
	if r.FPS <= 0 {
		return 0
	}
	return float64(r.Frames) / float64(r.FPS)
}

// plan is everything a render needs before frames are produced.
type plan struct {
	cache     *assets.Cache
	audioPath string
	labels    []viseme.Label
	seq       *director.Sequence
}

func (p *LipSyncProject) prepare(ctx context.Context) (*plan, error) {
	cfg := p.Config

	cache, err := assets.Load(ctx, cfg, p.Remover, p.Log)
	if err != nil {
		return nil, err
	}

	wave, audioPath := p.loadAudio(ctx)

	extractor, err := analyzer.NewExtractor(cfg.EnergyMode, cfg.FallbackDuration)
	if err != nil {
		return nil, err
	}
	energies := extractor.Extract(wave, cfg.FPS)

	pl := &plan{cache: cache, audioPath: audioPath}
	if cfg.SequenceInput != "" {
		path, err := resolveSequence(cfg.SequenceInput)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		seq, err := director.ReadSequence(path)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		if seq.FPS != cfg.FPS {
			p.Log.Warn().Int("sequence_fps", seq.FPS).Int("fps", cfg.FPS).Msg("sequence frame rate differs from output")
		}
		labels, changed := seq.Fit(len(energies))
		if changed {
			p.Log.Warn().Int("sequence_frames", seq.FrameCount).Int("frames", len(energies)).
				Msg("sequence length adjusted to audio")
		}
		pl.labels = labels
		pl.seq = director.NewSequence(labels, cfg.FPS, seq.Thresholds)
		p.Log.Info().Str("path", path).Msg("using sequence file")
	} else {
		d := director.NewDirector(cfg.FPS, cache.Mouths.Available())
		pl.seq = d.GenerateSequence(energies)
		pl.labels = pl.seq.Labels()
	}

	p.Log.Info().Int("frames", len(pl.labels)).Int("fps", cfg.FPS).
		Float64("t1", pl.seq.Thresholds.T1).Float64("t2", pl.seq.Thresholds.T2).Float64("t3", pl.seq.Thresholds.T3).
		Msg("mouth sequence ready")
	return pl, nil
}

// resolveSequence accepts a sequence file or a directory, in which case the
// newest sequence inside it is used.
func resolveSequence(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return director.FindLatestSequence(path)
	}
	return path, nil
}

// loadAudio returns nil and an empty path when no usable audio exists; the
// extractor then produces the fallback animation.
func (p *LipSyncProject) loadAudio(ctx context.Context) (*audio.Waveform, string) {
	path := p.Config.AudioPath
	if path != "" {
		if _, err := os.Stat(path); err != nil && p.Config.AudioDir != "" {
			p.Log.Debug().Err(err).Str("path", path).Msg("audio file not found, searching audio directory")
			path = ""
		}
	}
	if path == "" && p.Config.AudioDir != "" {
		latest, err := system.FindLatestAudio(p.Config.AudioDir)
		if err != nil {
			p.Log.Debug().Err(err).Str("dir", p.Config.AudioDir).Msg("no audio in audio directory")
		}
		path = latest
	}
	if path == "" {
		p.Log.Warn().Float64("seconds", p.Config.FallbackDuration).Msg("no audio found, using closed-mouth fallback")
		return nil, ""
	}

	wave, err := p.Audio.Load(ctx, path)
	if err != nil {
		p.Log.Warn().Err(err).Str("path", path).Float64("seconds", p.Config.FallbackDuration).
			Msg("audio not loaded, using closed-mouth fallback")
		return nil, ""
	}
	p.Log.Info().Str("path", path).Int("sample_rate", wave.SampleRate).
		Float64("duration", wave.Duration()).Msg("audio loaded")
	return wave, path
}

func (p *LipSyncProject) Run(ctx context.Context) (*Report, error) {
	cfg := p.Config
	start := time.Now()

	pl, err := p.prepare(ctx)
	if err != nil {
		return nil, err
	}
	if len(pl.labels) == 0 {
		return nil, ErrNoFrames
	}
	report := &Report{
		Frames:    len(pl.labels),
		FPS:       cfg.FPS,
		AudioPath: pl.audioPath,
		Sequence:  pl.seq,
		VideoPath: cfg.OutputVideo,
		LoadTime:  time.Since(start),
	}

	if cfg.SequenceOutput != "" {
		path := cfg.SequenceOutput
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = director.GenerateSequencePath(path)
		}
		if err := director.WriteSequence(pl.seq, path); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		report.SequencePath = path
		p.Log.Info().Str("path", path).Msg("sequence saved")
	}

	comp := renderer.NewCompositor(pl.cache, image.Pt(cfg.MouthPosition.X, cfg.MouthPosition.Y))
	params := config.EncodeParams{
		Width:        comp.Width,
		Height:       comp.Height,
		FPS:          cfg.FPS,
		VideoEncoder: cfg.VideoEncoder,
		Quality:      cfg.Quality,
		OutputWidth:  cfg.OutputWidth,
		Debug:        cfg.Debug,
	}
	if p.Effect != nil {
		params.Filter = p.Effect.GenerateFilter(params)
	}

	if err := ensureDir(cfg.OutputVideo); err != nil {
		return nil, err
	}
	w, err := p.Encoder.Open(ctx, cfg.OutputVideo, params)
	if err != nil {
		return nil, fmt.Errorf("engine: open encoder: %w", err)
	}

	renderStart := time.Now()
	skipped, err := p.renderFrames(ctx, comp, pl.labels, w)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("engine: encode %s: %w", cfg.OutputVideo, err)
	}
	report.RenderTime = time.Since(renderStart)
	report.SkippedOverlays = skipped
	if skipped > 0 {
		p.Log.Warn().Int("frames", skipped).Int("x", cfg.MouthPosition.X).Int("y", cfg.MouthPosition.Y).
			Msg("mouth overlay outside the canvas, skipped")
	}
	p.Log.Info().Str("path", cfg.OutputVideo).Int("frames", report.Frames).Msg("video written")

	if pl.audioPath != "" && cfg.FinalOutput != "" {
		muxStart := time.Now()
		if err := ensureDir(cfg.FinalOutput); err != nil {
			return nil, err
		}
		if err := p.Encoder.Mux(ctx, cfg.OutputVideo, pl.audioPath, cfg.FinalOutput); err != nil {
			return nil, fmt.Errorf("engine: mux: %w", err)
		}
		report.MuxTime = time.Since(muxStart)
		report.FinalPath = cfg.FinalOutput
		p.Log.Info().Str("path", cfg.FinalOutput).Msg("final video written")
	} else {
		p.Log.Warn().Msg("no audio, final output not written")
	}

	report.Total = time.Since(start)
	if cfg.ShowStats {
		if err := p.appendBenchmark(report); err != nil {
			p.Log.Warn().Err(err).Str("path", p.BenchmarkLog).Msg("benchmark log not written")
		}
	}
	return report, nil
}

// renderFrames renders labels in batches and writes them in order. Within a
// batch frames render in parallel; the writer sees them sequentially.
func (p *LipSyncProject) renderFrames(ctx context.Context, comp *renderer.Compositor, labels []viseme.Label, w video.FrameWriter) (int, error) {
	n := len(labels)
	workers := p.Config.Workers
	if workers < 1 {
		workers = 1
	}
	var available uint64
	if p.Memory != nil {
		available = p.Memory()
	}
	batch := system.FrameBatchSize(comp.Width*comp.Height*3, n, workers, available)
	p.Log.Debug().Int("batch", batch).Int("workers", workers).Uint64("available", available).Msg("render plan")

	var skipped atomic.Int64
	frames := make([]*renderer.Frame, batch)
	release := func() {
		for i, f := range frames {
			f.Release()
			frames[i] = nil
		}
	}

	for lo := 0; lo < n; lo += batch {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		hi := min(lo+batch, n)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				f := renderer.NewFrame(comp.Width, comp.Height)
				if !comp.RenderInto(f, labels[i]) {
					skipped.Add(1)
				}
				frames[i-lo] = f
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			release()
			return 0, err
		}

		for j := 0; j < hi-lo; j++ {
			if err := w.WriteFrame(frames[j].Pix); err != nil {
				release()
				return 0, fmt.Errorf("engine: frame %d: %w", lo+j, err)
			}
			frames[j].Release()
			frames[j] = nil
		}
		p.Log.Info().Msgf("[>] Ready: %d/%d", hi, n)
	}
	return int(skipped.Load()), nil
}

// Snapshot renders the frame shown at t seconds into a PNG at path.
func (p *LipSyncProject) Snapshot(ctx context.Context, t float64, path string) error {
	if t < 0 {
		return fmt.Errorf("engine: negative snapshot time %v", t)
	}
	pl, err := p.prepare(ctx)
	if err != nil {
		return err
	}
	if len(pl.labels) == 0 {
		return ErrNoFrames
	}

	idx := int(t * float64(p.Config.FPS))
	if idx >= len(pl.labels) {
		idx = len(pl.labels) - 1
	}

	comp := renderer.NewCompositor(pl.cache, image.Pt(p.Config.MouthPosition.X, p.Config.MouthPosition.Y))
	frame := comp.Render(pl.labels[idx])
	defer frame.Release()

	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("engine: encode snapshot: %w", err)
	}
	p.Log.Info().Str("path", path).Int("frame", idx).Str("label", pl.labels[idx].String()).Msg("snapshot saved")
	return f.Close()
}

func (p *LipSyncProject) appendBenchmark(r *Report) error {
	fps := 0.0
	if r.Total > 0 {
		fps = float64(r.Frames) / r.Total.Seconds()
	}
	audioName := "-"
	if r.AudioPath != "" {
		audioName = filepath.Base(r.AudioPath)
	}
	entry := fmt.Sprintf("[%s] Build: %s | Audio: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Mux: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		audioName,
		r.Frames,
		r.Total.Seconds(),
		r.RenderTime.Seconds(),
		r.MuxTime.Seconds(),
		fps,
	)

	f, err := os.OpenFile(p.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("engine: create %s: %w", dir, err)
	}
	return nil
}
