package assets

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ivlev/lipsync2video/internal/source"
)

// BackgroundRemover makes the backdrop of a character image transparent.
type BackgroundRemover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// NewRemover selects a remover by name: colorkey, command or none.
func NewRemover(name string, tolerance float64, command []string) (BackgroundRemover, error) {
	switch name {
	case "colorkey", "":
		return &ColorKeyRemover{Tolerance: tolerance}, nil
	case "command":
		if len(command) == 0 {
			return nil, fmt.Errorf("command remover needs a command line")
		}
		return &CommandRemover{Args: command}, nil
	case "none":
		return NopRemover{}, nil
	default:
		return nil, fmt.Errorf("unknown background removal: %s", name)
	}
}

// NopRemover returns the image unchanged.
type NopRemover struct{}

func (NopRemover) Remove(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}

// ColorKeyRemover treats the colour of the top-left pixel as the backdrop and
// clears every pixel within Tolerance (Euclidean distance in 8-bit RGB) of
// it. Images that already have transparent pixels are returned unchanged.
type ColorKeyRemover struct {
	Tolerance float64
}

func (r *ColorKeyRemover) Remove(_ context.Context, img image.Image) (image.Image, error) {
	if HasTransparency(img) {
		return img, nil
	}
	out := ToNRGBA(img)
	if len(out.Pix) == 0 {
		return out, nil
	}

	kr, kg, kb := float64(out.Pix[0]), float64(out.Pix[1]), float64(out.Pix[2])
	for i := 0; i < len(out.Pix); i += 4 {
		dr := float64(out.Pix[i]) - kr
		dg := float64(out.Pix[i+1]) - kg
		db := float64(out.Pix[i+2]) - kb
		if math.Sqrt(dr*dr+dg*dg+db*db) <= r.Tolerance {
			out.Pix[i+3] = 0
		} else {
			out.Pix[i+3] = 0xff
		}
	}
	return out, nil
}

// CommandRemover shells out to an external matting tool such as
// `rembg i {in} {out}`. {in} is replaced by a PNG of the input image and
// {out} by the path the tool must write its RGBA result to.
type CommandRemover struct {
	Args []string
}

func (r *CommandRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	tmp, err := os.MkdirTemp("", "lipsync2video_matte_")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	in := filepath.Join(tmp, "in.png")
	out := filepath.Join(tmp, "out.png")

	f, err := os.Create(in)
	if err != nil {
		return nil, err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode matte input: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		a = strings.ReplaceAll(a, "{in}", in)
		args[i] = strings.ReplaceAll(a, "{out}", out)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("background removal %s: %w, output: %s", args[0], err, string(output))
	}

	return source.LoadImage(out, 0)
}
