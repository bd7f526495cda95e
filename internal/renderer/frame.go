package renderer

import (
	"image"
	"image/color"

	"github.com/ivlev/lipsync2video/internal/system"
)

// Frame is a packed RGB24 image, the pixel layout the encoder reads from
// stdin.
type Frame struct {
	Width, Height int
	Pix           []byte
}

// NewFrame allocates a w×h frame from the shared buffer pool. Call Release
// once the frame has been written.
func NewFrame(w, h int) *Frame {
	return &Frame{Width: w, Height: h, Pix: system.GetBuffer(w * h * 3)}
}

// Release returns the pixel buffer to the pool. The frame must not be used
// afterwards.
func (f *Frame) Release() {
	if f == nil || f.Pix == nil {
		return
	}
	system.PutBuffer(f.Pix)
	f.Pix = nil
}

func (f *Frame) ColorModel() color.Model { return color.RGBAModel }

func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

func (f *Frame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.RGBA{}
	}
	i := (y*f.Width + x) * 3
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 0xff}
}

