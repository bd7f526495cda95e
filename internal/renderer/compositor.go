// Package renderer composes the background, character and mouth layers into
// RGB24 frames.
package renderer

import (
	"image"

	"github.com/ivlev/lipsync2video/internal/assets"
	"github.com/ivlev/lipsync2video/internal/viseme"
)

// Compositor renders one frame per label. The background and character
// never change between frames, so they are flattened once into base.
// Safe for concurrent use.
type Compositor struct {
	Width, Height int
	Anchor        image.Point

	mouths *assets.Mouths
	base   []byte
}

func NewCompositor(cache *assets.Cache, anchor image.Point) *Compositor {
	w, h := cache.Character.Size()
	c := &Compositor{
		Width:  w,
		Height: h,
		Anchor: anchor,
		mouths: cache.Mouths,
		base:   make([]byte, w*h*3),
	}
	c.flatten(cache.Background, cache.Character)
	return c
}

func (c *Compositor) flatten(bg *image.NRGBA, character assets.Layer) {
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			d := (y*c.Width + x) * 3
			if bg != nil && x < bg.Rect.Dx() && y < bg.Rect.Dy() {
				s := bg.PixOffset(bg.Rect.Min.X+x, bg.Rect.Min.Y+y)
				copy(c.base[d:d+3], bg.Pix[s:s+3])
			} else {
				c.base[d], c.base[d+1], c.base[d+2] = 0xff, 0xff, 0xff
			}
		}
	}

	img := character.Image
	if img == nil {
		return
	}
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			s := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			d := (y*c.Width + x) * 3
			if character.HasAlpha {
				blend(c.base[d:d+3], img.Pix[s:s+4])
			} else {
				copy(c.base[d:d+3], img.Pix[s:s+3])
			}
		}
	}
}

// blend writes a*fg + (1-a)*dst into dst, a = alpha/255, truncating.
func blend(dst, fg []byte) {
	if fg[3] == 0xff {
		dst[0], dst[1], dst[2] = fg[0], fg[1], fg[2]
		return
	}
	if fg[3] == 0 {
		return
	}
	a := float64(fg[3]) / 255.0
	na := 1.0 - a
	dst[0] = uint8(a*float64(fg[0]) + na*float64(dst[0]))
	dst[1] = uint8(a*float64(fg[1]) + na*float64(dst[1]))
	dst[2] = uint8(a*float64(fg[2]) + na*float64(dst[2]))
}

// Render allocates a frame and draws label into it.
func (c *Compositor) Render(label viseme.Label) *Frame {
	f := NewFrame(c.Width, c.Height)
	c.RenderInto(f, label)
	return f
}

// RenderInto overwrites every byte of dst with the frame for label. It
// reports false when the mouth box does not fit on the canvas and the
// overlay was skipped. A label without a mouth image is not a skip.
func (c *Compositor) RenderInto(dst *Frame, label viseme.Label) bool {
	copy(dst.Pix, c.base)

	mouth, ok := c.mouths.Get(label)
	if !ok {
		return true
	}
	if !c.Fits(mouth.Rect.Size()) {
		return false
	}

	mw, mh := mouth.Rect.Dx(), mouth.Rect.Dy()
	for y := 0; y < mh; y++ {
		for x := 0; x < mw; x++ {
			s := mouth.PixOffset(mouth.Rect.Min.X+x, mouth.Rect.Min.Y+y)
			d := ((c.Anchor.Y+y)*c.Width + c.Anchor.X + x) * 3
			blend(dst.Pix[d:d+3], mouth.Pix[s:s+4])
		}
	}
	return true
}

// Fits reports whether a box of size sz placed at the anchor stays inside
// the canvas.
func (c *Compositor) Fits(sz image.Point) bool {
	x, y := c.Anchor.X, c.Anchor.Y
	return x >= 0 && y >= 0 && x+sz.X <= c.Width && y+sz.Y <= c.Height
}
