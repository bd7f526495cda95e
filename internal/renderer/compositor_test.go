package renderer

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/lipsync2video/internal/assets"
	"github.com/ivlev/lipsync2video/internal/viseme"
)

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// rgbAt returns the colour bytes of f at (x, y).
func rgbAt(f *Frame, x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func testCache(charAlpha uint8) *assets.Cache {
	character := fill(8, 6, color.NRGBA{R: 200, B: 50, A: charAlpha})
	mouths := assets.NewMouths()
	mouths.Set(viseme.WideOpen, fill(2, 2, color.NRGBA{G: 255, A: 255}))
	mouths.Set(viseme.Closed, fill(3, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 0}))
	return &assets.Cache{
		Character:  assets.Layer{Image: character, HasAlpha: true},
		Background: fill(8, 6, color.NRGBA{R: 100, G: 100, B: 100, A: 255}),
		Mouths:     mouths,
	}
}

func TestCharacterBlendTruncates(t *testing.T) {
	c := NewCompositor(testCache(128), image.Pt(0, 0))
	f := c.Render(viseme.SmallOpen) // no image for E
	defer f.Release()

	r, g, b := rgbAt(f, 5, 5)
	assert.Equal(t, uint8(150), r)
	assert.Equal(t, uint8(49), g)
	assert.Equal(t, uint8(74), b)
}

func TestOpaqueCharacterIsPasted(t *testing.T) {
	cache := testCache(255)
	cache.Character.HasAlpha = false
	c := NewCompositor(cache, image.Pt(0, 0))
	f := c.Render(viseme.SmallOpen)
	defer f.Release()

	r, g, b := rgbAt(f, 0, 0)
	assert.Equal(t, []uint8{200, 0, 50}, []uint8{r, g, b})
}

func TestTransparentCharacterShowsBackground(t *testing.T) {
	c := NewCompositor(testCache(0), image.Pt(0, 0))
	f := c.Render(viseme.SmallOpen)
	defer f.Release()

	for i := 0; i < len(f.Pix); i++ {
		require.Equal(t, uint8(100), f.Pix[i])
	}
}

func TestMouthOverlayAtAnchor(t *testing.T) {
	c := NewCompositor(testCache(0), image.Pt(3, 2))
	f := c.Render(viseme.WideOpen)
	defer f.Release()

	r, g, b := rgbAt(f, 3, 2)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{r, g, b})
	r, g, b = rgbAt(f, 4, 3)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{r, g, b})

	r, g, b = rgbAt(f, 5, 2)
	assert.Equal(t, []uint8{100, 100, 100}, []uint8{r, g, b})
	r, g, b = rgbAt(f, 2, 2)
	assert.Equal(t, []uint8{100, 100, 100}, []uint8{r, g, b})
}

func TestTransparentMouthLeavesFrame(t *testing.T) {
	c := NewCompositor(testCache(128), image.Pt(1, 1))
	closed := c.Render(viseme.Closed)
	defer closed.Release()
	none := c.Render(viseme.SmallOpen)
	defer none.Release()

	assert.True(t, bytes.Equal(closed.Pix, none.Pix))
}

func TestOutOfBoundsOverlayIsSkipped(t *testing.T) {
	anchors := []image.Point{{7, 0}, {0, 5}, {-1, 0}, {0, -1}, {100, 100}}
	for _, a := range anchors {
		c := NewCompositor(testCache(128), a)
		f := NewFrame(c.Width, c.Height)
		fitted := c.RenderInto(f, viseme.WideOpen)
		assert.False(t, fitted, "anchor %v", a)

		plain := c.Render(viseme.SmallOpen)
		assert.True(t, bytes.Equal(plain.Pix, f.Pix), "anchor %v", a)
		plain.Release()
		f.Release()
	}
}

func TestEdgeAnchorFits(t *testing.T) {
	c := NewCompositor(testCache(0), image.Pt(6, 4))
	f := NewFrame(c.Width, c.Height)
	defer f.Release()

	assert.True(t, c.RenderInto(f, viseme.WideOpen))
	r, g, b := rgbAt(f, 7, 5)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{r, g, b})
}

func TestRenderIsDeterministicAndOverwrites(t *testing.T) {
	c := NewCompositor(testCache(77), image.Pt(2, 2))
	first := c.Render(viseme.WideOpen)
	defer first.Release()

	dst := &Frame{Width: c.Width, Height: c.Height, Pix: bytes.Repeat([]byte{0xab}, c.Width*c.Height*3)}
	c.RenderInto(dst, viseme.WideOpen)
	assert.True(t, bytes.Equal(first.Pix, dst.Pix))
}

func TestFrameImplementsImage(t *testing.T) {
	c := NewCompositor(testCache(0), image.Pt(0, 0))
	var img image.Image = c.Render(viseme.SmallOpen)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, img.At(1, 1))
	assert.Equal(t, color.RGBA{}, img.At(-1, 0))
}
