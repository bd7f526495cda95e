// Package assets loads and normalizes the character, background and mouth
// images once per run.
package assets

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Layer is a normalized image plus whether its source carried transparency.
type Layer struct {
	Image    *image.NRGBA
	HasAlpha bool
}

func (l Layer) Size() (int, int) {
	if l.Image == nil {
		return 0, 0
	}
	return l.Image.Rect.Dx(), l.Image.Rect.Dy()
}

// ToNRGBA copies img into a zero-origin, non-premultiplied RGBA image.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		out := image.NewNRGBA(b)
		copy(out.Pix, n.Pix)
		return out
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}

// HasTransparency reports whether any pixel of img is not fully opaque.
// Images that can express alpha but never use it, such as an RGB PNG
// decoded into *image.RGBA, report false.
func HasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// Resize scales img to exactly w×h with Catmull-Rom resampling.
func Resize(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// ResizeToWidth scales img so its width is width, preserving aspect ratio.
func ResizeToWidth(img *image.NRGBA, width int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 {
		return img
	}
	nh := h * width / w
	if nh < 1 {
		nh = 1
	}
	return Resize(img, width, nh)
}

// dropAlpha marks every pixel opaque, keeping the stored colour values.
func dropAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}

// SolidCanvas returns an opaque w×h image filled with c.
func SolidCanvas(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 0xff
	}
	return img
}
