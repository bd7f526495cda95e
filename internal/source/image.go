package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSource serves a single raster file as a one-page source.
type ImageSource struct {
	path string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("source: %s is a directory", path)
	}
	return &ImageSource{path: path}, nil
}

func (s *ImageSource) PageCount() int {
	return 1
}

// RenderPage decodes the file; dpi is ignored for raster input.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index != 0 {
		return nil, fmt.Errorf("source: page %d out of range", index)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", s.path, err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
