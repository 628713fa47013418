package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/spaghettifunk/anima2d/engine/core"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes a png, jpeg, bmp, tiff or webp file into tightly packed RGBA8.
func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func DecodeImage(r io.Reader) (*image.RGBA, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %v: %w", err, core.ErrInvalidImage)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("empty %s image: %w", format, core.ErrInvalidImage)
	}
	core.LogDebug("decoded %s image %dx%d", format, bounds.Dx(), bounds.Dy())
	return ToRGBA(src), nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin with
// Stride == 4*width, copying only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) && rgba.Stride == 4*bounds.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
