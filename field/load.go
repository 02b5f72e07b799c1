package field

import (
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"

	"golang.org/x/image/draw"
)

// LoadPNG decodes a PNG raster. Images wider or taller than maxSize are
// downsampled (aspect preserved); maxSize <= 0 disables the limit.
func LoadPNG(path string, uRange, vRange [2]float64, maxSize int) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raster: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding raster %s: %w", path, err)
	}

	r := FromImage(img, uRange, vRange, maxSize)
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("loading raster %s: %w", path, err)
	}

	slog.Info("loaded vector field raster",
		"path", path,
		"width", r.Width,
		"height", r.Height,
		"source_width", img.Bounds().Dx(),
		"source_height", img.Bounds().Dy(),
	)
	return r, nil
}

// FromImage converts any image into a raster, downsampling to maxSize.
func FromImage(img image.Image, uRange, vRange [2]float64, maxSize int) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}

	r := New(w, h, uRange, vRange)
	for i := range r.Data {
		r.Data[i] = float32(dst.Pix[i]) / 255
	}
	return r
}

// ToImage encodes the raster into an 8-bit NRGBA image.
func (r *Raster) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, c := range r.Data {
		img.Pix[i] = uint8(clamp01(c)*255 + 0.5)
	}
	return img
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
