package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var jpegQualities = []int{85, 75, 65, 55, 45, 35}

// DefaultMaxPixels applies when no pixel budget is configured.
const DefaultMaxPixels = 40_000_000

var ErrTooManyPixels = errors.New("image dimensions exceed the pixel budget")

// Compress re-encodes an image as JPEG whose long edge is at most maxDim and,
// when reachable, whose size is at most maxBytes. If the quality ladder cannot
// reach maxBytes the image is shrunk further; the smallest attempt is returned.
// Images declaring more than maxPixels are refused before being decoded.
func Compress(data []byte, maxDim, maxBytes, maxPixels int) ([]byte, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxPixels/cfg.Height {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := fit(src, maxDim)
	var best []byte
	for attempt := 0; attempt < 4; attempt++ {
		for _, q := range jpegQualities {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
				return nil, fmt.Errorf("failed to encode jpeg: %w", err)
			}
			if best == nil || buf.Len() < len(best) {
				best = buf.Bytes()
			}
			if maxBytes <= 0 || buf.Len() <= maxBytes {
				return buf.Bytes(), nil
			}
		}
		b := img.Bounds()
		img = fit(img, max(b.Dx(), b.Dy())*3/4)
	}
	return best, nil
}

// fit scales src down so neither side exceeds maxDim. Smaller images are returned as is.
func fit(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
