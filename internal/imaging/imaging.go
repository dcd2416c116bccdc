// Package imaging normalises uploaded item photos before they are handed to
// the blob store.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension bounds the longer side of a stored photo.
const DefaultMaxDimension = 1280

// MaxPixels rejects images whose header claims more pixels than this, before
// the pixel data is decoded.
const MaxPixels = 40_000_000

const jpegQuality = 82

var (
	ErrUnsupported = errors.New("unsupported image format")
	ErrTooLarge    = errors.New("image dimensions too large")
)

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Photo is an encoded photo ready for storage.
type Photo struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Process sniffs and decodes an uploaded JPEG, PNG or WebP, fits it within
// maxDim on its longer side and re-encodes it as JPEG. Transparent areas
// become white. A maxDim of zero or less means DefaultMaxDimension.
func Process(r io.Reader, maxDim int) (*Photo, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Client supplied content types are not trusted.
	if ct := http.DetectContentType(data); !accepted[ct] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img := fit(src, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// fit draws src onto a white canvas no larger than maxDim on either side,
// keeping the aspect ratio. Smaller images are not upscaled.
func fit(src image.Image, maxDim int) image.Image {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()

	if w > maxDim || h > maxDim {
		if w >= h {
			h = max(1, h*maxDim/w)
			w = maxDim
		} else {
			w = max(1, w*maxDim/h)
			h = maxDim
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}
	return dst
}
