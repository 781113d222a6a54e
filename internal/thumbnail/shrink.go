package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// Shrink re-encodes data with the lossy codec until it fits in MaxBytes.
// Each round scales both sides by Scale, resampling from the decoded
// original. Once either side would fall below MinDimension the last
// encoding is returned even if it is still too large. Both sides shrink
// by at least one pixel per round, so the loop always ends.
func (n *Normalizer) Shrink(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	flat := flatten(src)
	w, h := flat.Bounds().Dx(), flat.Bounds().Dy()
	slog.Debug("thumbnail: shrinking", "format", format, "width", w, "height", h, "bytes", len(data))

	var img image.Image = flat
	for round := 1; ; round++ {
		var buf bytes.Buffer
		if err := n.encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode %s: %w", n.format, err)
		}
		if buf.Len() <= n.maxBytes {
			slog.Debug("thumbnail: fits", "round", round, "width", w, "height", h, "bytes", buf.Len())
			return buf.Bytes(), nil
		}
		nw, nh := int(float64(w)*n.scale), int(float64(h)*n.scale)
		if nw < n.minDim || nh < n.minDim {
			slog.Warn("thumbnail: size floor reached over budget",
				"width", w, "height", h, "bytes", buf.Len(), "max_bytes", n.maxBytes)
			return buf.Bytes(), nil
		}
		w, h = nw, nh
		img = resize(flat, w, h)
	}
}

func (n *Normalizer) encode(w io.Writer, img image.Image) error {
	if n.format == FormatWebP {
		return webp.Encode(w, img, &webp.Options{Quality: float32(n.quality)})
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: n.quality})
}

// flatten draws src onto an opaque white RGB canvas anchored at the origin,
// dropping alpha.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
