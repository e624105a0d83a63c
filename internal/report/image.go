package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// fitImage decodes raw image bytes and scales them down to fit within the
// maxW x maxH footprint, preserving aspect ratio. Images already inside the
// footprint keep their size. The result is re-encoded as PNG for embedding.
func fitImage(raw []byte, maxW, maxH float64) (pngBytes []byte, w, h float64, err error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w = float64(bounds.Dx())
	h = float64(bounds.Dy())
	if w <= 0 || h <= 0 {
		return nil, 0, 0, fmt.Errorf("decode image: empty bounds")
	}

	scale := 1.0
	if w > maxW {
		scale = maxW / w
	}
	if h*scale > maxH {
		scale = maxH / h
	}

	if scale < 1.0 {
		dstW := int(w * scale)
		dstH := int(h * scale)
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = float64(dstW)
		h = float64(dstH)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), w, h, nil
}
