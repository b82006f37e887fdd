package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// Registers the GIF decoder with image.Decode.
	_ "image/gif"

	"golang.org/x/image/draw"
)

const jpegQuality = 85

// Resize decodes data, applies v and re-encodes it. PNG input stays PNG,
// everything else becomes JPEG. It returns the encoded image and its
// content type.
func Resize(data []byte, v Variant) ([]byte, string, error) {
	if v.Width <= 0 {
		return nil, "", fmt.Errorf("asset: variant %q has no width", v.Name)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("asset: decoding image: %w", err)
	}

	srcRect := src.Bounds()
	width, height := v.Width, v.Height
	switch {
	case height == 0:
		height = max(1, srcRect.Dy()*width/max(1, srcRect.Dx()))
	case v.Crop:
		srcRect = centreCrop(srcRect, width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Over, nil)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", fmt.Errorf("asset: encoding PNG: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("asset: encoding JPEG: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// centreCrop returns the largest rectangle of r with aspect w:h, centred.
func centreCrop(r image.Rectangle, w, h int) image.Rectangle {
	sw, sh := r.Dx(), r.Dy()
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := r.Min.X + (sw-cw)/2
		return image.Rect(x0, r.Min.Y, x0+cw, r.Max.Y)
	}
	ch := sw * h / w
	y0 := r.Min.Y + (sh-ch)/2
	return image.Rect(r.Min.X, y0, r.Max.X, y0+ch)
}
