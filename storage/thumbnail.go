package storage

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	thumbMaxWidth  = 400
	thumbMaxHeight = 400
	thumbQuality   = 80

	// maxDecodePixels bounds the images decoded for a thumbnail. Decoding
	// allocates the full bitmap, so larger images are stored without one.
	maxDecodePixels = 50_000_000
)

type thumbnail struct {
	data          []byte
	width, height int
}

// makeThumbnail decodes a raster image and encodes a JPEG preview that fits
// within thumbMaxWidth×thumbMaxHeight. width and height are the original
// image's dimensions. ok is false for formats that cannot be decoded and for
// images above maxDecodePixels.
func makeThumbnail(data []byte) (thumbnail, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return thumbnail{}, false
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxDecodePixels {
		return thumbnail{}, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return thumbnail{}, false
	}

	bounds := img.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resizeToFit(img, thumbMaxWidth, thumbMaxHeight), &jpeg.Options{Quality: thumbQuality}); err != nil {
		return thumbnail{}, false
	}
	return thumbnail{data: buf.Bytes(), width: bounds.Dx(), height: bounds.Dy()}, true
}

// resizeToFit scales img to fit within maxW×maxH preserving aspect ratio.
// Images that already fit are returned unchanged.
func resizeToFit(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW <= maxW && origH <= maxH {
		return img
	}

	scale := float64(maxW) / float64(origW)
	if s := float64(maxH) / float64(origH); s < scale {
		scale = s
	}

	newW := max(int(float64(origW)*scale), 1)
	newH := max(int(float64(origH)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
