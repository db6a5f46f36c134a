// Package images downloads, scores, resizes and stages listing photos
// for publishing. Scoring and geometry are pure functions; the Pipeline
// type drives the concurrent download-and-stage flow.
package images

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Platform geometry constants. Instagram accepts aspect ratios from 4:5
// portrait up to 1.91:1 landscape; Facebook multi-photo posts render
// best as squares.
const (
	TargetWidth       = 1080
	InstagramMinRatio = 0.8
	InstagramMaxRatio = 1.91
)

// Score rates an image's suitability for posting from its pixel
// dimensions alone. The resolution term rewards area up to twice the
// nominal 1080x1080 platform area and then caps, so one oversized photo
// cannot dominate the ranking on megapixels alone. Aspect ratios
// outside [0.75, 2.0] are halved, not zeroed: an extreme panorama can
// still win if its resolution advantage is large enough.
func Score(width, height int) float64 {
	resolution := math.Min(float64(width*height)/(TargetWidth*TargetWidth), 2.0)
	aspect := float64(width) / float64(height)
	aspectScore := 1.0
	if aspect < 0.75 || aspect > 2.0 {
		aspectScore = 0.5
	}
	return resolution * aspectScore
}

// CropToRatio center-crops along whichever axis exceeds the target
// ratio. An image already at the target ratio is returned with its
// dimensions untouched. Offsets use integer floor division, keeping the
// crop window centered within one pixel.
func CropToRatio(img image.Image, target float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	aspect := float64(w) / float64(h)

	switch {
	case aspect > target:
		newW := int(float64(h) * target)
		left := (w - newW) / 2
		return imaging.Crop(img, image.Rect(b.Min.X+left, b.Min.Y, b.Min.X+left+newW, b.Max.Y))
	case aspect < target:
		newH := int(float64(w) / target)
		top := (h - newH) / 2
		return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+top+newH))
	default:
		return img
	}
}

// ResizeForPlatform produces the final post geometry for one platform.
// Instagram keeps the original shape where possible, cropping only when
// the aspect ratio falls outside the allowed range, then scales to
// 1080px wide. Facebook is always an exact 1080x1080 square.
// Platform names are matched case-insensitively; anything else returns
// an UnsupportedPlatformError.
func ResizeForPlatform(img image.Image, platform string) (image.Image, error) {
	switch normalizePlatform(platform) {
	case "instagram":
		b := img.Bounds()
		aspect := float64(b.Dx()) / float64(b.Dy())
		if aspect > InstagramMaxRatio {
			img = CropToRatio(img, InstagramMaxRatio)
		} else if aspect < InstagramMinRatio {
			img = CropToRatio(img, InstagramMinRatio)
		}
		b = img.Bounds()
		newH := int(math.Round(TargetWidth * float64(b.Dy()) / float64(b.Dx())))
		return imaging.Resize(img, TargetWidth, newH, imaging.Lanczos), nil

	case "facebook":
		img = CropToRatio(img, 1.0)
		return imaging.Resize(img, TargetWidth, TargetWidth, imaging.Lanczos), nil

	default:
		return nil, &UnsupportedPlatformError{Platform: platform}
	}
}
