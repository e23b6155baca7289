package raster

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"tileproof/internal/domain"
)

// Apply runs one transformation over the raster and returns the result as a
// new raster. Parameter presence is validated here; range rules belong to the
// proof generator.
func Apply(r *Raster, spec domain.TransformationSpec) (*Raster, error) {
	switch spec.Kind {
	case domain.KindCrop:
		if spec.Crop == nil {
			return nil, fmt.Errorf("crop: %w", domain.ErrEmptyRegion)
		}
		clamped := clampRect(spec.Crop.Region, r.Width, r.Height)
		if clamped.Empty() {
			return nil, fmt.Errorf("crop: %w", domain.ErrEmptyRegion)
		}
		rect := image.Rect(clamped.X, clamped.Y, clamped.X+clamped.Width, clamped.Y+clamped.Height)
		return FromImage(imaging.Crop(r.ToImage(), rect)), nil

	case domain.KindResize:
		if spec.Resize == nil || spec.Resize.Width <= 0 || spec.Resize.Height <= 0 {
			return nil, fmt.Errorf("resize: %w", domain.ErrInvalidDimensions)
		}
		return FromImage(imaging.Resize(r.ToImage(), spec.Resize.Width, spec.Resize.Height, imaging.Lanczos)), nil

	case domain.KindGrayscale:
		return FromImage(imaging.Grayscale(r.ToImage())), nil

	case domain.KindBlur:
		if spec.Blur == nil || spec.Blur.Sigma <= 0 {
			return nil, fmt.Errorf("blur: sigma must be positive")
		}
		return FromImage(imaging.Blur(r.ToImage(), spec.Blur.Sigma)), nil

	case domain.KindBrightness:
		if spec.Adjust == nil {
			return nil, fmt.Errorf("brightness: adjustment factor required")
		}
		return adjust(r, func(c float64) float64 { return c * spec.Adjust.Factor }), nil

	case domain.KindContrast:
		if spec.Adjust == nil {
			return nil, fmt.Errorf("contrast: adjustment factor required")
		}
		return adjust(r, func(c float64) float64 { return (c-128)*spec.Adjust.Factor + 128 }), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedTransformation, spec.Kind)
}

func adjust(r *Raster, fn func(float64) float64) *Raster {
	out := r.Clone()
	for i, b := range out.Pix {
		out.Pix[i] = clampByte(fn(float64(b)))
	}
	return out
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

// BlurRegion blurs rect in place semantics: it returns a copy with only the
// region blurred.
func BlurRegion(r *Raster, rect domain.Rect, sigma float64) (*Raster, error) {
	clamped := clampRect(rect, r.Width, r.Height)
	if clamped.Empty() {
		return nil, domain.ErrEmptyRegion
	}
	if sigma <= 0 {
		sigma = 8
	}
	img := r.ToImage()
	sub := imaging.Crop(img, image.Rect(clamped.X, clamped.Y, clamped.X+clamped.Width, clamped.Y+clamped.Height))
	blurred := imaging.Blur(sub, sigma)
	return FromImage(imaging.Paste(img, blurred, image.Pt(clamped.X, clamped.Y))), nil
}

// FillRegion paints rect with a solid color, returning a copy.
func FillRegion(r *Raster, rect domain.Rect, rgb [3]byte) (*Raster, error) {
	clamped := clampRect(rect, r.Width, r.Height)
	if clamped.Empty() {
		return nil, domain.ErrEmptyRegion
	}
	out := r.Clone()
	for y := clamped.Y; y < clamped.Y+clamped.Height; y++ {
		for x := clamped.X; x < clamped.X+clamped.Width; x++ {
			off := (y*out.Width + x) * 3
			out.Pix[off] = rgb[0]
			out.Pix[off+1] = rgb[1]
			out.Pix[off+2] = rgb[2]
		}
	}
	return out, nil
}
