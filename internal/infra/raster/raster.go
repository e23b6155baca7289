package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"

	"tileproof/internal/domain"
)

// Raster is a decoded image flattened to 3 channels, row-major RGB bytes.
// The alpha channel is composited onto white during decode; the commitment
// pipeline only ever sees these bytes.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// Decode parses PNG, JPEG, GIF or WebP bytes into a flattened raster.
func Decode(imageBytes []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return FromImage(img), nil
}

// FromImage flattens any image onto a white background.
func FromImage(img image.Image) *Raster {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	out := &Raster{Width: width, Height: height, Pix: make([]byte, width*height*3)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := nrgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r := nrgba.Pix[src]
			g := nrgba.Pix[src+1]
			b := nrgba.Pix[src+2]
			a := int(nrgba.Pix[src+3])

			dst := (y*width + x) * 3
			out.Pix[dst] = flatten(r, a)
			out.Pix[dst+1] = flatten(g, a)
			out.Pix[dst+2] = flatten(b, a)
		}
	}
	return out
}

func flatten(channel byte, alpha int) byte {
	return byte((int(channel)*alpha + 255*(255-alpha)) / 255)
}

// ToImage rebuilds an opaque NRGBA image for the transform appliers.
func (r *Raster) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			src := (y*r.Width + x) * 3
			dst := img.PixOffset(x, y)
			img.Pix[dst] = r.Pix[src]
			img.Pix[dst+1] = r.Pix[src+1]
			img.Pix[dst+2] = r.Pix[src+2]
			img.Pix[dst+3] = 255
		}
	}
	return img
}

// Tile extracts the pixel bytes of tile (tileX, tileY); edge tiles are
// truncated at the image bounds.
func (r *Raster) Tile(tileX, tileY, tileSize int) []byte {
	startX := tileX * tileSize
	startY := tileY * tileSize
	endX := min(startX+tileSize, r.Width)
	endY := min(startY+tileSize, r.Height)
	if startX >= endX || startY >= endY {
		return nil
	}

	out := make([]byte, 0, (endX-startX)*(endY-startY)*3)
	for y := startY; y < endY; y++ {
		row := (y*r.Width + startX) * 3
		out = append(out, r.Pix[row:row+(endX-startX)*3]...)
	}
	return out
}

// SubRaster copies the pixels of rect, clamped to the image bounds.
func (r *Raster) SubRaster(rect domain.Rect) (*Raster, error) {
	clamped := clampRect(rect, r.Width, r.Height)
	if clamped.Empty() {
		return nil, domain.ErrEmptyRegion
	}
	out := &Raster{Width: clamped.Width, Height: clamped.Height, Pix: make([]byte, clamped.Width*clamped.Height*3)}
	for y := 0; y < clamped.Height; y++ {
		src := ((clamped.Y+y)*r.Width + clamped.X) * 3
		dst := y * clamped.Width * 3
		copy(out.Pix[dst:dst+clamped.Width*3], r.Pix[src:src+clamped.Width*3])
	}
	return out, nil
}

// Clone is a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]byte, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// EncodePNG serializes the raster for callers that hand bytes back out,
// e.g. the redaction service returning the redacted image.
func (r *Raster) EncodePNG() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, r.ToImage()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clampRect(rect domain.Rect, width, height int) domain.Rect {
	x0 := max(rect.X, 0)
	y0 := max(rect.Y, 0)
	x1 := min(rect.X+rect.Width, width)
	y1 := min(rect.Y+rect.Height, height)
	return domain.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
