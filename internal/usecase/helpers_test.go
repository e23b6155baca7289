package usecase

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/raster"
	"tileproof/internal/infra/tiles"
)

func testEngine(t *testing.T) *tiles.Engine {
	t.Helper()
	engine, err := tiles.NewEngine(config.Default(), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

// gradientPNG renders a deterministic gradient; every tile hashes differently.
func gradientPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: byte(x * 3), G: byte(y * 5), B: byte(x ^ y), A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// transformPNG applies spec to originalBytes and re-encodes, standing in for
// the untrusted client-side edit.
func transformPNG(t *testing.T, originalBytes []byte, spec domain.TransformationSpec) []byte {
	t.Helper()
	r, err := raster.Decode(originalBytes)
	if err != nil {
		t.Fatalf("decode original: %v", err)
	}
	out, err := raster.Apply(r, spec)
	if err != nil {
		t.Fatalf("apply %s: %v", spec.Kind, err)
	}
	encoded, err := out.EncodePNG()
	if err != nil {
		t.Fatalf("encode transformed: %v", err)
	}
	return encoded
}
