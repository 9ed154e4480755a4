package analyzer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestDecodeRGB_Formats(t *testing.T) {
	src := uniformImage(6, 4, color.NRGBA{R: 10, G: 200, B: 90, A: 255})

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { _, err := b.Write(encodePNG(t, src)); return err },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, &jpeg.Options{Quality: 95}) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := encode(&buf); err != nil {
				t.Fatalf("encode: %v", err)
			}
			img, err := decodeRGB(buf.Bytes(), DefaultMaxPixels)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if img.width != 6 || img.height != 4 {
				t.Errorf("Expected 6x4, got %dx%d", img.width, img.height)
			}
		})
	}
}

func TestDecodeRGB_DropsAlpha(t *testing.T) {
	src := uniformImage(2, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	img, err := decodeRGB(encodePNG(t, src), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := [3]float64{img.channels[0].pix[0], img.channels[1].pix[0], img.channels[2].pix[0]}
	if got != [3]float64{200, 100, 50} {
		t.Errorf("Expected straight color [200 100 50], got %v", got)
	}
}

func TestDecodeRGB_GrayReplicated(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 1))
	src.Pix = []uint8{0, 128, 255}

	img, err := decodeRGB(encodePNG(t, src), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for c := range img.channels {
		for i, want := range []float64{0, 128, 255} {
			if img.channels[c].pix[i] != want {
				t.Errorf("channel %d pixel %d: expected %v, got %v", c, i, want, img.channels[c].pix[i])
			}
		}
	}
}

func TestDecodeRGB_PixelLimit(t *testing.T) {
	data := encodePNG(t, uniformImage(10, 10, color.NRGBA{A: 255}))

	if _, err := decodeRGB(data, 99); !IsDecodeError(err) {
		t.Errorf("Expected decode error over the limit, got %v", err)
	}
	if _, err := decodeRGB(data, 100); err != nil {
		t.Errorf("Expected image at the limit to decode, got %v", err)
	}
}

func zeroAreaBMP(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 0, 3))); err != nil {
		t.Skipf("encoder rejects zero-width images: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRGB_ZeroArea(t *testing.T) {
	_, err := decodeRGB(zeroAreaBMP(t), 0)
	if !IsEmptyImageError(err) {
		t.Fatalf("Expected empty-image error, got %v", err)
	}
	if IsDecodeError(err) {
		t.Errorf("Expected a zero-area image not to be reported as undecodable, got %v", err)
	}
}

func TestAnalyze_ZeroAreaFailureRecord(t *testing.T) {
	result := NewLesionAnalyzer(DefaultOptions()).Analyze(context.Background(), zeroAreaBMP(t))

	if result.Success {
		t.Fatal("Expected failure for zero-area image")
	}
	if result.AnalysisReport != nil {
		t.Error("Expected no report on failure")
	}
	if !strings.Contains(result.Error, "zero area") {
		t.Errorf("Expected zero-area message, got %q", result.Error)
	}
}

// transparentGIF encodes a 2x1 paletted image and marks palette index 0
// transparent with a graphic control extension
func transparentGIF(t *testing.T) []byte {
	t.Helper()
	palette := color.Palette{
		color.RGBA{R: 200, G: 100, B: 50, A: 255},
		color.RGBA{R: 10, G: 20, B: 30, A: 255},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
	src.Pix = []uint8{0, 1}

	var buf bytes.Buffer
	if err := gif.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	data := buf.Bytes()

	pos := 13
	if data[10]&0x80 != 0 {
		pos += 3 << ((data[10] & 0x07) + 1)
	}
	if data[pos] != 0x2C {
		t.Fatalf("Expected image descriptor at %d, got %#x", pos, data[pos])
	}

	gce := []byte{0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00}
	out := append([]byte{}, data[:pos]...)
	out = append(out, gce...)
	return append(out, data[pos:]...)
}

func TestDecodeRGB_GIFTransparentKeepsPaletteColor(t *testing.T) {
	data := transparentGIF(t)

	// image/gif alone loses the colour of the transparent entry
	decoded, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if _, _, _, a := decoded.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("Expected index 0 to be transparent in the fixture, alpha=%d", a)
	}

	img, err := decodeRGB(data, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := [][3]float64{{200, 100, 50}, {10, 20, 30}}
	for i, w := range want {
		got := [3]float64{img.channels[0].pix[i], img.channels[1].pix[i], img.channels[2].pix[i]}
		if got != w {
			t.Errorf("pixel %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestGIFTransparentColor(t *testing.T) {
	index, rgb, ok := gifTransparentColor(transparentGIF(t))
	if !ok || index != 0 || rgb != [3]uint8{200, 100, 50} {
		t.Errorf("Expected index 0 with (200,100,50), got %d %v %v", index, rgb, ok)
	}

	var opaque bytes.Buffer
	if err := gif.Encode(&opaque, uniformImage(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255}), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	if _, _, ok := gifTransparentColor(opaque.Bytes()); ok {
		t.Error("Expected no transparent entry in an opaque GIF")
	}

	if _, _, ok := gifTransparentColor([]byte("GIF89a")); ok {
		t.Error("Expected truncated stream to report no transparency")
	}
}
