package analyzer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uniformImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// halfAndHalf is black on the left half and white on the right half
func halfAndHalf(width, height int) *image.NRGBA {
	img := uniformImage(width, height, color.NRGBA{A: 255})
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

// mirroredImage has an arbitrary pattern that is symmetric about the
// vertical centre line
func mirroredImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m := min(x, width-1-x)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((m*37 + y*11) % 256),
				G: uint8((m*m + y*5) % 256),
				B: uint8((m*91 + y*y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// rgbFromRows builds planes directly; rows[c][y] holds channel c of row y
func rgbFromRows(rows [3][][]float64) *rgbImage {
	height := len(rows[0])
	width := len(rows[0][0])
	img := newRGBImage(width, height)
	for c := range rows {
		for y, row := range rows[c] {
			copy(img.channels[c].pix[y*width:(y+1)*width], row)
		}
	}
	return img
}
