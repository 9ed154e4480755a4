package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// decodeRGB decodes PNG, JPEG, GIF, BMP or TIFF bytes into 8-bit RGB planes.
// Alpha is dropped and grayscale is replicated across the three channels.
// Transparent GIF pixels keep their palette colour.
func decodeRGB(data []byte, maxPixels int) (*rgbImage, error) {
	if len(data) == 0 {
		return nil, newDecodeError("cannot identify image file", fmt.Errorf("empty input"))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newDecodeError("cannot identify image file", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, newEmptyImageError(cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, newDecodeError(
			fmt.Sprintf("image is %dx%d, exceeding the %d pixel limit", cfg.Width, cfg.Height, maxPixels), nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newDecodeError("failed to decode image", err)
	}
	if format == "gif" {
		restoreGIFTransparent(img, data)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, newEmptyImageError(bounds.Dx(), bounds.Dy())
	}

	return toRGB(img), nil
}

// toRGB copies any image.Image into straight (non-premultiplied) RGB planes
func toRGB(img image.Image) *rgbImage {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := newRGBImage(width, height)
	r, g, b := out.channels[0].pix, out.channels[1].pix, out.channels[2].pix

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width*4]
			for x := 0; x < width; x++ {
				i := y*width + x
				r[i] = float64(row[x*4])
				g[i] = float64(row[x*4+1])
				b[i] = float64(row[x*4+2])
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width]
			for x := 0; x < width; x++ {
				i := y*width + x
				v := float64(row[x])
				r[i], g[i], b[i] = v, v, v
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				i := y*width + x
				r[i] = float64(c.R)
				g[i] = float64(c.G)
				b[i] = float64(c.B)
			}
		}
	}

	return out
}
