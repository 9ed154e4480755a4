package analyzer

import (
	"math"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// ImageFeatures is an alias to the shared models.ImageFeatures
type ImageFeatures = models.ImageFeatures

// plane is a single 8-bit channel stored as float64 samples, row-major
type plane struct {
	width, height int
	pix           []float64
}

func newPlane(width, height int) *plane {
	return &plane{width: width, height: height, pix: make([]float64, width*height)}
}

func (p *plane) at(x, y int) float64 {
	return p.pix[y*p.width+x]
}

// atClamped reads a sample, replicating the nearest edge for out-of-range
// coordinates
func (p *plane) atClamped(x, y int) float64 {
	return p.at(clampInt(x, 0, p.width-1), clampInt(y, 0, p.height-1))
}

// rgbImage holds the three color planes of a decoded image
type rgbImage struct {
	width, height int
	channels      [3]*plane
}

func newRGBImage(width, height int) *rgbImage {
	img := &rgbImage{width: width, height: height}
	for c := range img.channels {
		img.channels[c] = newPlane(width, height)
	}
	return img
}

// quantize rounds half up to an 8-bit sample value
func quantize(v float64) float64 {
	return clampFloat(math.Floor(v+0.5), 0, 255)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
