package analyzer

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const (
	// ContrastFactor is the fixed contrast enhancement applied before statistics
	ContrastFactor = 1.2

	// BlurSigma is the standard deviation of the smoothing kernel, in pixels
	BlurSigma = 1.0
)

// ITU-R 601-2 luma weights
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// luminance converts RGB planes to a single 8-bit luma plane
func luminance(img *rgbImage) *plane {
	out := newPlane(img.width, img.height)
	r, g, b := img.channels[0].pix, img.channels[1].pix, img.channels[2].pix
	for i := range out.pix {
		out.pix[i] = quantize(lumaR*r[i] + lumaG*g[i] + lumaB*b[i])
	}
	return out
}

// enhanceContrast scales every channel away from the image's mean luminance:
// new = mean + factor*(old-mean), rounded and clamped to 8 bits
func enhanceContrast(img *rgbImage, luma *plane, factor float64) *rgbImage {
	mean := math.Floor(stat.Mean(luma.pix, nil) + 0.5)

	out := newRGBImage(img.width, img.height)
	for c := range img.channels {
		src, dst := img.channels[c].pix, out.channels[c].pix
		for i, v := range src {
			dst[i] = quantize(mean + factor*(v-mean))
		}
	}
	return out
}

// gaussianKernel returns the normalized half kernel w[0..radius]; the full
// kernel is w[radius]..w[1], w[0], w[1]..w[radius]
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, radius+1)

	sum := 0.0
	for k := 0; k <= radius; k++ {
		kernel[k] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
		if k == 0 {
			sum += kernel[k]
		} else {
			sum += 2 * kernel[k]
		}
	}
	for k := range kernel {
		kernel[k] /= sum
	}
	return kernel
}

// gaussianBlur applies a separable Gaussian to every channel with edge
// samples replicated. Mirrored taps are summed pairwise, so a left/right
// symmetric input stays exactly symmetric.
func gaussianBlur(ctx context.Context, img *rgbImage, sigma float64, workers int) (*rgbImage, error) {
	kernel := gaussianKernel(sigma)
	out := newRGBImage(img.width, img.height)

	for c := range img.channels {
		src := img.channels[c]
		tmp := newPlane(img.width, img.height)
		dst := out.channels[c]

		err := forEachRow(ctx, img.height, workers, func(y int) {
			for x := 0; x < src.width; x++ {
				acc := kernel[0] * src.at(x, y)
				for k := 1; k < len(kernel); k++ {
					acc += kernel[k] * (src.atClamped(x-k, y) + src.atClamped(x+k, y))
				}
				tmp.pix[y*tmp.width+x] = acc
			}
		})
		if err != nil {
			return nil, err
		}

		err = forEachRow(ctx, img.height, workers, func(y int) {
			for x := 0; x < tmp.width; x++ {
				acc := kernel[0] * tmp.at(x, y)
				for k := 1; k < len(kernel); k++ {
					acc += kernel[k] * (tmp.atClamped(x, y-k) + tmp.atClamped(x, y+k))
				}
				dst.pix[y*dst.width+x] = quantize(acc)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// forEachRow runs fn for every row, split into horizontal strips processed
// concurrently. fn must only write to its own row.
func forEachRow(ctx context.Context, height, workers int, fn func(y int)) error {
	if workers <= 0 {
		workers = 1
	}
	if height < workers {
		workers = height
	}
	if workers == 0 {
		return ctx.Err()
	}
	rowsPerWorker := (height + workers - 1) / workers // ceil division

	g, gctx := errgroup.WithContext(ctx)
	for startY := 0; startY < height; startY += rowsPerWorker {
		endY := min(startY+rowsPerWorker, height)
		g.Go(func() error {
			for y := startY; y < endY; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(y)
			}
			return nil
		})
	}
	return g.Wait()
}
