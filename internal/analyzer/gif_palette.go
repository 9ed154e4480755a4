package analyzer

import (
	"image"
	"image/color"
)

// GIF block markers and flags
const (
	gifExtensionIntroducer = 0x21
	gifImageSeparator      = 0x2C
	gifGraphicControlLabel = 0xF9
	gifColorTableFlag      = 0x80
	gifTransparentFlag     = 0x01
	gifColorTableSizeMask  = 0x07
)

// restoreGIFTransparent puts back the palette colour of the transparent
// index of the first GIF frame. image/gif replaces that entry with
// color.RGBA{} while decoding, which would turn transparent pixels black
// once alpha is dropped.
func restoreGIFTransparent(img image.Image, data []byte) {
	paletted, ok := img.(*image.Paletted)
	if !ok {
		return
	}
	index, rgb, ok := gifTransparentColor(data)
	if !ok || index >= len(paletted.Palette) {
		return
	}
	paletted.Palette[index] = color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF}
}

// gifTransparentColor scans the raw stream up to the first image descriptor
// and reports the transparent index with its entry in the colour table that
// frame uses. ok is false when the frame has no transparency or the stream
// is too short to tell.
func gifTransparentColor(data []byte) (index int, rgb [3]uint8, ok bool) {
	// Header (6) and logical screen descriptor (7)
	if len(data) < 13 {
		return 0, rgb, false
	}
	pos := 13
	var global []byte
	if flags := data[10]; flags&gifColorTableFlag != 0 {
		size := 3 << ((flags & gifColorTableSizeMask) + 1)
		if pos+size > len(data) {
			return 0, rgb, false
		}
		global = data[pos : pos+size]
		pos += size
	}

	transparent := -1
	for pos < len(data) {
		switch data[pos] {
		case gifExtensionIntroducer:
			if pos+2 > len(data) {
				return 0, rgb, false
			}
			label := data[pos+1]
			pos += 2
			// Graphic control extension: size 4, flags, delay(2), index
			if label == gifGraphicControlLabel && pos+5 <= len(data) && data[pos] == 4 {
				if data[pos+1]&gifTransparentFlag != 0 {
					transparent = int(data[pos+4])
				} else {
					transparent = -1
				}
			}
			next, complete := skipGIFSubBlocks(data, pos)
			if !complete {
				return 0, rgb, false
			}
			pos = next

		case gifImageSeparator:
			if transparent < 0 || pos+10 > len(data) {
				return 0, rgb, false
			}
			table := global
			if flags := data[pos+9]; flags&gifColorTableFlag != 0 {
				size := 3 << ((flags & gifColorTableSizeMask) + 1)
				start := pos + 10
				if start+size > len(data) {
					return 0, rgb, false
				}
				table = data[start : start+size]
			}
			if 3*transparent+3 > len(table) {
				return 0, rgb, false
			}
			entry := table[3*transparent:]
			return transparent, [3]uint8{entry[0], entry[1], entry[2]}, true

		default:
			// Trailer or garbage before the first frame
			return 0, rgb, false
		}
	}
	return 0, rgb, false
}

// skipGIFSubBlocks returns the offset just past a block terminator
func skipGIFSubBlocks(data []byte, pos int) (int, bool) {
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 0 {
			return pos, true
		}
		pos += n
	}
	return pos, false
}
