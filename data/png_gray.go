package data

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// decodedPNG holds the unfiltered grayscale samples from a PNG image, one
// uint32 sample per pixel in raster order (row-major, top to bottom).
type decodedPNG struct {
	width, height int
	bitDepth      int
	samples       []uint32
}

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// decodePNGGray decodes a grayscale PNG image (the only color type GRIB2's
// Template 5.41 encoders emit) without the standard library's image/png: the
// chunk walk and IDAT concatenation are done by hand and the compressed
// stream is inflated with klauspost/compress/flate.
func decodePNGGray(buf []byte) (*decodedPNG, error) {
	if len(buf) < 8 || [8]byte(buf[:8]) != pngSignature {
		return nil, fmt.Errorf("not a PNG image (bad signature)")
	}

	var width, height, bitDepth, colorType int
	var idat []byte

	pos := 8
	for pos+8 <= len(buf) {
		length := int(binary.BigEndian.Uint32(buf[pos:]))
		typ := string(buf[pos+4 : pos+8])
		dataStart := pos + 8
		if dataStart+length+4 > len(buf) {
			return nil, fmt.Errorf("truncated PNG chunk %q", typ)
		}
		chunkData := buf[dataStart : dataStart+length]

		switch typ {
		case "IHDR":
			if len(chunkData) < 13 {
				return nil, fmt.Errorf("truncated IHDR chunk")
			}
			width = int(binary.BigEndian.Uint32(chunkData[0:4]))
			height = int(binary.BigEndian.Uint32(chunkData[4:8]))
			bitDepth = int(chunkData[8])
			colorType = int(chunkData[9])
		case "IDAT":
			idat = append(idat, chunkData...)
		case "IEND":
			pos = len(buf)
			continue
		}

		pos = dataStart + length + 4 // skip CRC
	}

	if width == 0 || height == 0 {
		return nil, fmt.Errorf("PNG missing IHDR chunk")
	}
	if colorType != 0 {
		return nil, fmt.Errorf("PNG color type %d not supported, only grayscale (0) is", colorType)
	}
	if len(idat) < 3 {
		return nil, fmt.Errorf("PNG has no IDAT data")
	}

	// Strip the 2-byte zlib header before handing the raw DEFLATE stream to
	// flate.NewReader; the trailing 4-byte Adler-32 checksum is left unread.
	fr := flate.NewReader(bytes.NewReader(idat[2:]))
	defer fr.Close()

	stride := (width*bitDepth + 7) / 8
	raw := make([]byte, (stride+1)*height)
	if _, err := io.ReadFull(fr, raw); err != nil {
		return nil, fmt.Errorf("failed to inflate PNG data: %w", err)
	}

	unfiltered, err := unfilterPNG(raw, width, height, bitDepth)
	if err != nil {
		return nil, err
	}

	samples := extractSamples(unfiltered, width, height, bitDepth)

	return &decodedPNG{width: width, height: height, bitDepth: bitDepth, samples: samples}, nil
}

// unfilterPNG reverses the per-scanline filter (None/Sub/Up/Average/Paeth)
// applied by the PNG encoder, returning stride*height bytes of raw samples.
func unfilterPNG(raw []byte, width, height, bitDepth int) ([]byte, error) {
	stride := (width*bitDepth + 7) / 8
	bpp := (bitDepth + 7) / 8
	if bpp < 1 {
		bpp = 1
	}

	out := make([]byte, stride*height)
	prevRow := make([]byte, stride)

	for y := 0; y < height; y++ {
		rowStart := y * (stride + 1)
		if rowStart+1+stride > len(raw) {
			return nil, fmt.Errorf("PNG scanline %d truncated", y)
		}
		filterType := raw[rowStart]
		filt := raw[rowStart+1 : rowStart+1+stride]
		curRow := out[y*stride : (y+1)*stride]

		for x := 0; x < stride; x++ {
			var a, b, c byte
			if x >= bpp {
				a = curRow[x-bpp]
				c = prevRow[x-bpp]
			}
			b = prevRow[x]

			switch filterType {
			case 0:
				curRow[x] = filt[x]
			case 1:
				curRow[x] = filt[x] + a
			case 2:
				curRow[x] = filt[x] + b
			case 3:
				curRow[x] = filt[x] + byte((int(a)+int(b))/2)
			case 4:
				curRow[x] = filt[x] + paethPredictor(a, b, c)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d on scanline %d", filterType, y)
			}
		}

		copy(prevRow, curRow)
	}

	return out, nil
}

func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// extractSamples reads width*height single-channel grayscale samples from
// unfiltered scanline bytes, honoring PNG's MSB-first sub-byte packing for
// bit depths below 8.
func extractSamples(raw []byte, width, height, bitDepth int) []uint32 {
	stride := (width*bitDepth + 7) / 8
	samples := make([]uint32, 0, width*height)

	for y := 0; y < height; y++ {
		row := raw[y*stride : (y+1)*stride]
		switch {
		case bitDepth == 16:
			for x := 0; x < width; x++ {
				samples = append(samples, uint32(binary.BigEndian.Uint16(row[x*2:x*2+2])))
			}
		case bitDepth == 8:
			for x := 0; x < width; x++ {
				samples = append(samples, uint32(row[x]))
			}
		default: // 1, 2, 4
			bit := 0
			for x := 0; x < width; x++ {
				byteIdx := bit / 8
				shift := 8 - bitDepth - (bit % 8)
				mask := byte((1 << bitDepth) - 1)
				samples = append(samples, uint32((row[byteIdx]>>shift)&mask))
				bit += bitDepth
			}
		}
	}

	return samples
}
