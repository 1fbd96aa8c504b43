// Package escpos converts bitmaps into ESC/POS bit-image-mode command bytes
// for receipt printers.
//
// The wire format slices the image into bands of 24 rows. Each band starts
// with the bit-image-mode command and a little-endian width header, followed
// by one 3-byte vertical slice per column (bit 7 of the first byte is the
// topmost row), and ends with a line feed. Printer firmware is strict about
// this layout, so the encoding is reproduced bit-exactly.
package escpos

// Printer control sequences.
var (
	LineFeed           = []byte{0x0A}
	CutPaper           = []byte{0x1D, 0x56, 0x00}
	InitPrinter        = []byte{0x1B, 0x40}
	SelectBitImageMode = []byte{0x1B, 0x2A, 33}
	SetLineSpace24     = []byte{0x1B, 0x33, 24}
)

// bandHeight is the number of dot rows one bit-image band covers.
const bandHeight = 24

// threshold is the luminance cutoff below which a pixel prints.
const threshold = 127

// PixelGrid is a row-major grid of 32-bit ARGB pixels.
type PixelGrid [][]uint32

// Rasterize encodes the grid as an ordered sequence of ESC/POS command
// chunks, ready to be written to the printer one after another. The grid
// height need not be a multiple of 24; missing rows in the last band print
// as blank.
func Rasterize(grid PixelGrid) [][]byte {
	stream := [][]byte{SetLineSpace24}

	for y := 0; y < len(grid); y += bandHeight {
		width := len(grid[y])

		stream = append(stream,
			SelectBitImageMode,
			[]byte{byte(width & 0xff), byte((width >> 8) & 0xff)},
		)
		for x := 0; x < width; x++ {
			slice := sliceColumn(grid, y, x)
			stream = append(stream, slice[:])
		}

		// resume on a new line, otherwise the next band overprints this one
		stream = append(stream, LineFeed)
	}

	return stream
}

// sliceColumn packs rows [y, y+24) of column x into 3 bytes, most
// significant bit first. Rows beyond the grid contribute 0 bits.
func sliceColumn(grid PixelGrid, y, x int) [3]byte {
	var slice [3]byte
	for i := 0; i < 3; i++ {
		var b byte
		for bit := 0; bit < 8; bit++ {
			row := y + i*8 + bit
			if row >= len(grid) {
				continue
			}
			if shouldPrint(grid[row][x]) {
				b |= 1 << (7 - bit)
			}
		}
		slice[i] = b
	}
	return slice
}

// shouldPrint decides whether an ARGB pixel gets ink. Only fully opaque,
// dark pixels print; transparency never prints regardless of color.
func shouldPrint(px uint32) bool {
	a := (px >> 24) & 0xff
	if a != 0xff {
		return false
	}
	r := (px >> 16) & 0xff
	g := (px >> 8) & 0xff
	b := px & 0xff

	luminance := int(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))

	return luminance < threshold
}
