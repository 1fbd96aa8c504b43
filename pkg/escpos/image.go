package escpos

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a base64-encoded bitmap (PNG, JPEG, GIF, BMP or WebP)
// into an image.
func DecodeImage(data string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		// some senders wrap base64 at 76 columns
		raw, err = base64.StdEncoding.DecodeString(stripWhitespace(data))
		if err != nil {
			return nil, fmt.Errorf("decoding base64: %s", err)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding bitmap: %s", err)
	}
	return img, nil
}

// NewPixelGrid reads every pixel of img into a row-major ARGB grid.
func NewPixelGrid(img image.Image) PixelGrid {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	grid := make(PixelGrid, height)
	for row := 0; row < height; row++ {
		grid[row] = make([]uint32, width)
		for col := 0; col < width; col++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+col, bounds.Min.Y+row)).(color.NRGBA)
			grid[row][col] = uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		}
	}

	return grid
}

func stripWhitespace(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			buf = append(buf, s[i])
		}
	}
	return string(buf)
}
