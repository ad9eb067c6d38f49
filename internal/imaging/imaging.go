// Package imaging decodes screenshot files into pixel buffers and encodes
// them into the payload sent to the vision model.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// Registered decoders
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PayloadMIMEType is the MIME type of payloads produced by EncodePNG.
const PayloadMIMEType = "image/png"

// Decoded is a screenshot decoded into memory.
type Decoded struct {
	Image  image.Image
	Format string
}

// Width returns the decoded width in pixels.
func (d *Decoded) Width() int {
	return d.Image.Bounds().Dx()
}

// Height returns the decoded height in pixels.
func (d *Decoded) Height() int {
	return d.Image.Bounds().Dy()
}

// Load reads and decodes the image at path. The format is sniffed from the
// file contents, not the extension.
func Load(path string) (*Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(data)
}

// Decode decodes raw image bytes.
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Decoded{Image: img, Format: format}, nil
}

// EncodePNG encodes a decoded pixel buffer as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
