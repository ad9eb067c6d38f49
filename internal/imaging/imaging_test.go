package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

func TestLoadDecodesFormats(t *testing.T) {
	tests := []struct {
		name   string
		encode func(buf *bytes.Buffer, img image.Image) error
		format string
	}{
		{
			name:   "png",
			encode: func(buf *bytes.Buffer, img image.Image) error { return png.Encode(buf, img) },
			format: "png",
		},
		{
			name:   "jpeg",
			encode: func(buf *bytes.Buffer, img image.Image) error { return jpeg.Encode(buf, img, nil) },
			format: "jpeg",
		},
		{
			name:   "bmp",
			encode: func(buf *bytes.Buffer, img image.Image) error { return bmp.Encode(buf, img) },
			format: "bmp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf, testImage(8, 6)))

			// Extension deliberately wrong: format comes from the content
			path := filepath.Join(t.TempDir(), "shot.png")
			require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

			decoded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, decoded.Format)
			assert.Equal(t, 8, decoded.Width())
			assert.Equal(t, 6, decoded.Height())
		})
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nnot really a png"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.png"))
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)
}

func TestEncodePNGRoundTripsPixels(t *testing.T) {
	src := testImage(4, 4)

	payload, err := EncodePNG(src)
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "png", decoded.Format)
	assert.Equal(t, src.At(3, 2), color.RGBAModel.Convert(decoded.Image.At(3, 2)))
}
