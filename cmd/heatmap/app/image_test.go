package app

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

func TestFormatFromPath(t *testing.T) {
	testCases := []struct {
		path string
		want ImageFormat
	}{
		{"scan.png", ImagePNG},
		{"scan.JPG", ImageJPEG},
		{"/tmp/scan.jpeg", ImageJPEG},
		{"scan.gif", ImageGIF},
		{"scan.bmp", ImageBMP},
		{"scan.tif", ImageTIFF},
		{"scan.tiff", ImageTIFF},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := FormatFromPath(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, path := range []string{"scan.webp", "scan", "scan.png.txt"} {
		_, err := FormatFromPath(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, path)
	}
}

func TestImageFormat_ContentType(t *testing.T) {
	assert.Equal(t, "image/png", ImagePNG.ContentType())
	assert.Equal(t, "image/jpeg", ImageJPEG.ContentType())
	assert.Equal(t, "image/tiff", ImageTIFF.ContentType())
	assert.Equal(t, "application/octet-stream", ImageFormat("webp").ContentType())
}

func TestSaveImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 7, 3))
	dir := t.TempDir()

	for _, name := range []string{"a.png", "a.jpg", "a.gif", "a.bmp", "a.tiff"} {
		t.Run(name, func(t *testing.T) {
			format, err := FormatFromPath(name)
			require.NoError(t, err)

			path := filepath.Join(dir, name)
			require.NoError(t, saveImage(path, src, format, DefaultJPEGQuality))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			cfg, decoded, err := image.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, 7, cfg.Width)
			assert.Equal(t, 3, cfg.Height)
			assert.Equal(t, string(format), decoded)
		})
	}
}

func TestSaveImage_BadPath(t *testing.T) {
	err := saveImage(filepath.Join(t.TempDir(), "missing", "a.png"), image.NewRGBA(image.Rect(0, 0, 1, 1)), ImagePNG, 0)
	assert.Error(t, err)
}
