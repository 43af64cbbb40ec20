package app

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
	ImageGIF  ImageFormat = "gif"
	ImageBMP  ImageFormat = "bmp"
	ImageTIFF ImageFormat = "tiff"

	DefaultJPEGQuality = 95
)

// ErrUnsupportedFormat is returned for an output path whose extension names no
// known image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

type ImageFormat string

var imageExtensions = map[string]ImageFormat{
	".png":  ImagePNG,
	".jpg":  ImageJPEG,
	".jpeg": ImageJPEG,
	".gif":  ImageGIF,
	".bmp":  ImageBMP,
	".tif":  ImageTIFF,
	".tiff": ImageTIFF,
}

// FormatFromPath picks the image format from the extension of path.
func FormatFromPath(path string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := imageExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return format, nil
}

func (f ImageFormat) ContentType() string {
	switch f {
	case ImagePNG:
		return "image/png"
	case ImageJPEG:
		return "image/jpeg"
	case ImageGIF:
		return "image/gif"
	case ImageBMP:
		return "image/bmp"
	case ImageTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

func encodeImage(w io.Writer, img image.Image, format ImageFormat, jpegQuality int) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case ImageGIF:
		return gif.Encode(w, img, nil)
	case ImageBMP:
		return bmp.Encode(w, img)
	case ImageTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func saveImage(path string, img image.Image, format ImageFormat, jpegQuality int) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = encodeImage(out, img, format, jpegQuality); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}
