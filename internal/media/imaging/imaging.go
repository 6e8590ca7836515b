package imaging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"home-cloud/pkg/apierror"
)

const (
	DefaultSize = 256
	MaxSize     = 1024

	jpegQuality = 95
)

// Thumbnailer renders JPEG thumbnails for photo files and caches them on
// disk. Cache entries are keyed by source path and size; an entry older than
// its source file is regenerated.
type Thumbnailer struct {
	cacheRoot string
}

func NewThumbnailer(cacheRoot string) *Thumbnailer {
	return &Thumbnailer{cacheRoot: cacheRoot}
}

// Open returns an open handle on the thumbnail for srcAbs at the given size,
// generating it first when the cache has no fresh copy. The caller owns the
// returned file.
func (t *Thumbnailer) Open(srcAbs string, size int) (*os.File, fs.FileInfo, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	srcInfo, err := os.Stat(srcAbs)
	if err != nil {
		return nil, nil, fmt.Errorf("stat source: %w", err)
	}

	if srcInfo.IsDir() {
		return nil, nil, apierror.TypeMismatch(filepath.Base(srcAbs))
	}

	if err := os.MkdirAll(t.cacheRoot, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create thumbnail cache: %w", err)
	}

	thumbPath := t.cachePath(srcAbs, size)
	if thumbInfo, statErr := os.Stat(thumbPath); statErr == nil {
		if !thumbInfo.ModTime().Before(srcInfo.ModTime()) {
			if thumbFile, openErr := os.Open(thumbPath); openErr == nil {
				return thumbFile, thumbInfo, nil
			}
		}
	}

	return t.generate(srcAbs, thumbPath, size, srcInfo)
}

// generate decodes the source image, scales it down and writes the JPEG
// thumbnail. The thumbnail mtime is pinned to the source mtime so staleness
// checks stay cheap.
func (t *Thumbnailer) generate(srcAbs, thumbPath string, size int, srcInfo fs.FileInfo) (*os.File, fs.FileInfo, error) {
	file, err := os.Open(srcAbs)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, nil, apierror.UnsupportedMedia("cannot decode image", err.Error())
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, nil, apierror.UnsupportedMedia("invalid image dimensions", filepath.Base(srcAbs))
	}

	dst := scaleToFit(src, bounds, size)

	thumbWriter, err := os.OpenFile(thumbPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("create thumbnail: %w", err)
	}

	encodeErr := jpeg.Encode(thumbWriter, dst, &jpeg.Options{Quality: jpegQuality})
	closeErr := thumbWriter.Close()
	if encodeErr != nil {
		return nil, nil, fmt.Errorf("encode thumbnail: %w", encodeErr)
	}
	if closeErr != nil {
		return nil, nil, closeErr
	}

	_ = os.Chtimes(thumbPath, time.Now().UTC(), srcInfo.ModTime())

	thumbFile, err := os.Open(thumbPath)
	if err != nil {
		return nil, nil, err
	}

	thumbInfo, err := thumbFile.Stat()
	if err != nil {
		_ = thumbFile.Close()
		return nil, nil, err
	}

	return thumbFile, thumbInfo, nil
}

// scaleToFit shrinks src so its longer edge is at most size pixels, keeping
// the aspect ratio. Images already smaller than size are re-encoded as is.
func scaleToFit(src image.Image, bounds image.Rectangle, size int) *image.RGBA {
	width := bounds.Dx()
	height := bounds.Dy()

	maxDim := width
	if height > maxDim {
		maxDim = height
	}

	scale := float64(size) / float64(maxDim)
	if scale > 1 {
		scale = 1
	}

	targetWidth := int(math.Round(float64(width) * scale))
	targetHeight := int(math.Round(float64(height) * scale))
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	return dst
}

func (t *Thumbnailer) cachePath(srcAbs string, size int) string {
	hash := sha256.Sum256([]byte(srcAbs + "|" + strconv.Itoa(size)))
	return filepath.Join(t.cacheRoot, hex.EncodeToString(hash[:])+".jpg")
}
