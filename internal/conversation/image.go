package conversation

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize is the largest attachment accepted for inline upload
const MaxImageSize = 20 * 1024 * 1024 // 20MB

// SupportedImageTypes returns the list of MIME types accepted as attachments
func SupportedImageTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}
}

func isSupportedType(mimeType string) bool {
	for _, supported := range SupportedImageTypes() {
		if strings.HasPrefix(mimeType, supported) {
			return true
		}
	}
	return false
}

// IsImagePath reports whether path has the extension of a supported image type
func IsImagePath(path string) bool {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return mimeType != "" && isSupportedType(mimeType)
}

// FileImage is an image on disk, read when the request is built
type FileImage struct {
	Path     string
	MIMEType string
}

// NewFileImage validates path and detects its MIME type. The file itself is
// read later by Load.
func NewFileImage(path string) (*FileImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxImageSize {
		return nil, fmt.Errorf("file size exceeds maximum %d bytes", MaxImageSize)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if !isSupportedType(mimeType) {
		return nil, fmt.Errorf("unsupported image type: %s", mimeType)
	}

	return &FileImage{Path: path, MIMEType: mimeType}, nil
}

// Name returns the file's base name
func (f *FileImage) Name() string {
	return filepath.Base(f.Path)
}

// Load reads the file
func (f *FileImage) Load(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, "", fmt.Errorf("file size exceeds maximum %d bytes", MaxImageSize)
	}
	return data, f.MIMEType, nil
}

// BytesImage is an in-memory image, e.g. one read from stdin
type BytesImage struct {
	FileName string
	MIMEType string
	Data     []byte
}

// NewBytesImage wraps data. An empty mimeType is sniffed from the content.
func NewBytesImage(name, mimeType string, data []byte) (*BytesImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image %q is empty", name)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("data size exceeds maximum %d bytes", MaxImageSize)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !isSupportedType(mimeType) {
		return nil, fmt.Errorf("unsupported image type: %s", mimeType)
	}
	return &BytesImage{FileName: name, MIMEType: mimeType, Data: data}, nil
}

// Name returns the display name
func (b *BytesImage) Name() string {
	if b.FileName == "" {
		return "image"
	}
	return b.FileName
}

// Load returns the held bytes
func (b *BytesImage) Load(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return b.Data, b.MIMEType, nil
}
