package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxPhotoSize is the maximum size of a single visit photo
	MaxPhotoSize = 10 * 1024 * 1024 // 10MB
	// MaxSignatureSize is the maximum decoded size of a signature image
	MaxSignatureSize = 2 * 1024 * 1024 // 2MB
)

var photoMagicBytes = map[string][]byte{
	".png":  {0x89, 'P', 'N', 'G'},
	".jpg":  {0xFF, 0xD8, 0xFF},
	".jpeg": {0xFF, 0xD8, 0xFF},
}

// ValidatePhotoUpload checks if the uploaded file is a valid image
// within size limits
func ValidatePhotoUpload(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxPhotoSize {
		return fmt.Errorf("file size exceeds maximum allowed size of 10MB")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	magic, ok := photoMagicBytes[ext]
	if !ok {
		return fmt.Errorf("file type not allowed. Accepted formats: JPG, PNG")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 8)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	if n < len(magic) || !bytes.Equal(buffer[:len(magic)], magic) {
		return fmt.Errorf("file content does not match its extension")
	}

	return nil
}

// DecodeSignatureDataURL validates a base64 PNG data URL as produced by
// a signature pad and returns the decoded image bytes
func DecodeSignatureDataURL(dataURL string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, fmt.Errorf("signature must be a PNG data URL")
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}
	if len(decoded) > MaxSignatureSize {
		return nil, fmt.Errorf("signature image exceeds maximum allowed size of 2MB")
	}
	if len(decoded) < 4 || !bytes.Equal(decoded[:4], photoMagicBytes[".png"]) {
		return nil, fmt.Errorf("signature image is not a valid PNG")
	}

	return decoded, nil
}
