package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxImageSize = 10 << 20 // 10 MB

// UploadsRoot is the on-disk directory holding uploaded media, served
// back under /media/.
func UploadsRoot() string {
	if root := os.Getenv("UPLOADS_DIR"); root != "" {
		return root
	}
	return "uploads"
}

// SaveImage persists an uploaded image under the given category directory
// (e.g. "featured", "avatars") and returns its public /media/ URL path.
func SaveImage(file multipart.File, header *multipart.FileHeader, category string) (string, error) {
	if header.Size > MaxImageSize {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", MaxImageSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isValidImageType(ext) {
		return "", fmt.Errorf("invalid file type: %s", ext)
	}

	dir := filepath.Join(UploadsRoot(), category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		ext,
	)

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return fmt.Sprintf("/media/%s/%s", category, filename), nil
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
	return validTypes[ext]
}

// DeleteImage removes a previously saved image by its /media/ URL.
// Missing files are not an error.
func DeleteImage(mediaURL string) error {
	rel := strings.TrimPrefix(mediaURL, "/media/")
	if rel == mediaURL || strings.Contains(rel, "..") {
		return fmt.Errorf("not a media URL: %s", mediaURL)
	}
	path := filepath.Join(UploadsRoot(), filepath.FromSlash(rel))

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}
