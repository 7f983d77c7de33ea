package storage

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// Local static file storage for house images and payment proofs. The database
// only records filenames; files are served from the static root.

var (
	HouseImageDir   string
	PaymentProofDir string
)

var allowedImageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

var allowedProofExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".pdf": true,
}

func InitializeFileStorage() {
	root := os.Getenv("STATIC_ROOT")
	if root == "" {
		root = "static"
	}

	HouseImageDir = filepath.Join(root, "house_images")
	PaymentProofDir = filepath.Join(root, "payment_proofs")

	for _, dir := range []string{HouseImageDir, PaymentProofDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Panic("error creating upload directory: " + err.Error())
		}
	}
}

// AllowedImageFile reports whether the filename has a permitted image extension.
func AllowedImageFile(filename string) bool {
	return allowedImageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// AllowedProofFile reports whether the filename has a permitted proof extension.
func AllowedProofFile(filename string) bool {
	return allowedProofExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SanitizeFilename strips path components and whitespace from an uploaded name.
func SanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return name
}

// SaveUploadedFile streams a multipart file into dir under storedName.
func SaveUploadedFile(file multipart.File, dir, storedName string) error {
	dst, err := os.Create(filepath.Join(dir, storedName))
	if err != nil {
		return fmt.Errorf("create upload target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}

// RemoveStoredFile deletes a stored file, ignoring already-missing files.
func RemoveStoredFile(dir, storedName string) error {
	err := os.Remove(filepath.Join(dir, SanitizeFilename(storedName)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
