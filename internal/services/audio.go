package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// AudioStorage stores audio blobs in Cloudinary. Entries reference blobs by
// the returned secure URL.
type AudioStorage struct {
	cld *cloudinary.Cloudinary
}

func NewAudioStorage(cloudName, apiKey, apiSecret string) (*AudioStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &AudioStorage{cld: cld}, nil
}

// UploadAudio stores one recording and returns its secure URL.
func (s *AudioStorage) UploadAudio(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Cloudinary files audio under the video resource type.
	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "video",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	return uploadResult.SecureURL, nil
}

// RemoveBlob deletes the blob behind an audio ref. Called by the entry
// store when an entry with audio goes away.
func (s *AudioStorage) RemoveBlob(ctx context.Context, ref string) error {
	publicID := publicIDFromURL(ref)
	if publicID == "" {
		return fmt.Errorf("unrecognized audio ref: %s", ref)
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "video",
	})
	return err
}

// publicIDFromURL extracts the Cloudinary public id from a delivery URL:
// everything after /upload/, minus the version segment and extension.
func publicIDFromURL(url string) string {
	_, after, found := strings.Cut(url, "/upload/")
	if !found {
		return ""
	}
	parts := strings.Split(after, "/")
	if len(parts) > 1 && strings.HasPrefix(parts[0], "v") {
		parts = parts[1:]
	}
	id := strings.Join(parts, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}
