package service

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveService uploads archived previews to a Google Drive folder
type DriveService struct {
	client   *drive.Service
	folderID string
}

// NewDriveService creates a new DriveService
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath, folderID string) (*DriveService, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder id is required")
	}
	client, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveService{client: client, folderID: folderID}, nil
}

var _ PreviewStore = (*DriveService)(nil)

// Name identifies the store in archive reports
func (ds *DriveService) Name() string {
	return "drive"
}

// Upload creates a JPEG file in the archive folder and returns its public URL
func (ds *DriveService) Upload(ctx context.Context, name string, data []byte) (string, error) {
	file := &drive.File{
		Name:     name,
		Parents:  []string{ds.folderID},
		MimeType: "image/jpeg",
	}
	created, err := ds.client.Files.Create(file).
		Media(bytes.NewReader(data)).
		Fields("id, name").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to drive: %w", name, err)
	}

	log.Printf("☁️  DriveService.Upload: %s -> %s", name, created.Id)
	return fmt.Sprintf("https://drive.google.com/uc?id=%s", created.Id), nil
}
