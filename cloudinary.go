package main

import (
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageUploader pushes poster images to Cloudinary and hands back the hosted
// URL that goes into the event record.
type ImageUploader struct {
	cld *cloudinary.Cloudinary
}

func NewImageUploader(cfg Config) (*ImageUploader, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, err
	}
	return &ImageUploader{cld: cld}, nil
}

func (u *ImageUploader) Upload(ctx context.Context, file interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: "shomabesh"})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}
