package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/chillas-api/utils"
)

// Storage folders for uploaded images
const (
	FolderMenuItems  = "menu_items"
	FolderCategories = "categories"
	FolderSite       = "site"
	FolderContent    = "content"
	FolderSiteImages = "site_images"
)

// ImageService handles all image-related operations including upload, retrieval, and deletion
type ImageService interface {
	// UploadImage validates and stores an image below folder, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

var imageServiceInstance ImageService

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// ResolveImageURL turns an optional storage key into an optional URL. Lookup
// failures are logged and yield nil so a broken image never fails a page.
func ResolveImageURL(ctx context.Context, key *string) *string {
	if key == nil || *key == "" || imageServiceInstance == nil {
		return nil
	}
	url, err := imageServiceInstance.GetImageURL(ctx, *key)
	if err != nil {
		log.Printf("warning: failed to resolve image %s: %v", *key, err)
		return nil
	}
	return &url
}

// DiscardImage deletes a stored image that is no longer referenced. Failures are
// logged only.
func DiscardImage(ctx context.Context, key *string) {
	if key == nil || *key == "" || imageServiceInstance == nil {
		return
	}
	if err := imageServiceInstance.DeleteImage(ctx, *key); err != nil {
		log.Printf("warning: failed to delete image %s: %v", *key, err)
	}
}

// cloneKey copies a stored key so that later updates to the loaded row do
// not change it
func cloneKey(key *string) *string {
	if key == nil {
		return nil
	}
	k := *key
	return &k
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// InitImageService initializes the image service with S3 backend
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{
		s3Service: s3Service,
	}
	return imageServiceInstance
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key := utils.BuildImageKey(folder, fileHeader.Filename)
	if err := s.s3Service.UploadFile(ctx, fileHeader, key); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// LocalImageService stores images on disk below a directory served at /api/v1/uploads
type LocalImageService struct {
	dir string
}

// InitLocalImageService installs disk storage as the image service
func InitLocalImageService(dir string) ImageService {
	imageServiceInstance = &LocalImageService{dir: dir}
	return imageServiceInstance
}

func (s *LocalImageService) UploadImage(_ context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key, err := utils.SaveUploadedFile(fileHeader, s.dir, utils.BuildImageKey(folder, fileHeader.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

func (s *LocalImageService) GetImageURL(_ context.Context, imageKey string) (string, error) {
	return utils.GetImageURL(imageKey), nil
}

func (s *LocalImageService) DeleteImage(_ context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(imageKey)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
