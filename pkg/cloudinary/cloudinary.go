package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client stores offer images, delivery artifacts and verification documents.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	UploadFile(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

// Eager transformation applied to uploaded images.
const imageEager = "q_auto,f_auto,w_1200,c_limit"

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads an image with eager optimizations (auto quality, format, bounded width).
func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

// UploadFile stores a non-image document such as a PDF as a raw resource.
func (c *clientImpl) UploadFile(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

// DeleteByURL destroys the asset behind a delivery URL produced by this client.
func (c *clientImpl) DeleteByURL(ctx context.Context, url string) error {
	publicID, resourceType, ok := PublicIDFromURL(url)
	if !ok {
		return fmt.Errorf("cloudinary: not an asset url: %s", url)
	}
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	return err
}

// PublicIDFromURL extracts the public id and resource type from a Cloudinary
// delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/jobs/offers/img_ab12.jpg.
// Raw resources keep their extension as part of the public id.
func PublicIDFromURL(url string) (publicID, resourceType string, ok bool) {
	i := strings.Index(url, "res.cloudinary.com/")
	if i < 0 {
		return "", "", false
	}
	parts := strings.Split(url[i+len("res.cloudinary.com/"):], "/")
	// cloud name, resource type, delivery type, [transformations], [version], public id...
	if len(parts) < 4 || parts[2] != "upload" {
		return "", "", false
	}
	resourceType = parts[1]
	rest := parts[3:]
	for len(rest) > 1 && !isVersion(rest[0]) && (strings.Contains(rest[0], ",") || isTransformation(rest[0])) {
		rest = rest[1:]
	}
	if len(rest) > 1 && isVersion(rest[0]) {
		rest = rest[1:]
	}
	publicID = strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	return publicID, resourceType, publicID != ""
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isTransformation(s string) bool {
	// transformation segments look like q_auto or w_800 (key_value)
	k, _, found := strings.Cut(s, "_")
	return found && len(k) <= 2
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
