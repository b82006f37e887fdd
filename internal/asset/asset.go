// Package asset stores recipe photos on an external host and derives the
// resized variants shown in listings.
//
// A photo is addressed by its public id ("recipes/<uuid>.jpg"). Variant
// objects live next to the original, with the variant name spliced in
// before the extension ("recipes/<uuid>_square.jpg"), so Delete can find
// every object from the public id alone.
package asset

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/recipe-mate/internal/apperror"
)

// MaxUploadSize is the largest photo accepted, in bytes.
const MaxUploadSize = 5 << 20

// Folder is the key prefix of every recipe photo.
const Folder = "recipes"

// Host is an external image store.
type Host interface {
	// Upload stores the original image and returns its handles.
	Upload(ctx context.Context, u Upload) (*Asset, error)
	// Transform derives variants of an uploaded asset and returns their
	// URLs keyed by variant name.
	Transform(ctx context.Context, a *Asset, variants []Variant) (map[string]string, error)
	// Delete releases the asset and its variants. Releasing an asset that
	// no longer exists is not an error.
	Delete(ctx context.Context, publicID string) error
}

// Upload is a photo received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Asset identifies a stored original.
type Asset struct {
	AssetID   string
	PublicID  string
	SecureURL string
}

// Variant describes a derived image. A zero Height keeps the aspect ratio.
// Crop centre-crops to Width:Height before scaling.
type Variant struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

// Variant names used by the recipe photo.
const (
	VariantSquare    = "square"
	VariantThumbnail = "thumbnail"
)

// DefaultVariants are derived for every recipe photo.
var DefaultVariants = []Variant{
	{Name: VariantSquare, Width: 600, Height: 600, Crop: true},
	{Name: VariantThumbnail, Width: 150},
}

// ValidateUpload checks a client photo before it is sent anywhere.
func ValidateUpload(u *Upload) error {
	if u == nil || len(u.Data) == 0 {
		return apperror.ValidationFailed("photo", "No Photos found")
	}
	if u.Size > MaxUploadSize || int64(len(u.Data)) > MaxUploadSize {
		return apperror.ValidationFailed("photo", "File size exceeded")
	}
	if !strings.Contains(u.ContentType, "image") {
		return apperror.ValidationFailed("photo", "Only jpg, jpeg, png file types are allowed")
	}
	return nil
}

// newAsset allocates ids for an upload. The extension of the client's
// filename is kept so the stored object serves with a sensible type.
func newAsset(u Upload) *Asset {
	id := uuid.NewString()
	ext := strings.ToLower(path.Ext(u.Filename))
	if ext == "" {
		ext = extensionFor(u.ContentType)
	}
	return &Asset{
		AssetID:  id,
		PublicID: Folder + "/" + id + ext,
	}
}

// variantKey is the object key of variant name for publicID.
func variantKey(publicID, name string) string {
	ext := path.Ext(publicID)
	return strings.TrimSuffix(publicID, ext) + "_" + name + ext
}

// objectKeys lists the original and every default variant of publicID.
func objectKeys(publicID string) []string {
	keys := []string{publicID}
	for _, v := range DefaultVariants {
		keys = append(keys, variantKey(publicID, v.Name))
	}
	return keys
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func joinURL(base, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), key)
}
