package models

import "time"

// AvatarUpload instructs the client to PUT a profile image to object storage.
type AvatarUpload struct {
	// Key is the object-storage key of the image.
	Key string `json:"key"`
	// UploadURL is a temporary presigned URL accepting an HTTP PUT.
	UploadURL string `json:"uploadUrl"`
	// ImageURL is the public URL stored on the user once uploaded.
	ImageURL string `json:"imageUrl"`
	// ExpiresAt is when UploadURL stops being accepted.
	ExpiresAt time.Time `json:"expiresAt"`
}
