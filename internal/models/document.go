// internal/models/document.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is the stored metadata of a file uploaded with an application.
// The bytes live in the blob store; URL is a presigned link to them.
type Document struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"applicationId"`
	FileName      string    `json:"fileName"`
	FileType      string    `json:"fileType"`
	Size          int64     `json:"size"`
	StorageKey    string    `json:"storageKey"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"createdAt"`
}
