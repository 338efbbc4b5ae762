// Package model contains the entities shared across packages.
package model

import (
	"strings"
	"time"
)

// Purpose classifies the semantic role of an uploaded file.
type Purpose string

const (
	PurposeInit       Purpose = "init"
	PurposeMask       Purpose = "mask"
	PurposeReference  Purpose = "reference"
	PurposeAttachment Purpose = "attachment"
)

// DefaultPurpose is applied when a request does not name one.
const DefaultPurpose = PurposeAttachment

var purposes = []Purpose{PurposeInit, PurposeMask, PurposeReference, PurposeAttachment}

// Purposes returns the accepted values in their canonical order.
func Purposes() []Purpose {
	out := make([]Purpose, len(purposes))
	copy(out, purposes)
	return out
}

// Valid reports whether p is one of the enumerated purposes.
func (p Purpose) Valid() bool {
	for _, v := range purposes {
		if p == v {
			return true
		}
	}
	return false
}

// PurposeList renders the accepted values as "init, mask, reference, attachment".
func PurposeList() string {
	names := make([]string, len(purposes))
	for i, p := range purposes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Upload is one stored file: its owner, its role and where the bytes live.
// Rows are created once per successful upload and never updated.
type Upload struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ThreadID        *string   `json:"threadId,omitempty"`
	Title           *string   `json:"title,omitempty"`
	Purpose         Purpose   `json:"purpose"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       int64     `json:"sizeBytes"`
	StorageProvider string    `json:"storageProvider"`
	StorageBucket   string    `json:"storageBucket"`
	StorageKey      string    `json:"storageKey"`
	PublicURL       string    `json:"publicUrl"`
	CreatedAt       time.Time `json:"createdAt"`
}

// User is the account an access token resolves to. Users are owned by
// another service; this one only reads them.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
