package models

import (
	"time"
)

// Gift is a gift that has been opened during the exchange
type Gift struct {
	// ID is the unique identifier for the gift
	ID string `json:"id"`

	// Description is what the gift is
	Description string `json:"description"`

	// OwnerID is the participant currently holding the gift
	OwnerID string `json:"ownerId,omitempty"`

	// StealCount is how many times the gift has been stolen
	StealCount int `json:"stealCount"`

	// IsFrozen is true once StealCount reaches the steal limit
	IsFrozen bool `json:"isFrozen"`

	// Images are references to uploaded photos of the gift
	Images []*GiftImage `json:"images"`

	// PrimaryImageID is the image shown first on the display
	PrimaryImageID string `json:"primaryImageId,omitempty"`

	// Downvotes are the participant IDs that downvoted this gift
	Downvotes []string `json:"downvotes"`
}

// GiftImage references an uploaded image stored elsewhere
type GiftImage struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// FindImage returns the image with the given ID or nil
func (g *Gift) FindImage(id string) *GiftImage {
	for _, img := range g.Images {
		if img.ID == id {
			return img
		}
	}
	return nil
}

// HasDownvote reports whether the participant downvoted this gift
func (g *Gift) HasDownvote(participantID string) bool {
	for _, id := range g.Downvotes {
		if id == participantID {
			return true
		}
	}
	return false
}
