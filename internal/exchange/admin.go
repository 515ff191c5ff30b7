package exchange

import (
	"fmt"
	"strings"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// AddParticipant appends a participant to the end of the turn order
type AddParticipant struct {
	Name string
}

func (a AddParticipant) Kind() string { return "add_participant" }

func (a AddParticipant) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseActive, "add participants"); err != nil {
		return err
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	for _, p := range game.Participants {
		if strings.EqualFold(p.Name, name) {
			return fmt.Errorf("%w: %s is already playing", ErrInvalidInput, name)
		}
	}

	p := &models.Participant{
		ID:       env.IDs.NewUUID(),
		Name:     name,
		Sequence: game.NextSequence(),
		Status:   models.ParticipantStatusWaiting,
	}
	game.Participants = append(game.Participants, p)

	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypeAddParticipant,
		ActorID: p.ID,
		Message: fmt.Sprintf("%s joined as #%d", p.Name, p.Sequence),
	})
	return nil
}

// RemoveParticipant takes a participant who holds no gift out of the game
type RemoveParticipant struct {
	ParticipantID string
}

func (a RemoveParticipant) Kind() string { return "remove_participant" }

func (a RemoveParticipant) apply(game *models.Game, env Env) error {
	p, err := findParticipant(game, a.ParticipantID)
	if err != nil {
		return err
	}
	if p.HeldGiftID != "" || game.GiftOwnedBy(p.ID) != nil {
		return fmt.Errorf("%w: %s must give up their gift first", ErrAlreadyHolding, p.Name)
	}

	kept := make([]*models.Participant, 0, len(game.Participants)-1)
	for _, other := range game.Participants {
		if other.ID != p.ID {
			kept = append(kept, other)
		}
	}
	game.Participants = kept

	for _, gift := range game.Gifts {
		if gift.HasDownvote(p.ID) {
			votes := make([]string, 0, len(gift.Downvotes)-1)
			for _, id := range gift.Downvotes {
				if id != p.ID {
					votes = append(votes, id)
				}
			}
			gift.Downvotes = votes
		}
	}

	if game.VictimID == p.ID {
		game.VictimID = ""
	}
	advanceTurn(game)

	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypeRemoveParticipant,
		ActorID: p.ID,
		Message: fmt.Sprintf("%s left the game", p.Name),
	})
	return nil
}

// UpdateSettings changes the rules. Nil fields are left alone.
type UpdateSettings struct {
	MaxSteals           *int
	TurnDurationSeconds *int
	ActivePlayerCount   *int
	Paused              *bool
}

func (a UpdateSettings) Kind() string { return "update_settings" }

func (a UpdateSettings) apply(game *models.Game, env Env) error {
	settings := game.Settings

	if a.MaxSteals != nil {
		if *a.MaxSteals < 1 {
			return fmt.Errorf("%w: max steals must be at least 1", ErrInvalidInput)
		}
		settings.MaxSteals = *a.MaxSteals
	}
	if a.TurnDurationSeconds != nil {
		if *a.TurnDurationSeconds < 0 {
			return fmt.Errorf("%w: turn duration cannot be negative", ErrInvalidInput)
		}
		settings.TurnDurationSeconds = *a.TurnDurationSeconds
	}
	if a.ActivePlayerCount != nil {
		if *a.ActivePlayerCount < 1 {
			return fmt.Errorf("%w: active player count must be at least 1", ErrInvalidInput)
		}
		settings.ActivePlayerCount = *a.ActivePlayerCount
	}
	if a.Paused != nil {
		settings.Paused = *a.Paused
	}

	if settings == game.Settings {
		return nil
	}
	game.Settings = settings

	// Freezing is permanent, so raising the limit never thaws a gift
	for _, gift := range game.Gifts {
		if gift.StealCount >= settings.MaxSteals {
			gift.IsFrozen = true
		}
	}

	record(game, env, &models.HistoryEntry{
		Type: models.HistoryTypeSettings,
		Message: fmt.Sprintf("settings changed: max steals %d, turn %ds, %d active, paused %t",
			settings.MaxSteals, settings.TurnDurationSeconds, settings.ActivePlayerCount, settings.Paused),
	})
	return nil
}

// AddGiftImage records an image that has already been uploaded
type AddGiftImage struct {
	GiftID     string
	Path       string
	UploadedBy string
}

func (a AddGiftImage) Kind() string { return "add_gift_image" }

func (a AddGiftImage) apply(game *models.Game, env Env) error {
	path := strings.TrimSpace(a.Path)
	if path == "" {
		return fmt.Errorf("%w: image path cannot be empty", ErrInvalidInput)
	}

	gift, err := findGift(game, a.GiftID)
	if err != nil {
		return err
	}

	img := &models.GiftImage{
		ID:         env.IDs.NewUUID(),
		Path:       path,
		UploadedBy: a.UploadedBy,
		UploadedAt: env.Now,
	}
	gift.Images = append(gift.Images, img)
	if gift.PrimaryImageID == "" {
		gift.PrimaryImageID = img.ID
	}
	return nil
}

// SetPrimaryImage picks which image of a gift is shown first
type SetPrimaryImage struct {
	GiftID  string
	ImageID string
}

func (a SetPrimaryImage) Kind() string { return "set_primary_image" }

func (a SetPrimaryImage) apply(game *models.Game, env Env) error {
	gift, err := findGift(game, a.GiftID)
	if err != nil {
		return err
	}
	if gift.FindImage(a.ImageID) == nil {
		return fmt.Errorf("%w: image %q", ErrNotFound, a.ImageID)
	}

	gift.PrimaryImageID = a.ImageID
	return nil
}

// RemoveGiftImage forgets an image reference
type RemoveGiftImage struct {
	GiftID  string
	ImageID string
}

func (a RemoveGiftImage) Kind() string { return "remove_gift_image" }

func (a RemoveGiftImage) apply(game *models.Game, env Env) error {
	gift, err := findGift(game, a.GiftID)
	if err != nil {
		return err
	}
	if gift.FindImage(a.ImageID) == nil {
		return fmt.Errorf("%w: image %q", ErrNotFound, a.ImageID)
	}

	images := make([]*models.GiftImage, 0, len(gift.Images)-1)
	for _, img := range gift.Images {
		if img.ID != a.ImageID {
			images = append(images, img)
		}
	}
	gift.Images = images

	if gift.PrimaryImageID == a.ImageID {
		gift.PrimaryImageID = ""
		if len(images) > 0 {
			gift.PrimaryImageID = images[0].ID
		}
	}
	return nil
}

// ResetGame returns the game to a fresh state under the configured default settings
type ResetGame struct{}

func (a ResetGame) Kind() string { return "reset_game" }

func (a ResetGame) apply(game *models.Game, env Env) error {
	settings := env.Defaults
	if settings == (models.Settings{}) {
		settings = DefaultSettings()
	}

	fresh := NewGame(game.ID, settings, env.Now)
	fresh.Version = game.Version
	fresh.CreatedAt = game.CreatedAt
	*game = *fresh

	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypeReset,
		Message: "game was reset",
	})
	return nil
}
