package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/julienschmidt/httprouter"
)

// actionBuilder turns a request into the action it asks for
type actionBuilder func(r *http.Request, ps httprouter.Params) (exchange.Action, error)

type participantRequest struct {
	Name string `json:"name"`
}

type openRequest struct {
	ParticipantID string `json:"participantId"`
	Description   string `json:"description"`
}

type stealRequest struct {
	ThiefID string `json:"thiefId"`
	GiftID  string `json:"giftId"`
}

type timerRequest struct {
	ParticipantID string `json:"participantId"`
}

type editGiftRequest struct {
	Description string `json:"description"`
}

type imageRequest struct {
	Path       string `json:"path"`
	UploadedBy string `json:"uploadedBy"`
}

type primaryImageRequest struct {
	ImageID string `json:"imageId"`
}

type phaseRequest struct {
	Phase           models.GamePhase `json:"phase"`
	DurationSeconds *int             `json:"durationSeconds"`
}

type downvoteRequest struct {
	ParticipantID string `json:"participantId"`
	GiftID        string `json:"giftId"`
}

type settingsRequest struct {
	MaxSteals           *int  `json:"maxSteals"`
	TurnDurationSeconds *int  `json:"turnDurationSeconds"`
	ActivePlayerCount   *int  `json:"activePlayerCount"`
	Paused              *bool `json:"paused"`
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxErr):
		return fmt.Errorf("%w: %w", exchange.ErrInvalidInput, errBodyTooLarge)
	default:
		return fmt.Errorf("%w: malformed body: %w", exchange.ErrInvalidInput, err)
	}
}

func addParticipant(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req participantRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.AddParticipant{Name: req.Name}, nil
}

func removeParticipant(_ *http.Request, ps httprouter.Params) (exchange.Action, error) {
	return exchange.RemoveParticipant{ParticipantID: ps.ByName("pid")}, nil
}

func openGift(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req openRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.OpenGift{ParticipantID: req.ParticipantID, Description: req.Description}, nil
}

func stealGift(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req stealRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.StealGift{ThiefID: req.ThiefID, GiftID: req.GiftID}, nil
}

func advanceTurn(_ *http.Request, _ httprouter.Params) (exchange.Action, error) {
	return exchange.AdvanceTurn{}, nil
}

func resetTimer(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req timerRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.ResetTimer{ParticipantID: req.ParticipantID}, nil
}

func editGift(r *http.Request, ps httprouter.Params) (exchange.Action, error) {
	var req editGiftRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.EditGift{GiftID: ps.ByName("giftid"), Description: req.Description}, nil
}

func addGiftImage(r *http.Request, ps httprouter.Params) (exchange.Action, error) {
	var req imageRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.AddGiftImage{
		GiftID:     ps.ByName("giftid"),
		Path:       req.Path,
		UploadedBy: req.UploadedBy,
	}, nil
}

func removeGiftImage(_ *http.Request, ps httprouter.Params) (exchange.Action, error) {
	return exchange.RemoveGiftImage{GiftID: ps.ByName("giftid"), ImageID: ps.ByName("imageid")}, nil
}

func setPrimaryImage(r *http.Request, ps httprouter.Params) (exchange.Action, error) {
	var req primaryImageRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.SetPrimaryImage{GiftID: ps.ByName("giftid"), ImageID: req.ImageID}, nil
}

func setPhase(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req phaseRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.SetPhase{Target: req.Phase, DurationSeconds: req.DurationSeconds}, nil
}

func downvote(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req downvoteRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.Downvote{ParticipantID: req.ParticipantID, GiftID: req.GiftID}, nil
}

func resetGame(_ *http.Request, _ httprouter.Params) (exchange.Action, error) {
	return exchange.ResetGame{}, nil
}

func updateSettings(r *http.Request, _ httprouter.Params) (exchange.Action, error) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return exchange.UpdateSettings{
		MaxSteals:           req.MaxSteals,
		TurnDurationSeconds: req.TurnDurationSeconds,
		ActivePlayerCount:   req.ActivePlayerCount,
		Paused:              req.Paused,
	}, nil
}
