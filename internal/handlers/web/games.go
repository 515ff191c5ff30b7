package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	gameService "github.com/KirkDiggler/giftswap/internal/services/game"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

type listGamesResponse struct {
	Games []*gameService.GameSummary `json:"games"`
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	phase := models.GamePhase(r.URL.Query().Get("phase"))
	switch phase {
	case "", models.GamePhaseActive, models.GamePhaseVoting, models.GamePhaseResults:
	default:
		h.writeError(w, r, fmt.Errorf("%w: unknown phase %q", exchange.ErrInvalidInput, phase))
		return
	}

	out, err := h.games.ListGames(r.Context(), &gameService.ListGamesInput{Phase: phase})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	games := out.Games
	if games == nil {
		games = []*gameService.GameSummary{}
	}
	writeJSON(w, http.StatusOK, listGamesResponse{Games: games})
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	out, err := h.games.GetGame(r.Context(), &gameService.GetGameInput{GameID: ps.ByName("gameid")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, out.Game)
}

func (h *Handler) deleteGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, err := h.games.DeleteGame(r.Context(), &gameService.DeleteGameInput{GameID: ps.ByName("gameid")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// action runs the action built from the request and responds with the new snapshot
func (h *Handler) action(build actionBuilder) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		action, err := build(r, ps)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		out, err := h.games.Apply(r.Context(), &gameService.ApplyInput{
			GameID: ps.ByName("gameid"),
			Action: action,
		})
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, out.Game)
	}
}

func (h *Handler) streamGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")

	out, err := h.games.GetGame(r.Context(), &gameService.GetGameInput{GameID: gameID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Upgrade failures have already been answered by the upgrader
	if err := h.streamer.Serve(w, r, gameID, out.Game); err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("failed to start snapshot stream")
	}
}

// serveQR renders a PNG QR code linking to the game's display page
func (h *Handler) serveQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")

	png, err := qrcode.Encode(h.displayURL(r, gameID), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Msg("qr generation failed")
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

func (h *Handler) displayURL(r *http.Request, gameID string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/games/" + url.PathEscape(gameID)
}
