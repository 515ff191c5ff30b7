package web

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/KirkDiggler/giftswap/internal/services/messaging"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error   string `json:"error"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// statusFor maps a rejection to its HTTP status
func statusFor(kind messaging.RejectionKind) int {
	switch kind {
	case messaging.RejectionNotFound:
		return http.StatusNotFound
	case messaging.RejectionInvalidInput:
		return http.StatusBadRequest
	case messaging.RejectionConflict, messaging.RejectionWrongPhase:
		return http.StatusConflict
	case messaging.RejectionNotActive,
		messaging.RejectionAlreadyHolding,
		messaging.RejectionGiftFrozen,
		messaging.RejectionNoTakeBacks,
		messaging.RejectionNoOwner,
		messaging.RejectionOwnGift:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	out, msgErr := h.messages.GetRejectionMessage(r.Context(), &messaging.GetRejectionMessageInput{Err: err})
	if msgErr != nil {
		log.Error().Err(msgErr).Msg("failed to build rejection message")
		out = &messaging.GetRejectionMessageOutput{
			Kind:    messaging.KindOf(err),
			Title:   "Error",
			Message: err.Error(),
		}
	}

	status := statusFor(out.Kind)
	resp := errorResponse{
		Error:   string(out.Kind),
		Title:   out.Title,
		Message: out.Message,
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		resp.Detail = err.Error()
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, status, resp)
}

var errBodyTooLarge = errors.New("request body too large")

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}
