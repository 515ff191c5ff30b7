// Package web exposes the game service over HTTP: a JSON API for the
// moderator console, a websocket snapshot stream for displays and phones, and
// a QR code pointing at the display page.
package web

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/KirkDiggler/giftswap/internal/models"
	gameService "github.com/KirkDiggler/giftswap/internal/services/game"
	"github.com/KirkDiggler/giftswap/internal/services/messaging"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const (
	qrSize          = 320
	maxRequestBytes = 64 << 10
)

// Streamer upgrades a request into a live snapshot stream for one game
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, gameID string, current *models.Game) error
}

// Config holds the dependencies of the HTTP handlers
type Config struct {
	GameService gameService.Service
	Messaging   messaging.Service
	Streamer    Streamer

	// PublicURL is the externally visible base URL used in QR codes. When
	// empty it is derived from the request.
	PublicURL string

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// HSTS adds Strict-Transport-Security to every response
	HSTS bool
}

// Handler serves the HTTP API
type Handler struct {
	games     gameService.Service
	messages  messaging.Service
	streamer  Streamer
	publicURL string
	origins   []string
	hsts      bool
}

// New creates the HTTP handlers
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.GameService == nil {
		return nil, errors.New("game service cannot be nil")
	}

	if cfg.Messaging == nil {
		return nil, errors.New("messaging service cannot be nil")
	}

	if cfg.Streamer == nil {
		return nil, errors.New("streamer cannot be nil")
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Handler{
		games:     cfg.GameService,
		messages:  cfg.Messaging,
		streamer:  cfg.Streamer,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		origins:   origins,
		hsts:      cfg.HSTS,
	}, nil
}

// Routes returns the complete HTTP handler
func (h *Handler) Routes() http.Handler {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		log.Error().
			Interface("panic", i).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("handler panicked")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(messaging.RejectionUnknown),
			Title:   "Server Error",
			Message: "An error has occurred. Please try again.",
		})
	}

	mux.GET("/healthz", h.serveHealthCheck)

	mux.GET("/api/games", h.listGames)
	mux.GET("/api/games/:gameid", h.getGame)
	mux.DELETE("/api/games/:gameid", h.deleteGame)
	mux.GET("/api/games/:gameid/ws", h.streamGame)
	mux.GET("/api/games/:gameid/qr", h.serveQR)

	mux.POST("/api/games/:gameid/participants", h.action(addParticipant))
	mux.DELETE("/api/games/:gameid/participants/:pid", h.action(removeParticipant))
	mux.POST("/api/games/:gameid/open", h.action(openGift))
	mux.POST("/api/games/:gameid/steal", h.action(stealGift))
	mux.POST("/api/games/:gameid/advance", h.action(advanceTurn))
	mux.POST("/api/games/:gameid/reset-timer", h.action(resetTimer))
	mux.POST("/api/games/:gameid/gifts/:giftid", h.action(editGift))
	mux.POST("/api/games/:gameid/gifts/:giftid/images", h.action(addGiftImage))
	mux.DELETE("/api/games/:gameid/gifts/:giftid/images/:imageid", h.action(removeGiftImage))
	mux.POST("/api/games/:gameid/gifts/:giftid/primary-image", h.action(setPrimaryImage))
	mux.POST("/api/games/:gameid/phase", h.action(setPhase))
	mux.POST("/api/games/:gameid/downvote", h.action(downvote))
	mux.POST("/api/games/:gameid/reset", h.action(resetGame))
	mux.POST("/api/games/:gameid/settings", h.action(updateSettings))

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedOrigins: h.origins,
		AllowedHeaders: []string{"*"},
	})

	return h.logRequests(h.securityHeaders(c.Handler(mux)))
}

func (h *Handler) serveHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ok\n"))
}

func (h *Handler) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		if h.hsts {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack hands the connection to the websocket upgrader
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Str("remote_addr", realIP(r)).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
