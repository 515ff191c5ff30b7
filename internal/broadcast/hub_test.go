package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type HubTestSuite struct {
	suite.Suite
	hub    *Hub
	cancel context.CancelFunc
	server *httptest.Server
}

func (s *HubTestSuite) SetupTest() {
	s.hub = NewHub(DefaultHubConfig())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Start(ctx)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("game")
		current := &models.Game{ID: gameID, Version: 1}
		if err := s.hub.Serve(w, r, gameID, current); err != nil {
			s.T().Logf("serve: %v", err)
		}
	}))
}

func (s *HubTestSuite) TearDownTest() {
	s.server.Close()
	s.cancel()
}

func TestHubTestSuite(t *testing.T) {
	suite.Run(t, new(HubTestSuite))
}

func (s *HubTestSuite) dial(gameID string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/?game=" + gameID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	return conn
}

func (s *HubTestSuite) read(conn *websocket.Conn) *models.Game {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)

	game, err := decodeSnapshot(data)
	s.Require().NoError(err)
	return game
}

func (s *HubTestSuite) TestServe_SendsCurrentSnapshotThenUpdates() {
	conn := s.dial("test-game-id")
	defer conn.Close()

	initial := s.read(conn)
	s.Equal("test-game-id", initial.ID)
	s.Equal(int64(1), initial.Version)
	s.Equal(1, s.hub.ConnectionCount("test-game-id"))

	s.Require().NoError(s.hub.Publish(context.Background(), "test-game-id", &models.Game{ID: "test-game-id", Version: 2}))

	update := s.read(conn)
	s.Equal(int64(2), update.Version)
}

func (s *HubTestSuite) TestPublish_OnlyReachesWatchers() {
	watcher := s.dial("game-a")
	defer watcher.Close()
	other := s.dial("game-b")
	defer other.Close()

	s.read(watcher)
	s.read(other)

	s.Require().NoError(s.hub.Publish(context.Background(), "game-b", &models.Game{ID: "game-b", Version: 5}))
	s.Require().NoError(s.hub.Publish(context.Background(), "game-a", &models.Game{ID: "game-a", Version: 9}))

	// game-a's next frame is its own update, not game-b's
	s.Equal(int64(9), s.read(watcher).Version)
	s.Equal(int64(5), s.read(other).Version)
}

func (s *HubTestSuite) TestDisconnect_Unregisters() {
	conn := s.dial("test-game-id")
	s.read(conn)
	s.Equal(1, s.hub.ConnectionCount("test-game-id"))

	conn.Close()

	s.Eventually(func() bool {
		return s.hub.ConnectionCount("test-game-id") == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func (s *HubTestSuite) TestPublish_QueueFull() {
	hub := NewHub(HubConfig{QueueSize: 1})

	s.Require().NoError(hub.Publish(context.Background(), "test-game-id", &models.Game{ID: "test-game-id"}))
	err := hub.Publish(context.Background(), "test-game-id", &models.Game{ID: "test-game-id"})
	s.ErrorIs(err, ErrHubBusy)
}

func (s *HubTestSuite) TestDeliver_ConcurrentUnregister() {
	hub := NewHub(DefaultHubConfig())
	data := []byte(`{"id":"test-game-id"}`)

	for i := 0; i < 500; i++ {
		c := &client{
			id:     "test-connection-id",
			gameID: "test-game-id",
			send:   make(chan []byte, 8),
			hub:    hub,
		}
		hub.register(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.deliver(snapshot{gameID: "test-game-id", data: data})
		}()
		go func() {
			defer wg.Done()
			hub.unregister(c)
		}()
		wg.Wait()

		s.Equal(0, hub.ConnectionCount("test-game-id"))
	}
}
