package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	broadcastMocks "github.com/KirkDiggler/giftswap/internal/broadcast/mocks"
	"github.com/KirkDiggler/giftswap/internal/common/clock/mocks"
	"github.com/KirkDiggler/giftswap/internal/common/uuid"
	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	gameRepo "github.com/KirkDiggler/giftswap/internal/repositories/game"
	gameMocks "github.com/KirkDiggler/giftswap/internal/repositories/game/mocks"
	gamesvc "github.com/KirkDiggler/giftswap/internal/services/game"
	serviceMocks "github.com/KirkDiggler/giftswap/internal/services/game/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GameServiceTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	mockGameRepo  *gameMocks.MockRepository
	mockPublisher *broadcastMocks.MockPublisher
	mockClock     *mocks.MockClock
	mockDeadlines *serviceMocks.MockDeadlineScheduler
	gameService   gamesvc.Service
	ctx           context.Context

	// Test data
	testTime   time.Time
	testGameID string
	aliceID    string
	bobID      string

	// Reusable test fixtures
	storedGame *models.Game
}

func (s *GameServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockGameRepo = gameMocks.NewMockRepository(s.mockCtrl)
	s.mockPublisher = broadcastMocks.NewMockPublisher(s.mockCtrl)
	s.mockClock = mocks.NewMockClock(s.mockCtrl)
	s.mockDeadlines = serviceMocks.NewMockDeadlineScheduler(s.mockCtrl)

	s.ctx = context.Background()

	// Initialize test data
	s.testTime = time.Date(2025, 12, 20, 19, 0, 0, 0, time.UTC)
	s.testGameID = "office-party"

	// Set up the clock mock to return our test time
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	// A stored game with two participants, Alice to act
	env := exchange.Env{Now: s.testTime, IDs: uuid.NewSequential("fixture")}
	game := exchange.NewGame(s.testGameID, exchange.DefaultSettings(), s.testTime)
	game, err := exchange.Apply(game, exchange.AddParticipant{Name: "Alice"}, env)
	s.Require().NoError(err)
	game, err = exchange.Apply(game, exchange.AddParticipant{Name: "Bob"}, env)
	s.Require().NoError(err)
	game.Version = 4
	s.storedGame = game
	s.aliceID = game.Participants[0].ID
	s.bobID = game.Participants[1].ID

	svc, err := gamesvc.New(&gamesvc.Config{
		GameRepo:      s.mockGameRepo,
		Publisher:     s.mockPublisher,
		Clock:         s.mockClock,
		UUIDGenerator: uuid.NewSequential("id"),
		Deadlines:     s.mockDeadlines,
	})
	s.Require().NoError(err)
	s.gameService = svc
}

func (s *GameServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestGameServiceSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

// expectLoad returns a copy of game from the repository
func (s *GameServiceTestSuite) expectLoad(game *models.Game) *gomock.Call {
	return s.mockGameRepo.EXPECT().
		GetGame(gomock.Any(), &gameRepo.GetGameInput{GameID: s.testGameID}).
		Return(game.Clone(), nil)
}

// expectSave accepts the save and bumps the version like a real repository
func (s *GameServiceTestSuite) expectSave(expectedVersion int64) *gomock.Call {
	return s.mockGameRepo.EXPECT().
		SaveGame(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, input *gameRepo.SaveGameInput) (*gameRepo.SaveGameOutput, error) {
			s.Equal(expectedVersion, input.ExpectedVersion)
			saved := input.Game.Clone()
			saved.Version = input.ExpectedVersion + 1
			return &gameRepo.SaveGameOutput{Game: saved}, nil
		})
}

func (s *GameServiceTestSuite) expectConflict() *gomock.Call {
	return s.mockGameRepo.EXPECT().
		SaveGame(gomock.Any(), gomock.Any()).
		Return(nil, exchange.ErrConcurrentModification)
}

func (s *GameServiceTestSuite) TestNew_Validation() {
	testCases := []struct {
		name string
		cfg  *gamesvc.Config
		err  error
	}{
		{"nil config", nil, gamesvc.ErrNilConfig},
		{"nil repo", &gamesvc.Config{}, gamesvc.ErrNilGameRepo},
		{"nil publisher", &gamesvc.Config{GameRepo: s.mockGameRepo}, gamesvc.ErrNilPublisher},
		{"nil clock", &gamesvc.Config{GameRepo: s.mockGameRepo, Publisher: s.mockPublisher}, gamesvc.ErrNilClock},
		{"nil uuid", &gamesvc.Config{GameRepo: s.mockGameRepo, Publisher: s.mockPublisher, Clock: s.mockClock}, gamesvc.ErrNilUUIDGenerator},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := gamesvc.New(tc.cfg)
			s.Equal(tc.err, err)
		})
	}
}

func (s *GameServiceTestSuite) TestGetGame_Existing() {
	s.expectLoad(s.storedGame)

	output, err := s.gameService.GetGame(s.ctx, &gamesvc.GetGameInput{GameID: s.testGameID})

	s.Require().NoError(err)
	s.False(output.Created)
	s.Equal(int64(4), output.Game.Version)
	s.Len(output.Game.Participants, 2)
}

func (s *GameServiceTestSuite) TestGetGame_CreatesOnFirstReference() {
	s.mockGameRepo.EXPECT().
		GetGame(gomock.Any(), &gameRepo.GetGameInput{GameID: s.testGameID}).
		Return(nil, gameRepo.ErrGameNotFound)
	s.expectSave(0)
	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), s.testGameID, gomock.Any()).
		Return(nil)

	output, err := s.gameService.GetGame(s.ctx, &gamesvc.GetGameInput{GameID: s.testGameID})

	s.Require().NoError(err)
	s.True(output.Created)
	s.Equal(int64(1), output.Game.Version)
	s.Equal(models.GamePhaseActive, output.Game.Phase)
	s.Equal(exchange.DefaultSettings(), output.Game.Settings)
	s.Equal(s.testTime, output.Game.CreatedAt)
}

func (s *GameServiceTestSuite) TestGetGame_LosesCreateRace() {
	gomock.InOrder(
		s.mockGameRepo.EXPECT().
			GetGame(gomock.Any(), &gameRepo.GetGameInput{GameID: s.testGameID}).
			Return(nil, gameRepo.ErrGameNotFound),
		s.expectConflict(),
		s.expectLoad(s.storedGame),
	)

	output, err := s.gameService.GetGame(s.ctx, &gamesvc.GetGameInput{GameID: s.testGameID})

	s.Require().NoError(err)
	s.False(output.Created)
	s.Equal(int64(4), output.Game.Version)
}

func (s *GameServiceTestSuite) TestGetGame_InvalidID() {
	for _, id := range []string{"", "has space", "slash/y", string(make([]byte, 65))} {
		_, err := s.gameService.GetGame(s.ctx, &gamesvc.GetGameInput{GameID: id})
		s.ErrorIs(err, exchange.ErrInvalidInput, id)
		s.ErrorIs(err, gamesvc.ErrInvalidGameID, id)
	}
}

func (s *GameServiceTestSuite) TestGetGame_RepositoryError() {
	expectedError := errors.New("redis unavailable")
	s.mockGameRepo.EXPECT().
		GetGame(gomock.Any(), gomock.Any()).
		Return(nil, expectedError)

	output, err := s.gameService.GetGame(s.ctx, &gamesvc.GetGameInput{GameID: s.testGameID})

	s.ErrorIs(err, expectedError)
	s.Nil(output)
}

func (s *GameServiceTestSuite) TestApply_HappyPath() {
	s.expectLoad(s.storedGame)
	s.expectSave(4)
	s.mockDeadlines.EXPECT().Cancel(s.testGameID)
	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), s.testGameID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, gameID string, game *models.Game) error {
			s.Equal(int64(5), game.Version)
			return nil
		})

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.OpenGift{ParticipantID: s.aliceID, Description: "Mug"},
	})

	s.Require().NoError(err)
	s.Equal(1, output.Attempts)
	s.Equal(int64(5), output.Game.Version)
	s.Require().Len(output.Game.Gifts, 1)
	s.Equal(s.aliceID, output.Game.Gifts[0].OwnerID)
	s.Equal(s.testTime, output.Game.LastActivity)
}

func (s *GameServiceTestSuite) TestApply_RejectedActionIsNotSaved() {
	s.expectLoad(s.storedGame)

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.OpenGift{ParticipantID: s.bobID, Description: "Mug"},
	})

	s.ErrorIs(err, exchange.ErrNotActive)
	s.Nil(output)
}

func (s *GameServiceTestSuite) TestApply_RetriesOnConflict() {
	// Someone renamed nothing but bumped the version in between
	newer := s.storedGame.Clone()
	newer.Version = 5

	gomock.InOrder(
		s.expectLoad(s.storedGame),
		s.expectConflict(),
		s.expectLoad(newer),
		s.expectSave(5),
	)
	s.mockDeadlines.EXPECT().Cancel(s.testGameID)
	s.mockPublisher.EXPECT().Publish(gomock.Any(), s.testGameID, gomock.Any()).Return(nil)

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.OpenGift{ParticipantID: s.aliceID, Description: "Mug"},
	})

	s.Require().NoError(err)
	s.Equal(2, output.Attempts)
	s.Equal(int64(6), output.Game.Version)
}

func (s *GameServiceTestSuite) TestApply_RevalidatesAfterConflict() {
	// By the time we reload, Alice already opened a gift elsewhere
	env := exchange.Env{Now: s.testTime, IDs: uuid.NewSequential("other")}
	newer, err := exchange.Apply(s.storedGame, exchange.OpenGift{ParticipantID: s.aliceID, Description: "Candle"}, env)
	s.Require().NoError(err)
	newer.Version = 5

	gomock.InOrder(
		s.expectLoad(s.storedGame),
		s.expectConflict(),
		s.expectLoad(newer),
	)

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.OpenGift{ParticipantID: s.aliceID, Description: "Mug"},
	})

	s.ErrorIs(err, exchange.ErrNotActive)
	s.Nil(output)
}

func (s *GameServiceTestSuite) TestApply_GivesUpAfterRepeatedConflicts() {
	s.expectLoad(s.storedGame).Times(3)
	s.expectConflict().Times(3)

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.AdvanceTurn{},
	})

	s.ErrorIs(err, exchange.ErrConcurrentModification)
	s.Nil(output)
}

func (s *GameServiceTestSuite) TestApply_PublishErrorDoesNotFail() {
	s.expectLoad(s.storedGame)
	s.expectSave(4)
	s.mockDeadlines.EXPECT().Cancel(s.testGameID)
	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), s.testGameID, gomock.Any()).
		Return(errors.New("nobody listening"))

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.AdvanceTurn{},
	})

	s.Require().NoError(err)
	s.Equal(2, output.Game.CurrentTurn)
}

func (s *GameServiceTestSuite) TestApply_SchedulesVotingDeadline() {
	duration := 180

	s.expectLoad(s.storedGame)
	s.expectSave(4)
	s.mockDeadlines.EXPECT().Schedule(s.testGameID, s.testTime.Add(3*time.Minute))
	s.mockPublisher.EXPECT().Publish(gomock.Any(), s.testGameID, gomock.Any()).Return(nil)

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.EndGame{VotingDurationSeconds: &duration},
	})

	s.Require().NoError(err)
	s.Equal(models.GamePhaseVoting, output.Game.Phase)
}

func (s *GameServiceTestSuite) TestApply_ResetRestoresConfiguredDefaults() {
	defaults := models.Settings{MaxSteals: 2, TurnDurationSeconds: 45, ActivePlayerCount: 2}
	svc, err := gamesvc.New(&gamesvc.Config{
		GameRepo:        s.mockGameRepo,
		Publisher:       s.mockPublisher,
		Clock:           s.mockClock,
		UUIDGenerator:   uuid.NewSequential("id"),
		Deadlines:       s.mockDeadlines,
		DefaultSettings: defaults,
	})
	s.Require().NoError(err)

	s.expectLoad(s.storedGame)
	s.expectSave(4)
	s.mockDeadlines.EXPECT().Cancel(s.testGameID)
	s.mockPublisher.EXPECT().Publish(gomock.Any(), s.testGameID, gomock.Any()).Return(nil)

	output, err := svc.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.ResetGame{},
	})

	s.Require().NoError(err)
	s.Empty(output.Game.Participants)
	s.Equal(defaults, output.Game.Settings)
}

func (s *GameServiceTestSuite) TestApply_CreatesGameOnFirstAction() {
	s.mockGameRepo.EXPECT().
		GetGame(gomock.Any(), &gameRepo.GetGameInput{GameID: s.testGameID}).
		Return(nil, gameRepo.ErrGameNotFound)
	s.expectSave(0)
	s.mockDeadlines.EXPECT().Cancel(s.testGameID)
	s.mockPublisher.EXPECT().Publish(gomock.Any(), s.testGameID, gomock.Any()).Return(nil)

	output, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{
		GameID: s.testGameID,
		Action: exchange.AddParticipant{Name: "Alice"},
	})

	s.Require().NoError(err)
	s.Equal(int64(1), output.Game.Version)
	s.Len(output.Game.Participants, 1)
}

func (s *GameServiceTestSuite) TestApply_InvalidInput() {
	_, err := s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{GameID: s.testGameID})
	s.ErrorIs(err, gamesvc.ErrNilAction)

	_, err = s.gameService.Apply(s.ctx, &gamesvc.ApplyInput{GameID: "bad id", Action: exchange.AdvanceTurn{}})
	s.ErrorIs(err, exchange.ErrInvalidInput)
}

func (s *GameServiceTestSuite) TestDeleteGame() {
	s.mockGameRepo.EXPECT().
		DeleteGame(gomock.Any(), &gameRepo.DeleteGameInput{GameID: s.testGameID}).
		Return(nil)
	s.mockDeadlines.EXPECT().Cancel(s.testGameID)

	_, err := s.gameService.DeleteGame(s.ctx, &gamesvc.DeleteGameInput{GameID: s.testGameID})
	s.Require().NoError(err)
}

func (s *GameServiceTestSuite) TestDeleteGame_NotFound() {
	s.mockGameRepo.EXPECT().
		DeleteGame(gomock.Any(), &gameRepo.DeleteGameInput{GameID: s.testGameID}).
		Return(gameRepo.ErrGameNotFound)

	_, err := s.gameService.DeleteGame(s.ctx, &gamesvc.DeleteGameInput{GameID: s.testGameID})
	s.ErrorIs(err, exchange.ErrNotFound)
}

func (s *GameServiceTestSuite) TestListGames() {
	voting := s.storedGame.Clone()
	voting.ID = "voting-game"
	voting.Phase = models.GamePhaseVoting

	s.mockGameRepo.EXPECT().
		ListGames(gomock.Any(), &gameRepo.ListGamesInput{}).
		Return(&gameRepo.ListGamesOutput{Games: []*models.Game{s.storedGame, voting}}, nil)

	output, err := s.gameService.ListGames(s.ctx, &gamesvc.ListGamesInput{})

	s.Require().NoError(err)
	s.Require().Len(output.Games, 2)
	s.Equal(s.testGameID, output.Games[0].ID)
	s.Equal(2, output.Games[0].ParticipantCount)
	s.Equal(int64(4), output.Games[0].Version)
}

func (s *GameServiceTestSuite) TestListGames_VotingUsesIndex() {
	voting := s.storedGame.Clone()
	voting.Phase = models.GamePhaseVoting

	s.mockGameRepo.EXPECT().
		ListVotingGames(gomock.Any(), &gameRepo.ListVotingGamesInput{}).
		Return(&gameRepo.ListVotingGamesOutput{Games: []*models.Game{voting}}, nil)

	output, err := s.gameService.ListGames(s.ctx, &gamesvc.ListGamesInput{Phase: models.GamePhaseVoting})

	s.Require().NoError(err)
	s.Require().Len(output.Games, 1)
	s.Equal(models.GamePhaseVoting, output.Games[0].Phase)
}

// Two writers racing on the real in-memory repository: both succeed, one
// after a retry, and neither update is lost
func (s *GameServiceTestSuite) TestApply_ConcurrentWritersOnMemoryRepository() {
	repo := gameRepo.NewMemory()
	_, err := repo.SaveGame(s.ctx, &gameRepo.SaveGameInput{Game: s.storedGame, ExpectedVersion: 0})
	s.Require().NoError(err)

	s.mockPublisher.EXPECT().Publish(gomock.Any(), s.testGameID, gomock.Any()).Return(nil).Times(2)

	svc, err := gamesvc.New(&gamesvc.Config{
		GameRepo:      repo,
		Publisher:     s.mockPublisher,
		Clock:         s.mockClock,
		UUIDGenerator: uuid.NewSequential("race"),
		MaxRetries:    10,
	})
	s.Require().NoError(err)

	errs := make(chan error, 2)
	for _, action := range []exchange.Action{
		exchange.UpdateSettings{TurnDurationSeconds: intPtr(90)},
		exchange.AddParticipant{Name: "Carol"},
	} {
		go func(action exchange.Action) {
			_, err := svc.Apply(s.ctx, &gamesvc.ApplyInput{GameID: s.testGameID, Action: action})
			errs <- err
		}(action)
	}
	s.NoError(<-errs)
	s.NoError(<-errs)

	final, err := repo.GetGame(s.ctx, &gameRepo.GetGameInput{GameID: s.testGameID})
	s.Require().NoError(err)
	s.Equal(int64(3), final.Version)
	s.Equal(90, final.Settings.TurnDurationSeconds)
	s.Len(final.Participants, 3)
}

func intPtr(v int) *int {
	return &v
}
