package game

import (
	"context"
	"sync"
	"time"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite holds the behaviour every Repository implementation shares.
// Implementations embed it and set repo in SetupTest.
type RepositoryTestSuite struct {
	suite.Suite
	repo    Repository
	ctx     context.Context
	testNow time.Time
}

func (s *RepositoryTestSuite) newGame(id string) *models.Game {
	game := exchange.NewGame(id, exchange.DefaultSettings(), s.testNow)
	game.Participants = append(game.Participants, &models.Participant{
		ID:       "participant-1",
		Name:     "Alice",
		Sequence: 1,
		Status:   models.ParticipantStatusWaiting,
	})
	return game
}

func (s *RepositoryTestSuite) TestSaveAndGetGame() {
	game := s.newGame("test-game-id")

	out, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game})
	s.Require().NoError(err)
	s.Equal(int64(1), out.Game.Version)
	s.Equal(int64(0), game.Version)

	retrieved, err := s.repo.GetGame(s.ctx, &GetGameInput{GameID: "test-game-id"})
	s.Require().NoError(err)
	s.Equal(int64(1), retrieved.Version)
	s.Equal(models.GamePhaseActive, retrieved.Phase)
	s.Require().Len(retrieved.Participants, 1)
	s.Equal("Alice", retrieved.Participants[0].Name)
	s.True(s.testNow.Equal(retrieved.CreatedAt))
}

func (s *RepositoryTestSuite) TestGetGame_NotFound() {
	_, err := s.repo.GetGame(s.ctx, &GetGameInput{GameID: "missing"})
	s.ErrorIs(err, ErrGameNotFound)

	_, err = s.repo.GetGame(s.ctx, &GetGameInput{})
	s.Error(err)
}

func (s *RepositoryTestSuite) TestSaveGame_StaleVersion() {
	game := s.newGame("test-game-id")

	_, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game})
	s.Require().NoError(err)

	_, err = s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game})
	s.ErrorIs(err, exchange.ErrConcurrentModification)

	out, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game, ExpectedVersion: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), out.Game.Version)

	_, err = s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game, ExpectedVersion: 1})
	s.ErrorIs(err, exchange.ErrConcurrentModification)
}

func (s *RepositoryTestSuite) TestSaveGame_MissingGameWithVersion() {
	_, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: s.newGame("test-game-id"), ExpectedVersion: 3})
	s.ErrorIs(err, ErrGameNotFound)

	_, err = s.repo.SaveGame(s.ctx, &SaveGameInput{})
	s.Error(err)
}

func (s *RepositoryTestSuite) TestSaveGame_OneWriterWins() {
	game := s.newGame("test-game-id")
	_, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game})
	s.Require().NoError(err)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: game, ExpectedVersion: 1})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if s.ErrorIs(err, exchange.ErrConcurrentModification) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(writers-1, conflicts)

	stored, err := s.repo.GetGame(s.ctx, &GetGameInput{GameID: "test-game-id"})
	s.Require().NoError(err)
	s.Equal(int64(2), stored.Version)
}

func (s *RepositoryTestSuite) TestDeleteGame() {
	_, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: s.newGame("test-game-id")})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteGame(s.ctx, &DeleteGameInput{GameID: "test-game-id"}))

	_, err = s.repo.GetGame(s.ctx, &GetGameInput{GameID: "test-game-id"})
	s.ErrorIs(err, ErrGameNotFound)

	err = s.repo.DeleteGame(s.ctx, &DeleteGameInput{GameID: "test-game-id"})
	s.ErrorIs(err, ErrGameNotFound)

	out, err := s.repo.ListGames(s.ctx, &ListGamesInput{})
	s.Require().NoError(err)
	s.Empty(out.Games)
}

func (s *RepositoryTestSuite) TestListGamesAndVotingIndex() {
	first := s.newGame("game-a")
	second := s.newGame("game-b")
	second.CreatedAt = s.testNow.Add(time.Minute)

	_, err := s.repo.SaveGame(s.ctx, &SaveGameInput{Game: second})
	s.Require().NoError(err)
	_, err = s.repo.SaveGame(s.ctx, &SaveGameInput{Game: first})
	s.Require().NoError(err)

	all, err := s.repo.ListGames(s.ctx, &ListGamesInput{})
	s.Require().NoError(err)
	s.Require().Len(all.Games, 2)
	s.Equal("game-a", all.Games[0].ID)
	s.Equal("game-b", all.Games[1].ID)

	voting, err := s.repo.ListVotingGames(s.ctx, &ListVotingGamesInput{})
	s.Require().NoError(err)
	s.Empty(voting.Games)

	deadline := s.testNow.Add(3 * time.Minute)
	second.Phase = models.GamePhaseVoting
	second.VotingDeadline = &deadline
	_, err = s.repo.SaveGame(s.ctx, &SaveGameInput{Game: second, ExpectedVersion: 1})
	s.Require().NoError(err)

	voting, err = s.repo.ListVotingGames(s.ctx, &ListVotingGamesInput{})
	s.Require().NoError(err)
	s.Require().Len(voting.Games, 1)
	s.Equal("game-b", voting.Games[0].ID)
	s.Require().NotNil(voting.Games[0].VotingDeadline)
	s.True(deadline.Equal(*voting.Games[0].VotingDeadline))

	second.Phase = models.GamePhaseResults
	second.VotingDeadline = nil
	_, err = s.repo.SaveGame(s.ctx, &SaveGameInput{Game: second, ExpectedVersion: 2})
	s.Require().NoError(err)

	voting, err = s.repo.ListVotingGames(s.ctx, &ListVotingGamesInput{})
	s.Require().NoError(err)
	s.Empty(voting.Games)
}
