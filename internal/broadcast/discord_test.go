package broadcast

import (
	"context"
	"errors"
	"testing"

	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
)

type fakeSender struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
	err      error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channels = append(f.channels, channelID)
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, nil
}

type DiscordAnnouncerTestSuite struct {
	suite.Suite
	sender    *fakeSender
	announcer *DiscordAnnouncer
	game      *models.Game
}

func (s *DiscordAnnouncerTestSuite) SetupTest() {
	s.sender = &fakeSender{}

	announcer, err := NewDiscord(&DiscordConfig{
		Session:   s.sender,
		ChannelID: "test-channel-id",
	})
	s.Require().NoError(err)
	s.announcer = announcer

	s.game = &models.Game{
		ID:       "test-game-id",
		Settings: models.Settings{MaxSteals: 2},
		Phase:    models.GamePhaseActive,
		Participants: []*models.Participant{
			{ID: "p1", Name: "Alice", Sequence: 1},
			{ID: "p2", Name: "Bob", Sequence: 2},
		},
		Gifts: []*models.Gift{
			{ID: "g1", Description: "Mug", OwnerID: "p2", StealCount: 2, IsFrozen: true},
		},
		History: []*models.HistoryEntry{
			{ID: "h1", Type: models.HistoryTypeAddParticipant, Message: "Alice joined as #1"},
		},
	}
}

func TestDiscordAnnouncerTestSuite(t *testing.T) {
	suite.Run(t, new(DiscordAnnouncerTestSuite))
}

func (s *DiscordAnnouncerTestSuite) TestNewDiscord_Validation() {
	_, err := NewDiscord(nil)
	s.Error(err)

	_, err = NewDiscord(&DiscordConfig{Session: s.sender})
	s.Error(err)

	_, err = NewDiscord(&DiscordConfig{ChannelID: "test-channel-id"})
	s.Error(err)
}

func (s *DiscordAnnouncerTestSuite) TestPublish_OnlyNewEntries() {
	ctx := context.Background()

	// Joining is not announced
	s.Require().NoError(s.announcer.Publish(ctx, s.game.ID, s.game))
	s.Empty(s.sender.embeds)

	s.game.History = append(s.game.History,
		&models.HistoryEntry{ID: "h2", Type: models.HistoryTypeOpen, ActorID: "p1", GiftID: "g1", Message: "Alice opened Mug"},
		&models.HistoryEntry{ID: "h3", Type: models.HistoryTypeSteal, ActorID: "p2", TargetID: "p1", GiftID: "g1", Message: "Bob stole Mug from Alice (frozen)"},
	)
	s.Require().NoError(s.announcer.Publish(ctx, s.game.ID, s.game))

	s.Require().Len(s.sender.embeds, 2)
	s.Equal("test-channel-id", s.sender.channels[0])
	s.Equal("Alice opened Mug", s.sender.embeds[0].Description)

	steal := s.sender.embeds[1]
	s.Equal(colorSteal, steal.Color)
	s.Require().Len(steal.Fields, 2)
	s.Equal("2/2 🧊 frozen", steal.Fields[0].Value)
	s.Equal("Alice", steal.Fields[1].Value)

	// Same snapshot again announces nothing
	s.Require().NoError(s.announcer.Publish(ctx, s.game.ID, s.game))
	s.Len(s.sender.embeds, 2)
}

func (s *DiscordAnnouncerTestSuite) TestPublish_ResetHistory() {
	ctx := context.Background()
	s.Require().NoError(s.announcer.Publish(ctx, s.game.ID, s.game))

	s.game.Phase = models.GamePhaseActive
	s.game.History = []*models.HistoryEntry{
		{ID: "r1", Type: models.HistoryTypeReset, Message: "game was reset"},
	}
	s.Require().NoError(s.announcer.Publish(ctx, s.game.ID, s.game))

	s.Require().Len(s.sender.embeds, 1)
	s.Equal("Game reset", s.sender.embeds[0].Title)
}

func (s *DiscordAnnouncerTestSuite) TestPublish_SendError() {
	s.sender.err = errors.New("rate limited")
	s.game.History = append(s.game.History,
		&models.HistoryEntry{ID: "h2", Type: models.HistoryTypePhase, Message: "active ended, now results"},
	)
	s.game.Phase = models.GamePhaseResults

	// First sight of a game only announces the latest entry
	err := s.announcer.Publish(context.Background(), s.game.ID, s.game)
	s.ErrorIs(err, s.sender.err)
}
