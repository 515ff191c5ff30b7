package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/bwmarrin/discordgo"
)

const (
	colorOpen  = 0x00ff00
	colorSteal = 0xff9900
	colorPhase = 0x3498db
	colorReset = 0xff0000
)

// MessageSender is the part of *discordgo.Session the announcer uses
type MessageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordConfig holds configuration for the Discord announcer
type DiscordConfig struct {
	Session   MessageSender
	ChannelID string
}

// DiscordAnnouncer posts new history entries of a game to a Discord channel
type DiscordAnnouncer struct {
	session   MessageSender
	channelID string

	mu       sync.Mutex
	lastSeen map[string]string // game ID -> ID of the last history entry handled
}

// NewDiscord creates a Discord announcer
func NewDiscord(cfg *DiscordConfig) (*DiscordAnnouncer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Session == nil {
		return nil, errors.New("discord session cannot be nil")
	}

	if cfg.ChannelID == "" {
		return nil, errors.New("channel ID cannot be empty")
	}

	return &DiscordAnnouncer{
		session:   cfg.Session,
		channelID: cfg.ChannelID,
		lastSeen:  make(map[string]string),
	}, nil
}

func (a *DiscordAnnouncer) Publish(ctx context.Context, gameID string, game *models.Game) error {
	if game == nil {
		return errors.New("game cannot be nil")
	}

	var errs []error
	for _, entry := range a.unseen(gameID, game.History) {
		embed := renderEntry(game, entry)
		if embed == nil {
			continue
		}

		if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("failed to announce %s for game %s: %w", entry.Type, gameID, err))
		}
	}
	return errors.Join(errs...)
}

// unseen returns the entries recorded since the last call for the game. A game
// seen for the first time, or whose history was reset, yields only its latest entry.
func (a *DiscordAnnouncer) unseen(gameID string, history []*models.HistoryEntry) []*models.HistoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(history) == 0 {
		delete(a.lastSeen, gameID)
		return nil
	}

	last := a.lastSeen[gameID]
	a.lastSeen[gameID] = history[len(history)-1].ID

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ID == last {
			return history[i+1:]
		}
	}
	return history[len(history)-1:]
}

// renderEntry builds the embed for a history entry, or nil when the entry is
// not worth announcing
func renderEntry(game *models.Game, entry *models.HistoryEntry) *discordgo.MessageEmbed {
	switch entry.Type {
	case models.HistoryTypeOpen:
		return &discordgo.MessageEmbed{
			Title:       "🎁 Gift opened",
			Description: entry.Message,
			Color:       colorOpen,
		}

	case models.HistoryTypeSteal:
		embed := &discordgo.MessageEmbed{
			Title:       "🦹 Gift stolen",
			Description: entry.Message,
			Color:       colorSteal,
		}
		if gift := game.FindGift(entry.GiftID); gift != nil {
			status := fmt.Sprintf("%d/%d", gift.StealCount, game.Settings.MaxSteals)
			if gift.IsFrozen {
				status += " 🧊 frozen"
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Steals",
				Value:  status,
				Inline: true,
			})
		}
		if victim := game.FindParticipant(entry.TargetID); victim != nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Up next",
				Value:  victim.Name,
				Inline: true,
			})
		}
		return embed

	case models.HistoryTypePhase:
		return &discordgo.MessageEmbed{
			Title:       "📣 " + phaseTitle(game.Phase),
			Description: entry.Message,
			Color:       colorPhase,
		}

	case models.HistoryTypeReset:
		return &discordgo.MessageEmbed{
			Title:       "Game reset",
			Description: entry.Message,
			Color:       colorReset,
		}
	}
	return nil
}

func phaseTitle(phase models.GamePhase) string {
	switch phase {
	case models.GamePhaseVoting:
		return "Voting is open"
	case models.GamePhaseResults:
		return "Results are in"
	default:
		return "Game on"
	}
}
