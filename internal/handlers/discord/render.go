package discord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/bwmarrin/discordgo"
)

const (
	colorStatus = 0x00ff00
	colorGifts  = 0x3498db
	colorError  = 0xff0000

	// Discord rejects embeds with more fields than this
	maxEmbedFields = 25
)

// renderStatus builds the status embed for a game
func renderStatus(game *models.Game, headline string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎁 %s", game.ID),
		Description: headline,
		Color:       colorStatus,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Phase", Value: string(game.Phase), Inline: true},
			{Name: "Participants", Value: fmt.Sprintf("%d", len(game.Participants)), Inline: true},
			{Name: "Gifts", Value: fmt.Sprintf("%d", len(game.Gifts)), Inline: true},
		},
	}

	switch game.Phase {
	case models.GamePhaseActive:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Up now",
			Value: nameList(exchange.ActiveParticipants(game), "nobody"),
		})

		queue := exchange.WaitingQueue(game)
		if len(queue) > 5 {
			queue = queue[:5]
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Queue",
			Value: nameList(queue, "nobody"),
		})
	case models.GamePhaseVoting:
		if game.VotingDeadline != nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Voting closes",
				Value: fmt.Sprintf("<t:%d:R>", game.VotingDeadline.Unix()),
			})
		}
	}

	return embed
}

// renderGifts lists every gift with its holder and steal count
func renderGifts(game *models.Game) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎁 Gifts in %s", game.ID),
		Color: colorGifts,
	}

	if len(game.Gifts) == 0 {
		embed.Description = "No gifts have been opened yet."
		return embed
	}

	gifts := make([]*models.Gift, len(game.Gifts))
	copy(gifts, game.Gifts)
	if game.Phase.IsResults() {
		// Least loved first
		sort.SliceStable(gifts, func(a, b int) bool {
			return len(gifts[a].Downvotes) > len(gifts[b].Downvotes)
		})
	}

	for _, gift := range gifts {
		if len(embed.Fields) == maxEmbedFields {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("and %d more", len(gifts)-maxEmbedFields),
			}
			break
		}

		holder := "nobody"
		if owner := game.FindParticipant(gift.OwnerID); owner != nil {
			holder = owner.Name
		}

		value := fmt.Sprintf("Held by %s · stolen %d/%d", holder, gift.StealCount, game.Settings.MaxSteals)
		if gift.IsFrozen {
			value += " 🧊"
		}
		if !game.Phase.IsActive() {
			value += fmt.Sprintf(" · 👎 %d", len(gift.Downvotes))
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  gift.Description,
			Value: value,
		})
	}

	return embed
}

func nameList(participants []*models.Participant, empty string) string {
	if len(participants) == 0 {
		return empty
	}

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		name := p.Name
		if p.IsVictim {
			name += " (stolen from)"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
