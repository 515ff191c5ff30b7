package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/services/game"
	"github.com/KirkDiggler/giftswap/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const optionGame = "game"

// GiftswapCommand handles the /giftswap command
type GiftswapCommand struct {
	BaseCommand
	gameService      game.Service
	messagingService messaging.Service
}

// NewGiftswapCommand creates a new giftswap command handler
func NewGiftswapCommand(gameService game.Service, messagingService messaging.Service) *GiftswapCommand {
	gameOption := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optionGame,
			Description: "Game ID",
			Required:    true,
		},
	}

	return &GiftswapCommand{
		BaseCommand: BaseCommand{
			Name:        "giftswap",
			Description: "Gift exchange commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show whose turn it is",
					Options:     gameOption,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "gifts",
					Description: "List the gifts and who has them",
					Options:     gameOption,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "skip",
					Description: "Skip the next person in the queue",
					Options:     gameOption,
				},
			},
		},
		gameService:      gameService,
		messagingService: messagingService,
	}
}

// Handle processes a Discord interaction for the giftswap command
func (c *GiftswapCommand) Handle(s Responder, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name || len(data.Options) == 0 {
		return nil
	}

	sub := data.Options[0]
	gameID := ""
	for _, opt := range sub.Options {
		if opt.Name == optionGame {
			gameID = opt.StringValue()
		}
	}

	ctx := context.Background()

	switch sub.Name {
	case "status":
		return c.handleStatus(ctx, s, i, gameID)
	case "gifts":
		return c.handleGifts(ctx, s, i, gameID)
	case "skip":
		return c.handleSkip(ctx, s, i, gameID)
	default:
		return errors.New("unknown subcommand")
	}
}

func (c *GiftswapCommand) handleStatus(ctx context.Context, s Responder, i *discordgo.InteractionCreate, gameID string) error {
	out, err := c.gameService.GetGame(ctx, &game.GetGameInput{GameID: gameID})
	if err != nil {
		return c.respondRejection(ctx, s, i, err)
	}

	status, err := c.messagingService.GetGameStatusMessage(ctx, &messaging.GetGameStatusMessageInput{
		Phase:            out.Game.Phase,
		ParticipantCount: len(out.Game.Participants),
		GiftCount:        len(out.Game.Gifts),
		Tone:             messaging.ToneFunny,
	})
	if err != nil {
		return fmt.Errorf("failed to get status message: %w", err)
	}

	return RespondWithEmbed(s, i, renderStatus(out.Game, status.Message))
}

func (c *GiftswapCommand) handleGifts(ctx context.Context, s Responder, i *discordgo.InteractionCreate, gameID string) error {
	out, err := c.gameService.GetGame(ctx, &game.GetGameInput{GameID: gameID})
	if err != nil {
		return c.respondRejection(ctx, s, i, err)
	}

	return RespondWithEmbed(s, i, renderGifts(out.Game))
}

func (c *GiftswapCommand) handleSkip(ctx context.Context, s Responder, i *discordgo.InteractionCreate, gameID string) error {
	out, err := c.gameService.Apply(ctx, &game.ApplyInput{
		GameID: gameID,
		Action: exchange.AdvanceTurn{},
	})
	if err != nil {
		return c.respondRejection(ctx, s, i, err)
	}

	log.Info().
		Str("game_id", gameID).
		Str("user", username(i)).
		Msg("turn skipped from discord")

	return RespondWithEmbed(s, i, renderStatus(out.Game, fmt.Sprintf("%s skipped the queue.", username(i))))
}

func (c *GiftswapCommand) respondRejection(ctx context.Context, s Responder, i *discordgo.InteractionCreate, err error) error {
	out, msgErr := c.messagingService.GetRejectionMessage(ctx, &messaging.GetRejectionMessageInput{
		Err:           err,
		PreferredTone: messaging.ToneFunny,
	})
	if msgErr != nil {
		return errors.Join(err, msgErr)
	}

	if out.Kind == messaging.RejectionUnknown {
		log.Error().Err(err).Msg("giftswap command failed")
	}

	return RespondWithError(s, i, out.Title, out.Message)
}

func username(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		if i.Member.User != nil {
			return i.Member.User.Username
		}
	}
	if i.User != nil {
		return i.User.Username
	}
	return "someone"
}
