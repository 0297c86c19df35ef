package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"arcade/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	colorAchievement = 0xF1C40F
	colorLevelUp     = 0x2ECC71
)

// webhookExecutor is the subset of *discordgo.Session the announcer needs
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts achievement unlocks and level-ups to a Discord webhook
type DiscordAnnouncer struct {
	session   webhookExecutor
	webhookID string
	token     string
}

// NewDiscordAnnouncer creates an announcer for a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>
func NewDiscordAnnouncer(webhookURL string) (*DiscordAnnouncer, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	// Webhook execution needs no bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	return &DiscordAnnouncer{session: session, webhookID: id, token: token}, nil
}

// ParseWebhookURL extracts the webhook id and token from a webhook URL
func ParseWebhookURL(webhookURL string) (id, token string, err error) {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid Discord webhook URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid Discord webhook URL: expected /api/webhooks/<id>/<token>")
}

// Register subscribes the announcer to unlock and level-up events
func (a *DiscordAnnouncer) Register(bus *events.Bus) {
	handler := func(ctx context.Context, event events.Event) {
		if err := a.Announce(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to post Discord announcement")
		}
	}
	bus.Subscribe(events.EventTypeAchievementUnlocked, handler)
	bus.Subscribe(events.EventTypeLevelUp, handler)
}

// Announce posts a single event. Events without an announcement are ignored.
func (a *DiscordAnnouncer) Announce(ctx context.Context, event events.Event) error {
	embed := buildEmbed(event)
	if embed == nil {
		return nil
	}

	_, err := a.session.WebhookExecute(a.webhookID, a.token, false, &discordgo.WebhookParams{
		Username: "Arcade",
		Embeds:   []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute Discord webhook: %w", err)
	}

	log.WithField("eventType", event.Type()).Debug("Posted Discord announcement")
	return nil
}

func buildEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.AchievementUnlockedEvent:
		title := "Achievement unlocked"
		if e.Icon != "" {
			title = e.Icon + " " + title
		}
		return &discordgo.MessageEmbed{
			Title:       title,
			Description: fmt.Sprintf("**%s** unlocked **%s**", e.DisplayName, e.AchievementName),
			Color:       colorAchievement,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "XP", Value: fmt.Sprintf("+%d", e.XPReward), Inline: true},
			},
		}
	case events.LevelUpEvent:
		return &discordgo.MessageEmbed{
			Title:       "Level up",
			Description: fmt.Sprintf("**%s** reached level **%d**", e.DisplayName, e.NewLevel),
			Color:       colorLevelUp,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "XP", Value: fmt.Sprintf("%d", e.XP), Inline: true},
			},
		}
	default:
		return nil
	}
}
