// Package announce posts content-change and solve notifications to a Discord
// webhook. Both the bot and the web front-end publish through the same
// webhook, so announcements work no matter which surface made the change.
package announce

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Embed colors per event kind.
const (
	colorCreate = 0x2ecc71
	colorEdit   = 0x3498db
	colorDelete = 0xe74c3c
	colorSolve  = 0x11806a
)

// Announcer executes a Discord webhook. A nil Announcer is valid and drops
// every event, so callers never need to branch on configuration.
type Announcer struct {
	session *discordgo.Session
	id      string
	token   string
	log     *zap.Logger
}

// New builds an Announcer from a Discord webhook URL of the form
// https://discord.com/api/webhooks/{id}/{token}. An empty URL yields a nil
// Announcer.
func New(webhookURL string, log *zap.Logger) (*Announcer, error) {
	if webhookURL == "" {
		return nil, nil
	}

	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	// Webhook execution needs no bot token.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("webhook session: %w", err)
	}
	return &Announcer{session: session, id: id, token: token, log: log}, nil
}

func parseWebhookURL(url string) (id, token string, err error) {
	const marker = "/webhooks/"
	i := strings.Index(url, marker)
	if i < 0 {
		return "", "", fmt.Errorf("not a discord webhook url: %q", url)
	}
	rest := url[i+len(marker):]
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("not a discord webhook url: %q", url)
	}
	return parts[0], parts[1], nil
}

// Create announces newly published content.
func (a *Announcer) Create(kind, name, author, url string) {
	a.post(&discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Created %s: %s", kind, name),
		Color:     colorCreate,
		URL:       url,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: author},
	})
}

// Edit announces an edit to existing content.
func (a *Announcer) Edit(kind, name, author, url string) {
	a.post(&discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Edited %s: %s", kind, name),
		Color:     colorEdit,
		URL:       url,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: author},
	})
}

// Delete announces removed content.
func (a *Announcer) Delete(kind, name, author string) {
	a.post(&discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Deleted %s: %s", kind, name),
		Color:     colorDelete,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: author},
	})
}

// Solve announces a challenge solve.
func (a *Announcer) Solve(solver, challenge string, points int, url string) {
	a.post(&discordgo.MessageEmbed{
		Title:       "Challenge Solved!",
		Description: fmt.Sprintf("%s just solved '%s' and was awarded %d points.", solver, challenge, points),
		Color:       colorSolve,
		URL:         url,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Author:      &discordgo.MessageEmbedAuthor{Name: solver},
	})
}

func (a *Announcer) post(embed *discordgo.MessageEmbed) {
	if a == nil {
		return
	}
	_, err := a.session.WebhookExecute(a.id, a.token, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil && a.log != nil {
		a.log.Warn("webhook announce failed", zap.Error(err))
	}
}
