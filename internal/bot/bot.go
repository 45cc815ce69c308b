// Package bot implements the guild Discord bot: member verification,
// writeup and challenge lookup, admin todos, and activity tracking.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/internal/announce"
	"github.com/cyberguild/guildhall/internal/config"
	"github.com/cyberguild/guildhall/internal/mail"
	"github.com/cyberguild/guildhall/internal/store"
	"github.com/cyberguild/guildhall/internal/token"
)

// Background sweep cadences.
const (
	roleSweepInterval     = time.Hour
	memberSyncInterval    = 24 * time.Hour
	inactivitySweepPeriod = 24 * time.Hour
)

// Bot is the guild Discord bot.
type Bot struct {
	cfg       config.Bot
	session   *discordgo.Session
	store     *store.Store
	issuer    *token.Issuer
	mailer    *mail.Mailer
	announcer *announce.Announcer
	log       *zap.Logger
	baseURL   string

	commands []*command

	// members seen missing during one daily sync; deleted if still missing
	// on the next.
	flaggedAsLeft map[string]bool
}

// Options carries the dependencies for New.
type Options struct {
	Config    config.Bot
	Store     *store.Store
	Issuer    *token.Issuer
	Mailer    *mail.Mailer
	Announcer *announce.Announcer
	Log       *zap.Logger
	BaseURL   string
}

// New builds a Bot. The Discord session is created but not yet connected;
// call Run.
func New(opts Options) (*Bot, error) {
	session, err := discordgo.New("Bot " + opts.Config.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		cfg:           opts.Config,
		session:       session,
		store:         opts.Store,
		issuer:        opts.Issuer,
		mailer:        opts.Mailer,
		announcer:     opts.Announcer,
		log:           opts.Log,
		baseURL:       opts.BaseURL,
		flaggedAsLeft: make(map[string]bool),
	}
	b.registerCommands()

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onMemberJoin)

	return b, nil
}

// Run connects to Discord and blocks until the context is cancelled,
// running the background sweeps alongside the gateway connection.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("connecting to discord: %w", err)
	}
	defer b.session.Close()

	b.log.Info("bot connected", zap.String("guild", b.cfg.GuildID))

	go b.runSweep(ctx, roleSweepInterval, b.fixMissingRoles)
	go b.runSweep(ctx, memberSyncInterval, b.syncMembers)
	go b.runSweep(ctx, inactivitySweepPeriod, b.inactivitySweep)

	<-ctx.Done()
	b.log.Info("bot shutting down")
	return nil
}

// runSweep runs fn immediately and then on every tick until ctx ends.
func (b *Bot) runSweep(ctx context.Context, interval time.Duration, fn func()) {
	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	_ = s.UpdateGameStatus(0, "Hack The IoT Space Bulb")
	b.log.Info("ready",
		zap.String("username", s.State.User.Username),
		zap.String("user_id", s.State.User.ID),
	)
}

func (b *Bot) onMemberJoin(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.GuildID != b.cfg.GuildID {
		return
	}
	if err := b.applyRoles(m.Member); err != nil {
		b.log.Warn("apply roles on join failed",
			zap.String("member", m.User.ID), zap.Error(err))
	}
}

// member fetches a guild member, preferring session state.
func (b *Bot) member(userID string) (*discordgo.Member, error) {
	m, err := b.session.State.Member(b.cfg.GuildID, userID)
	if err == nil {
		return m, nil
	}
	return b.session.GuildMember(b.cfg.GuildID, userID)
}

// guildMembers returns the cached member list for the guild.
func (b *Bot) guildMembers() []*discordgo.Member {
	g, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return nil
	}
	return g.Members
}

// logToChannel posts to the configured bot log channel, if any.
func (b *Bot) logToChannel(format string, args ...any) {
	if b.cfg.Channels.Log == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(b.cfg.Channels.Log, fmt.Sprintf(format, args...)); err != nil {
		b.log.Warn("log channel send failed", zap.Error(err))
	}
}

// dm sends a direct message, creating the DM channel as needed.
func (b *Bot) dm(userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("create dm channel: %w", err)
	}
	_, err = b.session.ChannelMessageSend(ch.ID, content)
	return err
}

// writeupURL and friends build site links for embeds.
func (b *Bot) writeupURL(slug string) string {
	return b.baseURL + "/writeups/view/" + slug
}

func (b *Bot) writeupTagURL(tag string) string {
	return b.baseURL + "/writeups/tag/" + tag
}

func (b *Bot) challengeURL(slug string) string {
	return b.baseURL + "/challenges/view/" + slug
}
