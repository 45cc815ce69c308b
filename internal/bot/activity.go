package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/pkg/models"
)

// Members who stay silent for a month get flagged and emailed; flagged
// members who stay silent another week are removed.
const (
	inactivityCutoff = 30 * 24 * time.Hour
	removalGrace     = 7 * 24 * time.Hour
)

func (b *Bot) addActivityCommands() {
	b.addCommand(&command{
		name:  "inactive",
		usage: "inactive",
		help:  "List members who haven't spoken in a month.",
		admin: true,
		run:   b.cmdInactiveList,
	})
	b.addCommand(&command{
		name:  "inactive sweep",
		usage: "inactive sweep",
		help:  "Run the inactivity sweep now instead of waiting for the daily one.",
		admin: true,
		run: func(ctx *Ctx) error {
			b.inactivitySweep()
			return ctx.Reply("Sweep done.")
		},
	})
}

// trackActivity refreshes last-talked for registered members and lifts the
// deletion flag from anyone who speaks up again.
func (b *Bot) trackActivity(m *discordgo.Message) {
	if m.GuildID != b.cfg.GuildID {
		return
	}

	id := parseSnowflake(m.Author.ID)
	u, err := b.store.UserByID(id)
	if errors.Is(err, models.ErrNotFound) {
		return
	}
	if err != nil {
		b.log.Warn("activity lookup failed", zap.Int64("user_id", id), zap.Error(err))
		return
	}

	if err := b.store.TouchLastTalked(id, time.Now().UTC()); err != nil {
		b.log.Warn("touch last talked failed", zap.Int64("user_id", id), zap.Error(err))
	}

	if u.FlaggedForDeletion != nil {
		if err := b.store.FlagUserForDeletion(id, time.Time{}); err != nil {
			b.log.Warn("unflag failed", zap.Int64("user_id", id), zap.Error(err))
			return
		}
		b.logToChannel("%s spoke up and is no longer flagged for removal", u.Username)
	}
}

func (b *Bot) cmdInactiveList(ctx *Ctx) error {
	users, err := b.store.AllUsers()
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-inactivityCutoff)
	var sb strings.Builder
	for _, u := range users {
		if !u.Inactive(cutoff) {
			continue
		}
		fmt.Fprintf(&sb, "- %s, last talked %s", u.Username, u.LastTalked.Format("2006-01-02"))
		if u.FlaggedForDeletion != nil {
			fmt.Fprintf(&sb, " (flagged %s)", u.FlaggedForDeletion.Format("2006-01-02"))
		}
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return ctx.Reply("Everyone's been chatty, nobody is inactive.")
	}
	return ctx.Reply("**Inactive members**\n%s", sb.String())
}

// inactivitySweep flags month-silent members and emails them, then removes
// members who stayed silent a week past their flag.
func (b *Bot) inactivitySweep() {
	now := time.Now().UTC()

	expired, err := b.store.UsersFlaggedBefore(now.Add(-removalGrace))
	if err != nil {
		b.log.Error("inactivity sweep: flagged lookup", zap.Error(err))
		return
	}
	for _, u := range expired {
		b.removeInactiveMember(u)
	}

	users, err := b.store.AllUsers()
	if err != nil {
		b.log.Error("inactivity sweep: user listing", zap.Error(err))
		return
	}
	cutoff := now.Add(-inactivityCutoff)
	for _, u := range users {
		if !u.Inactive(cutoff) || u.FlaggedForDeletion != nil {
			continue
		}
		b.flagInactiveMember(u, now)
	}

	b.prunePotentialMembers(cutoff)
}

// prunePotentialMembers kicks members who joined over a month ago and never
// completed verification.
func (b *Bot) prunePotentialMembers(cutoff time.Time) {
	for _, m := range b.guildMembers() {
		if m.User == nil || m.User.Bot {
			continue
		}
		if !hasRole(m, b.cfg.Roles.Potential) || hasRole(m, b.cfg.Roles.Verified) {
			continue
		}
		if m.JoinedAt.IsZero() || m.JoinedAt.After(cutoff) {
			continue
		}
		if _, err := b.store.UserByID(parseSnowflake(m.User.ID)); err == nil {
			continue
		}

		if err := b.session.GuildMemberDeleteWithReason(b.cfg.GuildID, m.User.ID, "never verified"); err != nil {
			b.log.Warn("kicking unverified member failed", zap.String("member", m.User.ID), zap.Error(err))
			continue
		}
		b.logToChannel("removed %s, joined over a month ago without verifying", m.User.Username)
	}
}

func (b *Bot) flagInactiveMember(u *models.User, now time.Time) {
	if err := b.store.FlagUserForDeletion(u.DiscordID, now); err != nil {
		b.log.Error("flagging inactive member", zap.Int64("user_id", u.DiscordID), zap.Error(err))
		return
	}

	if err := b.mailer.SendReminder(u.Email); err != nil {
		b.log.Warn("inactivity reminder email failed", zap.Int64("user_id", u.DiscordID), zap.Error(err))
	}
	_ = b.dm(formatSnowflake(u.DiscordID),
		"You've been quiet for a month, so you've been flagged as inactive. Say anything in the guild within a week to stay a member.")

	b.logToChannel("flagged %s as inactive", u.Username)
}

func (b *Bot) removeInactiveMember(u *models.User) {
	id := formatSnowflake(u.DiscordID)

	if err := b.session.GuildMemberDeleteWithReason(b.cfg.GuildID, id, "inactive for over a month"); err != nil {
		b.log.Warn("kicking inactive member failed", zap.Int64("user_id", u.DiscordID), zap.Error(err))
	}
	if err := b.store.DeleteUser(u.DiscordID); err != nil {
		b.log.Error("deleting inactive member", zap.Int64("user_id", u.DiscordID), zap.Error(err))
		return
	}

	b.logToChannel("removed %s for inactivity", u.Username)
}
