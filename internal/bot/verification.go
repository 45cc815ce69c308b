package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/pkg/models"
)

func (b *Bot) addVerificationCommands() {
	b.addCommand(&command{
		name:  "verify begin",
		usage: "verify begin <email>",
		help:  "Email yourself a verification token. First step on the path to Grand Master Cyber Wizard.",
		run:   b.cmdVerifyBegin,
	})
	b.addCommand(&command{
		name:  "verify complete",
		usage: "verify complete <token>",
		help:  "Redeem a verification token and become a verified member.",
		run:   b.cmdVerifyComplete,
	})
}

// mangledEmail matches a local part of the form surname+initial+digits with
// no dot, the most common way members mistype their university address.
var mangledEmail = regexp.MustCompile(`^(\w+?)(\w)(\d*)$`)

// correctEmail suggests the i.surnameN@domain form for a mangled address.
// Returns "" when no correction applies.
func correctEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(local, ".") {
		return ""
	}
	m := mangledEmail.FindStringSubmatch(local)
	if m == nil {
		return ""
	}
	surname, initial, number := m[1], m[2], m[3]
	return fmt.Sprintf("%s.%s%s@%s", initial, surname, number, domain)
}

func (b *Bot) cmdVerifyBegin(ctx *Ctx) error {
	if err := b.requireInGuild(ctx.msg.Author.ID); err != nil {
		return err
	}

	args := ctx.Args()
	if len(args) != 1 {
		return checkFailf("Usage: `%sverify begin <email>`", b.cfg.Prefix)
	}
	email := strings.ToLower(args[0])

	if !b.mailer.AllowedEmail(email) {
		return checkFailf("Invalid email, please provide an address on an accepted domain.")
	}

	if suggested := correctEmail(email); suggested != "" {
		_ = ctx.Reply("Looks like your email might be in the wrong format; if `%s` is actually yours, run the command again with it.", suggested)
	}

	userID := ctx.AuthorID()

	if existing, err := b.store.UserByID(userID); err == nil && existing != nil {
		return checkFailf("It seems you've already registered.")
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if existing, err := b.store.UserByEmail(email); err == nil && existing != nil {
		return checkFailf("Looks like someone is already registered with this email address.")
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	tok, err := b.issuer.VerifyToken(userID, email)
	if err != nil {
		return err
	}

	b.log.Info("issued verification token",
		zap.String("user", ctx.msg.Author.Username),
		zap.Int64("user_id", userID),
	)

	if err := b.mailer.SendVerification(email, tok); err != nil {
		return fmt.Errorf("sending verification mail: %w", err)
	}

	return ctx.Reply("Okay, I've sent an email to `%s` with your token!", email)
}

func (b *Bot) cmdVerifyComplete(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) != 1 {
		return checkFailf("Usage: `%sverify complete <token>`", b.cfg.Prefix)
	}

	userID := ctx.AuthorID()

	if existing, err := b.store.UserByID(userID); err == nil && existing != nil {
		return checkFailf("It seems you've already registered.")
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	tokenUserID, email, err := b.issuer.DecodeVerifyToken(args[0])
	if err != nil {
		return checkFailf("That token is invalid or is older than 30 minutes and expired.")
	}
	if tokenUserID != userID {
		return checkFailf("Seems you're not the same person that generated the token, go away.")
	}

	member, err := b.member(ctx.msg.Author.ID)
	if err != nil {
		return fmt.Errorf("fetching member: %w", err)
	}

	user := &models.User{
		DiscordID:  userID,
		Username:   member.User.Username,
		Email:      email,
		JoinedAt:   time.Now().UTC(),
		LastTalked: time.Now().UTC(),
	}
	if err := b.store.CreateUser(user); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}

	if err := b.applyRoles(member); err != nil {
		return fmt.Errorf("applying roles: %w", err)
	}

	b.log.Info("verified member", zap.Int64("user_id", userID))
	b.logToChannel("verified member %s (%d)", member.User.Username, userID)

	return ctx.Reply("Permissions granted, you can now access all of the channels. You are now on the path to Grand Master Cyber Wizard!")
}

// applyRoles brings a member's roles in line with their registration state:
// registered members get the verified role, everyone else the potential
// role.
func (b *Bot) applyRoles(m *discordgo.Member) error {
	_, err := b.store.UserByID(parseSnowflake(m.User.ID))
	switch {
	case err == nil:
		if err := b.session.GuildMemberRoleAdd(b.cfg.GuildID, m.User.ID, b.cfg.Roles.Verified); err != nil {
			return err
		}
		for _, r := range []string{b.cfg.Roles.Potential, b.cfg.Roles.Prospective} {
			if r != "" && hasRole(m, r) {
				if err := b.session.GuildMemberRoleRemove(b.cfg.GuildID, m.User.ID, r); err != nil {
					return err
				}
			}
		}
		return nil
	case errors.Is(err, models.ErrNotFound):
		if b.cfg.Roles.Potential == "" || hasRole(m, b.cfg.Roles.Potential) {
			return nil
		}
		return b.session.GuildMemberRoleAdd(b.cfg.GuildID, m.User.ID, b.cfg.Roles.Potential)
	default:
		return err
	}
}

// fixMissingRoles reapplies registration roles across the whole guild.
func (b *Bot) fixMissingRoles() {
	for _, m := range b.guildMembers() {
		if m.User == nil || m.User.Bot {
			continue
		}
		if err := b.applyRoles(m); err != nil {
			b.log.Warn("role fixup failed", zap.String("member", m.User.ID), zap.Error(err))
		}
	}
}

// syncMembers refreshes stored usernames and admin flags from guild state,
// and drops users who have been missing from the guild for two consecutive
// sweeps.
func (b *Bot) syncMembers() {
	users, err := b.store.AllUsers()
	if err != nil {
		b.log.Error("member sync: loading users", zap.Error(err))
		return
	}

	for _, u := range users {
		id := formatSnowflake(u.DiscordID)
		m, err := b.member(id)
		if err != nil || m == nil {
			if b.flaggedAsLeft[id] {
				if err := b.store.DeleteUser(u.DiscordID); err != nil {
					b.log.Warn("member sync: delete", zap.Int64("user_id", u.DiscordID), zap.Error(err))
				}
				delete(b.flaggedAsLeft, id)
			} else {
				b.flaggedAsLeft[id] = true
			}
			continue
		}
		delete(b.flaggedAsLeft, id)

		if err := b.store.UpdateUserProfile(u.DiscordID, m.User.Username, b.memberIsAdmin(m)); err != nil {
			b.log.Warn("member sync: update", zap.Int64("user_id", u.DiscordID), zap.Error(err))
		}
	}
}
