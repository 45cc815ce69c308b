package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/cyberguild/guildhall/pkg/models"
)

func (b *Bot) addAdminCommands() {
	b.addCommand(&command{
		name:  "user info",
		usage: "user info <@member|username>",
		help:  "Show a member's registration record.",
		admin: true,
		run:   b.cmdUserInfo,
	})
	b.addCommand(&command{
		name:  "user verify",
		usage: "user verify <@member> <email>",
		help:  "Register a member by hand, skipping email verification.",
		admin: true,
		run:   b.cmdUserVerify,
	})
	b.addCommand(&command{
		name:  "help",
		usage: "help",
		help:  "Show this list.",
		run:   b.cmdHelp,
	})
}

func (b *Bot) cmdUserInfo(ctx *Ctx) error {
	arg := strings.TrimSpace(ctx.rest)
	if arg == "" {
		return checkFailf("Usage: `%suser info <@member|username>`", b.cfg.Prefix)
	}

	var u *models.User
	var err error
	if m := mentionPattern.FindStringSubmatch(arg); m != nil {
		u, err = b.store.UserByID(parseSnowflake(m[1]))
	} else {
		u, err = b.store.UserByUsername(arg)
	}
	if errors.Is(err, models.ErrNotFound) {
		return checkFailf("No registered member matches `%s`.", arg)
	}
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: u.Username,
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Discord ID", Value: formatSnowflake(u.DiscordID), Inline: true},
			{Name: "Email", Value: u.Email, Inline: true},
			{Name: "Admin", Value: fmt.Sprintf("%t", u.IsAdmin), Inline: true},
			{Name: "Joined", Value: u.JoinedAt.Format("2006-01-02"), Inline: true},
			{Name: "Last talked", Value: u.LastTalked.Format("2006-01-02 15:04"), Inline: true},
		},
	}
	if u.FlaggedForDeletion != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Flagged for removal", Value: u.FlaggedForDeletion.Format("2006-01-02"), Inline: true,
		})
	}
	return ctx.ReplyEmbed(embed)
}

func (b *Bot) cmdUserVerify(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) != 2 {
		return checkFailf("Usage: `%suser verify <@member> <email>`", b.cfg.Prefix)
	}

	mention := mentionPattern.FindStringSubmatch(args[0])
	if mention == nil {
		return checkFailf("Mention the member to verify.")
	}
	userID := parseSnowflake(mention[1])
	email := strings.ToLower(args[1])

	member, err := b.member(mention[1])
	if err != nil || member == nil {
		return checkFailf("That member isn't in the guild.")
	}

	if _, err := b.store.UserByID(userID); err == nil {
		return checkFailf("%s is already registered.", member.User.Username)
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	user := &models.User{
		DiscordID:  userID,
		Username:   member.User.Username,
		Email:      email,
		JoinedAt:   time.Now().UTC(),
		LastTalked: time.Now().UTC(),
	}
	if err := b.store.CreateUser(user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return checkFailf("Someone is already registered with that email.")
		}
		return err
	}

	if err := b.applyRoles(member); err != nil {
		return fmt.Errorf("applying roles: %w", err)
	}

	b.logToChannel("%s manually verified %s", ctx.msg.Author.Username, member.User.Username)
	return ctx.Reply("Verified %s.", member.User.Username)
}

func (b *Bot) cmdHelp(ctx *Ctx) error {
	var sb strings.Builder
	sb.WriteString("**Commands**\n")
	for _, c := range b.commands {
		fmt.Fprintf(&sb, "`%s%s`", b.cfg.Prefix, c.usage)
		if c.admin {
			sb.WriteString(" (admin)")
		}
		fmt.Fprintf(&sb, ": %s\n", c.help)
	}
	return ctx.Reply("%s", sb.String())
}
