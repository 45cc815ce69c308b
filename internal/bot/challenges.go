package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/internal/markdown"
	"github.com/cyberguild/guildhall/pkg/models"
)

const challengeSummaryWidth = 300

func (b *Bot) addChallengeCommands() {
	b.addCommand(&command{
		name:     "challenge",
		usage:    "challenge <title>",
		help:     "Look up a challenge by title.",
		verified: true,
		run:      b.cmdChallengeLookup,
	})
	b.addCommand(&command{
		name:     "challenge latest",
		usage:    "challenge latest",
		help:     "Show the most recently published challenge.",
		verified: true,
		run:      b.cmdChallengeLatest,
	})
	b.addCommand(&command{
		name:     "challenge claim",
		usage:    "challenge claim <flag>",
		help:     "Claim a flag. DM me, don't spoil it in a channel.",
		verified: true,
		run:      b.cmdChallengeClaim,
	})
	b.addCommand(&command{
		name:     "leaderboard",
		usage:    "leaderboard",
		help:     "Show the top ten flag hunters.",
		verified: true,
		run:      b.cmdLeaderboard,
	})
	b.addCommand(&command{
		name:     "challenge stats",
		usage:    "challenge stats",
		help:     "Show the most and least solved challenges.",
		verified: true,
		run:      b.cmdChallengeStats,
	})
	b.addCommand(&command{
		name:     "challenge info",
		usage:    "challenge info",
		help:     "Show your score, rank, and which challenges you've solved.",
		verified: true,
		run:      b.cmdChallengeInfo,
	})
}

func (b *Bot) cmdChallengeLookup(ctx *Ctx) error {
	title := strings.TrimSpace(ctx.rest)
	if title == "" {
		return checkFailf("Usage: `%schallenge <title>`", b.cfg.Prefix)
	}

	c, err := b.store.ChallengeByTitle(title)
	if errors.Is(err, models.ErrNotFound) {
		return b.suggestChallenges(ctx, title)
	}
	if err != nil {
		return err
	}
	if c.Hidden {
		return checkFailf("Couldn't find any challenge like `%s`, sorry.", title)
	}

	return b.replyChallenge(ctx, c)
}

func (b *Bot) cmdChallengeLatest(ctx *Ctx) error {
	c, err := b.store.LatestChallenge()
	if errors.Is(err, models.ErrNotFound) {
		return checkFailf("There are no challenges yet. Watch this space.")
	}
	if err != nil {
		return err
	}
	return b.replyChallenge(ctx, c)
}

func (b *Bot) suggestChallenges(ctx *Ctx, query string) error {
	matches, err := b.store.SearchChallenges(query, 3)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return checkFailf("Couldn't find any challenge like `%s`, sorry.", query)
	}

	var sb strings.Builder
	sb.WriteString("No exact match, did you mean one of these?\n")
	for _, c := range matches {
		fmt.Fprintf(&sb, "- **%s** <%s>\n", c.Title, b.challengeURL(c.Slug))
	}
	return ctx.Reply("%s", sb.String())
}

func (b *Bot) replyChallenge(ctx *Ctx, c *models.Challenge) error {
	solves, err := b.store.SolveCountFor(c.ID)
	if err != nil {
		return err
	}

	points := fmt.Sprintf("%d", c.Points)
	if c.Depreciated {
		points += " (depreciated, no longer awarded)"
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       c.Title,
		URL:         b.challengeURL(c.Slug),
		Description: markdown.Summary(c.Content, challengeSummaryWidth),
		Color:       0x11806a,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Points", Value: points, Inline: true},
			{Name: "Solves", Value: fmt.Sprintf("%d", solves), Inline: true},
		},
	})
}

func (b *Bot) cmdChallengeClaim(ctx *Ctx) error {
	flag := strings.TrimSpace(ctx.rest)
	if flag == "" {
		return checkFailf("Usage: `%schallenge claim <flag>`", b.cfg.Prefix)
	}

	// Flags belong in DMs. Scrub the message if it landed in a channel.
	if ctx.InGuild() {
		if err := ctx.session.ChannelMessageDelete(ctx.msg.ChannelID, ctx.msg.ID); err != nil {
			b.log.Warn("could not delete flag message", zap.Error(err))
		}
		_ = ctx.Reply("Claim flags in a DM, not here. I've removed your message; check it wasn't quoted anywhere.")
	}

	c, err := b.store.ClaimFlag(ctx.AuthorID(), flag)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return b.dm(ctx.msg.Author.ID, "That flag doesn't match any challenge. Keep digging.")
	case errors.Is(err, models.ErrAlreadyClaimed):
		return b.dm(ctx.msg.Author.ID, "You've already claimed that flag.")
	case err != nil:
		return err
	}

	msg := fmt.Sprintf("Nice one! You've earned %d points for solving **%s**.", c.Points, c.Title)
	if c.Depreciated {
		msg = fmt.Sprintf("You've solved **%s**, but it's depreciated and no longer awards points.", c.Title)
	}
	if err := b.dm(ctx.msg.Author.ID, msg); err != nil {
		return err
	}

	b.announcer.Solve(ctx.msg.Author.Username, c.Title, c.Points, b.challengeURL(c.Slug))
	if b.cfg.Channels.ChallengeLog != "" {
		_, _ = ctx.session.ChannelMessageSend(b.cfg.Channels.ChallengeLog,
			fmt.Sprintf("**%s** just solved **%s** for %d points!", ctx.msg.Author.Username, c.Title, c.Points))
	}
	return nil
}

func (b *Bot) cmdLeaderboard(ctx *Ctx) error {
	entries, err := b.store.Leaderboard(10)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ctx.Reply("Nobody has solved anything yet. Be the first.")
	}

	rows := make([][3]string, 0, len(entries))
	for _, e := range entries {
		name := formatSnowflake(e.DiscordID)
		if u, err := b.store.UserByID(e.DiscordID); err == nil {
			name = u.Username
		}
		rows = append(rows, [3]string{
			fmt.Sprintf("%d. %s", e.Rank, name),
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.Solves),
		})
	}

	return ctx.Reply("**Leaderboard**\n```\n%s```", renderTable([]string{"Member", "Points", "Solves"}, rows))
}

func (b *Bot) cmdChallengeStats(ctx *Ctx) error {
	most, err := b.store.MostSolved(5)
	if err != nil {
		return err
	}
	least, err := b.store.LeastSolved(5)
	if err != nil {
		return err
	}
	if len(most) == 0 {
		return ctx.Reply("No solves recorded yet.")
	}

	var sb strings.Builder
	sb.WriteString("**Most solved**\n```\n")
	sb.WriteString(renderTable([]string{"Challenge", "Solves"}, solveRows(most)))
	sb.WriteString("```\n**Least solved**\n```\n")
	sb.WriteString(renderTable([]string{"Challenge", "Solves"}, solveRows(least)))
	sb.WriteString("```")
	return ctx.Reply("%s", sb.String())
}

func solveRows(counts []models.SolveCount) [][3]string {
	rows := make([][3]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, [3]string{c.Title, fmt.Sprintf("%d", c.Solves)})
	}
	return rows
}

func (b *Bot) cmdChallengeInfo(ctx *Ctx) error {
	info, err := b.store.UserChallengeInfo(ctx.AuthorID())
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: "Your challenge progress",
		Color: 0x11806a,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Points", Value: fmt.Sprintf("%d", info.Points), Inline: true},
			{Name: "Rank", Value: fmt.Sprintf("%d", info.Rank), Inline: true},
		},
	}
	if len(info.Solved) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Solved",
			Value: challengeTitleList(info.Solved),
		})
	}
	if len(info.Unsolved) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Still out there",
			Value: challengeTitleList(info.Unsolved),
		})
	}
	return ctx.ReplyEmbed(embed)
}

func challengeTitleList(cs []*models.Challenge) string {
	titles := make([]string, len(cs))
	for i, c := range cs {
		titles[i] = c.Title
	}
	return strings.Join(titles, ", ")
}

// renderTable lays out rows as an aligned monospace table. Empty trailing
// cells are dropped per-row.
func renderTable(headers []string, rows [][3]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := range headers {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, c := range cells {
			fmt.Fprintf(&sb, "%-*s", widths[i], c)
			if i < len(cells)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row[:len(headers)])
	}
	return sb.String()
}
