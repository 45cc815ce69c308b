package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cyberguild/guildhall/internal/markdown"
	"github.com/cyberguild/guildhall/pkg/models"
)

const writeupSummaryWidth = 300

func (b *Bot) addWriteupCommands() {
	b.addCommand(&command{
		name:     "writeup",
		usage:    "writeup <title>",
		help:     "Look up a writeup by title, falling back to a content search.",
		verified: true,
		run:      b.cmdWriteupLookup,
	})
	b.addCommand(&command{
		name:     "writeup delete",
		usage:    "writeup delete <title>",
		help:     "Delete one of your writeups. Admins can delete anyone's.",
		verified: true,
		run:      b.cmdWriteupDelete,
	})
}

func (b *Bot) cmdWriteupLookup(ctx *Ctx) error {
	title := strings.TrimSpace(ctx.rest)
	if title == "" {
		return checkFailf("Usage: `%swriteup <title>`", b.cfg.Prefix)
	}

	w, err := b.store.WriteupByTitle(title)
	if errors.Is(err, models.ErrNotFound) {
		return b.suggestWriteups(ctx, title)
	}
	if err != nil {
		return err
	}

	return ctx.ReplyEmbed(b.writeupEmbed(w))
}

// suggestWriteups runs a full-text search and offers the top matches when an
// exact title lookup comes up empty.
func (b *Bot) suggestWriteups(ctx *Ctx, query string) error {
	matches, err := b.store.SearchWriteups(query, 3)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return checkFailf("Couldn't find any writeup like `%s`, sorry.", query)
	}

	var sb strings.Builder
	sb.WriteString("No exact match, did you mean one of these?\n")
	for _, m := range matches {
		fmt.Fprintf(&sb, "- **%s** <%s>\n", m.Writeup.Title, b.writeupURL(m.Writeup.Slug))
	}
	return ctx.Reply("%s", sb.String())
}

func (b *Bot) writeupEmbed(w *models.Writeup) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       w.Title,
		URL:         b.writeupURL(w.Slug),
		Description: markdown.Summary(w.Content, writeupSummaryWidth),
		Color:       0x2ecc71,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "by " + w.AuthorName,
		},
	}
	if len(w.Tags) > 0 {
		links := make([]string, len(w.Tags))
		for i, t := range w.Tags {
			links[i] = fmt.Sprintf("[%s](%s)", t, b.writeupTagURL(t))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Tags",
			Value: strings.Join(links, ", "),
		})
	}
	return embed
}

func (b *Bot) cmdWriteupDelete(ctx *Ctx) error {
	title := strings.TrimSpace(ctx.rest)
	if title == "" {
		return checkFailf("Usage: `%swriteup delete <title>`", b.cfg.Prefix)
	}

	w, err := b.store.WriteupByTitle(title)
	if errors.Is(err, models.ErrNotFound) {
		return checkFailf("Couldn't find a writeup titled `%s`.", title)
	}
	if err != nil {
		return err
	}

	m, err := b.member(ctx.msg.Author.ID)
	if err != nil {
		return err
	}
	if !w.EditableBy(ctx.AuthorID(), b.memberIsAdmin(m)) {
		return checkFailf("That's not your writeup to delete.")
	}

	if err := b.store.DeleteWriteup(w.ID); err != nil {
		return err
	}

	b.announcer.Delete("Writeup", w.Title, w.AuthorName)
	return ctx.Reply("Deleted writeup `%s`.", w.Title)
}
