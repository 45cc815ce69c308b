package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// checkError carries a user-facing refusal: wrong channel, missing
// permission, bad argument. It is sent back as-is and never logged as a
// failure.
type checkError string

func (e checkError) Error() string { return string(e) }

func checkFailf(format string, args ...any) error {
	return checkError(fmt.Sprintf(format, args...))
}

// command is one bot command. Name may contain spaces for subcommands
// ("verify begin"); dispatch picks the longest matching name.
type command struct {
	name     string
	usage    string
	help     string
	admin    bool
	verified bool
	run      func(ctx *Ctx) error
}

// Ctx is the invocation context handed to command handlers.
type Ctx struct {
	bot     *Bot
	session *discordgo.Session
	msg     *discordgo.Message
	// rest is the argument text after the command name.
	rest string
}

// Args splits the remaining text on whitespace.
func (c *Ctx) Args() []string {
	return strings.Fields(c.rest)
}

// Reply sends plain text back to the invoking channel.
func (c *Ctx) Reply(format string, args ...any) error {
	_, err := c.session.ChannelMessageSend(c.msg.ChannelID, fmt.Sprintf(format, args...))
	return err
}

// ReplyEmbed sends an embed back to the invoking channel.
func (c *Ctx) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := c.session.ChannelMessageSendEmbed(c.msg.ChannelID, embed)
	return err
}

// AuthorID returns the invoking user's id as a snowflake int.
func (c *Ctx) AuthorID() int64 {
	return parseSnowflake(c.msg.Author.ID)
}

// InGuild reports whether the message came from a guild channel rather than
// a DM.
func (c *Ctx) InGuild() bool {
	return c.msg.GuildID != ""
}

func (b *Bot) registerCommands() {
	b.commands = nil
	b.addVerificationCommands()
	b.addWriteupCommands()
	b.addChallengeCommands()
	b.addTodoCommands()
	b.addActivityCommands()
	b.addAdminCommands()
	b.addMachineCommands()
}

func (b *Bot) addCommand(c *command) {
	b.commands = append(b.commands, c)
}

// match finds the command whose (possibly multi-word) name is the longest
// prefix of the invocation, returning the remaining argument text.
func (b *Bot) match(invocation string) (*command, string) {
	var best *command
	var rest string
	for _, c := range b.commands {
		if invocation == c.name || strings.HasPrefix(invocation, c.name+" ") {
			if best == nil || len(c.name) > len(best.name) {
				best = c
				rest = strings.TrimSpace(strings.TrimPrefix(invocation, c.name))
			}
		}
	}
	return best, rest
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	b.trackActivity(m.Message)

	content, ok := stripPrefix(m.Content, b.cfg.Prefix)
	if !ok {
		return
	}

	cmd, rest := b.match(content)
	if cmd == nil {
		return
	}

	ctx := &Ctx{bot: b, session: s, msg: m.Message, rest: rest}

	if err := b.checkPermissions(ctx, cmd); err != nil {
		_ = ctx.Reply("%s", err)
		return
	}

	if err := cmd.run(ctx); err != nil {
		if ce, ok := err.(checkError); ok {
			_ = ctx.Reply("%s", ce)
			return
		}
		b.log.Error("command failed",
			zap.String("command", cmd.name),
			zap.String("author", m.Author.ID),
			zap.Error(err),
		)
		_ = ctx.Reply("Something's borked, sorry")
		b.logToChannel("An error happened running %s: %v", cmd.name, err)
	}
}

// stripPrefix removes the command prefix. The `L!` long form is accepted
// alongside the configured prefix.
func stripPrefix(content, prefix string) (string, bool) {
	for _, p := range []string{"L" + prefix, prefix} {
		if strings.HasPrefix(content, p) {
			return strings.TrimSpace(strings.TrimPrefix(content, p)), true
		}
	}
	return "", false
}

func (b *Bot) checkPermissions(ctx *Ctx, cmd *command) error {
	if cmd.admin {
		if err := b.requireAdmin(ctx.msg.Author.ID); err != nil {
			return err
		}
	}
	if cmd.verified {
		if err := b.requireVerified(ctx.AuthorID()); err != nil {
			return err
		}
	}
	return nil
}
