package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cyberguild/guildhall/internal/store"
	"github.com/cyberguild/guildhall/pkg/models"
)

func (b *Bot) addTodoCommands() {
	b.addCommand(&command{
		name:  "todo new",
		usage: "todo new <content>",
		help:  "Open a new todo.",
		admin: true,
		run:   b.cmdTodoNew,
	})
	b.addCommand(&command{
		name:  "todo view",
		usage: "todo view <id>",
		help:  "Show one todo in full.",
		admin: true,
		run:   b.cmdTodoView,
	})
	b.addCommand(&command{
		name:  "todo list",
		usage: "todo list [completed|cancelled|mine]",
		help:  "List todos, open ones by default.",
		admin: true,
		run:   b.cmdTodoList,
	})
	b.addCommand(&command{
		name:  "todo complete",
		usage: "todo complete <id>",
		help:  "Mark a todo as done.",
		admin: true,
		run:   b.todoStateCommand(b.store.CompleteTodo, "Completed"),
	})
	b.addCommand(&command{
		name:  "todo cancel",
		usage: "todo cancel <id>",
		help:  "Cancel a todo.",
		admin: true,
		run:   b.todoStateCommand(b.store.CancelTodo, "Cancelled"),
	})
	b.addCommand(&command{
		name:  "todo assign",
		usage: "todo assign <id> <@member|me>",
		help:  "Assign a todo to a member.",
		admin: true,
		run:   b.cmdTodoAssign,
	})
	b.addCommand(&command{
		name:  "todo unassign",
		usage: "todo unassign <id>",
		help:  "Remove a todo's assignee.",
		admin: true,
		run:   b.cmdTodoUnassign,
	})
	b.addCommand(&command{
		name:  "todo content",
		usage: "todo content <id> <content>",
		help:  "Rewrite a todo's content.",
		admin: true,
		run:   b.cmdTodoContent,
	})
	b.addCommand(&command{
		name:  "todo deadline",
		usage: "todo deadline <id> [YYYY-MM-DD]",
		help:  "Set or clear a todo's deadline.",
		admin: true,
		run:   b.cmdTodoDeadline,
	})
}

func (b *Bot) cmdTodoNew(ctx *Ctx) error {
	content := strings.TrimSpace(ctx.rest)
	if content == "" {
		return checkFailf("Usage: `%stodo new <content>`", b.cfg.Prefix)
	}

	t := &models.Todo{Content: content}
	if err := b.store.CreateTodo(t); err != nil {
		return err
	}
	return ctx.Reply("Opened todo #%d.", t.ID)
}

func (b *Bot) cmdTodoView(ctx *Ctx) error {
	t, err := b.todoFromArg(ctx.rest)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Todo #%d** (%s)\n%s\n", t.ID, t.Status(), t.Content)
	fmt.Fprintf(&sb, "Started %s", t.Started.Format("2006-01-02"))
	if t.Assigned != nil {
		fmt.Fprintf(&sb, ", assigned to %s", b.usernameFor(*t.Assigned))
	}
	if t.Deadline != nil {
		fmt.Fprintf(&sb, ", due %s", t.Deadline.Format("2006-01-02"))
	}
	if t.Completed != nil {
		fmt.Fprintf(&sb, ", closed %s", t.Completed.Format("2006-01-02"))
	}
	return ctx.Reply("%s", sb.String())
}

func (b *Bot) cmdTodoList(ctx *Ctx) error {
	filter := store.TodoFilter{State: store.TodoOpen}
	label := "Open todos"

	switch strings.TrimSpace(ctx.rest) {
	case "":
	case "completed":
		filter.State = store.TodoCompleted
		label = "Completed todos"
	case "cancelled":
		filter.State = store.TodoCancelled
		label = "Cancelled todos"
	case "mine":
		me := ctx.AuthorID()
		filter.Assigned = &me
		label = "Your open todos"
	default:
		return checkFailf("Usage: `%stodo list [completed|cancelled|mine]`", b.cfg.Prefix)
	}

	todos, err := b.store.ListTodos(filter)
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		return ctx.Reply("Nothing there. Enjoy the quiet.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n", label)
	for _, t := range todos {
		fmt.Fprintf(&sb, "`#%d` %s", t.ID, todoSummary(t.Content))
		if t.Assigned != nil {
			fmt.Fprintf(&sb, " - %s", b.usernameFor(*t.Assigned))
		}
		if t.Deadline != nil {
			fmt.Fprintf(&sb, " (due %s)", t.Deadline.Format("2006-01-02"))
		}
		sb.WriteString("\n")
	}
	return ctx.Reply("%s", sb.String())
}

func todoSummary(content string) string {
	if first, _, found := strings.Cut(content, "\n"); found {
		return first + " ..."
	}
	return content
}

func (b *Bot) todoStateCommand(apply func(id int64) error, past string) func(*Ctx) error {
	return func(ctx *Ctx) error {
		t, err := b.todoFromArg(ctx.rest)
		if err != nil {
			return err
		}
		if err := apply(t.ID); err != nil {
			return err
		}
		return ctx.Reply("%s todo #%d.", past, t.ID)
	}
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

func (b *Bot) cmdTodoAssign(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) != 2 {
		return checkFailf("Usage: `%stodo assign <id> <@member|me>`", b.cfg.Prefix)
	}

	t, err := b.todoFromArg(args[0])
	if err != nil {
		return err
	}

	var assignee int64
	if args[1] == "me" {
		assignee = ctx.AuthorID()
	} else if m := mentionPattern.FindStringSubmatch(args[1]); m != nil {
		assignee = parseSnowflake(m[1])
	} else {
		return checkFailf("Mention the member to assign, or say `me`.")
	}

	if err := b.store.AssignTodo(t.ID, &assignee); err != nil {
		return err
	}
	return ctx.Reply("Assigned todo #%d to %s.", t.ID, b.usernameFor(assignee))
}

func (b *Bot) cmdTodoUnassign(ctx *Ctx) error {
	t, err := b.todoFromArg(ctx.rest)
	if err != nil {
		return err
	}
	if err := b.store.AssignTodo(t.ID, nil); err != nil {
		return err
	}
	return ctx.Reply("Todo #%d is up for grabs again.", t.ID)
}

func (b *Bot) cmdTodoContent(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) < 2 {
		return checkFailf("Usage: `%stodo content <id> <content>`", b.cfg.Prefix)
	}

	t, err := b.todoFromArg(args[0])
	if err != nil {
		return err
	}

	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.rest), args[0]))
	if err := b.store.SetTodoContent(t.ID, content); err != nil {
		return err
	}
	return ctx.Reply("Updated todo #%d.", t.ID)
}

func (b *Bot) cmdTodoDeadline(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) == 0 || len(args) > 2 {
		return checkFailf("Usage: `%stodo deadline <id> [YYYY-MM-DD]`", b.cfg.Prefix)
	}

	t, err := b.todoFromArg(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		if err := b.store.SetTodoDeadline(t.ID, nil); err != nil {
			return err
		}
		return ctx.Reply("Cleared the deadline on todo #%d.", t.ID)
	}

	due, err := time.ParseInLocation("2006-01-02", args[1], time.UTC)
	if err != nil {
		return checkFailf("Couldn't parse `%s`, expected YYYY-MM-DD.", args[1])
	}
	if err := b.store.SetTodoDeadline(t.ID, &due); err != nil {
		return err
	}
	return ctx.Reply("Todo #%d is now due %s.", t.ID, due.Format("2006-01-02"))
}

// todoFromArg parses a todo id out of the first argument token and loads it.
func (b *Bot) todoFromArg(arg string) (*models.Todo, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return nil, checkFailf("Which todo? Give me an id.")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil {
		return nil, checkFailf("`%s` doesn't look like a todo id.", fields[0])
	}

	t, err := b.store.TodoByID(id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, checkFailf("There's no todo #%d.", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// usernameFor resolves a snowflake to a display name, preferring the store.
func (b *Bot) usernameFor(discordID int64) string {
	if u, err := b.store.UserByID(discordID); err == nil {
		return u.Username
	}
	if m, err := b.member(formatSnowflake(discordID)); err == nil && m != nil {
		return m.User.Username
	}
	return formatSnowflake(discordID)
}
