package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cyberguild/guildhall/pkg/models"
)

func (b *Bot) addMachineCommands() {
	b.addCommand(&command{
		name:     "machines",
		usage:    "machines",
		help:     "List the lab machines.",
		verified: true,
		run:      b.cmdMachinesList,
	})
	b.addCommand(&command{
		name:  "machines add",
		usage: "machines add <hostname> [description]",
		help:  "Register a lab machine.",
		admin: true,
		run:   b.cmdMachinesAdd,
	})
	b.addCommand(&command{
		name:  "machines remove",
		usage: "machines remove <hostname>",
		help:  "Drop a lab machine from the registry.",
		admin: true,
		run:   b.cmdMachinesRemove,
	})
}

func (b *Bot) cmdMachinesList(ctx *Ctx) error {
	machines, err := b.store.AllMachines()
	if err != nil {
		return err
	}
	if len(machines) == 0 {
		return ctx.Reply("No machines registered.")
	}

	var sb strings.Builder
	sb.WriteString("**Lab machines**\n")
	for _, m := range machines {
		fmt.Fprintf(&sb, "`%s`", m.Hostname)
		if m.Description != "" {
			fmt.Fprintf(&sb, " %s", m.Description)
		}
		sb.WriteString("\n")
	}
	return ctx.Reply("%s", sb.String())
}

func (b *Bot) cmdMachinesAdd(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) < 1 {
		return checkFailf("Usage: `%smachines add <hostname> [description]`", b.cfg.Prefix)
	}

	m := &models.Machine{
		Hostname:    args[0],
		Description: strings.Join(args[1:], " "),
	}
	if err := b.store.AddMachine(m); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return checkFailf("A machine called `%s` is already registered.", m.Hostname)
		}
		return err
	}
	return ctx.Reply("Registered `%s`.", m.Hostname)
}

func (b *Bot) cmdMachinesRemove(ctx *Ctx) error {
	args := ctx.Args()
	if len(args) != 1 {
		return checkFailf("Usage: `%smachines remove <hostname>`", b.cfg.Prefix)
	}

	if err := b.store.RemoveMachine(args[0]); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return checkFailf("No machine called `%s` is registered.", args[0])
		}
		return err
	}
	return ctx.Reply("Removed `%s`.", args[0])
}
