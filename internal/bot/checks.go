package bot

import (
	"errors"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/cyberguild/guildhall/pkg/models"
)

func parseSnowflake(id string) int64 {
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}

func formatSnowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

// hasRole reports whether the member carries the role id.
func hasRole(m *discordgo.Member, roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// memberIsAdmin reports whether the member is a guild administrator or
// carries the disciple role.
func (b *Bot) memberIsAdmin(m *discordgo.Member) bool {
	if hasRole(m, b.cfg.Roles.Disciple) {
		return true
	}

	g, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return false
	}
	if m.User != nil && m.User.ID == g.OwnerID {
		return true
	}
	for _, role := range g.Roles {
		if hasRole(m, role.ID) && role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

// requireAdmin refuses users who are neither admins nor disciples.
func (b *Bot) requireAdmin(userID string) error {
	m, err := b.member(userID)
	if err != nil || m == nil {
		return checkFailf("You must be an admin or disciple to use this command.")
	}
	if !b.memberIsAdmin(m) {
		return checkFailf("You must be an admin or disciple to use this command.")
	}
	return nil
}

// requireVerified refuses users who have not completed email verification.
func (b *Bot) requireVerified(discordID int64) error {
	_, err := b.store.UserByID(discordID)
	if errors.Is(err, models.ErrNotFound) {
		return checkFailf("It looks like you're not registered, go and verify yourself.")
	}
	if err != nil {
		return err
	}
	return nil
}

// requireInGuild refuses users who are not guild members.
func (b *Bot) requireInGuild(userID string) error {
	m, err := b.member(userID)
	if err != nil || m == nil {
		return checkFailf("It looks like you're not in the guild, what are you doing?")
	}
	return nil
}
