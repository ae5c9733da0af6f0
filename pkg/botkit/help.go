// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"
	"fmt"
	"html"
	"strings"

	"maunium.net/go/mautrix/id"
)

// ensureHelpCommand registers the generated help command unless a command
// already claims the literal "help" alias. Called once at session start;
// the registry is not mutated at any other time.
func (b *Bot) ensureHelpCommand() {
	if b.registry.hasLiteralAlias("help") {
		return
	}
	// Register cannot fail here: handler and alias are always set.
	_ = b.registry.Register(Command{
		Handler:     helpCommand,
		Aliases:     []string{"help"},
		Description: "Prints the help page",
	})
}

func helpCommand(ctx context.Context, bot *Bot, room Room, _ *Event) {
	bot.sendHelp(ctx, room.ID)
}

// sendHelp renders the help page and sends it as a single notice.
func (b *Bot) sendHelp(ctx context.Context, roomID id.RoomID) {
	plain, formatted := b.registry.renderHelp(b.config.Matrix.DisplayName, b.config.Matrix.BotDescription)
	b.send(ctx, roomID, NoticeMessage(plain, formatted))
}

// renderHelp produces the help page in plain text and an HTML-escaped
// formatted variant. Each command renders as one line of the form
// "- <alias(es)> <syntax>: <description>".
func (r *Registry) renderHelp(displayName, description string) (plain, formatted string) {
	var pb, fb strings.Builder
	if displayName != "" {
		pb.WriteString(displayName + "\n")
		fb.WriteString("<b>" + html.EscapeString(displayName) + "</b><br/>")
	}
	if description != "" {
		pb.WriteString(description + "\n")
		fb.WriteString(html.EscapeString(description) + "<br/>")
	}
	for _, cmd := range r.commands {
		aliases := strings.Join(cmd.Aliases, "|")
		pb.WriteString(fmt.Sprintf("- %s %s: %s\n", aliases, cmd.Syntax, cmd.Description))
		fb.WriteString(fmt.Sprintf("- %s %s: %s<br/>",
			html.EscapeString(aliases),
			html.EscapeString(cmd.Syntax),
			html.EscapeString(cmd.Description)))
	}
	return pb.String(), fb.String()
}
