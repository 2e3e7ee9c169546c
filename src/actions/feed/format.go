package feed

import (
	"fmt"
	"strings"

	"github.com/stake-plus/chatledger/src/ledger"
)

// Format renders a ledger event as a card title and body. ok is false for
// actions the feed does not describe.
func Format(ev ledger.Event) (title, body string, ok bool) {
	text := ev.Fields["message"]
	switch ev.Action {
	case "post.star":
		title = "⭐ Post starred"
	case "post.unstar":
		title = "Star removed"
	case "post.fed":
		title = "🚩 Post flagged"
	case "post.unfed":
		title = "Flag cleared"
	case "idea.implemented":
		text = ev.Fields["text"]
		title = "💡 Idea implemented"
		if ev.Fields["implemented"] == "false" {
			title = "Idea reopened"
		}
	case "idea.update":
		text = ev.Fields["text"]
		title = "✏️ Idea updated"
	default:
		return "", "", false
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n")
	if ev.Section != "" {
		fmt.Fprintf(&b, "Section: %s", ev.Section)
		if ev.Domain != "" {
			fmt.Fprintf(&b, " (%s)", ev.Domain)
		}
		b.WriteByte('\n')
	}
	if ev.Target != "" {
		fmt.Fprintf(&b, "Post: %s", ev.Target)
	}
	return title, strings.TrimSpace(b.String()), true
}
