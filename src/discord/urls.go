package discord

import (
	"fmt"
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`<?https?://[^\s\[\]()<>]+>?`)

// WrapURLsNoEmbed wraps URLs in angle brackets to prevent Discord embeds.
func WrapURLsNoEmbed(text string) string {
	return urlRegex.ReplaceAllStringFunc(text, func(url string) string {
		if strings.HasPrefix(url, "<") && strings.HasSuffix(url, ">") {
			return url
		}
		url = strings.Trim(url, "<>")
		trimmed := strings.TrimRight(url, ".,;:!?")
		return fmt.Sprintf("<%s>%s", trimmed, url[len(trimmed):])
	})
}
