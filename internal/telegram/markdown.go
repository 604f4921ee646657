package telegram

import (
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// spanPattern matches **bold** and `code` spans in reply text.
var spanPattern = regexp.MustCompile("\\*\\*(.+?)\\*\\*|`([^`\n]+)`")

// FormatMarkdownV2 converts reply text to Telegram MarkdownV2. **bold** and
// `code` spans keep their formatting; everything else is escaped literally.
func FormatMarkdownV2(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range spanPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text[last:m[0]]))
		switch {
		case m[2] >= 0:
			b.WriteString("*")
			b.WriteString(tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text[m[2]:m[3]]))
			b.WriteString("*")
		default:
			code := strings.ReplaceAll(text[m[4]:m[5]], `\`, `\\`)
			b.WriteString("`" + code + "`")
		}
		last = m[1]
	}
	b.WriteString(tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text[last:]))
	return b.String()
}
