package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/temryazanov/gonao/internal/history"
	"github.com/temryazanov/gonao/saucenao"
)

// Telegram caps messages at 4096 characters.
const maxMessageLen = 4096

func FormatSauceList(results []saucenao.Sauce) string {
	if len(results) == 0 {
		return "No source found. The picture may be cropped, filtered, or just not indexed."
	}

	var sb strings.Builder
	sb.WriteString("<b>Possible sources:</b>\n\n")

	for i, s := range results {
		sb.WriteString(fmt.Sprintf("%d. <b>%s</b> — %.1f%%\n",
			i+1,
			html.EscapeString(s.Site),
			s.Similarity,
		))

		if s.Title != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(s.Title)))
		}
		if s.Creator != "" {
			sb.WriteString(fmt.Sprintf("   by %s\n", html.EscapeString(s.Creator)))
		}

		for _, u := range s.ExtURLs {
			sb.WriteString(fmt.Sprintf("   <a href=\"%s\">%s</a>\n",
				html.EscapeString(u),
				html.EscapeString(truncateURL(u, 60)),
			))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func FormatQuota(rl saucenao.RateLimit) string {
	return fmt.Sprintf(`<b>SauceNAO quota:</b>

Short window: %d of %d left
Long window: %d of %d left`,
		rl.ShortRemaining, rl.ShortLimit,
		rl.LongRemaining, rl.LongLimit,
	)
}

func FormatHistory(records []history.Record) string {
	var sb strings.Builder
	sb.WriteString("<b>Recent lookups:</b>\n\n")

	for i, r := range records {
		kind := "file"
		if r.Remote {
			kind = "url"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n   %d matches, best %.1f%% — %s\n\n",
			i+1,
			kind,
			html.EscapeString(truncateURL(r.Target, 50)),
			r.ResultCount,
			r.BestSimilarity,
			r.CreatedAt.Format("2006-01-02 15:04"),
		))
	}

	return sb.String()
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

// findSafeSplitPoint looks for a space or newline near the limit
// without landing inside an HTML tag.
func findSafeSplitPoint(text string, maxLen int) int {
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// landed inside a tag - skip forward to its end
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}

func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}
