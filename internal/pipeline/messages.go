package pipeline

import "unicode/utf8"

// maxReasonRunes keeps a failure message well under Telegram's 4096
// character limit even when a provider returns a long error body.
const maxReasonRunes = 1000

func startText(id string) string {
	return "📥 Processing paper...\narXiv ID: " + id + "\n\nFetching paper details..."
}

func successText(title, link string) string {
	return "✅ Summary generated successfully!\n\n📄 Paper: " + title + "\n🔗 Summary saved at: " + link
}

func failureText(id string, err error) string {
	return "❌ Error processing paper " + id + "\nReason: " + truncateRunes(err.Error(), maxReasonRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
