package fallback

import "strings"

// DefaultSuffix is appended to every fallback prompt: answer briefly (20 words at most),
// only in Thai, as a cattle-farming expert.
const DefaultSuffix = "ตอบสั้นๆไม่เกิน 20 คำ ตอบเป็นภาษาไทยเท่านั้น ผู้ตอบคือผู้เชี่ยวชาญการเลี้ยงโค"

// DefaultMarker prefixes generated answers so users can tell them from canned replies
const DefaultMarker = "Ollama ช่วยตอบ"

// buildPrompt appends the instruction suffix directly to the user's text
func buildPrompt(text, suffix string) string {
	var b strings.Builder
	b.Grow(len(text) + len(suffix))
	b.WriteString(text)
	b.WriteString(suffix)
	return b.String()
}
