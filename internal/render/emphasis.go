package render

import (
	"regexp"
	"strings"
)

// Keyword is a word emphasized in assistant replies
type Keyword struct {
	Word  string
	Emoji string
}

// Keywords returns the emphasized words in match order
func Keywords() []Keyword {
	return []Keyword{
		{Word: "recycle", Emoji: "♻️"},
		{Word: "reuse", Emoji: "🔄"},
		{Word: "reduce", Emoji: "📉"},
		{Word: "cleanliness", Emoji: "🧹"},
		{Word: "environment", Emoji: "🌍"},
		{Word: "waste", Emoji: "🗑️"},
	}
}

var (
	keywordRe    = regexp.MustCompile(`(?i)\b(recycle|reuse|reduce|cleanliness|environment|waste)\b`)
	keywordEmoji = func() map[string]string {
		m := make(map[string]string)
		for _, k := range Keywords() {
			m[k.Word] = k.Emoji
		}
		return m
	}()
)

// Emphasize bolds whole-word keywords and prefixes each with its emoji.
// Fenced code blocks, inline code and already bold words are left alone,
// so applying it twice gives the same result.
func Emphasize(markdown string) string {
	lines := strings.Split(markdown, "\n")
	inFence := false
	fence := ""

	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case !inFence:
				inFence, fence = true, marker
			case strings.HasPrefix(trimmed, fence):
				inFence, fence = false, ""
			}
			continue
		}
		if inFence {
			continue
		}
		lines[i] = emphasizeLine(line)
	}

	return strings.Join(lines, "\n")
}

func fenceMarker(line string) string {
	switch {
	case strings.HasPrefix(line, "```"):
		return "```"
	case strings.HasPrefix(line, "~~~"):
		return "~~~"
	default:
		return ""
	}
}

// emphasizeLine handles one line outside code fences. Segments between
// backticks are inline code.
func emphasizeLine(line string) string {
	if !strings.ContainsAny(line, "rRwWeEcC") {
		return line
	}

	parts := strings.Split(line, "`")
	for i := 0; i < len(parts); i += 2 {
		// An unmatched trailing backtick leaves the last part as text
		parts[i] = emphasizeText(parts[i])
	}
	return strings.Join(parts, "`")
}

func emphasizeText(text string) string {
	matches := keywordRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if alreadyMarked(text, start, end) || insideLink(text, start, end) {
			continue
		}
		word := text[start:end]
		b.WriteString(text[last:start])
		b.WriteString(keywordEmoji[strings.ToLower(word)])
		b.WriteString(" **")
		b.WriteString(word)
		b.WriteString("**")
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// alreadyMarked reports whether the word is wrapped in ** or _ emphasis
func alreadyMarked(text string, start, end int) bool {
	before := text[:start]
	after := text[end:]
	return strings.HasSuffix(before, "**") || strings.HasPrefix(after, "**") ||
		strings.HasSuffix(before, "__") || strings.HasPrefix(after, "__")
}

// insideLink reports whether the word is part of a URL or path
func insideLink(text string, start, end int) bool {
	if start > 0 && strings.ContainsRune("/.-_=#", rune(text[start-1])) {
		return true
	}
	if end < len(text) && strings.ContainsRune("/-_", rune(text[end])) {
		return true
	}
	return false
}
