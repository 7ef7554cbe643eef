package completion

import "strings"

const completionInstruction = "\n\nSuggest a completion for the code above. Return only the code that completes it, " +
	"keeping the source's formatting including newlines and spaces. " +
	"Do not add language fences such as ```python, explanations or any other text."

// BuildPrompt returns the completion prompt for a code snippet
func BuildPrompt(snippet string) string {
	return snippet + completionInstruction
}

// TrailingLines returns the last n lines of content, or content itself when it has n lines or fewer
func TrailingLines(content string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// textProvider offers one fixed text at whatever caret the editor passes at offer time
type textProvider struct {
	text string
	seq  uint64
}

func (p *textProvider) Provide(caret Position) []InlineCompletion {
	if p.text == "" {
		return nil
	}
	return []InlineCompletion{{Text: p.text, At: caret}}
}
