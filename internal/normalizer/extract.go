package normalizer

import "strings"

// ExtractJSON cuts a JSON document out of a raw model response. Models
// routinely wrap their answer in markdown code fences or surround it
// with prose, so the function strips a leading ```json or ``` fence, a
// trailing ``` fence, and then slices to the span between the first
// '{' and the last '}' when one exists. The result is still unparsed
// text; callers decode it and handle failure there.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-len("```")]
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return text
}
