package codegen

import "strings"

const fence = "```"

// returns the trimmed body of the first fenced block tagged lang.
// the tag must end at a word boundary, so "java" does not match "javascript".
// an unterminated block runs to the end of the text.
func ExtractFencedBlock(text, lang string) (string, bool) {
	open := fence + lang
	offset := 0

	for {
		idx := strings.Index(text[offset:], open)
		if idx == -1 {
			return "", false
		}

		bodyStart := offset + idx + len(open)
		if bodyStart < len(text) && isWordByte(text[bodyStart]) {
			offset = bodyStart
			continue
		}

		body := text[bodyStart:]
		if end := strings.Index(body, fence); end != -1 {
			body = body[:end]
		}

		return strings.TrimSpace(body), true
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
