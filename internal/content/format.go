// Package content turns teacher-authored text into display markup.
package content

import (
	"regexp"
	"strings"

	"quiz-studio/internal/domain"
)

var (
	looksLikeMarkup = regexp.MustCompile(`(?i)</?[a-z][\s\S]*>`)
	ruleLine        = regexp.MustCompile(`^///+$`)
	softBreak       = regexp.MustCompile(`(?:\s*//\s*)+`)
	leadIn          = regexp.MustCompile(`(?i)^(\*+|[\-\x{2212}\x{2013}\x{2014}]|[\(\[]?[0-9٠-٩]+[\)\.\-:]|[IVXLC]+[\)\.:])\s+(.*)$`)
	lineSplit       = regexp.MustCompile(`\r?\n`)
	escaper         = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

const emptyParagraph = "<p>&nbsp;</p>"

// Format renders quiz content for display. Markup is only sanitized; plain
// text goes through the line conventions first. Digits are localized last.
func Format(raw string, sys domain.NumeralSystem) string {
	if raw == "" {
		return ""
	}
	rendered := raw
	if !LooksLikeMarkup(raw) {
		rendered = PlainToHTML(raw)
	}
	return LocalizeDigits(Sanitize(rendered), sys)
}

// LooksLikeMarkup reports whether s contains something shaped like a tag.
func LooksLikeMarkup(s string) bool {
	return looksLikeMarkup.MatchString(s)
}

// PlainToHTML applies the plain-text conventions line by line:
// a blank line is an empty paragraph, a line of three or more slashes is a
// rule, "//" is a soft break and a leading bullet or number is marked as a
// lead-in. Text is escaped before any markup is produced.
func PlainToHTML(src string) string {
	if src == "" {
		return ""
	}
	var b strings.Builder
	for _, raw := range lineSplit.Split(src, -1) {
		s := strings.TrimSpace(raw)
		if s == "" {
			b.WriteString(emptyParagraph)
			continue
		}
		if ruleLine.MatchString(s) {
			b.WriteString("<hr>")
			continue
		}
		s = softBreak.ReplaceAllString(escaper.Replace(s), "<br>")
		if m := leadIn.FindStringSubmatch(s); m != nil {
			s = `<span class="lead-in">` + m[1] + `</span> ` + m[2]
		}
		b.WriteString("<p>")
		b.WriteString(s)
		b.WriteString("</p>")
	}
	if b.Len() == 0 {
		return emptyParagraph
	}
	return b.String()
}

// FormatHeader renders the quiz title. Only "//" soft breaks are recognized.
func FormatHeader(input string, sys domain.NumeralSystem) string {
	if input == "" {
		return ""
	}
	if LooksLikeMarkup(input) {
		return LocalizeDigits(Sanitize(input), sys)
	}
	s := softBreak.ReplaceAllString(escaper.Replace(input), "<br>")
	return LocalizeDigits(Sanitize(s), sys)
}

// FormatSubheader renders the instructions line: lines are joined with
// breaks and a slash-only line becomes a rule.
func FormatSubheader(input string, sys domain.NumeralSystem) string {
	if input == "" {
		return ""
	}
	if LooksLikeMarkup(input) {
		return LocalizeDigits(Sanitize(input), sys)
	}
	lines := lineSplit.Split(input, -1)
	for i, line := range lines {
		if ruleLine.MatchString(strings.TrimSpace(line)) {
			lines[i] = "<hr>"
			continue
		}
		lines[i] = softBreak.ReplaceAllString(escaper.Replace(line), "<br>")
	}
	return LocalizeDigits(Sanitize(strings.Join(lines, "<br>")), sys)
}
