package command

import (
	"regexp"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
)

// Slack escapes user mentions as <@U123|name> or <@U123>.
var mentionRegex = regexp.MustCompile(`^<@([UW][A-Z0-9]+)(?:\|([^>]*))?>$`)

// parseMention reads a user mention. The name part is optional.
func parseMention(token string) (attendance.Employee, bool) {
	m := mentionRegex.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return attendance.Employee{}, false
	}
	return attendance.Employee{ID: m[1], Name: m[2]}, true
}

// mention renders e the way Slack links a user.
func mention(e attendance.Employee) string {
	switch {
	case e.ID == "":
		return e.Name
	case e.Name == "":
		return "<@" + e.ID + ">"
	default:
		return "<@" + e.ID + "|" + e.Name + ">"
	}
}

// parseEmail unwraps Slack's <mailto:a@b.c|a@b.c> auto-link.
func parseEmail(token string) string {
	s := strings.TrimSpace(token)
	if strings.HasPrefix(s, "<mailto:") && strings.HasSuffix(s, ">") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "<mailto:"), ">")
		if _, label, ok := strings.Cut(s, "|"); ok {
			s = label
		}
	}
	return s
}

// splitTimes groups tokens into times, joining a detached meridiem such as
// "7:30 AM" back onto the value before it.
func splitTimes(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		switch strings.ToUpper(strings.ReplaceAll(t, ".", "")) {
		case "AM", "PM":
			if len(out) > 0 {
				out[len(out)-1] += " " + t
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// restAfter returns text with its first n whitespace-separated fields
// removed, keeping the spacing of what remains.
func restAfter(text string, n int) string {
	s := strings.TrimSpace(text)
	for i := 0; i < n && s != ""; i++ {
		idx := strings.IndexAny(s, " \t\n")
		if idx < 0 {
			return ""
		}
		s = strings.TrimSpace(s[idx:])
	}
	return s
}
