package llm

import (
	"regexp"
	"strings"
)

// sectionPatterns maps markdown heading text to canonical section names.
// Order matters: the first matching pattern wins.
var sectionPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)^#+\s*(summary|executive summary)\b`), "summary"},
	{regexp.MustCompile(`(?i)^#+\s*(key changes|changes)\b`), "key_changes"},
	{regexp.MustCompile(`(?i)^#+\s*(problems|issues|identified problems)\b`), "problems"},
	{regexp.MustCompile(`(?i)^#+\s*(recommendations|suggestions)\b`), "recommendations"},
	{regexp.MustCompile(`(?i)^#+\s*(navigation|navigation patterns)\b`), "navigation"},
	{regexp.MustCompile(`(?i)^#+\s*(ux issues|ux problems)\b`), "ux_issues"},
	{regexp.MustCompile(`(?i)^#+\s*(conclusions?|closing)\b`), "conclusions"},
}

// ParseSections splits a markdown analysis into named sections keyed by
// canonical names. Text before the first recognized heading goes under
// "main"; when no headings are recognized at all the whole text is returned
// under "full_text".
func ParseSections(text string) map[string]string {
	if strings.TrimSpace(text) == "" {
		return map[string]string{}
	}

	sections := make(map[string]string)
	current := "main"
	var content []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(content, "\n"))
		if body != "" {
			sections[current] = body
		}
		content = content[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		matched := false
		for _, sp := range sectionPatterns {
			if sp.re.MatchString(line) {
				flush()
				current = sp.name
				matched = true
				break
			}
		}
		if !matched {
			content = append(content, line)
		}
	}
	flush()

	if len(sections) == 0 || (len(sections) == 1 && sections["main"] != "") {
		return map[string]string{"full_text": strings.TrimSpace(text)}
	}
	return sections
}

var listItemRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*+])\s+(.+)$`)

// ParseListItems extracts the items of a numbered or bulleted markdown list,
// in order. Continuation lines of an item are appended to it.
func ParseListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(items) > 0 {
			items[len(items)-1] += " " + trimmed
		}
	}
	return items
}
