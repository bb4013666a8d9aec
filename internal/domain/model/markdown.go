package model

import "strings"

// CodeSpan wraps v in a markdown code span that v cannot close. The fence is
// one backtick longer than the longest backtick run in v, and line breaks are
// folded into spaces so v cannot start a new block.
func CodeSpan(v string) string {
	v = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)

	longest, run := 0, 0
	for _, r := range v {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	fence := strings.Repeat("`", longest+1)

	// A value touching the fence needs padding; one space is stripped from
	// each side when the span is rendered.
	if strings.HasPrefix(v, "`") || strings.HasSuffix(v, "`") {
		v = " " + v + " "
	}
	return fence + v + fence
}
