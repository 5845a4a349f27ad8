// Package lyrics parses LRC lyric files and polls the playback clock to
// emit line-change events.
package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Line is one timestamped lyric line.
type Line struct {
	TimestampMs uint32
	Text        string
}

var timestampRe = regexp.MustCompile(`\[(\d{1,4}):(\d{2})(?:\.(\d{1,3}))?\]`)

// ParseLRC parses LRC-format text into a timestamp-sorted line list.
// Each source line may carry zero or more bracketed timestamps; a line
// with multiple timestamps is replicated once per timestamp. Invalid
// timestamps (mm > 6000, ss >= 60) are skipped; a line with no valid
// timestamp is ignored entirely.
func ParseLRC(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		matches := timestampRe.FindAllStringSubmatchIndex(raw, -1)
		if matches == nil {
			continue
		}

		lastEnd := matches[len(matches)-1][1]
		content := strings.TrimSpace(raw[lastEnd:])

		for _, m := range matches {
			mm, ss, frac, ok := parseTimestamp(raw, m)
			if !ok {
				continue
			}
			ms := mm*60*1000 + ss*1000 + frac
			lines = append(lines, Line{TimestampMs: uint32(ms), Text: content})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TimestampMs < lines[j].TimestampMs
	})
	return lines
}

func parseTimestamp(raw string, m []int) (mm, ss, fracMs int, ok bool) {
	mmStr := raw[m[2]:m[3]]
	ssStr := raw[m[4]:m[5]]

	mm, err := strconv.Atoi(mmStr)
	if err != nil || mm > 6000 {
		return 0, 0, 0, false
	}
	ss, err = strconv.Atoi(ssStr)
	if err != nil || ss >= 60 {
		return 0, 0, 0, false
	}

	if m[6] < 0 {
		return mm, ss, 0, true
	}
	fracStr := raw[m[6]:m[7]]
	for len(fracStr) < 3 {
		fracStr += "0"
	}
	fracStr = fracStr[:3]
	frac, err := strconv.Atoi(fracStr)
	if err != nil {
		return 0, 0, 0, false
	}
	return mm, ss, frac, true
}
