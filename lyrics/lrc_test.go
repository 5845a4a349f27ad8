package lyrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseLRCBasic is the spec's "LRC parser" property:
// parse("[01:02.34] Hello") = [(62340, "Hello")].
func TestParseLRCBasic(t *testing.T) {
	lines := ParseLRC("[01:02.34] Hello")
	assert.Equal(t, []Line{{TimestampMs: 62340, Text: "Hello"}}, lines)
}

func TestParseLRCShortFractionIsPaddedRight(t *testing.T) {
	lines := ParseLRC("[00:01.5] x")
	assert.Equal(t, uint32(1500), lines[0].TimestampMs)
}

func TestParseLRCNoFraction(t *testing.T) {
	lines := ParseLRC("[00:05] beat")
	assert.Equal(t, uint32(5000), lines[0].TimestampMs)
}

func TestParseLRCMultipleTimestampsReplicateText(t *testing.T) {
	lines := ParseLRC("[00:01.00][00:02.00] repeat")
	assert.Equal(t, []Line{
		{TimestampMs: 1000, Text: "repeat"},
		{TimestampMs: 2000, Text: "repeat"},
	}, lines)
}

func TestParseLRCInvalidLinesDropped(t *testing.T) {
	lines := ParseLRC("no timestamp here\n[ti:Some Title]\n[99:99.99] bad seconds\n[00:03.00] ok")
	assert.Equal(t, []Line{{TimestampMs: 3000, Text: "ok"}}, lines)
}

func TestParseLRCOutputSortedByTimestamp(t *testing.T) {
	lines := ParseLRC("[00:05.00] second\n[00:01.00] first\n[00:03.00] middle")
	assert.Len(t, lines, 3)
	for i := 1; i < len(lines); i++ {
		assert.LessOrEqual(t, lines[i-1].TimestampMs, lines[i].TimestampMs)
	}
	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, "middle", lines[1].Text)
	assert.Equal(t, "second", lines[2].Text)
}

func TestParseLRCMinuteOverflowSkipped(t *testing.T) {
	lines := ParseLRC("[6001:00.00] too far\n[00:01.00] fine")
	assert.Equal(t, []Line{{TimestampMs: 1000, Text: "fine"}}, lines)
}

func TestParseLRCEmptyInput(t *testing.T) {
	assert.Empty(t, ParseLRC(""))
}
