package format

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changrep/internal/model"
)

func result(channels ...model.Channel) model.MatchResult {
	return model.MatchResult{
		Pattern: "^eng-",
		Flags:   "i",
		Scanned: 100,
		Matches: channels,
	}
}

func TestDisplayPartitionsByVisibility(t *testing.T) {
	p := Display(result(
		model.Channel{Name: "eng-platform"},
		model.Channel{Name: "eng-secret", IsPrivate: true},
		model.Channel{Name: "eng-frontend"},
	), 20)

	assert.Equal(t, []string{"#eng-platform", "#eng-frontend"}, p.Public)
	assert.Equal(t, []string{"#eng-secret"}, p.Private)
	assert.Equal(t, 3, p.Shown)
	assert.Equal(t, 0, p.Truncated)
	assert.Equal(t, 3, p.Total)
}

func TestDisplayTruncatesBeforePartition(t *testing.T) {
	var channels []model.Channel
	for i := 0; i < 25; i++ {
		channels = append(channels, model.Channel{
			Name:      fmt.Sprintf("eng-%02d", i),
			IsPrivate: i%2 == 1,
		})
	}
	p := Display(result(channels...), 20)

	assert.Equal(t, 20, p.Shown)
	assert.Equal(t, 5, p.Truncated)
	assert.Equal(t, 25, p.Total)
	assert.Len(t, p.Public, 10)
	assert.Len(t, p.Private, 10)
	// First match always survives truncation.
	assert.Equal(t, "#eng-00", p.Public[0])
}

func TestDisplayLimitOneReportsRemainder(t *testing.T) {
	p := Display(result(
		model.Channel{Name: "eng-a"},
		model.Channel{Name: "eng-b"},
		model.Channel{Name: "eng-c"},
	), 1)
	assert.Equal(t, 1, p.Shown)
	assert.Equal(t, 2, p.Truncated)
	assert.Equal(t, 3, p.Total)
}

func TestDisplayZeroLimitUsesDefault(t *testing.T) {
	var channels []model.Channel
	for i := 0; i < DefaultDisplayLimit+3; i++ {
		channels = append(channels, model.Channel{Name: fmt.Sprintf("eng-%02d", i)})
	}
	p := Display(result(channels...), 0)
	assert.Equal(t, DefaultDisplayLimit, p.Shown)
	assert.Equal(t, 3, p.Truncated)
}

func TestDisplaySummaryCounts(t *testing.T) {
	p := Display(result(model.Channel{Name: "eng-platform"}), 20)
	assert.Equal(t, `1 channel matched "^eng-" (checked 100)`, p.Summary)

	p = Display(result(
		model.Channel{Name: "eng-a"},
		model.Channel{Name: "eng-b"},
	), 20)
	assert.Equal(t, `2 channels matched "^eng-" (checked 100)`, p.Summary)
}

func TestDisplayNoMatches(t *testing.T) {
	p := Display(result(), 20)
	assert.Equal(t, `No channels matched "^eng-" (checked 100)`, p.Summary)
	require.NotNil(t, p.Public)
	require.NotNil(t, p.Private)
	assert.Empty(t, p.Public)
	assert.Empty(t, p.Private)
	assert.Equal(t, 0, p.Total)
}

func TestLineShowsTopicAndArchived(t *testing.T) {
	p := Display(result(
		model.Channel{Name: "eng-old", IsArchived: true, Topic: "retired"},
	), 20)
	require.Len(t, p.Public, 1)
	assert.Equal(t, "#eng-old (archived) - retired", p.Public[0])
}

func TestLineTruncatesLongTopic(t *testing.T) {
	long := strings.Repeat("a", maxTopicRunes+10)
	p := Display(result(model.Channel{Name: "eng-x", Topic: long}), 20)
	require.Len(t, p.Public, 1)
	assert.Equal(t, "#eng-x - "+strings.Repeat("a", maxTopicRunes)+"...", p.Public[0])
}
