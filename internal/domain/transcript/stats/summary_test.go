package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

func summarize(messages []entity.Message) entity.ChatData {
	return Summarize(messages, 0, nil, Aggregate(messages, DefaultOptions()))
}

func TestSummarize_TwoPersonExchange(t *testing.T) {
	messages := []entity.Message{
		msg(0, "Alice", "hi"),
		msg(5*time.Minute, "Bob", "hello"),
		msg(6*time.Hour+10*time.Minute, "Alice", "you there?"),
	}

	data := summarize(messages)

	assert.Equal(t, 3, data.TotalMessages)
	assert.Equal(t, []string{"Alice", "Bob"}, data.Participants)
	assert.Equal(t, 50, data.BalanceScore)
	assert.Equal(t, "1 hari", data.DurationString)
	assert.Equal(t, 3, data.AvgMessagesPerDay)
	assert.Equal(t, 1, data.ActiveDays)
	assert.Equal(t, 9, data.BusiestHour)
	assert.Equal(t, entity.BusiestDay{Date: "2024-01-01", Count: 3}, data.BusiestDay)
	require.NotNil(t, data.DateRange.Start)
	assert.Equal(t, base, *data.DateRange.Start)
	assert.Equal(t, base.Add(6*time.Hour+10*time.Minute), *data.DateRange.End)
	require.Len(t, data.HourlyDistribution, 24)
	assert.Equal(t, entity.HourlyStats{Hour: 15, Count: 1}, data.HourlyDistribution[15])
}

func TestSummarize_Empty(t *testing.T) {
	data := summarize(nil)

	assert.Zero(t, data.TotalMessages)
	assert.NotNil(t, data.Participants)
	assert.Empty(t, data.Participants)
	assert.NotNil(t, data.Messages)
	assert.Nil(t, data.DateRange.Start)
	assert.Nil(t, data.DateRange.End)
	assert.Equal(t, "0 hari", data.DurationString)
	assert.Equal(t, 50, data.BalanceScore)
	assert.Zero(t, data.AvgMessagesPerDay)
	assert.Equal(t, entity.BusiestDay{}, data.BusiestDay)
	assert.Len(t, data.HourlyDistribution, 24)
	assert.Empty(t, data.DailyDistribution)
}

func TestSummarize_BusiestTieBreaks(t *testing.T) {
	messages := []entity.Message{
		msg(0, "Alice", "day one a"),
		msg(time.Hour, "Bob", "day one b"),
		msg(24*time.Hour, "Alice", "day two a"),
		msg(25*time.Hour, "Bob", "day two b"),
		msg(53*time.Hour, "Carol", "day three"),
	}

	data := summarize(messages)

	assert.Equal(t, entity.BusiestDay{Date: "2024-01-01", Count: 2}, data.BusiestDay)
	assert.Equal(t, 9, data.BusiestHour)
	assert.Equal(t, 50, data.BalanceScore, "three participants get the neutral score")
}

func TestSummarize_DailyDistributionSorted(t *testing.T) {
	messages := []entity.Message{
		msg(0, "Alice", "a"),
		msg(72*time.Hour, "Bob", "b"),
		msg(72*time.Hour+time.Minute, "Bob", "c"),
	}

	data := summarize(messages)

	require.Len(t, data.DailyDistribution, 2)
	assert.Equal(t, "2024-01-01", data.DailyDistribution[0].Date)
	assert.Equal(t, "2024-01-04", data.DailyDistribution[1].Date)
	assert.Equal(t, 2, data.ActiveDays)
	assert.Equal(t, "4 hari", data.DurationString)
	assert.Equal(t, 1, data.AvgMessagesPerDay)
}

func TestBalanceScore(t *testing.T) {
	tests := []struct {
		name   string
		counts [2]int
		want   int
	}{
		{"even", [2]int{10, 10}, 100},
		{"one sided", [2]int{1, 9}, 11},
		{"reversed", [2]int{9, 1}, 11},
		{"two to one", [2]int{2, 1}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Stats{
				Participants: []string{"a", "b"},
				ParticipantStats: map[string]entity.ParticipantStats{
					"a": {MessageCount: tt.counts[0]},
					"b": {MessageCount: tt.counts[1]},
				},
			}
			score := balanceScore(st)
			assert.Equal(t, tt.want, score)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		})
	}
}

func TestDurationString(t *testing.T) {
	tests := []struct {
		messages int
		days     int
		want     string
	}{
		{1, 100, "0 hari"},
		{2, 0, "0 hari"},
		{2, 10, "10 hari"},
		{2, 30, "30 hari"},
		{2, 31, "1 bulan 1 hari"},
		{2, 60, "2 bulan 0 hari"},
		{2, 365, "12 bulan 5 hari"},
		{2, 366, "1 tahun"},
		{2, 400, "1 tahun 1 bulan"},
		{2, 1100, "3 tahun"},
		{2, 790, "2 tahun 2 bulan"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DurationString(tt.messages, tt.days), "%d messages over %d days", tt.messages, tt.days)
	}
}
