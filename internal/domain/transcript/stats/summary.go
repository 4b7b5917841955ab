package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

// neutralBalance is reported when a balance score cannot be computed
const neutralBalance = 50

// Summarize assembles the final ChatData from sorted messages and their
// aggregate statistics.
func Summarize(messages []entity.Message, mediaCount int, issues []entity.ParseIssue, st Stats) entity.ChatData {
	if messages == nil {
		messages = []entity.Message{}
	}

	data := entity.ChatData{
		Participants:       st.Participants,
		Messages:           messages,
		TotalMessages:      len(messages),
		ActiveDays:         len(st.Daily),
		MediaCount:         mediaCount,
		HourlyDistribution: make([]entity.HourlyStats, 24),
		ParticipantStats:   st.ParticipantStats,
		SilencePeriods:     st.SilencePeriods,
		ParseIssues:        issues,
	}

	for h, c := range st.Hourly {
		data.HourlyDistribution[h] = entity.HourlyStats{Hour: h, Count: c}
	}
	data.BusiestHour = busiestHour(st.Hourly)
	data.BusiestDay = busiestDay(st.Daily)

	data.DailyDistribution = make([]entity.DailyStats, len(st.Daily))
	copy(data.DailyDistribution, st.Daily)
	sort.SliceStable(data.DailyDistribution, func(i, j int) bool {
		return data.DailyDistribution[i].Date < data.DailyDistribution[j].Date
	})

	daySpan := 0
	if n := len(messages); n > 0 {
		first, last := messages[0].Timestamp, messages[n-1].Timestamp
		data.DateRange = entity.DateRange{Start: &first, End: &last}
		daySpan = int(math.Ceil(last.Sub(first).Hours() / 24))
	}

	data.DurationString = DurationString(len(messages), daySpan)
	if daySpan > 0 {
		data.AvgMessagesPerDay = int(math.Round(float64(len(messages)) / float64(daySpan)))
	}
	data.BalanceScore = balanceScore(st)

	return data
}

// DurationString renders a day span in Indonesian ("tahun", "bulan", "hari")
func DurationString(totalMessages, days int) string {
	if totalMessages < 2 {
		return "0 hari"
	}

	switch {
	case days > 365:
		years := days / 365
		months := (days % 365) / 30
		if months == 0 {
			return fmt.Sprintf("%d tahun", years)
		}
		return fmt.Sprintf("%d tahun %d bulan", years, months)
	case days > 30:
		return fmt.Sprintf("%d bulan %d hari", days/30, days%30)
	default:
		return fmt.Sprintf("%d hari", days)
	}
}

// busiestDay takes the first day, in first-seen order, holding the maximum count
func busiestDay(daily []entity.DailyStats) entity.BusiestDay {
	var best entity.BusiestDay
	for _, d := range daily {
		if d.Count > best.Count {
			best = entity.BusiestDay{Date: d.Date, Count: d.Count}
		}
	}
	return best
}

func busiestHour(hourly [24]int) int {
	best := 0
	for h, c := range hourly {
		if c > hourly[best] {
			best = h
		}
	}
	return best
}

// balanceScore compares the two participants' message counts; 100 is even.
// Any other participant count, or no messages, gives the neutral midpoint.
func balanceScore(st Stats) int {
	if len(st.Participants) != 2 {
		return neutralBalance
	}

	a := st.ParticipantStats[st.Participants[0]].MessageCount
	b := st.ParticipantStats[st.Participants[1]].MessageCount
	if a+b == 0 {
		return neutralBalance
	}

	lo, hi := min(a, b), max(a, b)
	return int(math.Round(float64(lo) / float64(hi) * 100))
}
