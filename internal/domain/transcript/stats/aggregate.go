// Package stats derives per-participant metrics, time histograms and
// silence periods from a sorted message list, and folds them into the final
// ChatData summary.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

const (
	// DefaultInitiationGap separates a fresh conversation start from a reply
	DefaultInitiationGap = 6 * time.Hour
	// DefaultSilenceGap is the shortest gap reported as a silence period
	DefaultSilenceGap = 4 * 24 * time.Hour
)

// Options tunes the aggregation thresholds
type Options struct {
	InitiationGap time.Duration // a gap strictly longer than this is an initiation
	SilenceGap    time.Duration // a gap at least this long is a silence period
	Location      *time.Location
}

// DefaultOptions returns the standard thresholds in UTC
func DefaultOptions() Options {
	return Options{
		InitiationGap: DefaultInitiationGap,
		SilenceGap:    DefaultSilenceGap,
		Location:      time.UTC,
	}
}

// Stats is the result of one aggregation pass
type Stats struct {
	Participants     []string // first-seen order
	ParticipantStats map[string]entity.ParticipantStats
	Hourly           [24]int
	Daily            []entity.DailyStats // first-seen (chronological) order
	SilencePeriods   []entity.SilencePeriod
}

type participantAcc struct {
	stats     entity.ParticipantStats
	latencies []float64 // reply latencies in minutes
}

// Aggregate walks messages once, comparing each one with its predecessor.
// messages must already be sorted by timestamp.
func Aggregate(messages []entity.Message, opts Options) Stats {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	st := Stats{
		Participants:     []string{},
		ParticipantStats: make(map[string]entity.ParticipantStats),
		Daily:            []entity.DailyStats{},
		SilencePeriods:   []entity.SilencePeriod{},
	}

	accs := make(map[string]*participantAcc)
	dayIdx := make(map[string]int)

	for i, m := range messages {
		acc, ok := accs[m.Sender]
		if !ok {
			acc = &participantAcc{stats: entity.ParticipantStats{Name: m.Sender}}
			accs[m.Sender] = acc
			st.Participants = append(st.Participants, m.Sender)
		}
		acc.stats.MessageCount++
		acc.stats.WordCount += len(strings.Fields(m.Content))

		st.Hourly[m.Timestamp.In(opts.Location).Hour()]++

		key := DateKey(m.Timestamp)
		idx, ok := dayIdx[key]
		if !ok {
			idx = len(st.Daily)
			dayIdx[key] = idx
			st.Daily = append(st.Daily, entity.DailyStats{Date: key, Breakdown: make(map[string]int)})
		}
		st.Daily[idx].Count++
		st.Daily[idx].Breakdown[m.Sender]++

		if i == 0 {
			acc.stats.InitiationCount++
			continue
		}

		prev := messages[i-1]
		gap := m.Timestamp.Sub(prev.Timestamp)

		if gap >= opts.SilenceGap {
			st.SilencePeriods = append(st.SilencePeriods, entity.SilencePeriod{
				StartDate:    prev.Timestamp,
				EndDate:      m.Timestamp,
				DurationDays: int(math.Round(gap.Hours() / 24)),
				Breaker:      m.Sender,
			})
		}

		switch {
		case gap > opts.InitiationGap:
			acc.stats.InitiationCount++
		case m.Sender != prev.Sender:
			acc.latencies = append(acc.latencies, gap.Minutes())
		}
	}

	for name, acc := range accs {
		if n := len(acc.latencies); n > 0 {
			var sum float64
			for _, l := range acc.latencies {
				sum += l
			}
			acc.stats.AvgReplyTimeMinutes = int(math.Round(sum / float64(n)))
		}
		st.ParticipantStats[name] = acc.stats
	}

	return st
}

// DateKey is the UTC calendar date of t as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
