package entity

import "time"

// ParticipantStats holds per-sender metrics
type ParticipantStats struct {
	Name                string `json:"name"`
	MessageCount        int    `json:"messageCount"`
	WordCount           int    `json:"wordCount"`
	AvgReplyTimeMinutes int    `json:"avgReplyTimeMinutes"`
	InitiationCount     int    `json:"initiationCount"`
}

// SilencePeriod is a long gap between two consecutive messages
type SilencePeriod struct {
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	DurationDays int       `json:"durationDays"`
	Breaker      string    `json:"breaker"` // sender of the message ending the silence
}

// DailyStats counts messages for one UTC calendar day
type DailyStats struct {
	Date      string         `json:"date"` // YYYY-MM-DD
	Count     int            `json:"count"`
	Breakdown map[string]int `json:"breakdown"`
}

// HourlyStats counts messages for one hour of day
type HourlyStats struct {
	Hour  int `json:"hour"`  // 0-23
	Count int `json:"count"`
}

// BusiestDay is the day with the most messages
type BusiestDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DateRange spans the first and last message; both nil when there are none
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// ChatData is the full analysis of one transcript
type ChatData struct {
	Participants       []string                    `json:"participants"`
	Messages           []Message                   `json:"messages"`
	TotalMessages      int                         `json:"totalMessages"`
	DateRange          DateRange                   `json:"dateRange"`
	DurationString     string                      `json:"durationString"`
	ActiveDays         int                         `json:"activeDays"`
	AvgMessagesPerDay  int                         `json:"avgMessagesPerDay"`
	MediaCount         int                         `json:"mediaCount"`
	BusiestDay         BusiestDay                  `json:"busiestDay"`
	BusiestHour        int                         `json:"busiestHour"`
	HourlyDistribution []HourlyStats               `json:"hourlyDistribution"`
	DailyDistribution  []DailyStats                `json:"dailyDistribution"`
	ParticipantStats   map[string]ParticipantStats `json:"participantStats"`
	SilencePeriods     []SilencePeriod             `json:"silencePeriods"`
	BalanceScore       int                         `json:"balanceScore"` // 0-100
	ParseIssues        []ParseIssue                `json:"parseIssues,omitempty"`
}
