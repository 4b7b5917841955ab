package entity

import "time"

// Message represents one chat message recovered from an exported transcript
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"` // may span several lines
}

// ParseIssue describes a header line whose timestamp could not be resolved.
// The message is still kept, stamped with the wall clock at parse time.
type ParseIssue struct {
	Line   int    `json:"line"` // 1-based line number in the transcript
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// DateOrder is the positional policy used to read the first two date fields
type DateOrder string

const (
	DateOrderDayFirst   DateOrder = "dmy"
	DateOrderMonthFirst DateOrder = "mdy"
)

// ParseDateOrder validates a date order string; empty means day-first
func ParseDateOrder(s string) (DateOrder, error) {
	switch DateOrder(s) {
	case "", DateOrderDayFirst:
		return DateOrderDayFirst, nil
	case DateOrderMonthFirst:
		return DateOrderMonthFirst, nil
	default:
		return "", ErrInvalidDateOrder
	}
}
