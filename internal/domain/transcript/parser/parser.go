// Package parser turns an exported WhatsApp chat transcript into an ordered
// list of messages.
//
// Every physical line is classified on its own: skip lines (blank or system
// notices) are dropped, header lines open a new message, and any other line
// is folded into the content of the previous message. Lines before the first
// header have no sender and are discarded.
package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

// DefaultMediaMarkers mark a message as an omitted-media placeholder
var DefaultMediaMarkers = []string{"Media omitted", "image omitted", "sticker omitted"}

// DefaultSystemMarkers mark a line as a system notice. Matching is by plain
// substring, so an ordinary message containing one of them is dropped too.
var DefaultSystemMarkers = []string{
	"Messages and calls are end-to-end encrypted",
	"created group",
	"added",
	"left",
}

// headerPattern recognises a message-start line. The stamp group is only a
// loose shape; layouts in timestamp.go decide what it means.
var headerPattern = regexp.MustCompile(
	`^\[?` +
		`(?P<stamp>\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4},?\s+\d{1,2}[:.]\d{2}(?:[:.]\d{2})?(?:\s*[AaPp]\.?[Mm]\b\.?)?)` +
		`\]?\s*(?:[-:]\s*)?` +
		`(?P<sender>[^:]+?):\s(?P<content>.*\S.*)$`,
)

var (
	stampIdx   = headerPattern.SubexpIndex("stamp")
	senderIdx  = headerPattern.SubexpIndex("sender")
	contentIdx = headerPattern.SubexpIndex("content")
)

// invisible marks some exports put at the start of a line
const invisibleLeaders = "\ufeff\u200e\u200f\u202a\u202b\u202c\u202d\u202e"

var spaceNormalizer = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// Options configures a Parser
type Options struct {
	DateOrder     entity.DateOrder
	Location      *time.Location
	Now           func() time.Time
	Fallback      func(token string, loc *time.Location) (time.Time, error)
	MediaMarkers  []string
	SystemMarkers []string
}

// Result is the output of one Parse call
type Result struct {
	Messages   []entity.Message
	MediaCount int
	Issues     []entity.ParseIssue
}

// Parser parses transcripts. It holds no state between calls.
type Parser struct {
	opts Options
}

// New creates a parser, filling unset options with defaults
func New(opts Options) *Parser {
	if opts.DateOrder == "" {
		opts.DateOrder = entity.DateOrderDayFirst
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Fallback == nil {
		opts.Fallback = GenericFallback
	}
	if opts.MediaMarkers == nil {
		opts.MediaMarkers = DefaultMediaMarkers
	}
	if opts.SystemMarkers == nil {
		opts.SystemMarkers = DefaultSystemMarkers
	}
	return &Parser{opts: opts}
}

// Parse classifies every line of text and returns the messages sorted by
// timestamp. It never fails; unusable input yields an empty result.
func (p *Parser) Parse(text string) Result {
	var res Result

	for i, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if p.skip(line) {
			continue
		}

		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			if n := len(res.Messages); n > 0 {
				res.Messages[n-1].Content += "\n" + line
			}
			continue
		}

		token := m[stampIdx]
		ts, err := p.resolveTimestamp(token)
		if err != nil {
			ts = p.opts.Now()
			res.Issues = append(res.Issues, entity.ParseIssue{
				Line:   i + 1,
				Token:  token,
				Reason: err.Error(),
			})
		}

		content := m[contentIdx]
		if containsAny(content, p.opts.MediaMarkers) {
			res.MediaCount++
		}

		res.Messages = append(res.Messages, entity.Message{
			Timestamp: ts,
			Sender:    m[senderIdx],
			Content:   content,
		})
	}

	sort.SliceStable(res.Messages, func(i, j int) bool {
		return res.Messages[i].Timestamp.Before(res.Messages[j].Timestamp)
	})

	return res
}

func (p *Parser) skip(line string) bool {
	return strings.TrimSpace(line) == "" || containsAny(line, p.opts.SystemMarkers)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, "\r")
	line = strings.TrimLeft(line, invisibleLeaders)
	return spaceNormalizer.Replace(line)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
