package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

var errNoLayout = errors.New("no timestamp layout matched")

// minFallbackYear is the earliest year accepted from the generic fallback
const minFallbackYear = 100

// timePart is shared by every layout: H:MM[:SS] with an optional meridiem
const timePart = `,?\s+(\d{1,2})[:.](\d{2})(?:[:.](\d{2}))?(?:\s*([AaPp])\.?[Mm]\.?)?$`

// stamp is the typed form of a matched date/time token before calendar
// resolution. Out-of-range fields are not rejected; time.Date rolls them over.
type stamp struct {
	year, month, day     int
	hour, minute, second int
	meridiem             byte // 'A', 'P' or 0
}

// layout is one candidate grammar for the date/time token
type layout struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, order entity.DateOrder) stamp
}

// layouts are tried in order; the first that matches wins
var layouts = []layout{
	{
		// 31/12/24, 23:59 or 12.31.2024 11:59 PM; field order follows the DateOrder policy
		name: "dmy",
		re:   regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})` + timePart),
		build: func(m []string, order entity.DateOrder) stamp {
			s := stamp{day: atoi(m[1]), month: atoi(m[2]), year: atoi(m[3])}
			if order == entity.DateOrderMonthFirst {
				s.day, s.month = s.month, s.day
			}
			return s
		},
	},
	{
		// 2024-12-31, 23:59
		name: "ymd",
		re:   regexp.MustCompile(`^(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})` + timePart),
		build: func(m []string, _ entity.DateOrder) stamp {
			return stamp{year: atoi(m[1]), month: atoi(m[2]), day: atoi(m[3])}
		},
	},
}

// matchStamp runs the layouts against token and returns the typed stamp
func matchStamp(token string, order entity.DateOrder) (stamp, string, bool) {
	for _, l := range layouts {
		m := l.re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		s := l.build(m, order)
		s.hour = atoi(m[4])
		s.minute = atoi(m[5])
		if m[6] != "" {
			s.second = atoi(m[6])
		}
		if m[7] != "" {
			s.meridiem = strings.ToUpper(m[7])[0]
		}
		return s, l.name, true
	}
	return stamp{}, "", false
}

// Time converts the stamp to an absolute time in loc
func (s stamp) Time(loc *time.Location) time.Time {
	year := s.year
	if year < 100 {
		year += 2000
	}

	hour := s.hour
	switch {
	case s.meridiem == 'P' && hour < 12:
		hour += 12
	case s.meridiem == 'A' && hour == 12:
		hour = 0
	}

	return time.Date(year, time.Month(s.month), s.day, hour, s.minute, s.second, 0, loc)
}

// resolveTimestamp turns a header's date/time token into a time. The
// grammar is tried first, then the generic fallback parser.
func (p *Parser) resolveTimestamp(token string) (time.Time, error) {
	if s, _, ok := matchStamp(token, p.opts.DateOrder); ok {
		return s.Time(p.opts.Location), nil
	}

	normalized := strings.ReplaceAll(strings.ReplaceAll(token, ".", ":"), ",", "")
	t, err := p.opts.Fallback(normalized, p.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fallback: %v", errNoLayout, err)
	}
	// Years outside the 2/4 digit grammar come back from the fallback as 0000-0099.
	if t.Year() < minFallbackYear {
		return time.Time{}, fmt.Errorf("%w: fallback gave year %04d", errNoLayout, t.Year())
	}
	return t, nil
}

// GenericFallback parses free-form date strings with dateparse
func GenericFallback(token string, loc *time.Location) (time.Time, error) {
	return dateparse.ParseIn(token, loc)
}

// atoi is only called on regexp-matched digit groups
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
