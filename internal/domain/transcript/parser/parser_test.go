package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

func TestParse_ContinuationFolding(t *testing.T) {
	res := New(Options{}).Parse("[1/1/24, 10:00] Alice: Hello\nWorld")

	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Alice", res.Messages[0].Sender)
	assert.Equal(t, "Hello\nWorld", res.Messages[0].Content)
}

func TestParse_GarbageYieldsNothing(t *testing.T) {
	res := New(Options{}).Parse("random text\nno timestamps here")

	assert.Empty(t, res.Messages)
	assert.Zero(t, res.MediaCount)
	assert.Empty(t, res.Issues)
}

func TestParse_DanglingContinuationDropped(t *testing.T) {
	res := New(Options{}).Parse("preamble\n[1/1/24, 10:00] Alice: Hello")

	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Hello", res.Messages[0].Content)
}

func TestParse_SkipLines(t *testing.T) {
	text := strings.Join([]string{
		"[1/1/24, 09:00] Messages and calls are end-to-end encrypted. No one outside of this chat can read them.",
		"[1/1/24, 09:01] Alice created group \"Trip\"",
		"[1/1/24, 09:02] Alice: hi",
		"",
		"   ",
		"Bob added Carol",
		"Carol left",
		"[1/1/24, 09:03] Bob: hello",
	}, "\n")

	res := New(Options{}).Parse(text)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, "hi", res.Messages[0].Content)
	assert.Equal(t, "hello", res.Messages[1].Content)
}

func TestParse_AndroidFormat(t *testing.T) {
	text := "12/31/23, 11:58 PM - Budi Santoso: Selamat tahun baru!\n" +
		"12/31/23, 11:59 PM - Siti: Sama-sama: semoga sehat"

	res := New(Options{DateOrder: entity.DateOrderMonthFirst}).Parse(text)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Budi Santoso", res.Messages[0].Sender)
	assert.Equal(t, "Sama-sama: semoga sehat", res.Messages[1].Content)
	assert.Equal(t, time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), res.Messages[1].Timestamp)
}

func TestParse_SenderStartingWithMeridiemLetters(t *testing.T) {
	res := New(Options{}).Parse("1/1/24, 10:00 Amy: hi")

	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Amy", res.Messages[0].Sender)
	assert.Equal(t, 10, res.Messages[0].Timestamp.Hour())
}

func TestParse_InvisibleMarksAndCRLF(t *testing.T) {
	text := "\ufeff[1/1/24, 2:30\u202fPM] Alice: test\r\n\u200e[1/1/24, 2:31\u202fPM] Bob: \u200eimage omitted\r\n"

	res := New(Options{}).Parse(text)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, 14, res.Messages[0].Timestamp.Hour())
	assert.Equal(t, "test", res.Messages[0].Content)
	assert.Equal(t, 1, res.MediaCount)
}

func TestParse_MediaCount(t *testing.T) {
	text := strings.Join([]string{
		"1/1/24, 10:00 - Alice: <Media omitted>",
		"1/1/24, 10:01 - Bob: sticker omitted",
		"1/1/24, 10:02 - Alice: nice pic",
		"image omitted",
	}, "\n")

	res := New(Options{}).Parse(text)

	require.Len(t, res.Messages, 3)
	assert.Equal(t, 2, res.MediaCount)
	assert.Equal(t, "<Media omitted>", res.Messages[0].Content)
}

func TestParse_SortsStably(t *testing.T) {
	text := strings.Join([]string{
		"[2/1/24, 10:00] Alice: later",
		"[1/1/24, 10:00] Bob: first tie",
		"[1/1/24, 10:00] Alice: second tie",
	}, "\n")

	p := New(Options{})
	res := p.Parse(text)

	require.Len(t, res.Messages, 3)
	assert.Equal(t, "first tie", res.Messages[0].Content)
	assert.Equal(t, "second tie", res.Messages[1].Content)
	assert.Equal(t, "later", res.Messages[2].Content)

	assert.Equal(t, res.Messages, p.Parse(text).Messages)
}

func TestParse_UnresolvableTimestampKeepsMessage(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	p := New(Options{
		Now: func() time.Time { return now },
		Fallback: func(string, *time.Location) (time.Time, error) {
			return time.Time{}, errors.New("unparsable")
		},
	})

	res := p.Parse("[1/1/24, 10:00] Alice: ok\n[1/1/024, 10:00] Bob: odd date")

	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Bob", res.Messages[1].Sender)
	assert.Equal(t, now, res.Messages[1].Timestamp)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 2, res.Issues[0].Line)
	assert.Equal(t, "1/1/024, 10:00", res.Issues[0].Token)
	assert.Contains(t, res.Issues[0].Reason, "unparsable")
}

func TestParse_OddYearWidthRecordsIssue(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		line  string
		token string
	}{
		{"three_digit_year", "[1/1/024, 10:00] Bob: odd", "1/1/024, 10:00"},
		{"one_digit_year", "[1/1/4, 10:00] Bob: odd", "1/1/4, 10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Options{Now: func() time.Time { return now }})

			res := p.Parse("[1/1/24, 10:00] Alice: ok\n" + tt.line)

			require.Len(t, res.Messages, 2)
			assert.Equal(t, "Alice", res.Messages[0].Sender)
			assert.Equal(t, "Bob", res.Messages[1].Sender)
			assert.Equal(t, now, res.Messages[1].Timestamp)

			require.Len(t, res.Issues, 1)
			assert.Equal(t, 2, res.Issues[0].Line)
			assert.Equal(t, tt.token, res.Issues[0].Token)
		})
	}
}

func TestParse_HeaderWithoutContentIsContinuation(t *testing.T) {
	res := New(Options{}).Parse("[1/1/24, 10:00] Alice: Hello\n[1/1/24, 10:01] Bob:")

	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Hello\n[1/1/24, 10:01] Bob:", res.Messages[0].Content)
}
