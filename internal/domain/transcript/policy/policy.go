package policy

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
	"github.com/vadim/chat-recap/internal/domain/transcript/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TranscriptService defines the interface for the transcript service
type TranscriptService interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*entity.Report, error)
	Reanalyze(ctx context.Context, in service.ReanalyzeInput) (*entity.Report, error)
	Get(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, in service.ListInput) (*service.ListOutput, error)
	Delete(ctx context.Context, id string) error
}

// Policy validates requests before they reach the transcript service
type Policy struct {
	svc          TranscriptService
	maxBytes     int64
	defaultOrder entity.DateOrder
}

// Option configures a Policy
type Option func(*Policy)

// WithDefaultDateOrder sets the date order used when a request names none
func WithDefaultDateOrder(order entity.DateOrder) Option {
	return func(p *Policy) {
		p.defaultOrder = order
	}
}

// New creates a new transcript policy; maxBytes <= 0 disables the size check
func New(svc TranscriptService, maxBytes int64, opts ...Option) *Policy {
	p := &Policy{
		svc:          svc,
		maxBytes:     maxBytes,
		defaultOrder: entity.DateOrderDayFirst,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// checkID rejects ids that cannot name a stored report
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return entity.ErrReportNotFound
	}
	return nil
}

func (p *Policy) dateOrder(s string) (entity.DateOrder, error) {
	if s == "" {
		return p.defaultOrder, nil
	}
	return entity.ParseDateOrder(s)
}

// AnalyzeInput represents input for analyzing a transcript
type AnalyzeInput struct {
	Transcript string
	SourceName string
	DateOrder  string
}

// Analyze validates and analyzes an uploaded transcript
func (p *Policy) Analyze(ctx context.Context, in AnalyzeInput) (*entity.Report, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, entity.ErrEmptyTranscript
	}
	if p.maxBytes > 0 && int64(len(in.Transcript)) > p.maxBytes {
		return nil, entity.ErrTranscriptTooLarge
	}

	order, err := p.dateOrder(in.DateOrder)
	if err != nil {
		return nil, err
	}

	text := in.Transcript
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}

	return p.svc.Analyze(ctx, service.AnalyzeInput{
		Transcript: text,
		SourceName: strings.TrimSpace(in.SourceName),
		DateOrder:  order,
	})
}

// ReanalyzeInput represents input for re-running an analysis
type ReanalyzeInput struct {
	ID        string
	DateOrder string
}

// Reanalyze re-runs a stored analysis with the requested date order
func (p *Policy) Reanalyze(ctx context.Context, in ReanalyzeInput) (*entity.Report, error) {
	order, err := p.dateOrder(in.DateOrder)
	if err != nil {
		return nil, err
	}
	if err := checkID(in.ID); err != nil {
		return nil, err
	}

	return p.svc.Reanalyze(ctx, service.ReanalyzeInput{
		ID:        in.ID,
		DateOrder: order,
	})
}

// Get returns a stored report
func (p *Policy) Get(ctx context.Context, id string) (*entity.Report, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return p.svc.Get(ctx, id)
}

// ListInput represents input for listing reports
type ListInput struct {
	Limit  int
	Offset int
}

// List returns stored reports with clamped paging
func (p *Policy) List(ctx context.Context, in ListInput) (*service.ListOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	return p.svc.List(ctx, service.ListInput{Limit: limit, Offset: offset})
}

// Delete removes a stored report
func (p *Policy) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return p.svc.Delete(ctx, id)
}
