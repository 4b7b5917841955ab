package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
	"github.com/vadim/chat-recap/internal/domain/transcript/parser"
	"github.com/vadim/chat-recap/internal/domain/transcript/stats"
)

// ReportRepository defines the interface for report storage
type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	Update(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, limit, offset int) ([]entity.ReportSummary, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) ([]entity.ExpiredReport, error)
}

// TranscriptArchive defines the interface for raw transcript storage
type TranscriptArchive interface {
	Put(ctx context.Context, name string, body []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Config holds analysis settings
type Config struct {
	Location  *time.Location
	Retention time.Duration
	Stats     stats.Options
}

// Service handles transcript analysis business logic
type Service struct {
	cfg     Config
	repo    ReportRepository
	archive TranscriptArchive
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a service that analyzes transcripts without storing them
func New(cfg Config, logger *slog.Logger) *Service {
	return NewWithRepo(cfg, nil, nil, logger)
}

// NewWithRepo creates a service with report storage and, optionally, a transcript archive
func NewWithRepo(cfg Config, repo ReportRepository, archive TranscriptArchive, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Retention == 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.Stats.InitiationGap == 0 && cfg.Stats.SilenceGap == 0 {
		cfg.Stats = stats.DefaultOptions()
	}
	cfg.Stats.Location = cfg.Location

	return &Service{
		cfg:     cfg,
		repo:    repo,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// analyze runs parse -> aggregate -> summarize over one transcript
func (s *Service) analyze(text string, order entity.DateOrder) entity.ChatData {
	res := parser.New(parser.Options{
		DateOrder: order,
		Location:  s.cfg.Location,
		Now:       s.now,
	}).Parse(text)

	if n := len(res.Issues); n > 0 {
		s.logger.Warn("transcript has unresolved timestamps",
			"count", n,
			"first_line", res.Issues[0].Line,
			"first_token", res.Issues[0].Token,
		)
	}

	st := stats.Aggregate(res.Messages, s.cfg.Stats)
	return stats.Summarize(res.Messages, res.MediaCount, res.Issues, st)
}

// AnalyzeInput represents input for analyzing a transcript
type AnalyzeInput struct {
	Transcript string
	SourceName string
	DateOrder  entity.DateOrder
}

// Analyze parses a transcript and builds its report. The transcript is
// archived and the report saved when those backends are configured.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*entity.Report, error) {
	data := s.analyze(in.Transcript, in.DateOrder)
	if data.TotalMessages == 0 {
		return nil, entity.ErrUnrecognizedFormat
	}

	now := s.now()
	report := &entity.Report{
		ID:         uuid.NewString(),
		SourceName: in.SourceName,
		DateOrder:  in.DateOrder,
		Data:       data,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.Retention),
	}

	if s.archive != nil {
		key, err := s.archive.Put(ctx, in.SourceName, []byte(in.Transcript))
		if err != nil {
			return nil, fmt.Errorf("archiving transcript: %w", err)
		}
		report.TranscriptKey = key
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, report); err != nil {
			if report.TranscriptKey != "" {
				if delErr := s.archive.Delete(ctx, report.TranscriptKey); delErr != nil {
					s.logger.Error("failed to remove orphaned transcript", "key", report.TranscriptKey, "error", delErr)
				}
			}
			return nil, fmt.Errorf("saving report: %w", err)
		}
	}

	s.logger.Info("transcript analyzed",
		"report_id", report.ID,
		"messages", data.TotalMessages,
		"participants", len(data.Participants),
	)

	return report, nil
}

// ReanalyzeInput represents input for re-running an analysis
type ReanalyzeInput struct {
	ID        string
	DateOrder entity.DateOrder
}

// Reanalyze runs a stored report's archived transcript through the parser
// again, typically with a different date order.
func (s *Service) Reanalyze(ctx context.Context, in ReanalyzeInput) (*entity.Report, error) {
	if s.repo == nil {
		return nil, entity.ErrPersistenceDisabled
	}
	if s.archive == nil {
		return nil, entity.ErrArchiveDisabled
	}

	report, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if report.TranscriptKey == "" {
		return nil, entity.ErrArchiveDisabled
	}

	raw, err := s.archive.Get(ctx, report.TranscriptKey)
	if err != nil {
		return nil, fmt.Errorf("fetching transcript: %w", err)
	}

	data := s.analyze(string(raw), in.DateOrder)
	if data.TotalMessages == 0 {
		return nil, entity.ErrUnrecognizedFormat
	}

	report.Data = data
	report.DateOrder = in.DateOrder
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("updating report: %w", err)
	}

	return report, nil
}

// Get returns a stored report
func (s *Service) Get(ctx context.Context, id string) (*entity.Report, error) {
	if s.repo == nil {
		return nil, entity.ErrPersistenceDisabled
	}

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	if report == nil {
		return nil, entity.ErrReportNotFound
	}
	return report, nil
}

// ListInput represents input for listing reports
type ListInput struct {
	Limit  int
	Offset int
}

// ListOutput represents output from listing reports
type ListOutput struct {
	Reports []entity.ReportSummary
	Total   int64
	HasMore bool
}

// List returns stored report summaries, newest first
func (s *Service) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	if s.repo == nil {
		return nil, entity.ErrPersistenceDisabled
	}

	reports, err := s.repo.List(ctx, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting reports: %w", err)
	}

	return &ListOutput{
		Reports: reports,
		Total:   total,
		HasMore: int64(in.Offset+len(reports)) < total,
	}, nil
}

// Delete removes a report and its archived transcript
func (s *Service) Delete(ctx context.Context, id string) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	if report.TranscriptKey != "" && s.archive != nil {
		// The report is already gone; a leftover object is logged, not surfaced.
		if err := s.archive.Delete(ctx, report.TranscriptKey); err != nil {
			s.logger.Error("failed to delete transcript", "report_id", id, "key", report.TranscriptKey, "error", err)
		}
	}

	return nil
}

// PurgeExpired deletes reports past their expiry along with their
// transcripts, returning how many reports were removed
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}

	expired, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deleting expired reports: %w", err)
	}

	if s.archive != nil {
		for _, e := range expired {
			if e.TranscriptKey == "" {
				continue
			}
			// Rows are already gone; a leftover object is logged, not retried.
			if err := s.archive.Delete(ctx, e.TranscriptKey); err != nil {
				s.logger.Error("failed to delete expired transcript", "report_id", e.ID, "key", e.TranscriptKey, "error", err)
			}
		}
	}

	return len(expired), nil
}
