// Package service ties decoding, ranking, report assembly, export and history together.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reportgen/internal/domain"
	"reportgen/internal/logging"
	"reportgen/internal/ranker"
	"reportgen/internal/report"
)

// DocumentSource decodes uploaded or on-disk documents.
type DocumentSource interface {
	domain.Decoder
	DecodeFile(ctx context.Context, path string) (domain.Document, error)
}

// GenerateRequest is a single report request. A nil Document means none was attached.
type GenerateRequest struct {
	Prompt   string
	Document *domain.Document
	Owner    string
}

// ReportService generates reports and remembers the most recent one.
type ReportService struct {
	ranker     *ranker.Ranker
	assembler  *report.Assembler
	decoder    DocumentSource
	exporter   domain.Exporter
	archive    domain.Archive
	summarizer domain.Summarizer
	threshold  float64
	logger     *logrus.Entry

	mu   sync.Mutex
	last *domain.Report
}

// Option configures a ReportService.
type Option func(*ReportService)

// WithRanker scores sentences on a pooled ranker instead of inline.
func WithRanker(r *ranker.Ranker) Option { return func(s *ReportService) { s.ranker = r } }

// WithThreshold overrides the relevance threshold.
func WithThreshold(t float64) Option { return func(s *ReportService) { s.threshold = t } }

// WithDecoder sets the document decoder used by GenerateFromFile.
func WithDecoder(d DocumentSource) Option { return func(s *ReportService) { s.decoder = d } }

// WithExporter sets the exporter used by Export.
func WithExporter(e domain.Exporter) Option { return func(s *ReportService) { s.exporter = e } }

// WithArchive stores every generated report.
func WithArchive(a domain.Archive) Option { return func(s *ReportService) { s.archive = a } }

// WithSummarizer enables Overview.
func WithSummarizer(sum domain.Summarizer) Option {
	return func(s *ReportService) { s.summarizer = sum }
}

// WithLogger sets the parent logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *ReportService) { s.logger = logging.Component(l, "report-service") }
}

// New creates a ReportService around assembler.
func New(assembler *report.Assembler, opts ...Option) *ReportService {
	s := &ReportService{
		assembler: assembler,
		threshold: ranker.DefaultThreshold,
		logger:    logging.Component(nil, "report-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate ranks the document against the prompt and assembles the report.
func (s *ReportService) Generate(ctx context.Context, req GenerateRequest) (*domain.Report, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrPromptRequired
	}
	if req.Document == nil {
		return nil, ErrDocumentRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ranking domain.Ranking
	if s.ranker != nil {
		ranking = s.ranker.Rank(req.Document.Text, prompt, s.threshold)
	} else {
		ranking = ranker.Rank(req.Document.Text, prompt, s.threshold)
	}
	ts := s.assembler.Now()
	rep := &domain.Report{
		ID:        uuid.NewString(),
		Owner:     req.Owner,
		Prompt:    prompt,
		Source:    req.Document.Name,
		Content:   s.assembler.Assemble(prompt, ranking, ts),
		Matches:   len(ranking.Sentences),
		CreatedAt: ts,
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, rep); err != nil {
			return nil, fmt.Errorf("archive report: %w", err)
		}
	}

	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"report":  rep.ID,
		"source":  rep.Source,
		"matches": rep.Matches,
	}).Info("report generated")
	return rep, nil
}

// GenerateFromFile decodes path and generates a report from it.
func (s *ReportService) GenerateFromFile(ctx context.Context, path, prompt, owner string) (*domain.Report, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrPromptRequired
	}
	if path == "" {
		return nil, ErrDocumentRequired
	}
	doc, err := s.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, GenerateRequest{Prompt: prompt, Document: &doc, Owner: owner})
}

// Decode reads a document through the configured decoder.
func (s *ReportService) Decode(ctx context.Context, path string) (domain.Document, error) {
	if s.decoder == nil {
		return domain.Document{}, fmt.Errorf("no decoder configured")
	}
	return s.decoder.DecodeFile(ctx, path)
}

// Last returns the most recently generated report.
func (s *ReportService) Last() (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, ErrNoReport
	}
	return s.last, nil
}

// Export writes the most recent report into dir.
func (s *ReportService) Export(dir string) (string, error) {
	rep, err := s.Last()
	if err != nil {
		return "", err
	}
	return s.ExportReport(rep, dir)
}

// ExportReport writes rep into dir and returns the file path.
func (s *ReportService) ExportReport(rep *domain.Report, dir string) (string, error) {
	if rep == nil || strings.TrimSpace(rep.Content) == "" {
		return "", ErrNoReport
	}
	if s.exporter == nil {
		return "", fmt.Errorf("no exporter configured")
	}
	path, err := s.exporter.Export(rep.Content, dir)
	if err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{"report": rep.ID, "path": path}).Info("report exported")
	return path, nil
}

// History lists an owner's archived reports, newest first.
func (s *ReportService) History(ctx context.Context, owner string, limit int) ([]domain.Report, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.List(ctx, owner, limit)
}

// Find returns an archived report by id.
func (s *ReportService) Find(ctx context.Context, id string) (*domain.Report, error) {
	if s.archive == nil {
		return nil, ErrNoReport
	}
	return s.archive.Get(ctx, id)
}

// Overview summarizes a document in a few sentences. Empty without a summarizer.
func (s *ReportService) Overview(doc domain.Document, maxSentences int) string {
	if s.summarizer == nil {
		return ""
	}
	summary, err := s.summarizer.Summarize(doc.Text, maxSentences)
	if err != nil {
		s.logger.WithError(err).Warn("summarize document")
		return ""
	}
	return summary
}
