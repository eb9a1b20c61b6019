package main

import (
	"fmt"

	"reportgen/internal/account"
	"reportgen/internal/archive"
	"reportgen/internal/decoder"
	"reportgen/internal/export"
	"reportgen/internal/ranker"
	"reportgen/internal/report"
	"reportgen/internal/service"
	"reportgen/internal/summarizer"
)

// components are the long-lived pieces behind the report service.
type components struct {
	service  *service.ReportService
	registry *decoder.Registry
	ranker   *ranker.Ranker
	archive  *archive.Store
}

func (c *components) Close() {
	if c.ranker != nil {
		c.ranker.Release()
	}
	if c.archive != nil {
		_ = c.archive.Close()
	}
}

// buildService wires the report service from config. format overrides the
// configured export format when non-empty.
func buildService(env *appEnv, format string) (*components, error) {
	cfg := env.cfg
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = cfg.Export.Format
	}
	exporter, err := export.New(format)
	if err != nil {
		return nil, err
	}

	rankOpts := []ranker.Option{
		ranker.WithParallelMin(cfg.Ranker.ParallelMin),
		ranker.WithLogger(env.logger),
	}
	if cfg.Ranker.Workers != 0 {
		rankOpts = append(rankOpts, ranker.WithWorkers(cfg.Ranker.Workers))
	}
	rk, err := ranker.New(rankOpts...)
	if err != nil {
		return nil, fmt.Errorf("create ranker: %w", err)
	}

	arch, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		rk.Release()
		return nil, fmt.Errorf("open archive: %w", err)
	}

	registry := decoder.NewRegistry(decoder.Text{}, decoder.NewPDF(cfg.Decoder.Workers, env.logger))
	svc := service.New(
		report.NewAssembler(cfg.Report.TimeLayout, loc),
		service.WithRanker(rk),
		service.WithThreshold(cfg.Ranker.ThresholdValue()),
		service.WithDecoder(registry),
		service.WithExporter(exporter),
		service.WithArchive(arch),
		service.WithSummarizer(summarizer.NewFrequency()),
		service.WithLogger(env.logger),
	)
	return &components{service: svc, registry: registry, ranker: rk, archive: arch}, nil
}

func openAccounts(env *appEnv) (*account.Store, error) {
	store, err := account.Open(env.cfg.Storage.DataDir, env.logger)
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}
	return store, nil
}

// currentOwner returns the signed-in user's email, or "" when nobody is signed in.
func currentOwner(env *appEnv) string {
	store, err := openAccounts(env)
	if err != nil {
		env.logger.WithError(err).Debug("account store unavailable")
		return ""
	}
	defer store.Close()
	user, err := store.Current()
	if err != nil {
		return ""
	}
	return user.Email
}
