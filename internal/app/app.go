// Package app wires the intake components from process configuration.
// Both binaries build on it.
package app

import (
	"log/slog"

	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/extract"
	"github.com/joseph-ayodele/legal-intake/internal/export"
	"github.com/joseph-ayodele/legal-intake/internal/jobs"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
	"github.com/joseph-ayodele/legal-intake/internal/llm/openai"
	"github.com/joseph-ayodele/legal-intake/internal/ocr"
	"github.com/joseph-ayodele/legal-intake/internal/pipeline"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
	"github.com/joseph-ayodele/legal-intake/internal/transcribe"
)

// Components are the stateless services shared by the commands.
type Components struct {
	Config      *common.Config
	Logger      *slog.Logger
	OpenAI      *openai.Client
	Extractor   extract.TextExtractor
	Transcriber *transcribe.Transcriber
	Risk        *risk.Service
	Processor   *pipeline.Processor
	Export      *export.Service
}

// Build assembles the components. Remote features are enabled only when an
// API key is configured.
func Build(cfg *common.Config, logger *slog.Logger) *Components {
	if logger == nil {
		logger = slog.Default()
	}
	client := openai.NewClient(openai.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		TranscribeModel:   cfg.Transcription.Model,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	}, logger)

	ocrPipe := ocr.NewPipeline(logger, ocr.WithVisionFactory(func(_, model string) llm.VisionRecognizer {
		return client.WithModel(model)
	}))
	base := extract.NewExtractor(logger,
		extract.WithOCR(ocrPipe),
		extract.WithOCROptions(ocr.OptionsFromConfig(cfg)),
	)
	extractor := extract.NewCachedExtractor(base, extract.NewCache(cfg.Extraction.CacheSize), logger)

	c := &Components{
		Config:    cfg,
		Logger:    logger,
		OpenAI:    client,
		Extractor: extractor,
		Export:    export.NewService(logger),
	}

	riskOpts := []risk.ServiceOption{risk.WithTopK(cfg.Retrieval.TopK)}
	if client.Configured() {
		c.Transcriber = transcribe.New(client, transcribe.ConfigFrom(cfg.Transcription), logger)
		riskOpts = append(riskOpts, risk.WithAnalyzer(client))
	}
	c.Risk = risk.NewService(logger, riskOpts...)
	c.Processor = pipeline.NewProcessor(logger,
		pipeline.NewExtractStage(extractor, cfg.Extraction.BatchConcurrency, logger),
		c.Risk,
	)
	return c
}

// NewRegistry starts a job registry over the transcriber. Extra options are
// applied after the configured ones.
func (c *Components) NewRegistry(opts ...jobs.Option) *jobs.Registry {
	all := append(jobs.OptionsFromConfig(c.Config.Transcription), opts...)
	if c.Transcriber == nil {
		return jobs.NewRegistry(nil, c.Logger, all...)
	}
	return jobs.NewRegistry(c.Transcriber, c.Logger, all...)
}
