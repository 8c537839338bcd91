package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medicaid-docextract/pkg/errors"
)

const (
	DefaultProbeTimeout    = 5 * time.Second
	DefaultAnalyzerTimeout = 30 * time.Second
)

// Fallback reasons reported on results and metrics.
const (
	FallbackAnalyzerDisabled    = "analyzer_disabled"
	FallbackAnalyzerUnreachable = "analyzer_unreachable"
	FallbackAnalyzerFailed      = "analyzer_request_failed"
	FallbackMalformedReply      = "analyzer_reply_malformed"
	FallbackImplausibleReply    = "analyzer_reply_implausible"
)

// ExtractionConfig holds the optional collaborators and limits of the
// extraction pipeline.
type ExtractionConfig struct {
	ProbeTimeout    time.Duration
	AnalyzerTimeout time.Duration

	// Documents turns file uploads into text. Nil disables file inputs.
	Documents providers.DocumentTextExtractor
	// EventBus receives every progress event. Nil disables publishing.
	EventBus providers.ProgressEventBus
	// IDs generates placeholder identifiers. Defaults to the wall clock.
	IDs providers.IdentifierGenerator
	// Now is the clock used for processing time.
	Now func() time.Time
}

// ExtractionService turns healthcare documents into extraction records. It
// prefers the external analyzer and falls back to pattern extraction, so
// any request with usable text produces a complete record.
type ExtractionService struct {
	analyzer        providers.AnalyzerProvider
	fallback        *FallbackExtractor
	documents       providers.DocumentTextExtractor
	bus             providers.ProgressEventBus
	ids             providers.IdentifierGenerator
	probeTimeout    time.Duration
	analyzerTimeout time.Duration
	now             func() time.Time
}

// NewExtractionService creates the extraction pipeline. analyzer may be nil,
// in which case every request uses the fallback path.
func NewExtractionService(
	analyzer providers.AnalyzerProvider,
	fallback *FallbackExtractor,
	cfg ExtractionConfig,
) *ExtractionService {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.AnalyzerTimeout <= 0 {
		cfg.AnalyzerTimeout = DefaultAnalyzerTimeout
	}
	if cfg.IDs == nil {
		cfg.IDs = NewTimeIdentifierGenerator()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &ExtractionService{
		analyzer:        analyzer,
		fallback:        fallback,
		documents:       cfg.Documents,
		bus:             cfg.EventBus,
		ids:             cfg.IDs,
		probeTimeout:    cfg.ProbeTimeout,
		analyzerTimeout: cfg.AnalyzerTimeout,
		now:             cfg.Now,
	}
}

// ProcessDocument runs the full pipeline for one request. The only error it
// returns is an INPUT error when the request carries no usable text.
func (s *ExtractionService) ProcessDocument(ctx context.Context, req entities.ExtractionRequest, sink ProgressSink) (*entities.DocumentResult, error) {
	start := s.now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "extraction.process_document")
	defer span.End()
	span.SetAttributes(attribute.String("extraction.request_id", requestID))

	logger := observability.LoggerFromContext(ctx).With().Str("request_id", requestID).Logger()
	progress := newProgressReporter(ctx, requestID, sink, s.bus)
	progress.emit(entities.ProgressStepInitializing)

	text, err := s.resolveText(ctx, req, progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no document text")
		logger.Info().Err(err).Msg("rejected extraction request")
		return nil, err
	}

	record, method, reason := s.extract(ctx, text, progress)
	if reason != "" {
		logger.Info().Str("reason", reason).Msg("using fallback extraction")
		recordFallbackMetric(ctx, reason)
	}

	progress.emit(entities.ProgressStepValidating)
	validation := ValidateDocument(record)

	elapsed := s.now().Sub(start)
	recordExtractionMetric(ctx, method, record.ProcessingSource(), elapsed)
	span.SetAttributes(
		attribute.String("extraction.method", string(method)),
		attribute.Float64("extraction.confidence", record.Confidence()),
		attribute.String("extraction.validation", string(validation.Status)),
	)

	progress.emit(entities.ProgressStepComplete)

	logger.Info().
		Str("method", string(method)).
		Str("source", record.ProcessingSource()).
		Float64("confidence", record.Confidence()).
		Str("validation", string(validation.Status)).
		Dur("elapsed", elapsed).
		Msg("document processed")

	return &entities.DocumentResult{
		RequestID:        requestID,
		DocumentType:     documentType(req),
		DocumentName:     documentName(req),
		ExtractedData:    record,
		Validation:       validation,
		ProcessingTime:   elapsed,
		Confidence:       record.Confidence(),
		ProcessingMethod: method,
		FallbackReason:   reason,
	}, nil
}

// AnalyzerStatus probes the analyzer with the configured probe timeout.
func (s *ExtractionService) AnalyzerStatus(ctx context.Context) (bool, string) {
	if s.analyzer == nil {
		return false, ""
	}
	return s.probe(ctx), s.analyzer.Model()
}

func (s *ExtractionService) resolveText(ctx context.Context, req entities.ExtractionRequest, progress *progressReporter) (string, error) {
	if req.HasText() {
		return req.Text, nil
	}
	if !req.HasFile() {
		return "", apperrors.NewInputError("document text is required", nil)
	}

	progress.emit(entities.ProgressStepReadingFile)

	name := req.FileName
	content := req.Content
	if len(content) == 0 {
		data, err := os.ReadFile(req.FilePath)
		if err != nil {
			return "", apperrors.NewInputError("failed to read document", err)
		}
		content = data
		if name == "" {
			name = filepath.Base(req.FilePath)
		}
	}

	if s.documents == nil {
		return "", apperrors.NewInputError("file documents are not supported", nil)
	}
	if !s.documents.Supports(name) {
		return "", apperrors.NewInputError(fmt.Sprintf("unsupported document type %q", filepath.Ext(name)), nil)
	}

	text, err := s.documents.ExtractText(ctx, name, content)
	if err != nil {
		return "", apperrors.NewInputError("failed to extract document text", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewInputError("document contains no extractable text", nil)
	}
	return text, nil
}

// extract chooses between the analyzer and the fallback path. reason is
// empty when the analyzer result was used.
func (s *ExtractionService) extract(ctx context.Context, text string, progress *progressReporter) (entities.ExtractionRecord, entities.ProcessingMethod, string) {
	logger := observability.LoggerFromContext(ctx)
	progress.emit(entities.ProgressStepProbingAnalyzer)

	var (
		fields entities.AnalyzerFields
		reason string
	)
	switch {
	case s.analyzer == nil:
		reason = FallbackAnalyzerDisabled
	case !s.probe(ctx):
		logger.Debug().Msg("analyzer probe failed")
		reason = FallbackAnalyzerUnreachable
	default:
		progress.emit(entities.ProgressStepAnalyzingText)
		result := s.analyze(ctx, text)
		switch result.Kind {
		case providers.ResultAccepted:
			if Meaningful(result.Fields) {
				fields = result.Fields
			} else {
				reason = FallbackImplausibleReply
			}
		case providers.ResultMalformed:
			logger.Warn().Err(result.Err).Msg("analyzer reply could not be parsed")
			reason = FallbackMalformedReply
		case providers.ResultUnreachable:
			logger.Warn().Err(result.Err).Msg("analyzer request failed")
			reason = FallbackAnalyzerFailed
		default:
			reason = FallbackAnalyzerFailed
		}
	}

	progress.emit(entities.ProgressStepPatternExtraction)
	in := s.fallback.Extract(ctx, text)

	method := entities.ProcessingMethodFallback
	if reason == "" {
		method = entities.ProcessingMethodAI
		in = mergeAnalyzerFields(fields, in)
	}

	progress.emit(entities.ProgressStepNormalizing)
	return s.assemble(in, method), method, reason
}

func (s *ExtractionService) probe(ctx context.Context) bool {
	return withDeadline(ctx, s.probeTimeout,
		s.analyzer.Probe,
		func(error) bool { return false },
	)
}

func (s *ExtractionService) analyze(ctx context.Context, text string) providers.AnalyzerResult {
	return withDeadline(ctx, s.analyzerTimeout,
		func(ctx context.Context) providers.AnalyzerResult { return s.analyzer.Extract(ctx, text) },
		func(err error) providers.AnalyzerResult {
			return providers.Unreachable(apperrors.NewTransportError("analyzer did not answer in time", err))
		},
	)
}

// withDeadline runs fn under a deadline. When the deadline passes first, the
// context handed to fn is cancelled and onTimeout supplies the result; the
// buffered channel lets fn's goroutine exit on its own.
func withDeadline[T any](ctx context.Context, d time.Duration, fn func(context.Context) T, onTimeout func(error) T) T {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan T, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				observability.LoggerFromContext(ctx).Error().Err(fmt.Errorf("%v", r)).Msg("analyzer call panicked")
				done <- onTimeout(fmt.Errorf("analyzer panic: %v", r))
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case v := <-done:
		return v
	case <-ctx.Done():
		return onTimeout(ctx.Err())
	}
}

// mergeAnalyzerFields overlays usable analyzer values on the fallback values.
func mergeAnalyzerFields(fields entities.AnalyzerFields, in entities.RecordInput) entities.RecordInput {
	single := []struct {
		field entities.Field
		value string
		dst   *string
	}{
		{entities.FieldPatientName, fields.PatientName, &in.PatientName},
		{entities.FieldDateOfBirth, fields.DateOfBirth, &in.DateOfBirth},
		{entities.FieldIdentifier, fields.MedicaidID, &in.Identifier},
		{entities.FieldClaimAmount, fields.ClaimAmount, &in.ClaimAmount},
		{entities.FieldProvider, fields.Provider, &in.Provider},
	}
	for _, f := range single {
		if v, ok := usable(f.value); ok {
			*f.dst = v
			in.FieldSources[f.field] = entities.TierAI
		}
	}

	if primary, ok := usable(fields.Diagnosis.Primary); ok {
		codes := usableList(fields.Diagnosis.Codes)
		if len(codes) == 0 {
			codes = in.Diagnosis.Codes
		}
		in.Diagnosis = entities.Diagnosis{
			Primary:   primary,
			Secondary: usableList(fields.Diagnosis.Secondary),
			Codes:     codes,
		}
		in.FieldSources[entities.FieldDiagnosis] = entities.TierAI
	}

	if procedures := usableList(fields.Procedures); len(procedures) > 0 {
		in.Procedures = procedures
		in.FieldSources[entities.FieldProcedures] = entities.TierAI
	}

	return in
}

// assemble fills the remaining gaps, normalizes every value and builds the
// immutable record.
func (s *ExtractionService) assemble(in entities.RecordInput, method entities.ProcessingMethod) entities.ExtractionRecord {
	if in.FieldSources == nil {
		in.FieldSources = make(map[entities.Field]entities.Tier)
	}
	if _, ok := usable(in.Identifier); !ok {
		in.Identifier = s.ids.Generate()
		in.FieldSources[entities.FieldIdentifier] = entities.TierSynthetic
	}
	if _, ok := usable(in.Diagnosis.Primary); !ok {
		in.Diagnosis.Primary = DiagnosisPendingReview
		in.FieldSources[entities.FieldDiagnosis] = entities.TierSynthetic
	}

	in.PatientName = cleanOrEmpty(in.PatientName)
	in.DateOfBirth = cleanOrEmpty(in.DateOfBirth)
	in.Identifier = cleanOrEmpty(in.Identifier)
	in.ClaimAmount = cleanOrEmpty(in.ClaimAmount)
	in.Provider = cleanOrEmpty(in.Provider)
	in.Procedures = usableList(in.Procedures)
	in.Diagnosis.Primary = cleanOrEmpty(in.Diagnosis.Primary)

	in.Confidence, in.ProcessingSource = AssignConfidence(method, in.FieldSources)
	return entities.NewExtractionRecord(in)
}

func cleanOrEmpty(v string) string {
	if cleaned, ok := usable(v); ok {
		return cleaned
	}
	return ""
}

func documentType(req entities.ExtractionRequest) string {
	if t := strings.TrimSpace(req.Metadata.DeclaredType); t != "" {
		return t
	}
	return entities.DocumentTypeMedicaidClaim
}

func documentName(req entities.ExtractionRequest) string {
	if n := strings.TrimSpace(req.Metadata.Name); n != "" {
		return n
	}
	if req.FileName != "" {
		return req.FileName
	}
	if req.FilePath != "" {
		return filepath.Base(req.FilePath)
	}
	return ""
}
