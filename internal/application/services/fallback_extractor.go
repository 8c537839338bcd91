package services

import (
	"context"

	"github.com/zatekoja/medicaid-docextract/internal/application/patterns"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
)

// DiagnosisPendingReview is recorded when no diagnosis could be found.
const DiagnosisPendingReview = "Diagnosis pending review"

// FallbackExtractor builds record values from the pattern engine, using the
// entity recognizer for names and organizations the patterns missed. It
// never fails; fields it cannot fill are left empty.
type FallbackExtractor struct {
	engine     *patterns.Engine
	recognizer providers.EntityRecognizer
}

// NewFallbackExtractor creates a fallback extractor. recognizer may be nil.
func NewFallbackExtractor(engine *patterns.Engine, recognizer providers.EntityRecognizer) *FallbackExtractor {
	return &FallbackExtractor{
		engine:     engine,
		recognizer: recognizer,
	}
}

// Extract returns the values found in text together with their tiers.
func (f *FallbackExtractor) Extract(ctx context.Context, text string) entities.RecordInput {
	in := entities.RecordInput{FieldSources: make(map[entities.Field]entities.Tier)}

	single := map[entities.Field]*string{
		entities.FieldPatientName: &in.PatientName,
		entities.FieldDateOfBirth: &in.DateOfBirth,
		entities.FieldIdentifier:  &in.Identifier,
		entities.FieldClaimAmount: &in.ClaimAmount,
		entities.FieldProvider:    &in.Provider,
	}
	for field, dst := range single {
		if value, ok := f.first(field, text); ok {
			*dst = value
			in.FieldSources[field] = entities.TierPattern
		}
	}

	diagnoses := usableList(f.engine.Values(entities.FieldDiagnosis, text))
	if len(diagnoses) > 0 {
		in.Diagnosis = entities.Diagnosis{
			Primary:   diagnoses[0],
			Secondary: diagnoses[1:],
		}
		in.FieldSources[entities.FieldDiagnosis] = entities.TierPattern
	}
	in.Diagnosis.Codes = usableList(f.engine.Values(entities.FieldDiagnosisCode, text))
	if len(in.Diagnosis.Secondary) == 0 {
		in.Diagnosis.Secondary = nil
	}
	if len(in.Diagnosis.Codes) == 0 {
		in.Diagnosis.Codes = nil
	}

	if procedures := usableList(f.engine.Values(entities.FieldProcedures, text)); len(procedures) > 0 {
		in.Procedures = procedures
		in.FieldSources[entities.FieldProcedures] = entities.TierPattern
	}

	if in.PatientName == "" || in.Provider == "" {
		f.fillFromEntities(ctx, text, &in)
	}

	return in
}

func (f *FallbackExtractor) first(field entities.Field, text string) (string, bool) {
	for _, c := range f.engine.ExtractAll(field, text) {
		if value, ok := usable(c.Value); ok {
			return value, true
		}
	}
	return "", false
}

func (f *FallbackExtractor) fillFromEntities(ctx context.Context, text string, in *entities.RecordInput) {
	if f.recognizer == nil {
		return
	}

	found, err := f.recognizer.Recognize(ctx, text)
	if err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("entity recognition failed")
		return
	}

	if in.PatientName == "" {
		if name, ok := firstUsable(found.People); ok {
			in.PatientName = name
			in.FieldSources[entities.FieldPatientName] = entities.TierEntity
		}
	}
	if in.Provider == "" {
		if org, ok := firstUsable(found.Organizations); ok {
			in.Provider = org
			in.FieldSources[entities.FieldProvider] = entities.TierEntity
		}
	}
}

func firstUsable(values []string) (string, bool) {
	for _, v := range values {
		if cleaned, ok := usable(v); ok {
			return cleaned, true
		}
	}
	return "", false
}
