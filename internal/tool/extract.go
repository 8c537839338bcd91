// Package tool defines the MCP tools exposed by the extraction server.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zatekoja/medicaid-docextract/internal/application/services"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
)

// MetadataExtractHealthcareDocument describes the extract_healthcare_document tool.
var MetadataExtractHealthcareDocument = &mcp.Tool{
	Name: "extract_healthcare_document",
	Description: "Extract structured fields from a healthcare claim document. " +
		"Returns patient name, date of birth, Medicaid identifier, diagnosis, procedures, " +
		"claim amount and provider. Every field is always present; values that could not be " +
		"found are reported as \"Not found\". The validation block lists issues that need " +
		"human review before the record is used.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Plain text of the document to extract",
			},
			"document_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional document name echoed back in the result",
			},
		},
	},
}

// InputExtractHealthcareDocument is the input for the ExtractHealthcareDocument tool.
type InputExtractHealthcareDocument struct {
	Content      string `json:"content"`
	DocumentName string `json:"document_name"`
}

// ExtractedFields mirrors the wire form of an extraction record.
type ExtractedFields struct {
	PatientName      string             `json:"patientName"`
	DateOfBirth      string             `json:"dateOfBirth"`
	MedicaidID       string             `json:"medicaidId"`
	Diagnosis        entities.Diagnosis `json:"diagnosis"`
	Procedures       []string           `json:"procedures"`
	ClaimAmount      string             `json:"claimAmount"`
	Provider         string             `json:"provider"`
	ProcessingSource string             `json:"processingSource"`
	FieldSources     map[string]string  `json:"fieldSources,omitempty"`
}

// OutputExtractHealthcareDocument is the output for the ExtractHealthcareDocument tool.
type OutputExtractHealthcareDocument struct {
	RequestID        string                    `json:"requestId"`
	DocumentType     string                    `json:"documentType"`
	DocumentName     string                    `json:"documentName,omitempty"`
	ExtractedData    ExtractedFields           `json:"extractedData"`
	Validation       entities.ValidationResult `json:"validation"`
	Confidence       float64                   `json:"confidence"`
	ProcessingMethod string                    `json:"processingMethod"`
	FallbackReason   string                    `json:"fallbackReason,omitempty"`
	ProcessingTimeMs int64                     `json:"processingTime"`
}

// DocumentProcessor runs the extraction pipeline
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req entities.ExtractionRequest, sink services.ProgressSink) (*entities.DocumentResult, error)
}

// ExtractHealthcareDocument returns the tool handler bound to a processor.
func ExtractHealthcareDocument(processor DocumentProcessor) mcp.ToolHandlerFor[InputExtractHealthcareDocument, OutputExtractHealthcareDocument] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InputExtractHealthcareDocument) (*mcp.CallToolResult, OutputExtractHealthcareDocument, error) {
		if strings.TrimSpace(input.Content) == "" {
			return nil, OutputExtractHealthcareDocument{}, fmt.Errorf("content is required")
		}

		result, err := processor.ProcessDocument(ctx, entities.ExtractionRequest{
			Text:     input.Content,
			Metadata: entities.DocumentMetadata{Name: input.DocumentName},
		}, nil)
		if err != nil {
			return nil, OutputExtractHealthcareDocument{}, err
		}

		return nil, toOutput(result), nil
	}
}

func toOutput(result *entities.DocumentResult) OutputExtractHealthcareDocument {
	record := result.ExtractedData

	sources := make(map[string]string)
	for _, f := range entities.RecordFields {
		if tier := record.FieldSource(f); tier != "" {
			sources[string(f)] = string(tier)
		}
	}

	return OutputExtractHealthcareDocument{
		RequestID:    result.RequestID,
		DocumentType: result.DocumentType,
		DocumentName: result.DocumentName,
		ExtractedData: ExtractedFields{
			PatientName:      record.PatientName(),
			DateOfBirth:      record.DateOfBirth(),
			MedicaidID:       record.Identifier(),
			Diagnosis:        record.Diagnosis(),
			Procedures:       record.Procedures(),
			ClaimAmount:      record.ClaimAmount(),
			Provider:         record.Provider(),
			ProcessingSource: record.ProcessingSource(),
			FieldSources:     sources,
		},
		Validation:       result.Validation,
		Confidence:       result.Confidence,
		ProcessingMethod: string(result.ProcessingMethod),
		FallbackReason:   result.FallbackReason,
		ProcessingTimeMs: result.ProcessingTime.Milliseconds(),
	}
}

// Register adds every tool to the server.
func Register(server *mcp.Server, processor DocumentProcessor) {
	mcp.AddTool(server, MetadataExtractHealthcareDocument, ExtractHealthcareDocument(processor))
}
