package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
)

// ErrEncryptedPDF is returned for password-protected documents.
var ErrEncryptedPDF = errors.New("pdf is password-protected")

// PDFExtractor extracts the text layer of PDF documents.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// SetPDFLicense registers a metered license key with the PDF library.
func SetPDFLicense(key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set pdf license: %w", err)
	}
	return nil
}

// Supports reports whether the file is a PDF.
func (e *PDFExtractor) Supports(fileName string) bool {
	return hasExtension(fileName, ".pdf")
}

// ExtractText returns the text of every page, one page per block.
func (e *PDFExtractor) ExtractText(ctx context.Context, fileName string, content []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", fmt.Errorf("failed checking encryption: %w", err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil {
			return "", fmt.Errorf("failed to decrypt PDF: %w", err)
		}
		if !ok {
			return "", ErrEncryptedPDF
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	logger := observability.LoggerFromContext(ctx)
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("skipping unreadable pdf page")
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("skipping pdf page without extractor")
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("skipping pdf page text")
			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
