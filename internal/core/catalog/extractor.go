// Package catalog loads the product catalog that is appended to the model
// instruction.
package catalog

import (
	"context"
	"fmt"
	"io"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/alemana-chat/internal/core"
)

// DocconvExtractor converts office documents and PDFs to plain text.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) ExtractText(ctx context.Context, r io.Reader, contentType string) (string, error) {
	res, err := docconv.Convert(r, contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: extraction failed for content type %q: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return res.Body, nil
}

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)
