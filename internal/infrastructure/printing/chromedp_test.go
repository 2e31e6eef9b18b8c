package printing

import (
	"context"
	"testing"

	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildPrintParams(t *testing.T) {
	t.Run("A4 portrait with margins", func(t *testing.T) {
		params := buildPrintParams(&RenderRequest{Margins: Margins{Top: 25.4, Right: 12.7}}, PaperA4)

		assert.InDelta(t, 8.27, params.PaperWidth, 0.01)
		assert.InDelta(t, 11.69, params.PaperHeight, 0.01)
		assert.InDelta(t, 1.0, params.MarginTop, 0.001)
		assert.InDelta(t, 0.5, params.MarginRight, 0.001)
		assert.False(t, params.Landscape)
		assert.False(t, params.DisplayHeaderFooter)
	})

	t.Run("footer forces a bottom margin", func(t *testing.T) {
		params := buildPrintParams(&RenderRequest{FooterHTML: "<span class=pageNumber></span>"}, PaperLetter)

		assert.True(t, params.DisplayHeaderFooter)
		assert.Equal(t, "<span class=pageNumber></span>", params.FooterTemplate)
		assert.InDelta(t, 10/25.4, params.MarginBottom, 0.001)
	})
}

func TestBuildCompleteHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, buildCompleteHTML(&RenderRequest{HTML: full}))

	wrapped := buildCompleteHTML(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}

func TestChromedpRenderer_Validation(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{}, zap.NewNop())
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "  "})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperSize{Name: "BAD", Width: -1}})
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)
}
