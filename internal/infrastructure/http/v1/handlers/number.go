package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"salesdocs/internal/core/numerator"
	"salesdocs/internal/infrastructure/http/v1/dto"
)

// NumberingService is the numbering API the handlers need.
type NumberingService interface {
	Preview(ctx context.Context, kind numerator.Kind, g numerator.Granularity) (string, error)
	Report(ctx context.Context) (numerator.UsageReport, error)
}

// NumberHandler exposes number preview, parsing and usage statistics.
type NumberHandler struct {
	*BaseHandler
	service NumberingService
}

// NewNumberHandler creates a number handler.
func NewNumberHandler(base *BaseHandler, service NumberingService) *NumberHandler {
	return &NumberHandler{BaseHandler: base, service: service}
}

// Preview handles GET /numbers/:prefix/preview?granularity=YYMM.
func (h *NumberHandler) Preview(c *gin.Context) {
	kind, err := numerator.ParseKind(c.Param("prefix"))
	if err != nil {
		h.Error(c, err)
		return
	}
	g, err := numerator.ParseGranularity(c.Query("granularity"))
	if err != nil {
		h.Error(c, err)
		return
	}

	number, err := h.service.Preview(c.Request.Context(), kind, g)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PreviewResponse{Prefix: kind, Granularity: string(g), Number: number})
}

// Parse handles GET /numbers/parse/:number.
func (h *NumberHandler) Parse(c *gin.Context) {
	raw := c.Param("number")
	n, err := numerator.Parse(raw)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromNumber(raw, n))
}

// Stats handles GET /numbers/stats.
func (h *NumberHandler) Stats(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
