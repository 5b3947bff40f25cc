package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesdocs/internal/core/idempotency"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/domain/documents"
	"salesdocs/internal/infrastructure/http/v1/dto"
)

// HeaderIdempotencyKey carries a client-chosen idempotency key.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// DocumentService is the document API the handlers need.
type DocumentService interface {
	Create(ctx context.Context, req documents.CreateRequest) (idempotency.Result[*documents.Document], error)
	GetByNumber(ctx context.Context, kind numerator.Kind, number string) (*documents.Document, error)
	Linked(ctx context.Context, kind numerator.Kind, number string) (*documents.LinkedDocuments, error)
	Link(ctx context.Context, req documents.LinkRequest) error
	History(ctx context.Context, kind numerator.Kind, number string) ([]documents.AuditRecord, error)
}

// DocumentHandler serves one document kind.
type DocumentHandler struct {
	*BaseHandler
	service DocumentService
	def     documents.Definition
}

// NewDocumentHandler creates a handler for the kind def describes.
func NewDocumentHandler(base *BaseHandler, service DocumentService, def documents.Definition) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service, def: def}
}

// Create handles POST /{collection}.
// A retried request answers 200 with the original document.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	creation, err := req.ToDomain(h.def.Kind, c.GetHeader(HeaderIdempotencyKey))
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), creation)
	if err != nil {
		h.Error(c, err)
		return
	}

	status := http.StatusCreated
	message := fmt.Sprintf("%s %s created", h.def.Title, res.Document.Number)
	if !res.Created {
		status = http.StatusOK
		message = fmt.Sprintf("%s %s already exists", h.def.Title, res.Document.Number)
	}
	c.JSON(status, dto.CreateDocumentResponse{
		Created: res.Created,
		Message: message,
		Data:    dto.FromDocument(res.Document),
	})
}

// Get handles GET /{collection}/:number.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.GetByNumber(c.Request.Context(), h.def.Kind, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDocument(doc))
}

// Linked handles GET /{collection}/:number/linked.
func (h *DocumentHandler) Linked(c *gin.Context) {
	linked, err := h.service.Linked(c.Request.Context(), h.def.Kind, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromLinked(linked))
}

// Audit handles GET /{collection}/:number/audit, oldest entry first.
func (h *DocumentHandler) Audit(c *gin.Context) {
	records, err := h.service.History(c.Request.Context(), h.def.Kind, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, records)
}

// LinkHandler links documents of different kinds.
type LinkHandler struct {
	*BaseHandler
	service DocumentService
}

// NewLinkHandler creates a link handler.
func NewLinkHandler(base *BaseHandler, service DocumentService) *LinkHandler {
	return &LinkHandler{BaseHandler: base, service: service}
}

// Link handles POST /links. Kinds are taken from the number prefixes.
func (h *LinkHandler) Link(c *gin.Context) {
	var req dto.LinkRequest
	if !h.BindJSON(c, &req) {
		return
	}
	source, err := numerator.Parse(req.SourceNumber)
	if err != nil {
		h.Error(c, err)
		return
	}
	target, err := numerator.Parse(req.TargetNumber)
	if err != nil {
		h.Error(c, err)
		return
	}

	err = h.service.Link(c.Request.Context(), documents.LinkRequest{
		SourceKind:   source.Kind,
		SourceNumber: req.SourceNumber,
		TargetKind:   target.Kind,
		TargetNumber: req.TargetNumber,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
