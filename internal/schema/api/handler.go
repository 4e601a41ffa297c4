package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/veldt-labs/veldt/internal/eventtype"
	"github.com/veldt-labs/veldt/internal/rules"
	"github.com/veldt-labs/veldt/internal/schema"
)

// Handler serves the rendered-schema, validation, detail and rule-variable
// endpoints.
type Handler struct {
	types       eventtype.Repository
	details     eventtype.DetailsRepository
	renderer    *schema.Renderer
	synthesizer *rules.Synthesizer
}

func NewHandler(types eventtype.Repository, details eventtype.DetailsRepository, renderer *schema.Renderer, synthesizer *rules.Synthesizer) *Handler {
	return &Handler{
		types:       types,
		details:     details,
		renderer:    renderer,
		synthesizer: synthesizer,
	}
}

// ErrorResponse is the error response body.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SchemaResponse is the rendered-schema payload.
type SchemaResponse struct {
	Value      string                 `json:"value"`
	Display    string                 `json:"display"`
	Schema     map[string]interface{} `json:"schema"`
	Definition []interface{}          `json:"definition"`
}

// HandleGetSchema handles GET /v1/event-schemas/:value.
// The optional definition query parameter selects the presentation format:
// "standard" (default) keeps fieldsets, "flat" unpacks them.
func (h *Handler) HandleGetSchema(c *gin.Context) {
	et, err := h.types.Get(c.Request.Context(), c.Param("value"))
	if err != nil {
		if errors.Is(err, eventtype.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "event_type_not_found", Message: err.Error()})
			return
		}
		slog.Error("Event type lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to load event type"})
		return
	}

	doc, err := h.renderer.Render(c.Request.Context(), et.Schema)
	if err != nil {
		slog.Error("Schema render failed", "event_type", et.Value, "error", err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "render_failed", Message: err.Error()})
		return
	}

	doc, err = schema.FilterDefinition(doc, c.Query("definition"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_definition_format", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SchemaResponse{
		Value:      et.Value,
		Display:    et.Display,
		Schema:     doc.Schema,
		Definition: doc.Definition,
	})
}

// ValidateRequest is the request body for POST /v1/event-schemas/validate.
type ValidateRequest struct {
	Template string `json:"template"`
}

// HandleValidate handles POST /v1/event-schemas/validate: render the
// submitted template and check the result for authoring mistakes.
// Structural errors and unmappable form keys come back with distinct error
// codes, each carrying every offending key.
func (h *Handler) HandleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "Invalid JSON body"})
		return
	}
	if req.Template == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing_template", Message: "template is required"})
		return
	}

	doc, err := h.renderer.Render(c.Request.Context(), req.Template)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "render_failed", Message: err.Error()})
		return
	}

	if err := schema.ValidateDocument(doc); err != nil {
		resp := ErrorResponse{Message: err.Error()}

		var unmappable *schema.UnmappableFormKeyError
		if errors.As(err, &unmappable) {
			resp.Error = "unmappable_form_keys"
		} else {
			resp.Error = "schema_not_wellformed"
		}
		var detailer schema.ValidationDetailer
		if errors.As(err, &detailer) {
			resp.Details = detailer.Details()
		}

		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// HandleEventDetails handles GET /v1/events/:id/details. The event_type
// query parameter names the schema to extract against.
func (h *Handler) HandleEventDetails(c *gin.Context) {
	typeValue := c.Query("event_type")
	if typeValue == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing_event_type", Message: "event_type query parameter is required"})
		return
	}

	et, err := h.types.Get(c.Request.Context(), typeValue)
	if err != nil {
		if errors.Is(err, eventtype.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "event_type_not_found", Message: err.Error()})
			return
		}
		slog.Error("Event type lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to load event type"})
		return
	}

	stored, err := h.details.Get(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, eventtype.ErrNotFound) {
		slog.Error("Event details lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to load event details"})
		return
	}

	doc, err := h.renderer.Render(c.Request.Context(), et.Schema)
	if err != nil {
		slog.Error("Schema render failed", "event_type", et.Value, "error", err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "render_failed", Message: err.Error()})
		return
	}

	// Missing payloads yield an empty row list, not an error.
	var payload []byte
	if stored != nil {
		payload = stored.Data
	}

	details := []schema.Detail{}
	for d := range schema.GenerateDetails(doc, payload) {
		details = append(details, d)
	}

	c.JSON(http.StatusOK, gin.H{"event_id": c.Param("id"), "details": details})
}

// HandleRuleVariables handles GET /v1/rule-variables. The event_types
// query parameter lists event-type values; common=true restricts the
// variables to properties shared by all of them.
func (h *Handler) HandleRuleVariables(c *gin.Context) {
	var types []eventtype.EventType
	if raw := c.Query("event_types"); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			et, err := h.types.Get(c.Request.Context(), value)
			if err != nil {
				if errors.Is(err, eventtype.ErrNotFound) {
					c.JSON(http.StatusNotFound, ErrorResponse{Error: "event_type_not_found", Message: "unknown event type: " + value})
					return
				}
				slog.Error("Event type lookup failed", "error", err)
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to load event type"})
				return
			}
			types = append(types, *et)
		}
	} else {
		all, err := h.types.List(c.Request.Context())
		if err != nil {
			slog.Error("Event type list failed", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to list event types"})
			return
		}
		types = all
	}

	onlyCommon := c.Query("common") == "true"

	data, err := h.synthesizer.RenderAggregateVariables(c.Request.Context(), types, onlyCommon, viewerFrom(c))
	if err != nil {
		slog.Error("Rule variable synthesis failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "synthesis_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}

// headerViewer grants subject-group visibility from a request header until
// a real authz layer exists.
type headerViewer struct{ allowed bool }

func (v headerViewer) CanViewSubjectGroups() bool { return v.allowed }

func viewerFrom(c *gin.Context) rules.Viewer {
	return headerViewer{allowed: c.GetHeader("X-View-Subject-Groups") == "true"}
}

// Register wires the handler's routes onto a router group.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/event-schemas/:value", h.HandleGetSchema)
	v1.POST("/event-schemas/validate", h.HandleValidate)
	v1.GET("/events/:id/details", h.HandleEventDetails)
	v1.GET("/rule-variables", h.HandleRuleVariables)
}
