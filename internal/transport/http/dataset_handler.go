package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"sspyviz/internal/dataprocessing"
	apierrors "sspyviz/internal/errors"
	appmiddleware "sspyviz/internal/middleware"
	"sspyviz/internal/services"
	api "sspyviz/pkg/contracts/api/v1"
	"sspyviz/pkg/contracts/domain"
)

const (
	// DefaultMaxUploadBytes bounds multipart uploads when no limit is configured
	DefaultMaxUploadBytes = 32 << 20

	uploadFormField = "file"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeHTML = "text/html; charset=utf-8"
)

// DatasetHandler handles dataset HTTP requests with RFC 7807 errors
type DatasetHandler struct {
	service        DatasetServiceInterface
	validation     *appmiddleware.ValidationMiddleware
	query          *appmiddleware.QueryParamValidator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDatasetHandler creates a dataset handler. maxUploadBytes <= 0 uses
// DefaultMaxUploadBytes.
func NewDatasetHandler(service DatasetServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &DatasetHandler{
		service:        service,
		validation:     appmiddleware.NewValidationMiddleware(logger, errorHandler),
		query:          appmiddleware.NewQueryParamValidator(logger),
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
	}
}

// SourceRoutes returns the bundled dataset source routes
func (h *DatasetHandler) SourceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListSources)
	r.Post("/{name}", h.LoadSource)
	return r
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDatasets)
	r.With(appmiddleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetDataset)
		r.Delete("/", h.DeleteDataset)
		r.Post("/process", h.Process)
		r.Post("/report", h.Report)
		r.Post("/export", h.Export)
		r.Post("/plot", h.Plot)
		r.Get("/locations", h.Locations)
		r.Get("/map", h.Map)
		r.Get("/overview", h.Overview)
	})
	return r
}

// ListSources handles GET /api/sources
func (h *DatasetHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources := h.service.Sources()
	out := make([]api.SourceResponse, 0, len(sources))
	for _, s := range sources {
		out = append(out, api.SourceResponse{Name: s.Name, Description: s.Description, Supported: s.Supported})
	}
	render.JSON(w, r, map[string]interface{}{
		"sources": out,
		"count":   len(out),
	})
}

// LoadSource handles POST /api/sources/{name}
func (h *DatasetHandler) LoadSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "loading dataset source",
		slog.String("request_id", reqID),
		slog.String("source", name))

	summary, err := h.service.LoadSource(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// Upload handles POST /api/datasets with a multipart "file" field
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFormField, "a CSV or XLSX file is required"))
		return
	}
	defer file.Close()

	if err := h.validation.ValidateVar(uploadFormField, header.Filename, "filename"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset upload",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file_name", header.Filename),
		slog.Int64("size", header.Size))

	summary, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}
	render.JSON(w, r, api.DatasetListResponse{Datasets: summaries, Count: len(summaries)})
}

// GetDataset handles GET /api/datasets/{id}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	render.JSON(w, r, api.DatasetResponse{DatasetSummary: ds.Summary(), ColumnNames: ds.Table.Columns})
}

// DeleteDataset handles DELETE /api/datasets/{id}
func (h *DatasetHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	h.logger.InfoContext(r.Context(), "dataset deleted", slog.String("dataset_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Process handles POST /api/datasets/{id}/process
func (h *DatasetHandler) Process(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req api.ProcessRequest
	if !h.decode(w, r, &req) {
		return
	}

	opts, ok := h.options(w, r, req)
	if !ok {
		return
	}
	result, err := h.service.Process(r.Context(), id, opts)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	render.JSON(w, r, api.ProcessResponse{
		DatasetID:    result.DatasetID,
		Info:         result.Info,
		Table:        result.Table,
		Excluded:     result.Excluded,
		ReasonCounts: result.ReasonCounts,
	})
}

// Report handles POST /api/datasets/{id}/report?format=json|html
func (h *DatasetHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, err := h.query.Enum(r, "format", []string{"json", "html"}, "json")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	var req api.ReportRequest
	if !h.decode(w, r, &req) {
		return
	}
	level := req.Level
	if level == "" {
		level = domain.ProfileMinimal
	}
	title := req.Title
	if title == "" {
		title = services.DefaultReportTitle
	}
	opts, ok := h.options(w, r, req.Process)
	if !ok {
		return
	}

	if format == "json" {
		report, err := h.service.Report(r.Context(), id, opts, level, title)
		if err != nil {
			h.handleServiceError(w, r, err, id)
			return
		}
		render.JSON(w, r, report)
		return
	}

	var buf bytes.Buffer
	name, err := h.service.WriteReport(r.Context(), id, opts, level, title, &buf)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	h.writeFile(w, contentTypeHTML, "inline", name, &buf)
}

// Export handles POST /api/datasets/{id}/export?format=csv|xlsx&excluded=bool.
// Query parameters override the body.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req api.ExportRequest
	if !h.decode(w, r, &req) {
		return
	}
	format, err := h.query.Enum(r, "format", []string{string(services.ExportCSV), string(services.ExportXLSX)}, req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	excluded, err := h.query.Bool(r, "excluded", req.Excluded)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	opts, ok := h.options(w, r, req.Process)
	if !ok {
		return
	}

	var buf bytes.Buffer
	name, err := h.service.Export(r.Context(), id, opts, services.ExportFormat(format), excluded, &buf)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}

	contentType := contentTypeCSV
	if services.ExportFormat(format) == services.ExportXLSX {
		contentType = contentTypeXLSX
	}
	h.logger.InfoContext(r.Context(), "dataset exported",
		slog.String("dataset_id", id),
		slog.String("file_name", name),
		slog.Bool("excluded", excluded),
		slog.Int("bytes", buf.Len()))
	h.writeFile(w, contentType, "attachment", name, &buf)
}

// Plot handles POST /api/datasets/{id}/plot
func (h *DatasetHandler) Plot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req api.PlotRequest
	if !h.decode(w, r, &req) {
		return
	}

	opts, ok := h.options(w, r, req.Process)
	if !ok {
		return
	}
	data, err := h.service.Plot(r.Context(), id, opts, dataprocessing.PlotOptions{
		Kind:           dataprocessing.PlotKind(req.Kind),
		Level:          dataprocessing.PlotLevel(req.Level),
		Hue:            req.Hue,
		Locations:      req.Locations,
		Title:          req.Title,
		Alpha:          req.Alpha,
		PointSize:      req.PointSize,
		GridSize:       req.GridSize,
		IncludeScatter: req.IncludeScatter,
	})
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	render.JSON(w, r, data)
}

// Locations handles GET /api/datasets/{id}/locations
func (h *DatasetHandler) Locations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, ok := h.queryOptions(w, r)
	if !ok {
		return
	}
	counts, err := h.service.Locations(r.Context(), id, opts)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	render.JSON(w, r, api.LocationsResponse{Locations: counts})
}

// Map handles GET /api/datasets/{id}/map
func (h *DatasetHandler) Map(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, ok := h.queryOptions(w, r)
	if !ok {
		return
	}
	points, err := h.service.MapPoints(r.Context(), id, opts)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	render.JSON(w, r, api.MapResponse{Points: points})
}

// Overview handles GET /api/datasets/{id}/overview
func (h *DatasetHandler) Overview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, ok := h.queryOptions(w, r)
	if !ok {
		return
	}
	overview, err := h.service.Overview(r.Context(), id, opts)
	if err != nil {
		h.handleServiceError(w, r, err, id)
		return
	}
	render.JSON(w, r, overview)
}

// decode reads an optional JSON body into v and validates it. An empty body
// leaves v at its zero value.
func (h *DatasetHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body != nil && r.Body != http.NoBody {
		if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return false
		}
	}
	if err := h.validation.ValidateStruct(v); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// options overlays a request on the service defaults. It writes the error
// response and returns false when the request cannot be applied.
func (h *DatasetHandler) options(w http.ResponseWriter, r *http.Request, req api.ProcessRequest) (services.ProcessOptions, bool) {
	opts := h.service.DefaultOptions()
	opts.Columns = req.Columns
	opts.Conditions = req.Conditions
	if req.DropMissing != nil {
		opts.DropMissing = *req.DropMissing
	}
	if req.Validate != nil {
		opts.Validate = *req.Validate
	}
	if req.CalculateISO != nil {
		opts.CalculateISO = *req.CalculateISO
	}
	if req.PAQMin != nil {
		opts.Range.Min = *req.PAQMin
	}
	if req.PAQMax != nil {
		opts.Range.Max = *req.PAQMax
	}
	if len(req.PAQAliases) > 0 {
		aliases, err := opts.Aliases.Override(req.PAQAliases)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("paq_aliases", err.Error()))
			return opts, false
		}
		opts.Aliases = aliases
	}
	if req.IDColumn != nil {
		opts.IDColumn = *req.IDColumn
	}
	if req.RejectUniform != nil {
		opts.RejectUniform = *req.RejectUniform
	}
	return opts, true
}

// queryOptions builds options for GET endpoints from the validate and
// drop_missing query parameters
func (h *DatasetHandler) queryOptions(w http.ResponseWriter, r *http.Request) (services.ProcessOptions, bool) {
	opts := h.service.DefaultOptions()
	var err error
	if opts.Validate, err = h.query.Bool(r, "validate", opts.Validate); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return opts, false
	}
	if opts.DropMissing, err = h.query.Bool(r, "drop_missing", opts.DropMissing); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return opts, false
	}
	return opts, true
}

func (h *DatasetHandler) writeFile(w http.ResponseWriter, contentType, disposition, name string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// handleServiceError maps service sentinels to API errors; anything else
// goes to the error handler as is
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, id string) {
	h.logger.ErrorContext(r.Context(), "dataset request failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		err = apierrors.DatasetNotFoundError(id)
	case errors.Is(err, services.ErrUnknownSource):
		err = apierrors.SourceNotFoundError(chi.URLParam(r, "name"))
	case errors.Is(err, services.ErrUnsupportedSource):
		err = apierrors.UnsupportedSourceError(chi.URLParam(r, "name"))
	case errors.Is(err, services.ErrUnsupportedExport):
		err = apierrors.ErrValidation("format", err.Error())
	case errors.Is(err, services.ErrEmptyUpload):
		err = apierrors.ErrEmptyUpload
	}
	h.errorHandler.HandleError(w, r, err)
}
