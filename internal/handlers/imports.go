package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"asset-inventory-api/internal/response"
	"asset-inventory-api/pkg/importer"
)

// TargetResolver finds the import target of a resource route name.
type TargetResolver interface {
	Target(name string) (importer.Target, bool)
}

// ImportObserver receives per-import row counts.
type ImportObserver interface {
	ObserveImport(resource string, inserted, failed int)
}

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	Targets  TargetResolver
	Mapping  *importer.Mapping
	MaxBytes int64
	Logger   *slog.Logger
	Observer ImportObserver
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(targets TargetResolver, mapping *importer.Mapping, logger *slog.Logger) *ImportsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportsHandler{
		Targets:  targets,
		Mapping:  mapping,
		MaxBytes: 20 << 20, // 20 MB
		Logger:   logger,
	}
}

type importFailure struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    importer.ImportSummary `json:"data"`
}

// UploadExcel handles POST /imports/{resource} with a multipart "file" field.
// Optional form fields: sheet, dry_run, max_errors.
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	target, ok := h.Targets.Target(resource)
	if !ok {
		response.Error(w, http.StatusNotFound, "unknown resource: "+resource)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		response.Error(w, http.StatusBadRequest, "content-type must be multipart/form-data")
		return
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "file is required: "+err.Error())
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		response.Error(w, http.StatusBadRequest, "only .xlsx files are accepted")
		return
	}

	sum, err := importer.ImportExcel(r.Context(), target, file, importer.Options{
		Resource:  resource,
		Sheet:     r.FormValue("sheet"),
		Mapping:   h.Mapping,
		DryRun:    dryRun,
		MaxErrors: maxErrors,
	})
	if err != nil {
		h.Logger.WarnContext(r.Context(), "import failed",
			slog.String("resource", resource), slog.String("file", header.Filename), slog.Any("error", err))
		response.JSON(w, http.StatusUnprocessableEntity, importFailure{
			Status:  response.StatusError,
			Message: err.Error(),
			Data:    sum,
		})
		return
	}

	if h.Observer != nil && !dryRun {
		h.Observer.ObserveImport(resource, sum.Inserted, sum.Errors)
	}
	h.Logger.InfoContext(r.Context(), "import finished",
		slog.String("resource", resource),
		slog.Int("inserted", sum.Inserted),
		slog.Int("errors", sum.Errors),
		slog.Bool("dry_run", dryRun))
	response.JSON(w, http.StatusOK, sum)
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}
