package pricebook

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldworks/fieldworks/internal/platform/httpx"
)

// maxUploadBytes caps one catalog file at 20 MiB.
const maxUploadBytes = 20 << 20

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/uploads", h.Upload)
	r.Get("/uploads", h.ListUploads)
	r.Get("/search", h.Search)
	r.Get("/export.xlsx", h.Export)
}

// Upload accepts one or more CSV catalogs under the multipart field
// "files" and imports each, returning the per-file aggregate results.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expected multipart form data")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no files provided")
		return
	}

	var results []*ImportResult
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cannot read file "+fh.Filename)
			return
		}
		result, err := h.service.Import(r.Context(), fh.Filename, f)
		f.Close()
		if err != nil {
			h.logger.Error("pricebook import", slog.Any("error", err), slog.String("filename", fh.Filename))
			httpx.RespondError(w, err)
			return
		}
		results = append(results, result)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.service.ListUploads(r.Context())
	if err != nil {
		h.logger.Error("list pricebook uploads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := SearchRequest{
		Query: q.Get("q"),
		Sheet: q.Get("sheet"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	results, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.logger.Error("pricebook search", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": results})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportXLSX(r.Context())
	if err != nil {
		h.logger.Error("pricebook export", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pricebook.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
