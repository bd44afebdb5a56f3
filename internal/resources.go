package internal

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"asset-inventory-api/internal/inventory"
	"asset-inventory-api/internal/response"
)

// resourceHandler serves the five CRUD routes of one resource.
type resourceHandler[T any] struct {
	repo *inventory.Repository[T]
	srv  *Server
}

func mountResource[T any](r chi.Router, s *Server, repo *inventory.Repository[T]) {
	h := &resourceHandler[T]{repo: repo, srv: s}
	name := repo.Schema().Name

	r.Get("/"+name, h.list)
	r.Post("/add"+name, h.create)
	r.Get("/read"+name+"/{id}", h.read)
	r.Put("/update"+name+"/{id}", h.update)
	r.Delete("/delete"+name+"/{id}", h.delete)
}

func (h *resourceHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListAll(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		h.srv.storageError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, rows)
}

func (h *resourceHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	row, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := h.repo.Create(r.Context(), row)
	if err != nil {
		h.srv.storageError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *resourceHandler[T]) read(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rows, err := h.repo.ReadByID(r.Context(), id)
	if err != nil {
		h.srv.storageError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, rows)
}

func (h *resourceHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := h.repo.Update(r.Context(), id, row)
	if err != nil {
		h.srv.storageError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *resourceHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.repo.DeleteByID(r.Context(), id)
	if err != nil {
		h.srv.storageError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *resourceHandler[T]) decode(w http.ResponseWriter, r *http.Request) (*T, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, false
	}
	row, err := h.repo.Decode(body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return row, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return nil, false
	}
	return body, true
}

// pathID parses the {id} URL parameter, writing 400 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// storageError renders a persistence failure as a 500 envelope.
func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	s.Logger.ErrorContext(r.Context(), "storage error",
		slog.String("route", routePattern(r)), slog.Any("error", err))
	response.Error(w, http.StatusInternalServerError, err.Error())
}
