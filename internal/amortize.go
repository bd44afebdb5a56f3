package internal

import (
	"errors"
	"log/slog"
	"net/http"

	"asset-inventory-api/internal/inventory"
	"asset-inventory-api/internal/response"
)

func (s *Server) moveToAmortized(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	mover := s.Catalog.Mover
	res, err := mover.MoveToAmortized(r.Context(), id)
	switch {
	case errors.Is(err, inventory.ErrPartialMove):
		s.Metrics.ObserveAmortization(mover.Atomic(), "partial")
		s.Logger.WarnContext(r.Context(), "asset left in both tables",
			slog.Int64("id", id), slog.Int64("amortized_id", res.InsertID), slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	case err != nil:
		s.Metrics.ObserveAmortization(mover.Atomic(), "error")
		s.storageError(w, r, err)
		return
	}

	result := "moved"
	if res.AffectedRows == 0 {
		result = "not_found"
	}
	s.Metrics.ObserveAmortization(mover.Atomic(), result)
	response.JSON(w, http.StatusOK, res)
}
