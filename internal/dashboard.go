package internal

import (
	"context"
	"net/http"

	"asset-inventory-api/internal/inventory"
	"asset-inventory-api/internal/response"
)

type aggregator interface {
	Schema() inventory.Schema
	Count(ctx context.Context) (int64, error)
	SumPrice(ctx context.Context) (*float64, error)
}

// countHandler serves {"<table>": n}.
func (s *Server) countHandler(repo aggregator) http.HandlerFunc {
	key := repo.Schema().Table
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := repo.Count(r.Context())
		if err != nil {
			s.storageError(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]int64{key: n})
	}
}

// sumPriceHandler serves {"price": sum}, with null for an empty table.
func (s *Server) sumPriceHandler(repo aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := repo.SumPrice(r.Context())
		if err != nil {
			s.storageError(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]*float64{"price": sum})
	}
}
