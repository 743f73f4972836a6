// Package handlers provides HTTP handler implementations for the ops API.
//
// This file implements the delivery listing endpoint: a paginated, read-only
// view over a user's confirmed delivery records, mirroring what the chat
// commands report but consumable by dashboards and scripts.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/utils"
)

// DeliveryStore is the persistence slice required by the delivery endpoint.
type DeliveryStore interface {
	CountDeliveries(ctx context.Context, db *gorm.DB, userID int64) (int64, error)
	ListDeliveriesPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.Delivery, error)
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// DeliveryPage is the paginated response envelope for delivery listings.
type DeliveryPage struct {
	Items   []domain.Delivery `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// ListDeliveries handles GET /users/:id/deliveries.
//
// Query parameters:
//   - page:     1-based page number (default 1)
//   - per_page: page size (default 20, max 100)
//
// Records are returned newest first (by first-found time).
func (h *Handler) ListDeliveries(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be an integer")
		return
	}

	page, per, offset := utils.ParsePage(c.Query("page"), c.Query("per_page"), defaultPerPage, maxPerPage)

	total, err := h.Store.CountDeliveries(c.Request.Context(), h.DB, userID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not count deliveries")
		return
	}
	items, err := h.Store.ListDeliveriesPage(c.Request.Context(), h.DB, userID, offset, per)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list deliveries")
		return
	}
	if items == nil {
		items = []domain.Delivery{}
	}

	ok(c, http.StatusOK, DeliveryPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: per,
	})
}
