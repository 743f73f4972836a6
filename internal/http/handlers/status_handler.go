package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler bundles the dependencies of the ops API endpoints.
type Handler struct {
	DB    *gorm.DB
	Store DeliveryStore

	// StartedAt is the process start time, used for the uptime field.
	StartedAt time.Time
	// Users is the size of the authorized-user allow-list.
	Users int
	// CheckInterval is the configured sweep interval.
	CheckInterval time.Duration
	// NextRun reports the next scheduled sweep; nil when no scheduler runs.
	NextRun func() time.Time
}

// New constructs a Handler.
func New(db *gorm.DB, store DeliveryStore, startedAt time.Time, users int, interval time.Duration, nextRun func() time.Time) *Handler {
	return &Handler{
		DB:            db,
		Store:         store,
		StartedAt:     startedAt,
		Users:         users,
		CheckInterval: interval,
		NextRun:       nextRun,
	}
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Users         int    `json:"users"`
	CheckInterval string `json:"check_interval"`
	NextCheck     string `json:"next_check,omitempty"`
}

// Status handles GET /status with scheduler and process information.
func (h *Handler) Status(c *gin.Context) {
	resp := StatusResponse{
		Status:        "ok",
		Uptime:        time.Since(h.StartedAt).Round(time.Second).String(),
		Users:         h.Users,
		CheckInterval: h.CheckInterval.String(),
	}
	if h.NextRun != nil {
		if next := h.NextRun(); !next.IsZero() {
			resp.NextCheck = next.UTC().Format(time.RFC3339)
		}
	}
	ok(c, http.StatusOK, resp)
}
