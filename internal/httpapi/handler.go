// Package httpapi serves preferences, the schema version and the migration
// markers over HTTP.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fystack/appprefs/internal/preferences"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/fystack/appprefs/pkg/schema"
	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store"`
}

type SetPreferenceRequest struct {
	Value          string `json:"value" binding:"required"`
	Sync           bool   `json:"sync"`
	StorageService bool   `json:"storage_service"`
}

type MarkersResponse struct {
	IsYdbMigrated bool `json:"isYdbMigrated"`
	DidEverUseYdb bool `json:"didEverUseYdb"`
}

type Handler struct {
	store   infra.KVStore
	prefs   *preferences.Preferences
	guard   *schema.Guard
	markers *preferences.Markers
}

func NewHandler(store infra.KVStore, prefs *preferences.Preferences, guard *schema.Guard, markers *preferences.Markers) *Handler {
	return &Handler{
		store:   store,
		prefs:   prefs,
		guard:   guard,
		markers: markers,
	}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/preferences", h.HandleGetPreferences)
	r.PUT("/preferences/:name", h.HandleSetPreference)
	r.DELETE("/preferences/:name", h.HandleClearPreference)
	r.GET("/schema", h.HandleSchemaStatus)
	r.POST("/schema/mark-latest", h.HandleSchemaMarkLatest)
	r.GET("/markers", h.HandleGetMarkers)
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Store:     h.store.GetName(),
	})
}

func (h *Handler) snapshot() (preferences.Snapshot, error) {
	var snapshot preferences.Snapshot
	err := h.prefs.View(h.store, func(tx infra.ReadTx) error {
		var err error
		snapshot, err = h.prefs.Snapshot(tx)
		return err
	})
	return snapshot, err
}

func (h *Handler) HandleGetPreferences(c *gin.Context) {
	snapshot, err := h.snapshot()
	if err != nil {
		h.internalError(c, "Read preferences failed", err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) HandleSetPreference(c *gin.Context) {
	var req SetPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	name := c.Param("name")
	opts := preferences.SyncOptions{
		SendSyncMessage:      req.Sync,
		UpdateStorageService: req.StorageService,
	}
	err := h.prefs.Update(h.store, func(tx infra.WriteTx) error {
		return h.prefs.SetByName(tx, name, req.Value, opts)
	})
	if err != nil {
		var numErr *strconv.NumError
		switch {
		case errors.Is(err, preferences.ErrUnknownPreference):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.As(err, &numErr):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			h.internalError(c, "Set preference failed", err)
		}
		return
	}
	logger.Info("Preference updated", "name", name, "value", req.Value, "subject", c.GetString(subjectKey))

	h.HandleGetPreferences(c)
}

// HandleClearPreference removes an optional preference. Only the epoch is optional.
func (h *Handler) HandleClearPreference(c *gin.Context) {
	if name := c.Param("name"); name != preferences.EpochPreference {
		abortWithError(c, http.StatusBadRequest, "only "+preferences.EpochPreference+" can be cleared")
		return
	}
	if err := h.prefs.Update(h.store, h.prefs.ClearMessageRequestInteractionIDEpoch); err != nil {
		h.internalError(c, "Clear preference failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) HandleSchemaStatus(c *gin.Context) {
	status, err := h.guard.Status()
	if err != nil {
		h.internalError(c, "Read schema version failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) HandleSchemaMarkLatest(c *gin.Context) {
	if err := h.guard.MarkAsLatest(); err != nil {
		h.internalError(c, "Mark schema as latest failed", err)
		return
	}
	h.HandleSchemaStatus(c)
}

func (h *Handler) HandleGetMarkers(c *gin.Context) {
	migrated, err := h.markers.IsYdbMigrated()
	if err != nil {
		h.internalError(c, "Read markers failed", err)
		return
	}
	everUsed, err := h.markers.DidEverUseYdb()
	if err != nil {
		h.internalError(c, "Read markers failed", err)
		return
	}
	c.JSON(http.StatusOK, MarkersResponse{IsYdbMigrated: migrated, DidEverUseYdb: everUsed})
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	logger.Error(msg, "path", c.Request.URL.Path, "err", err)
	abortWithError(c, http.StatusInternalServerError, "internal server error")
}
