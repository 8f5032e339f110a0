package handlers

import (
	"net/http"
	"strconv"
	"time"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

// audit writes the journal entry for a mutation and drops cached aggregates.
func audit(c *gin.Context, entity string, entityID uint, action, details string) {
	database.CreateAuditLog(currentUserID(c), entity, entityID, action, details)
	dashboardCache.Purge()
}

const maxAuditLimit = 1000

// ListAuditLogs is the audit log retrieval endpoint.
func ListAuditLogs(c *gin.Context) {
	q := database.DB.Preload("User").Order("created_at desc, id desc")

	if v := c.Query("entity"); v != "" {
		q = q.Where("entity = ?", v)
	}
	if v := c.Query("action"); v != "" {
		q = q.Where("action = ?", v)
	}
	for _, p := range []string{"entity_id", "user_id"} {
		v := c.Query(p)
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid "+p)
			return
		}
		q = q.Where(p+" = ?", n)
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		q = q.Where("created_at >= ?", from)
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		// inclusive day
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	limit := 200
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs := []models.AuditLog{}
	if err := q.Limit(limit).Find(&logs).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load audit log")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
}
