package database

import (
	"log/slog"

	"zzpri-tracker/internal/models"
)

// SystemUserID marks audit entries written by background jobs.
const SystemUserID uint = 0

func CreateAuditLog(userID uint, entity string, entityID uint, action, details string) {
	if DB == nil {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := DB.Create(&record).Error; err != nil {
		slog.Warn("failed to write audit log", "entity", entity, "id", entityID, "err", err)
	}
}
