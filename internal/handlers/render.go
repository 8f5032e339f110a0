package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"zzpri-tracker/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondBindError reports binding/validation failures with per-field rules.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			fields[fe.Field()] = rule
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}
	respondError(c, http.StatusBadRequest, "malformed request")
}

func respondFieldError(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  msg,
		"fields": map[string]string{field: msg},
	})
}

func currentUserID(c *gin.Context) uint {
	uid, _ := sessions.Default(c).Get("user_id").(uint)
	return uid
}

func currentRole(c *gin.Context) models.UserRole {
	roleStr, _ := sessions.Default(c).Get("role").(string)
	return models.UserRole(roleStr)
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid "+strings.ReplaceAll(name, "_", " "))
		return 0, false
	}
	return uint(id), true
}
