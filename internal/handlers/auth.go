package handlers

import (
	"errors"
	"net/http"
	"strings"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type loginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var user models.User
	err := database.DB.Where("username = ?", strings.TrimSpace(form.Username)).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusInternalServerError, "failed to load user")
			return
		}
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	sess := sessions.Default(c)
	sess.Clear()
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	database.CreateAuditLog(user.ID, "user", user.ID, "login", "")
	c.JSON(http.StatusOK, user)
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

func Me(c *gin.Context) {
	user, ok := c.Get("CurrentUser")
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	c.JSON(http.StatusOK, user)
}

//
// USERS (admin)
//

func ListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("username").Find(&users).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users, "total": len(users)})
}

type userForm struct {
	Username string `form:"username" json:"username" binding:"required,min=3,max=100"`
	Password string `form:"password" json:"password" binding:"required,min=8,max=72"`
	Role     string `form:"role" json:"role" binding:"required,oneof=admin dpo security staff viewer"`
}

func CreateUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}
	username := strings.TrimSpace(form.Username)

	var count int64
	if err := database.DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to check user")
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "user already exists")
		return
	}

	user, err := database.CreateUser(username, form.Password, models.UserRole(form.Role))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save user")
		return
	}

	audit(c, "user", user.ID, "create", "created user "+user.Username+" with role "+string(user.Role))
	c.JSON(http.StatusCreated, user)
}

func DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if id == currentUserID(c) {
		respondError(c, http.StatusConflict, "cannot delete your own account")
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err := database.DB.Delete(&user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete user")
		return
	}

	audit(c, "user", user.ID, "delete", "deleted user "+user.Username)
	c.Status(http.StatusNoContent)
}
