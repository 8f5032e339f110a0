package middleware

import (
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// InjectUser loads the session's user into the context as "CurrentUser".
// The session role is refreshed from the account so role changes apply immediately.
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get("user_id").(uint); ok && uid > 0 {
			var user models.User
			if err := database.DB.First(&user, uid).Error; err == nil {
				c.Set("CurrentUser", user)
				if role, _ := sess.Get("role").(string); role != string(user.Role) {
					sess.Set("role", string(user.Role))
					_ = sess.Save()
				}
			}
		}

		c.Next()
	}
}
