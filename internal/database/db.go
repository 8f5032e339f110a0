package database

import (
	"log/slog"
	"os"
	"time"

	"zzpri-tracker/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init connects to postgres, migrates the schema and ensures an admin account.
// It exits the process when the database stays unreachable.
func Init(dsn string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		slog.Info("connecting to database", "attempt", i, "of", maxAttempts)

		err = Connect(postgres.Open(dsn))
		if err == nil {
			slog.Info("connected to database")
			break
		}

		slog.Warn("failed to connect to database", "err", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		slog.Error("giving up on database", "attempts", maxAttempts, "err", err)
		os.Exit(1)
	}

	if err := Migrate(); err != nil {
		slog.Error("failed to migrate", "err", err)
		os.Exit(1)
	}

	createDefaultAdmin()
}

func Connect(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// audit rows use user id 0 for system actions
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return err
	}
	DB = db
	return nil
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Device{},
		&models.Incident{},
		&models.CyberIncidentReport{},
		&models.SupportTicket{},
		&models.NIS2Control{},
		&models.RiskEntry{},
		&models.GDPRBreach{},
		&models.GDPRTransfer{},
		&models.WhistleblowerConfidant{},
		&models.WhistleblowerProcedure{},
		&models.ProcedureDocument{},
	)
}

// the admin account only ever comes from config
func createDefaultAdmin() {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin@zzpri.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	var count int64
	if err := DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		slog.Error("failed to check admin user", "err", err)
		return
	}
	if count > 0 {
		return
	}

	if _, err := CreateUser(username, password, models.RoleAdmin); err != nil {
		slog.Error("failed to create default admin", "err", err)
		return
	}
	slog.Info("created default admin user", "username", username)
}

// demo accounts, one per role; only created together with the demo records
func seedDefaultUsers() {
	type seedUser struct {
		Username string
		Password string
		Role     models.UserRole
	}

	users := []seedUser{
		{Username: "dpo@zzpri.local", Password: "Dpo12345!", Role: models.RoleDPO},
		{Username: "security@zzpri.local", Password: "Sec12345!", Role: models.RoleSecurity},
		{Username: "staff@zzpri.local", Password: "Staff123!", Role: models.RoleStaff},
		{Username: "viewer@zzpri.local", Password: "Viewer123!", Role: models.RoleViewer},
	}

	for _, u := range users {
		var count int64
		if err := DB.Model(&models.User{}).
			Where("username = ?", u.Username).
			Count(&count).Error; err != nil {
			slog.Error("failed to check seed user", "username", u.Username, "err", err)
			continue
		}
		if count > 0 {
			continue
		}

		if _, err := CreateUser(u.Username, u.Password, u.Role); err != nil {
			slog.Error("failed to create seed user", "username", u.Username, "err", err)
			continue
		}
		slog.Info("created seed user", "username", u.Username, "role", u.Role)
	}
}

func CreateUser(username, password string, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
