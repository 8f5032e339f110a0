package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"
	"zzpri-tracker/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadIncident(t *testing.T, id string) (*httptest.ResponseRecorder, *models.Incident) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/incidents/"+id, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}

	rec, _ := loadRecord[models.Incident](c)
	return w, rec
}

func TestLoadRecord(t *testing.T) {
	testutil.InitTestDB(t)
	inc := models.Incident{Title: "Phishing wave", Severity: models.SeverityHigh, Status: models.IncidentOpen}
	require.NoError(t, database.DB.Create(&inc).Error)

	w, rec := loadIncident(t, "1")
	require.NotNil(t, rec)
	assert.Equal(t, "Phishing wave", rec.Title)
	assert.Equal(t, http.StatusOK, w.Code)

	w, rec = loadIncident(t, "42")
	assert.Nil(t, rec)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadRecordDatabaseFailure(t *testing.T) {
	testutil.InitTestDB(t)
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w, rec := loadIncident(t, "1")
	assert.Nil(t, rec)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to load record")
}
