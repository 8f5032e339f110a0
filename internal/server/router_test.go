package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"zzpri-tracker/internal/config"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"
	"zzpri-tracker/internal/notify"
	"zzpri-tracker/internal/server"
	"zzpri-tracker/internal/storage"
	"zzpri-tracker/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []notify.Message
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	mailer *fakeMailer
}

var accounts = map[models.UserRole]string{
	models.RoleAdmin:    "admin@test.local",
	models.RoleDPO:      "dpo@test.local",
	models.RoleSecurity: "security@test.local",
	models.RoleStaff:    "staff@test.local",
	models.RoleViewer:   "viewer@test.local",
}

const testPassword = "correct-horse-battery"

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.InitTestDB(t)

	for role, username := range accounts {
		_, err := database.CreateUser(username, testPassword, role)
		require.NoError(t, err)
	}

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	mailer := &fakeMailer{}
	cfg := &config.Config{
		SessionSecret: strings.Repeat("k", 32),
		MaxUploadMB:   1,
	}
	r := server.NewRouter(cfg, server.Deps{
		Store: store,
		Reminder: &notify.BreachReminder{
			Mailer:    mailer,
			Recipient: "dpo@example.org",
			Window:    24 * time.Hour,
		},
	})
	return &testServer{t: t, router: r, mailer: mailer}
}

func (s *testServer) serve(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(req, cookies)
}

func (s *testServer) login(role models.UserRole) []*http.Cookie {
	s.t.Helper()
	w := s.do(http.MethodPost, "/login", gin.H{"username": accounts[role], "password": testPassword}, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(s.t, cookies)
	return cookies
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestLoginAndSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/incidents", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/login", gin.H{"username": accounts[models.RoleDPO], "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "password_hash")

	cookies := s.login(models.RoleDPO)
	w = s.do(http.MethodGet, "/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.User](t, w)
	assert.Equal(t, accounts[models.RoleDPO], me.Username)
	assert.Equal(t, models.RoleDPO, me.Role)

	w = s.do(http.MethodPost, "/logout", nil, cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/me", nil, w.Result().Cookies())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t)
	bad := gin.H{"username": "nobody", "password": "nothing"}

	for i := 0; i < 5; i++ {
		w := s.do(http.MethodPost, "/login", bad, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(http.MethodPost, "/login", bad, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	s := newTestServer(t)
	body, err := json.Marshal(gin.H{"username": "nobody", "password": "nothing"})
	require.NoError(t, err)

	codes := make([]int, 0, 12)
	for i := 1; i <= 12; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		codes = append(codes, s.serve(req, nil).Code)
	}

	assert.Equal(t, http.StatusUnauthorized, codes[4])
	assert.Equal(t, http.StatusTooManyRequests, codes[5])
	assert.Equal(t, http.StatusTooManyRequests, codes[11])
}

func TestRiskCRUD(t *testing.T) {
	s := newTestServer(t)
	sec := s.login(models.RoleSecurity)

	w := s.do(http.MethodPost, "/api/risks", gin.H{
		"title":      "Ransomware on file server",
		"likelihood": 4,
		"impact":     5,
		"owner":      "IT",
	}, sec)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.RiskEntry](t, w)
	assert.Equal(t, 20, created.Score)
	assert.Equal(t, "critical", created.Level)
	assert.Equal(t, models.RiskOpen, created.Status)

	w = s.do(http.MethodPost, "/api/risks", gin.H{"title": "Phishing", "likelihood": 2, "impact": 2}, sec)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/risks?level=critical", nil, sec)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[listResponse[models.RiskEntry]](t, w)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	w = s.do(http.MethodGet, "/api/risks?q=PHISH", nil, sec)
	list = decode[listResponse[models.RiskEntry]](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Phishing", list.Items[0].Title)

	w = s.do(http.MethodGet, "/api/risks?sort=score&order=asc", nil, sec)
	list = decode[listResponse[models.RiskEntry]](t, w)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 4, list.Items[0].Score)

	w = s.do(http.MethodPut, "/api/risks/"+itoa(created.ID), gin.H{
		"title":      "Ransomware on file server",
		"likelihood": 2,
		"impact":     3,
		"status":     "treated",
	}, sec)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.RiskEntry](t, w)
	assert.Equal(t, 6, updated.Score)
	assert.Equal(t, "medium", updated.Level)

	w = s.do(http.MethodDelete, "/api/risks/"+itoa(created.ID), nil, sec)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/risks/"+itoa(created.ID), nil, sec)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var actions []string
	require.NoError(t, database.DB.Model(&models.AuditLog{}).
		Where("entity = ? AND entity_id = ?", "risk", created.ID).
		Order("id").Pluck("action", &actions).Error)
	assert.Equal(t, []string{"create", "update", "delete"}, actions)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	sec := s.login(models.RoleSecurity)

	w := s.do(http.MethodPost, "/api/risks", gin.H{"title": "x", "likelihood": 9, "impact": 1}, sec)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, "min=3", body.Fields["title"])
	assert.Equal(t, "max=5", body.Fields["likelihood"])

	w = s.do(http.MethodGet, "/api/risks?sort=password", nil, sec)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/api/risks?limit=0", nil, sec)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/api/risks/abc", nil, sec)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWritePermissions(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(models.RoleStaff)
	viewer := s.login(models.RoleViewer)
	dpo := s.login(models.RoleDPO)

	incident := gin.H{"title": "Lost laptop", "severity": "high", "occurred_at": "2026-02-01"}
	w := s.do(http.MethodPost, "/api/incidents", incident, staff)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodPost, "/api/incidents", incident, dpo)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/tickets", gin.H{"subject": "Printer offline", "priority": "low"}, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ticket := decode[models.SupportTicket](t, w)
	assert.Equal(t, accounts[models.RoleStaff], ticket.Requester)

	w = s.do(http.MethodPost, "/api/tickets", gin.H{"subject": "Printer offline", "priority": "low"}, viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// every role reads
	w = s.do(http.MethodGet, "/api/tickets", nil, viewer)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/gdpr/breaches", nil, staff)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/audit", nil, staff)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodGet, "/api/audit?entity=ticket", nil, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[listResponse[models.AuditLog]](t, w)
	require.NotEmpty(t, logs.Items)
	assert.Equal(t, "ticket", logs.Items[0].Entity)

	w = s.do(http.MethodGet, "/api/users", nil, dpo)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfidantMasking(t *testing.T) {
	s := newTestServer(t)
	dpo := s.login(models.RoleDPO)
	staff := s.login(models.RoleStaff)

	w := s.do(http.MethodPost, "/api/whistleblower/confidants", gin.H{
		"name":  "Anna Jansen",
		"email": "anna.jansen@example.org",
		"phone": "+31612345678",
	}, dpo)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.WhistleblowerConfidant](t, w)
	assert.True(t, created.Active)

	w = s.do(http.MethodGet, "/api/whistleblower/confidants/"+itoa(created.ID), nil, dpo)
	full := decode[models.WhistleblowerConfidant](t, w)
	assert.Equal(t, "anna.jansen@example.org", full.Email)
	assert.Equal(t, "+31612345678", full.Phone)

	w = s.do(http.MethodGet, "/api/whistleblower/confidants", nil, staff)
	list := decode[listResponse[models.WhistleblowerConfidant]](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "an***@example.org", list.Items[0].Email)
	assert.Equal(t, "**********78", list.Items[0].Phone)

	w = s.do(http.MethodPost, "/api/whistleblower/confidants", gin.H{
		"name":  "Duplicate",
		"email": "ANNA.JANSEN@example.org",
	}, dpo)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBreachDeadlineAndNotification(t *testing.T) {
	s := newTestServer(t)
	dpo := s.login(models.RoleDPO)

	discovered := time.Now().UTC().Add(-60 * time.Hour).Format(time.RFC3339)
	w := s.do(http.MethodPost, "/api/gdpr/breaches", gin.H{
		"title":             "Mail sent to wrong recipients",
		"discovered_at":     discovered,
		"affected_subjects": 120,
		"risk_to_rights":    "high",
	}, dpo)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	breach := decode[struct {
		ID      uint   `json:"id"`
		Urgency string `json:"urgency"`
	}](t, w)
	assert.Equal(t, "urgent", breach.Urgency)

	w = s.do(http.MethodGet, "/api/gdpr/breaches?urgency=urgent", nil, dpo)
	list := decode[listResponse[struct {
		ID uint `json:"id"`
	}]](t, w)
	assert.EqualValues(t, 1, list.Total)

	w = s.do(http.MethodPost, "/api/gdpr/breaches/"+itoa(breach.ID)+"/remind", nil, dpo)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.mailer.sent, 1)
	assert.Equal(t, "dpo@example.org", s.mailer.sent[0].To)

	w = s.do(http.MethodPost, "/api/gdpr/breaches/"+itoa(breach.ID)+"/notify-authority", nil, dpo)
	require.Equal(t, http.StatusOK, w.Code)
	notified := decode[struct {
		AuthorityNotified bool   `json:"authority_notified"`
		Urgency           string `json:"urgency"`
	}](t, w)
	assert.True(t, notified.AuthorityNotified)
	assert.Equal(t, "done", notified.Urgency)

	w = s.do(http.MethodPost, "/api/gdpr/breaches/"+itoa(breach.ID)+"/notify-authority", nil, dpo)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBreachUrgencyFilterPaginates(t *testing.T) {
	s := newTestServer(t)
	dpo := s.login(models.RoleDPO)

	now := time.Now().UTC()
	for _, b := range []struct {
		title string
		age   time.Duration
	}{
		{"Urgent one", 60 * time.Hour},
		{"Urgent two", 55 * time.Hour},
		{"Fresh", time.Hour},
		{"Overdue", 100 * time.Hour},
	} {
		w := s.do(http.MethodPost, "/api/gdpr/breaches", gin.H{
			"title":         b.title,
			"discovered_at": now.Add(-b.age).Format(time.RFC3339),
		}, dpo)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	type item struct {
		Title   string `json:"title"`
		Urgency string `json:"urgency"`
	}

	w := s.do(http.MethodGet, "/api/gdpr/breaches?urgency=urgent&limit=1", nil, dpo)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[listResponse[item]](t, w)
	assert.EqualValues(t, 2, first.Total)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "urgent", first.Items[0].Urgency)

	w = s.do(http.MethodGet, "/api/gdpr/breaches?urgency=urgent&limit=1&offset=1", nil, dpo)
	second := decode[listResponse[item]](t, w)
	assert.EqualValues(t, 2, second.Total)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "urgent", second.Items[0].Urgency)
	assert.NotEqual(t, first.Items[0].Title, second.Items[0].Title)

	w = s.do(http.MethodGet, "/api/gdpr/breaches?urgency=soon", nil, dpo)
	soon := decode[listResponse[item]](t, w)
	assert.EqualValues(t, 1, soon.Total)
	require.Len(t, soon.Items, 1)
	assert.Equal(t, "Fresh", soon.Items[0].Title)

	w = s.do(http.MethodGet, "/api/gdpr/breaches?urgency=overdue", nil, dpo)
	overdue := decode[listResponse[item]](t, w)
	assert.EqualValues(t, 1, overdue.Total)

	w = s.do(http.MethodGet, "/api/gdpr/breaches?urgency=later", nil, dpo)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	sec := s.login(models.RoleSecurity)

	w := s.do(http.MethodPost, "/api/devices", gin.H{"name": "fw-01", "device_type": "network", "serial_number": "SN-1"}, sec)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/devices", gin.H{"name": "fw-02", "device_type": "network", "serial_number": "SN-1"}, sec)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/devices/export?format=csv", nil, sec)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "fw-01")

	w = s.do(http.MethodGet, "/api/devices/export?format=pdf", nil, sec)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	w = s.do(http.MethodGet, "/api/devices/export?format=xlsx", nil, sec)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	dpo := s.login(models.RoleDPO)
	staff := s.login(models.RoleStaff)

	upload := func(cookies []*http.Cookie, filename, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "Reporting procedure"))
		require.NoError(t, mw.WriteField("category", "policy"))
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return s.serve(req, cookies)
	}

	w := upload(staff, "procedure.txt", "hello")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = upload(dpo, "script.exe", "MZ")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(dpo, "Meldprocedure 2026.txt", "step 1: report")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[models.ProcedureDocument](t, w)
	assert.Equal(t, int64(len("step 1: report")), doc.Size)

	w = s.do(http.MethodGet, "/api/documents/"+itoa(doc.ID)+"/download", nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "step 1: report", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = s.do(http.MethodDelete, "/api/documents/"+itoa(doc.ID), nil, dpo)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/documents/"+itoa(doc.ID)+"/download", nil, dpo)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	sec := s.login(models.RoleSecurity)

	for _, sev := range []string{"high", "high", "low"} {
		w := s.do(http.MethodPost, "/api/incidents", gin.H{
			"title": "Incident " + sev, "severity": sev, "occurred_at": "2026-01-10",
		}, sec)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := s.do(http.MethodPost, "/api/nis2-controls", gin.H{
		"code": "NIS2-21.2.a", "title": "Risk analysis policy", "status": "implemented",
	}, sec)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/dashboard", nil, sec)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[struct {
		Totals                  map[string]int64 `json:"totals"`
		OpenIncidentsBySeverity map[string]int64 `json:"open_incidents_by_severity"`
		NIS2Coverage            float64          `json:"nis2_coverage"`
	}](t, w)
	assert.EqualValues(t, 3, d.Totals["incidents"])
	assert.EqualValues(t, 2, d.OpenIncidentsBySeverity["high"])
	assert.EqualValues(t, 1, d.OpenIncidentsBySeverity["low"])
	assert.Equal(t, 100.0, d.NIS2Coverage)
}

func TestAdminCreatesUser(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/users", gin.H{"username": "new.dpo", "password": "short", "role": "dpo"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/users", gin.H{"username": "new.dpo", "password": "long-enough-pass", "role": "dpo"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/api/users", gin.H{"username": "new.dpo", "password": "long-enough-pass", "role": "dpo"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}
