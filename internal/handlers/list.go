package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/export"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	maxExport    = 10000
)

type filterKind int

const (
	filterText filterKind = iota
	filterBool
	filterID
)

type filterDef struct {
	column string
	kind   filterKind
}

// listSpec describes how a resource list can be searched, filtered and sorted.
type listSpec struct {
	search      []string
	filters     map[string]filterDef
	sorts       map[string]string
	defaultSort string
	defaultDesc bool
	preload     []string
	// extra narrows the query by parameters the generic filters cannot express
	extra func(c *gin.Context, db *gorm.DB) (*gorm.DB, bool)
}

func textFilter(col string) filterDef { return filterDef{column: col, kind: filterText} }
func boolFilter(col string) filterDef { return filterDef{column: col, kind: filterBool} }
func idFilter(col string) filterDef   { return filterDef{column: col, kind: filterID} }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// scope builds the filtered query from the request's query string.
// It writes a 400 response and returns false on invalid parameters.
func (s listSpec) scope(c *gin.Context, db *gorm.DB) (*gorm.DB, bool) {
	if q := strings.TrimSpace(c.Query("q")); q != "" && len(s.search) > 0 {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		conds := make([]string, len(s.search))
		args := make([]any, len(s.search))
		for i, col := range s.search {
			conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	for param, f := range s.filters {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			continue
		}
		switch f.kind {
		case filterBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid filter "+param)
				return nil, false
			}
			db = db.Where(f.column+" = ?", b)
		case filterID:
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || n == 0 {
				respondError(c, http.StatusBadRequest, "invalid filter "+param)
				return nil, false
			}
			db = db.Where(f.column+" = ?", n)
		default:
			db = db.Where(f.column+" = ?", raw)
		}
	}
	if s.extra != nil {
		var ok bool
		if db, ok = s.extra(c, db); !ok {
			return nil, false
		}
	}
	// count and find both run on the result
	return db.Session(&gorm.Session{}), true
}

func (s listSpec) order(c *gin.Context) (string, bool) {
	col := s.defaultSort
	if key := c.Query("sort"); key != "" {
		var ok bool
		if col, ok = s.sorts[key]; !ok {
			respondError(c, http.StatusBadRequest, "invalid sort "+key)
			return "", false
		}
	}

	desc := s.defaultDesc
	switch strings.ToLower(c.Query("order")) {
	case "":
	case "asc":
		desc = false
	case "desc":
		desc = true
	default:
		respondError(c, http.StatusBadRequest, "order must be asc or desc")
		return "", false
	}

	if desc {
		return col + " desc, id desc", true
	}
	return col + " asc, id asc", true
}

func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	limit, offset = defaultLimit, 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return 0, 0, false
		}
		limit = min(n, maxLimit)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "invalid offset")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// listRecords runs a paginated list query for T.
func listRecords[T any](c *gin.Context, opts listSpec) ([]T, int64, bool) {
	q, ok := opts.scope(c, database.DB.Model(new(T)))
	if !ok {
		return nil, 0, false
	}
	order, ok := opts.order(c)
	if !ok {
		return nil, 0, false
	}
	limit, offset, ok := pageParams(c)
	if !ok {
		return nil, 0, false
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load records")
		return nil, 0, false
	}

	items := []T{}
	for _, p := range opts.preload {
		q = q.Preload(p)
	}
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load records")
		return nil, 0, false
	}
	return items, total, true
}

// exportRecords writes every record matching the request's filters as CSV or PDF.
func exportRecords[T any](c *gin.Context, opts listSpec, title string, headers []string, row func(T) []string) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	q, ok := opts.scope(c, database.DB.Model(new(T)))
	if !ok {
		return
	}
	order, ok := opts.order(c)
	if !ok {
		return
	}
	for _, p := range opts.preload {
		q = q.Preload(p)
	}

	var items []T
	if err := q.Order(order).Limit(maxExport).Find(&items).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load records")
		return
	}

	table := export.Table{
		Title:       title,
		Headers:     headers,
		Rows:        make([][]string, 0, len(items)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, it := range items {
		table.Rows = append(table.Rows, row(it))
	}

	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+table.Filename(format)+`"`)
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, format, table); err != nil {
		// the response is already committed
		_ = c.Error(err)
	}
}

// loadRecord fetches T by the :id path parameter.
func loadRecord[T any](c *gin.Context, preload ...string) (*T, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	q := database.DB
	for _, p := range preload {
		q = q.Preload(p)
	}
	var rec T
	if err := q.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "record not found")
			return nil, false
		}
		slog.Error("failed to load record", "id", id, "err", err)
		respondError(c, http.StatusInternalServerError, "failed to load record")
		return nil, false
	}
	return &rec, true
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func formatID(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
