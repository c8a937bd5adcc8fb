package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analuiza2102/bioaccess/session"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{100, 100, 1},
		{101, 100, 2},
	}
	for _, tt := range tests {
		p := AuditPage{Total: tt.total, Limit: tt.limit}
		assert.Equal(t, tt.want, p.PageCount(), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, pageCount, want int
	}{
		{0, 3, 1},
		{-5, 3, 1},
		{1, 3, 1},
		{3, 3, 3},
		{4, 3, 3},
		{99, 3, 3},
		{1, 0, 1},
		{7, 0, 7}, // unknown page count, only the lower bound applies
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampPage(tt.page, tt.pageCount), "page=%d count=%d", tt.page, tt.pageCount)
	}
}

func TestHasPrevHasNext(t *testing.T) {
	first := AuditPage{Total: 25, Limit: 10, Page: 1}
	assert.False(t, first.HasPrev())
	assert.True(t, first.HasNext())

	middle := AuditPage{Total: 25, Limit: 10, Page: 2}
	assert.True(t, middle.HasPrev())
	assert.True(t, middle.HasNext())

	last := AuditPage{Total: 25, Limit: 10, Page: 3}
	assert.True(t, last.HasPrev())
	assert.False(t, last.HasNext())
}

func auditSessions(t *testing.T) *session.Store {
	t.Helper()
	s := newSessions(t)
	require.NoError(t, s.Login("T", session.User{
		Username: "minister", Role: session.RoleMinister, Clearance: 3,
	}))
	return s
}

func TestFetchAuditQuery(t *testing.T) {
	yes := true
	tests := []struct {
		name   string
		filter AuditFilter
		want   map[string]string
		absent []string
	}{
		{
			name:   "defaults",
			filter: AuditFilter{},
			want:   map[string]string{"page": "1", "limit": "10"},
			absent: []string{"start_date", "end_date", "action", "success"},
		},
		{
			name:   "limit capped",
			filter: AuditFilter{Page: 2, Limit: 500},
			want:   map[string]string{"page": "2", "limit": "100"},
		},
		{
			name: "all filters",
			filter: AuditFilter{
				Page: 3, Limit: 25,
				StartDate: "2026-08-01", EndDate: "2026-08-31",
				Action: "verify", Success: &yes,
			},
			want: map[string]string{
				"page": "3", "limit": "25",
				"start_date": "2026-08-01", "end_date": "2026-08-31",
				"action": "verify", "success": "true",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/reports/audit", r.URL.Path)
				q := r.URL.Query()
				for k, v := range tt.want {
					assert.Equal(t, v, q.Get(k), "param %s", k)
				}
				for _, k := range tt.absent {
					assert.False(t, q.Has(k), "param %s should be absent", k)
				}
				json.NewEncoder(w).Encode(map[string]any{"logs": []any{}, "total": 0})
			}), auditSessions(t))

			_, err := c.FetchAudit(context.Background(), tt.filter)
			require.NoError(t, err)
		})
	}
}

func TestFetchAuditCarriesPaging(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"logs": []map[string]any{
				{"id": 41, "user": "ana.luiza", "action": "login", "level_requested": 0, "success": true, "origin_ip": "10.0.0.9", "ts": "2026-08-30T12:00:00Z"},
			},
			"total": 25,
		})
	}), auditSessions(t))

	page, err := c.FetchAudit(context.Background(), AuditFilter{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.PageCount())
	require.Len(t, page.Logs, 1)
	assert.Equal(t, "ana.luiza", page.Logs[0].User)
}

func TestFetchAuditClampsOutOfRangePage(t *testing.T) {
	var pages []string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]any{"logs": []any{}, "total": 25})
	}), auditSessions(t))

	page, err := c.FetchAudit(context.Background(), AuditFilter{Page: 9})
	require.NoError(t, err)

	// 25 records at the default limit make 3 pages; page 9 lands on the last.
	assert.Equal(t, []string{"9", "3"}, pages)
	assert.Equal(t, 3, page.Page)
	assert.False(t, page.HasNext())
}

func TestWriteCSV(t *testing.T) {
	page := AuditPage{
		Logs: []AuditLog{
			{ID: 1, User: "ana.luiza", Action: "login", LevelRequested: 0, Success: true, OriginIP: "10.0.0.9", Timestamp: "2026-08-30T12:00:00Z"},
			{ID: 2, User: "diretor.silva", Action: "access_level", LevelRequested: 3, Success: false, OriginIP: "10.0.0.7", Timestamp: "2026-08-30T12:05:00Z"},
		},
	}

	var buf strings.Builder
	require.NoError(t, page.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,user,action,level_requested,success,origin_ip,ts", lines[0])
	assert.Equal(t, "1,ana.luiza,login,0,true,10.0.0.9,2026-08-30T12:00:00Z", lines[1])
	assert.Equal(t, "2,diretor.silva,access_level,3,false,10.0.0.7,2026-08-30T12:05:00Z", lines[2])
}

func TestLevelLabel(t *testing.T) {
	assert.NotEqual(t, LevelLabel(1), LevelLabel(2))
	assert.NotEqual(t, LevelLabel(2), LevelLabel(3))
	assert.NotEmpty(t, LevelLabel(1))
}
