package mockapi

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type auditRecord struct {
	ID             int    `json:"id"`
	User           string `json:"user"`
	Action         string `json:"action"`
	LevelRequested int    `json:"level_requested"`
	Success        bool   `json:"success"`
	OriginIP       string `json:"origin_ip"`
	Timestamp      string `json:"ts"`
	at             time.Time
}

// record appends one audit entry. The trail is append-only.
func (s *Server) record(user, action string, level int, success bool, r *http.Request) {
	now := s.now().UTC()
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	s.mu.Lock()
	s.logs = append(s.logs, auditRecord{
		ID:             len(s.logs) + 1,
		User:           user,
		Action:         action,
		LevelRequested: level,
		Success:        success,
		OriginIP:       host,
		Timestamp:      now.Format(time.RFC3339),
		at:             now,
	})
	s.mu.Unlock()

	s.log.Debug().Str("user", user).Str("action", action).Bool("success", success).Msg("audit")
}

var levelPayloads = map[int]map[string]any{
	1: {"title": "Public information", "documents": []string{"press releases", "open datasets"}},
	2: {"title": "Directorate information", "documents": []string{"internal reports", "draft policies"}},
	3: {"title": "Ministerial information", "documents": []string{"strategic plans", "restricted briefings"}},
}

// LevelData serves the clearance-gated payload for one data level. Denials
// land in the audit trail with the level that was asked for.
func (s *Server) LevelData(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || level < 1 || level > 3 {
		writeError(w, http.StatusBadRequest, "level must be between 1 and 3")
		return
	}

	claims := claimsFrom(r)
	if claims.Clearance < level {
		s.record(claims.Subject, "access_level", level, false, r)
		writeError(w, http.StatusForbidden, "insufficient clearance")
		return
	}

	s.record(claims.Subject, "access_level", level, true, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"level":   level,
		"data":    levelPayloads[level],
		"message": "access granted",
	})
}

// AuditReport serves the filtered, paginated audit trail. Reserved for the
// top clearance tier.
func (s *Server) AuditReport(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if claims.Clearance < 3 {
		writeError(w, http.StatusForbidden, "insufficient clearance")
		return
	}

	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := queryInt(q.Get("limit"), 10)
	if err != nil || limit < 1 || limit > 100 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	filter, err := parseAuditFilter(q.Get("start_date"), q.Get("end_date"), q.Get("action"), q.Get("success"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.RLock()
	matched := make([]auditRecord, 0, len(s.logs))
	for _, rec := range s.logs {
		if filter.matches(rec) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	start := (page - 1) * limit
	end := start + limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  matched[start:end],
		"total": len(matched),
	})
}

type auditFilter struct {
	start, end *time.Time
	action     string
	success    *bool
}

func (f auditFilter) matches(rec auditRecord) bool {
	if f.start != nil && rec.at.Before(*f.start) {
		return false
	}
	if f.end != nil && rec.at.After(*f.end) {
		return false
	}
	if f.action != "" && rec.Action != f.action {
		return false
	}
	if f.success != nil && rec.Success != *f.success {
		return false
	}
	return true
}

func parseAuditFilter(start, end, action, success string) (auditFilter, error) {
	var f auditFilter
	if start != "" {
		t, err := parseDate(start)
		if err != nil {
			return f, err
		}
		f.start = &t
	}
	if end != "" {
		t, err := parseDate(end)
		if err != nil {
			return f, err
		}
		// A date-only upper bound is inclusive of the whole day.
		if len(end) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.end = &t
	}
	f.action = action
	if success != "" {
		v, err := strconv.ParseBool(success)
		if err != nil {
			return f, err
		}
		f.success = &v
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func queryInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
