package client

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Audit pagination bounds, mirroring the server's limits.
const (
	DefaultAuditLimit = 10
	MaxAuditLimit     = 100
)

// AuditLog is one access-log record.
type AuditLog struct {
	ID             int    `json:"id"`
	User           string `json:"user"`
	Action         string `json:"action"`
	LevelRequested int    `json:"level_requested"`
	Success        bool   `json:"success"`
	OriginIP       string `json:"origin_ip"`
	Timestamp      string `json:"ts"`
}

// AuditFilter selects and pages audit records. Zero values mean "no filter";
// Success needs a pointer because false is a meaningful filter value.
type AuditFilter struct {
	Page      int
	Limit     int
	StartDate string // ISO 8601, inclusive
	EndDate   string // ISO 8601, inclusive
	Action    string
	Success   *bool
}

// AuditPage is one page of audit records. The server is authoritative for
// Total; page arithmetic derives from it.
type AuditPage struct {
	Logs  []AuditLog `json:"logs"`
	Total int        `json:"total"`
	Page  int        `json:"-"`
	Limit int        `json:"-"`
}

// PageCount returns ceil(Total / Limit).
func (p AuditPage) PageCount() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// HasPrev reports whether a previous page exists.
func (p AuditPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a further page exists.
func (p AuditPage) HasNext() bool { return p.Page < p.PageCount() }

// ClampPage bounds a requested page into [1, pageCount]. A pageCount of 0
// (empty result set) still yields page 1.
func ClampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if pageCount > 0 && page > pageCount {
		return pageCount
	}
	return page
}

// FetchAudit retrieves a filtered, paginated slice of access logs. The call
// requires the top clearance tier; the client only attaches the token and
// lets the authority enforce the gate (the audit view itself sits behind an
// access guard at clearance 3). A page beyond the last one is clamped and
// refetched, so the returned Page always lies within [1, PageCount].
func (c *Client) FetchAudit(ctx context.Context, filter AuditFilter) (AuditPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	result, err := c.fetchAuditPage(ctx, filter, page, limit)
	if err != nil {
		return AuditPage{}, err
	}
	if pc := result.PageCount(); pc > 0 && result.Page > pc {
		return c.fetchAuditPage(ctx, filter, ClampPage(result.Page, pc), limit)
	}
	return result, nil
}

func (c *Client) fetchAuditPage(ctx context.Context, filter AuditFilter, page, limit int) (AuditPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if filter.StartDate != "" {
		q.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("end_date", filter.EndDate)
	}
	if filter.Action != "" {
		q.Set("action", filter.Action)
	}
	if filter.Success != nil {
		q.Set("success", strconv.FormatBool(*filter.Success))
	}

	var result AuditPage
	if err := c.doJSON(ctx, http.MethodGet, "/reports/audit?"+q.Encode(), nil, &result, true); err != nil {
		return AuditPage{}, err
	}
	result.Page = page
	result.Limit = limit
	return result, nil
}

// WriteCSV exports the page's records with the audit data-contract columns.
func (p AuditPage) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user", "action", "level_requested", "success", "origin_ip", "ts"}); err != nil {
		return err
	}
	for _, l := range p.Logs {
		record := []string{
			strconv.Itoa(l.ID),
			l.User,
			l.Action,
			strconv.Itoa(l.LevelRequested),
			strconv.FormatBool(l.Success),
			l.OriginIP,
			l.Timestamp,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
