package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// Pagination defaults for list endpoints.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	// MaxPage bounds the page parameter; pages beyond it are rejected.
	MaxPage = 1_000_000
)

// dateOnlyLayout is accepted for from/to alongside RFC 3339.
const dateOnlyLayout = "2006-01-02"

// listParams holds the raw query parameters of GET /api/tasks.
type listParams struct {
	Page     int    `validate:"min=1,max=1000000"`
	PerPage  int    `validate:"min=1"`
	Sort     string `validate:"max=64"`
	Operator string `validate:"omitempty,oneof=and or"`
	Match    string `validate:"omitempty,oneof=contains contains_cs"`
}

// filterParams are the query parameters turned into filter terms, in the
// order they are applied. Free-text fields use the match parameter; the
// others take comma-separated candidates.
var filterParams = []struct {
	name     string
	freeText bool
}{
	{name: "title", freeText: true},
	{name: "code", freeText: true},
	{name: "status"},
	{name: "priority"},
	{name: "label"},
}

// parseListRequest builds a QueryRequest from the query string. Malformed
// integers and out-of-range values are errors; a date bound that cannot be
// parsed is dropped with a warning. perPage is capped at maxPerPage.
func parseListRequest(r *http.Request, maxPerPage int, log *slog.Logger) (domain.QueryRequest, error) {
	q := r.URL.Query()

	page, err := intParam(q, "page", DefaultPage)
	if err != nil {
		return domain.QueryRequest{}, err
	}
	perPage, err := intParam(q, "per_page", DefaultPerPage)
	if err != nil {
		return domain.QueryRequest{}, err
	}

	params := listParams{
		Page:     page,
		PerPage:  perPage,
		Sort:     strings.TrimSpace(q.Get("sort")),
		Operator: strings.ToLower(strings.TrimSpace(q.Get("operator"))),
		Match:    strings.ToLower(strings.TrimSpace(q.Get("match"))),
	}
	if err := shared.ValidateRequest(params); err != nil {
		return domain.QueryRequest{}, err
	}

	if maxPerPage > 0 && params.PerPage > maxPerPage {
		log.Debug("per_page capped", "requested", params.PerPage, "max", maxPerPage)
		params.PerPage = maxPerPage
	}

	req := domain.QueryRequest{
		Page:       params.Page,
		PerPage:    params.PerPage,
		Sort:       params.Sort,
		Combinator: domain.CombinatorAnd,
	}
	if params.Operator == string(domain.CombinatorOr) {
		req.Combinator = domain.CombinatorOr
	}

	textMode := domain.MatchContains
	if params.Match == string(domain.MatchContainsCaseSensitive) {
		textMode = domain.MatchContainsCaseSensitive
	}

	for _, fp := range filterParams {
		value := strings.TrimSpace(q.Get(fp.name))
		if value == "" {
			continue
		}
		mode := domain.MatchExact
		if fp.freeText {
			mode = textMode
		}
		req.Filters = append(req.Filters, domain.FilterTerm{Field: fp.name, Value: value, Mode: mode})
	}

	req.DateRange.From = dateParam(q, "from", false, log)
	req.DateRange.To = dateParam(q, "to", true, log)

	return req, nil
}

// intParam reads an optional integer parameter.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", domain.ErrInvalidPagination)
	}
	return n, nil
}

// dateParam reads an optional RFC 3339 timestamp or calendar date. A
// calendar date used as an upper bound covers the whole day.
func dateParam(q url.Values, name string, endOfDay bool, log *slog.Logger) *time.Time {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}

	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		log.Warn("ignoring malformed date bound", "param", name, "value", raw)
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}
