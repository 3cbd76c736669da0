package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/stats"
)

// DefaultHistoryWindow is used when a stats request has no "from"
const DefaultHistoryWindow = time.Hour

type DataPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

type HistoryResponse struct {
	Path   string       `json:"path"`
	Metric string       `json:"metric"`
	From   int64        `json:"from"`
	To     int64        `json:"to"`
	Points []*DataPoint `json:"points"`
}

type PathTotals struct {
	Path   string             `json:"path"`
	Totals map[string]float64 `json:"totals"`
}

// getStatsPathsHandler lists every path with live counters and its totals
func (a *API) getStatsPathsHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if a.Stats == nil {
		WriteErrorJSON(http.StatusNotFound, "stats are disabled", w)
		return
	}

	paths := a.Stats.Paths()
	resp := make([]*PathTotals, 0, len(paths))

	for _, path := range paths {
		totals, err := a.Stats.Totals(path)
		if err != nil {
			a.log.Errorf("unable to get stats totals: %s", err)
			WriteErrorJSON(http.StatusInternalServerError, err.Error(), w)

			return
		}

		resp = append(resp, &PathTotals{
			Path:   path,
			Totals: totals,
		})
	}

	WriteJSON(http.StatusOK, resp, w)
}

// getStatsHandler serves flushed per-path history.
// Query: metric (default packets), from and to as unix seconds.
func (a *API) getStatsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if a.Stats == nil {
		WriteErrorJSON(http.StatusNotFound, "stats are disabled", w)
		return
	}

	path := ps.ByName("path")
	query := r.URL.Query()

	metric := query.Get("metric")
	if metric == "" {
		metric = stats.MetricPackets
	}

	to := time.Now()

	if v := query.Get("to"); v != "" {
		t, err := parseUnix(v)
		if err != nil {
			WriteErrorJSON(http.StatusBadRequest, "invalid 'to': "+err.Error(), w)
			return
		}

		to = t
	}

	from := to.Add(-DefaultHistoryWindow)

	if v := query.Get("from"); v != "" {
		t, err := parseUnix(v)
		if err != nil {
			WriteErrorJSON(http.StatusBadRequest, "invalid 'from': "+err.Error(), w)
			return
		}

		from = t
	}

	if !from.Before(to) {
		WriteErrorJSON(http.StatusBadRequest, "'from' must be before 'to'", w)
		return
	}

	points, err := a.Stats.GetHistory(metric, path, from, to)
	if err != nil {
		if errors.Cause(err) == stats.ErrUnknownMetric {
			WriteErrorJSON(http.StatusBadRequest, err.Error(), w)
			return
		}

		a.log.Errorf("unable to get stats history: %s", err)
		WriteErrorJSON(http.StatusInternalServerError, err.Error(), w)

		return
	}

	resp := &HistoryResponse{
		Path:   path,
		Metric: metric,
		From:   from.Unix(),
		To:     to.Unix(),
		Points: make([]*DataPoint, 0, len(points)),
	}

	for _, p := range points {
		resp.Points = append(resp.Points, &DataPoint{
			Timestamp: p.Timestamp,
			Value:     p.Value,
		})
	}

	WriteJSON(http.StatusOK, resp, w)
}

func parseUnix(v string) (time.Time, error) {
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, errors.New("expected unix seconds")
	}

	return time.Unix(sec, 0), nil
}
