package api

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/point"
	"github.com/batchcorp/mirror/stats"
)

var (
	ErrMissingListenAddress = errors.New("ListenAddress cannot be empty")
	ErrMissingRegistry      = errors.New("Registry cannot be nil")
)

type Config struct {
	ListenAddress string
	Version       string
	MirrorID      string
	Registry      *point.Registry

	// Stats is optional; history endpoints answer 404 without it
	Stats stats.IStats
}

type API struct {
	*Config
	log *logrus.Entry
}

type ResponseJSON struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Values  map[string]string `json:"values,omitempty"`
	Errors  string            `json:"errors,omitempty"`
}

// Start launches the admin API in the background. The returned server is
// shut down by the caller.
func Start(cfg *Config) (*http.Server, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to validate config")
	}

	a := &API{
		Config: cfg,
		log:    logrus.WithField("pkg", "api"),
	}

	a.log.Debugf("starting API server on %s", cfg.ListenAddress)

	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: a.router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				a.log.Errorf("unable to srv.ListenAndServe: %s", err)
			}
		}
	}()

	return srv, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.ListenAddress == "" {
		return ErrMissingListenAddress
	}

	if cfg.Registry == nil {
		return ErrMissingRegistry
	}

	return nil
}

func (a *API) router() *httprouter.Router {
	router := httprouter.New()

	router.HandlerFunc("GET", "/health-check", a.healthCheckHandler)
	router.HandlerFunc("GET", "/version", a.versionHandler)

	router.Handle("GET", "/v1/points", a.getPointsHandler)
	router.Handle("GET", "/v1/points/*path", a.getPointHandler)
	router.Handle("DELETE", "/v1/points/*path", a.closePointHandler)

	router.Handle("GET", "/v1/stats", a.getStatsPathsHandler)
	router.Handle("GET", "/v1/stats/*path", a.getStatsHandler)

	router.Handler("GET", "/metrics", promhttp.Handler())

	return router
}

func (a *API) healthCheckHandler(rw http.ResponseWriter, r *http.Request) {
	WriteJSON(http.StatusOK, map[string]string{"status": "ok"}, rw)
}

func (a *API) versionHandler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json; charset=UTF-8")

	response := &ResponseJSON{
		Status:  http.StatusOK,
		Message: "batchcorp/mirror " + a.Version,
		Values:  map[string]string{"mirror_id": a.MirrorID},
	}

	WriteJSON(http.StatusOK, response, rw)
}

func WriteJSON(statusCode int, data interface{}, w http.ResponseWriter) {
	w.Header().Add("Content-type", "application/json")

	jsonData, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(500)
		logrus.Errorf("Unable to marshal data in WriteJSON: %s", err)
		return
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		logrus.Errorf("Unable to write response data: %s", err)
		return
	}
}

func WriteErrorJSON(statusCode int, msg string, w http.ResponseWriter) {
	WriteJSON(statusCode, map[string]string{"error": msg}, w)
}

func WriteSuccessJSON(statusCode int, msg string, w http.ResponseWriter) {
	WriteJSON(statusCode, map[string]string{"msg": msg}, w)
}
