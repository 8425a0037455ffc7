package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and forecast counters on a dedicated registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_forecast_resolutions_total",
			Help: "Forecast resolutions by data source and outcome.",
		}, []string{"source", "outcome"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.resolutions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware counts every request. Handler errors are rendered here so the final
// status code is known when counting.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "/" {
			route = r.Path
		}
		m.requests.WithLabelValues(route, c.Method(), strconv.Itoa(c.Response().StatusCode())).Inc()
		return nil
	}
}

// ObserveForecast records one forecast resolution.
func (m *Metrics) ObserveForecast(source, outcome string) {
	m.resolutions.WithLabelValues(source, outcome).Inc()
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
