package dashboard

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/dealerhub/internal/dashboard/domain"
	"go.uber.org/zap"
)

const collectTimeout = 5 * time.Second

// Collector exposes the home metrics as gauges on /metrics. Scrapes go
// through the same cache as the API.
type Collector struct {
	svc  domain.Service
	log  *zap.Logger
	desc map[string]*prometheus.Desc
}

func NewCollector(svc domain.Service, log *zap.Logger) *Collector {
	gauge := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("dealerhub_registry_"+name, help, nil, nil)
	}
	return &Collector{
		svc: svc,
		log: log.Named("dashboard.collector"),
		desc: map[string]*prometheus.Desc{
			"active_dealers":     gauge("active_dealers", "Dealers with status ACTIVE."),
			"active_employees":   gauge("active_employees", "Employments with status ACTIVE."),
			"active_clients":     gauge("active_clients", "Client dealer links with status ACTIVE."),
			"todays_joins":       gauge("todays_joins", "Employments joining today."),
			"todays_separations": gauge("todays_separations", "Separations dated today."),
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.desc {
		ch <- desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	metrics, err := c.svc.ComputeHomeMetrics(ctx)
	if err != nil {
		c.log.Warn("failed to collect registry gauges", zap.Error(err))
		return
	}

	values := map[string]int64{
		"active_dealers":     metrics.ActiveDealers,
		"active_employees":   metrics.ActiveEmployees,
		"active_clients":     metrics.ActiveClients,
		"todays_joins":       metrics.TodaysJoins,
		"todays_separations": metrics.TodaysSeparations,
	}
	for name, value := range values {
		ch <- prometheus.MustNewConstMetric(c.desc[name], prometheus.GaugeValue, float64(value))
	}
}
