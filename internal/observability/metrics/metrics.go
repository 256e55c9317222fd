package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes registry-level instruments.
type Metrics struct {
	registrations     metric.Int64Counter
	conflicts         metric.Int64Counter
	transferDecisions metric.Int64Counter
	auditFailures     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "dealerhub"
	}
	meter := provider.Meter(name)

	registrations, err := meter.Int64Counter("dealerhub_registrations_total",
		metric.WithDescription("Employee and client registrations by kind and outcome."))
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("dealerhub_affiliation_conflicts_total",
		metric.WithDescription("Registrations blocked by an active affiliation at another dealer."))
	if err != nil {
		return nil, err
	}
	transferDecisions, err := meter.Int64Counter("dealerhub_transfer_decisions_total",
		metric.WithDescription("Transfer requests moved out of PENDING, by resulting status."))
	if err != nil {
		return nil, err
	}
	auditFailures, err := meter.Int64Counter("dealerhub_audit_write_failures_total",
		metric.WithDescription("Audit entries that could not be persisted."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registrations:     registrations,
		conflicts:         conflicts,
		transferDecisions: transferDecisions,
		auditFailures:     auditFailures,
	}, nil
}

// RecordRegistration counts an onboarding attempt. kind is employee or client.
func (m *Metrics) RecordRegistration(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.registrations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordConflict counts a blocked registration by conflict code.
func (m *Metrics) RecordConflict(ctx context.Context, code string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("code", strings.TrimSpace(code)))
	m.conflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransferDecision counts a transfer leaving PENDING.
func (m *Metrics) RecordTransferDecision(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.transferDecisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuditFailure counts a dropped audit entry.
func (m *Metrics) RecordAuditFailure(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("entity", strings.TrimSpace(entity)))
	m.auditFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":    {},
	"outcome": {},
	"code":    {},
	"status":  {},
	"entity":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
