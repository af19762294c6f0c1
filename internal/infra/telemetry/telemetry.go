package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
)

// Provider holds the service-level collectors. HTTP request metrics are
// owned by the transport middleware; registering them here as well
// would collide on the shared registerer.
type Provider struct {
	decisionCounter *prometheus.CounterVec
}

// Attach registers the service metrics on the default Prometheus
// registerer and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	return attach(cfg, prometheus.DefaultRegisterer)
}

func attach(cfg *config.AppConfig, reg prometheus.Registerer) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicegw",
		Name:      "authentication_decisions_total",
		Help:      "Authentication decisions by outcome",
	}, []string{"outcome"})

	if err := reg.Register(decisions); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				decisions = existing
			} else {
				return nil, fmt.Errorf("existing decisions collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register decisions collector: %w", err)
		}
	}

	return &Provider{decisionCounter: decisions}, nil
}

// CountDecision records one authentication decision by outcome.
func (p *Provider) CountDecision(outcome string) {
	if p == nil || p.decisionCounter == nil {
		return
	}
	p.decisionCounter.WithLabelValues(outcome).Inc()
}
