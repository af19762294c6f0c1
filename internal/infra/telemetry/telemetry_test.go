package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
	"github.com/asotorev/voice-gateway-sub001/internal/transport/http/middleware"
)

func TestAttachCoexistsWithHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	provider, err := attach(&config.AppConfig{}, reg)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if _, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: reg}); err != nil {
		t.Fatalf("service and HTTP collectors must share one registerer: %v", err)
	}

	provider.CountDecision("authenticated")
	provider.CountDecision("rejected_both")
	provider.CountDecision("rejected_both")

	if got := testutil.ToFloat64(provider.decisionCounter.WithLabelValues("authenticated")); got != 1 {
		t.Fatalf("expected 1 authenticated decision, got %v", got)
	}
	if got := testutil.ToFloat64(provider.decisionCounter.WithLabelValues("rejected_both")); got != 2 {
		t.Fatalf("expected 2 rejected_both decisions, got %v", got)
	}
}

func TestAttachIsIdempotentPerRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := attach(&config.AppConfig{}, reg)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	second, err := attach(&config.AppConfig{}, reg)
	if err != nil {
		t.Fatalf("attach twice on one registerer: %v", err)
	}

	first.CountDecision("authenticated")
	second.CountDecision("authenticated")

	if got := testutil.ToFloat64(second.decisionCounter.WithLabelValues("authenticated")); got != 2 {
		t.Fatalf("both providers must share the registered collector, got %v", got)
	}
}
