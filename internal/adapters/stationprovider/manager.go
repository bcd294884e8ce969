package stationprovider

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pumpwatch/pumpwatch/internal/domain"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
	"github.com/pumpwatch/pumpwatch/internal/logging"
)

// Manager holds the ordered provider list. Ordering is a pure configuration
// decision made at startup: the preferred provider first, then the rest in
// registration order. No provider is skipped unless a call to it fails.
type Manager struct {
	providers []StationProvider

	metrics managerMetricsCollection
}

func NewManager(preferred string, providers ...StationProvider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}

	ordered := make([]StationProvider, 0, len(providers))
	if preferred != "" {
		found := false
		for _, provider := range providers {
			if provider.Name() == preferred {
				ordered = append(ordered, provider)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("preferred provider %q is not configured", preferred)
		}
	}
	for _, provider := range providers {
		if len(ordered) > 0 && provider == ordered[0] {
			continue
		}
		ordered = append(ordered, provider)
	}

	meter := otel.Meter("stationprovider/manager")
	metrics, err := setupManagerMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &Manager{
		providers: ordered,
		metrics:   metrics,
	}, nil
}

// Active returns the provider mutations are written to.
func (m *Manager) Active() StationProvider {
	return m.providers[0]
}

// Writer returns the active provider's write interface. Mutations never fall
// back to another provider: a write silently landing on a different backend
// than the read path would be worse than a failed write.
func (m *Manager) Writer() (StationWriter, error) {
	writer, ok := m.providers[0].(StationWriter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReadOnlyProvider, m.providers[0].Name())
	}
	return writer, nil
}

func (m *Manager) Providers() []StationProvider {
	return m.providers
}

// FetchWithFallback runs op against each provider in order and returns the
// first success. When every provider fails the combined error lists each
// provider's reason — an outage must never be masked as "no data".
//
// domain.ErrStationNotFound is a definitive answer, not a failure, and stops
// the chain immediately.
func FetchWithFallback[T any](ctx context.Context, m *Manager, fallback bool, op func(ctx context.Context, provider StationProvider) (T, error)) (T, error) {
	var empty T

	providers := m.providers
	if !fallback {
		providers = providers[:1]
	}

	var failures []error
	for _, provider := range providers {
		result, err := op(ctx, provider)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, domain.ErrStationNotFound) {
			return empty, err
		}

		logging.FromContext(ctx).Warn("Provider call failed", "provider", provider.Name(), "error", err.Error())
		m.metrics.providerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider.Name())))

		failures = append(failures, fmt.Errorf("provider %s: %w", provider.Name(), err))
	}

	return empty, fmt.Errorf("%w: %w", e.AllProvidersFailed, errors.Join(failures...))
}

type managerMetricsCollection struct {
	providerFailures metric.Int64Counter
}

func setupManagerMetrics(meter metric.Meter) (managerMetricsCollection, error) {
	providerFailures, err := meter.Int64Counter(
		"stationprovider/manager/provider_failures",
		metric.WithDescription("Number of failed provider calls, before fallback"),
	)
	if err != nil {
		return managerMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return managerMetricsCollection{
		providerFailures: providerFailures,
	}, nil
}
