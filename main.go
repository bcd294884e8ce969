package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/adapters/stationprovider"
	"github.com/pumpwatch/pumpwatch/internal/app"
	"github.com/pumpwatch/pumpwatch/internal/config"
	"github.com/pumpwatch/pumpwatch/internal/coordinator"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/ports"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
	"github.com/pumpwatch/pumpwatch/internal/reporting"
	"github.com/pumpwatch/pumpwatch/internal/telemetry"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "pumpwatch.app"
const STAGING_DOMAIN_SUFFIX = "pumpwatch.pages.dev"

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "pumpwatch")
	if err != nil {
		fail("Failed to initialize telemetry", "error", err.Error())
	}
	defer shutdownTelemetry(ctx)

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	// One tag index spans every resource cache; eviction keeps it in sync.
	tagIndex := cache.NewTagIndex()

	stationsCache, stopStationsCache := cache.NewTTLCache[[]domain.Station](1*time.Hour, 16, tagIndex.RemoveKey)
	defer stopStationsCache()
	stationByIDCache, stopStationByIDCache := cache.NewTTLCache[*domain.Station](30*time.Minute, 4096, tagIndex.RemoveKey)
	defer stopStationByIDCache()
	pricesCache, stopPricesCache := cache.NewTTLCache[[]domain.FuelPrice](5*time.Minute, 16, tagIndex.RemoveKey)
	defer stopPricesCache()

	// Shared across coordinators so the price feed budget holds regardless
	// of which code path triggers the fetch
	outboundLimiter := ratelimiting.NewFixedWindowLimiter(time.Now, time.After)

	stationsCoordinator, stopStationsCoordinator := coordinator.New[[]domain.Station](stationsCache, outboundLimiter, time.Now, time.After)
	defer stopStationsCoordinator()
	stationByIDCoordinator, stopStationByIDCoordinator := coordinator.New[*domain.Station](stationByIDCache, outboundLimiter, time.Now, time.After)
	defer stopStationByIDCoordinator()
	pricesCoordinator, stopPricesCoordinator := coordinator.New[[]domain.FuelPrice](pricesCache, outboundLimiter, time.Now, time.After)
	defer stopPricesCoordinator()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var providers []stationprovider.StationProvider
	if config.BaserowAPIURL() != "" {
		providers = append(providers, stationprovider.NewBaserow(httpClient, config.BaserowAPIURL(), config.BaserowAPIToken()))
		logger.Info("Initialized baserow provider")
	}
	if config.FuelAPIURL() != "" {
		providers = append(providers, stationprovider.NewFuelAPI(httpClient, config.FuelAPIURL()))
		logger.Info("Initialized fuelapi provider")
	}

	providerManager, err := stationprovider.NewManager(config.PreferredProvider(), providers...)
	if err != nil {
		fail("Failed to initialize provider manager", "error", err.Error())
	}

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	degradeToEmpty := config.IsProduction()

	invalidateTags := app.BuildInvalidateTags(tagIndex, stationsCoordinator, stationByIDCoordinator, pricesCoordinator)

	getStations := app.BuildGetStations(stationsCoordinator, tagIndex, providerManager, degradeToEmpty)
	getStationByID := app.BuildGetStationByID(stationByIDCoordinator, tagIndex, providerManager)
	getFuelPrices := app.BuildGetFuelPrices(pricesCoordinator, tagIndex, providerManager, degradeToEmpty)
	searchStations := app.BuildSearchStations(stationsCoordinator, tagIndex, providerManager, getFuelPrices, degradeToEmpty)
	getNearbyStations := app.BuildGetNearbyStations(getStations)

	createStation := app.BuildCreateStation(providerManager, invalidateTags)
	updateStation := app.BuildUpdateStation(providerManager, invalidateTags)
	deleteStation := app.BuildDeleteStation(providerManager, invalidateTags)

	http.HandleFunc(
		"OPTIONS /v1/stations",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/stations",
		ports.MakeGetStationsHandler(
			getStations,
			allowedOrigins,
			logger.With("port", "getstations"),
			sentryMiddleware,
		),
	)
	http.HandleFunc(
		"POST /v1/stations",
		ports.MakeCreateStationHandler(
			createStation,
			allowedOrigins,
			logger.With("port", "createstation"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/stations/search",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/stations/search",
		ports.MakeSearchStationsHandler(
			searchStations,
			allowedOrigins,
			logger.With("port", "searchstations"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/stations/nearby",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/stations/nearby",
		ports.MakeNearbyStationsHandler(
			getNearbyStations,
			allowedOrigins,
			logger.With("port", "nearbystations"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/stations/{id}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/stations/{id}",
		ports.MakeGetStationHandler(
			getStationByID,
			allowedOrigins,
			logger.With("port", "getstation"),
			sentryMiddleware,
		),
	)
	http.HandleFunc(
		"PATCH /v1/stations/{id}",
		ports.MakeUpdateStationHandler(
			updateStation,
			allowedOrigins,
			logger.With("port", "updatestation"),
			sentryMiddleware,
		),
	)
	http.HandleFunc(
		"DELETE /v1/stations/{id}",
		ports.MakeDeleteStationHandler(
			deleteStation,
			allowedOrigins,
			logger.With("port", "deletestation"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/prices",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/prices",
		ports.MakeGetPricesHandler(
			getFuelPrices,
			allowedOrigins,
			logger.With("port", "getprices"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/invalidate",
		ports.MakeInvalidateHandler(
			invalidateTags,
			config.InvalidateSecret(),
			allowedOrigins,
			logger.With("port", "invalidate"),
			sentryMiddleware,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
