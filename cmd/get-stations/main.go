package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/pumpwatch/pumpwatch/internal/adapters/stationprovider"
)

// Queries a station provider directly, bypassing the cache and coordinator.
// Useful for checking provider credentials and inspecting raw upstream data.
func main() {
	providerName := pflag.StringP("provider", "p", "fuelapi", "provider to query (baserow|fuelapi)")
	baseURL := pflag.StringP("url", "u", "", "provider base URL")
	token := pflag.StringP("token", "t", "", "baserow API token (defaults to BASEROW_API_TOKEN)")
	stationID := pflag.StringP("id", "i", "", "fetch a single station by id")
	prices := pflag.BoolP("prices", "P", false, "fetch fuel prices instead of stations")
	pflag.Parse()

	if *baseURL == "" {
		log.Fatal("No provider base URL provided")
	}
	if *token == "" {
		*token = os.Getenv("BASEROW_API_TOKEN")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	var provider stationprovider.StationProvider
	switch *providerName {
	case "baserow":
		if *token == "" {
			log.Fatal("No baserow API token provided")
		}
		provider = stationprovider.NewBaserow(httpClient, *baseURL, *token)
	case "fuelapi":
		provider = stationprovider.NewFuelAPI(httpClient, *baseURL)
	default:
		log.Fatalf("Unknown provider: %s", *providerName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result any
	var err error
	switch {
	case *prices:
		result, err = provider.FetchFuelPrices(ctx)
	case *stationID != "":
		result, err = provider.FetchStationByID(ctx, *stationID)
	default:
		result, err = provider.FetchAllStations(ctx)
	}
	if err != nil {
		log.Fatalf("Failed fetching from %s: %v", provider.Name(), err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed marshalling result: %v", err)
	}

	fmt.Println(string(data))
}
