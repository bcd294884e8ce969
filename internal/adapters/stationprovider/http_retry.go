package stationprovider

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// doWithRetry sends the request, retrying transient failures (network errors
// and 5xx responses) with exponential backoff. Only GETs are retried; writes
// get a single attempt so a slow-but-successful mutation is never repeated.
func doWithRetry(httpClient HttpClient, req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return httpClient.Do(req)
	}

	operation := func() (*http.Response, error) {
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}
		return resp, nil
	}

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = 200 * time.Millisecond
	exponential.MaxElapsedTime = 5 * time.Second

	return backoff.RetryWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(exponential, 2), req.Context()),
	)
}
