package detector

import (
	"context"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of a remote page we are willing to read.
const maxBodyBytes = 2 << 20

// fetchResult is the outcome of one successful page fetch
type fetchResult struct {
	StatusCode int
	FinalURL   string
	Body       []byte
}

// fetcher performs bounded-timeout HTTP GETs with redirect following. It is
// scoped to a single Analyze call; close releases its connections on every
// exit path.
type fetcher struct {
	client *http.Client
}

func newFetcher(timeout time.Duration) *fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *fetcher) get(ctx context.Context, url string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	return &fetchResult{
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Body:       body,
	}, nil
}

func (f *fetcher) close() {
	f.client.CloseIdleConnections()
}
