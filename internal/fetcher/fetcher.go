// Package fetcher retrieves source pages over HTTP using gocolly.
package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mwatts/pricewatch/internal/pricing"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Colly implements pricing.Fetcher using the Colly collector.
type Colly struct {
	cfg           Config
	timeout       time.Duration
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewColly constructs a configured Colly-based fetcher. The collector
// presents a browser user agent and revisits URLs freely, since the same
// source page is fetched on every run.
func NewColly(cfg Config, logger *zap.Logger) *Colly {
	c := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c.SetRequestTimeout(timeout)

	return &Colly{
		cfg:           cfg,
		timeout:       timeout,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET and returns the raw markup. Any
// transport failure or non-2xx status comes back as a *FetchError.
func (f *Colly) Fetch(ctx context.Context, rawURL string) (*pricing.RawPage, error) {
	f.logger.Debug("Fetching page", zap.String("url", rawURL))
	collector := f.baseCollector.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.timeout)
	start := time.Now()

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			send(fetchResult{err: &FetchError{
				URL:        rawURL,
				Reason:     ReasonHTTPStatus,
				StatusCode: r.StatusCode,
			}})
			return
		}
		send(fetchResult{page: &pricing.RawPage{
			URL:        rawURL,
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		send(fetchResult{err: f.classify(rawURL, r, err)})
	})

	done := make(chan error, 1)
	go func() {
		visitErr := collector.Visit(rawURL)
		collector.Wait()
		done <- visitErr
	}()

	select {
	case <-ctx.Done():
		return nil, &FetchError{URL: rawURL, Reason: ReasonNetwork, Err: ctx.Err()}
	case visitErr := <-done:
		select {
		case res := <-resultCh:
			if res.err != nil {
				return nil, res.err
			}
			return res.page, nil
		default:
		}
		if visitErr != nil {
			return nil, f.classify(rawURL, nil, visitErr)
		}
		return nil, &FetchError{
			URL:    rawURL,
			Reason: ReasonNetwork,
			Err:    errors.New("colly fetch produced no result"),
		}
	}
}

// classify maps a colly failure to the fetch error taxonomy.
func (f *Colly) classify(rawURL string, r *colly.Response, err error) *FetchError {
	if r != nil && r.StatusCode != 0 && (r.StatusCode < 200 || r.StatusCode >= 300) {
		return &FetchError{
			URL:        rawURL,
			Reason:     ReasonHTTPStatus,
			StatusCode: r.StatusCode,
			Err:        err,
		}
	}
	if isTimeout(err) {
		return &FetchError{URL: rawURL, Reason: ReasonTimeout, Err: err}
	}
	return &FetchError{URL: rawURL, Reason: ReasonNetwork, Err: err}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return os.IsTimeout(err)
}

type fetchResult struct {
	page *pricing.RawPage
	err  *FetchError
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
	}
}
