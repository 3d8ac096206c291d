package sio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/Comcast/nudge/core"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// NewJar makes a cookie jar that knows about public suffixes.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// HTTPCouplings polls a URL for catalogs.
//
// The client keeps cookies, so a catalog server can use a session.
type HTTPCouplings struct {
	URL      string
	Interval time.Duration
	Client   *http.Client
	Holder   *Holder
	Logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHTTPCouplings makes HTTPCouplings with a cookie-keeping client.
func NewHTTPCouplings(url string, interval time.Duration, h *Holder, logger *zap.Logger) (*HTTPCouplings, error) {
	jar, err := NewJar()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCouplings{
		URL:      url,
		Interval: interval,
		Client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
		Holder: h,
		Logger: logger,
	}, nil
}

// FetchCatalog gets and parses a catalog with a fresh client.
func FetchCatalog(ctx context.Context, url string) (*core.Catalog, error) {
	jar, err := NewJar()
	if err != nil {
		return nil, err
	}
	return fetchCatalog(ctx, &http.Client{Jar: jar}, url)
}

func fetchCatalog(ctx context.Context, client *http.Client, url string) (*core.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch status %s %d", resp.Status, resp.StatusCode)
	}
	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return core.ParseCatalog(bs)
}

// Fetch gets and parses the catalog once.
func (c *HTTPCouplings) Fetch(ctx context.Context) (*core.Catalog, error) {
	return fetchCatalog(ctx, c.Client, c.URL)
}

// Start fetches the catalog and, if the Interval is positive, keeps
// fetching it in the background.
//
// The first fetch must succeed.  Later failures are logged, and the
// Holder keeps its previous catalog.
func (c *HTTPCouplings) Start(ctx context.Context) error {
	cat, err := c.Fetch(ctx)
	if err != nil {
		return err
	}
	c.Holder.Set(cat)

	if c.Interval <= 0 {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cat, err := c.Fetch(ctx)
				if err != nil {
					c.Logger.Warn("catalog fetch failed",
						zap.String("url", c.URL),
						zap.Error(err))
					continue
				}
				c.Holder.Set(cat)
			}
		}
	}()

	return nil
}

// Stop stops polling and waits for the poller to exit.
func (c *HTTPCouplings) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}
