// -----------------------------------------------------------------------
// Robots.txt Policy Gate
// Fail-open: any fetch or parse failure yields an allow
// -----------------------------------------------------------------------

package policy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"golang.org/x/time/rate"
)

// maxRobotsBody caps how much of a robots.txt response is read
const maxRobotsBody = 512 * 1024

// RobotsGate checks source URLs against each host's robots.txt. Parsed
// groups are cached per host for the gate's lifetime and fetches are
// rate-limited so a cycle over many sources on one host stays polite.
type RobotsGate struct {
	config  common.RobotsConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData // host -> parsed robots, nil = fetch failed
}

// NewRobotsGate creates a robots.txt policy gate
func NewRobotsGate(config common.RobotsConfig, logger arbor.ILogger) interfaces.PolicyGate {
	interval := config.FetchRate
	if interval <= 0 {
		interval = time.Second
	}

	return &RobotsGate{
		config:  config,
		client:  &http.Client{Timeout: config.FetchTimeout},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether the configured agent may fetch the URL.
// Disabled checks, unparseable URLs and failed fetches all allow.
func (g *RobotsGate) IsAllowed(ctx context.Context, rawURL string) bool {
	if !g.config.Enabled {
		return true
	}

	parsed, err := neturl.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		g.logger.Warn().Str("url", rawURL).Msg("Unparseable source URL, allowing")
		return true
	}

	robots := g.robotsFor(ctx, parsed)
	if robots == nil {
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	allowed := robots.FindGroup(g.config.UserAgent).Test(path)
	if !allowed {
		g.logger.Warn().
			Str("host", parsed.Host).
			Str("path", path).
			Str("agent", g.config.UserAgent).
			Msg("Blocked by robots.txt")
	}
	return allowed
}

// robotsFor returns the cached robots data for the URL's host, fetching it
// on first use. A nil return means the host could not be checked.
func (g *RobotsGate) robotsFor(ctx context.Context, parsed *neturl.URL) *robotstxt.RobotsData {
	g.mu.Lock()
	defer g.mu.Unlock()

	host := parsed.Host
	if robots, ok := g.cache[host]; ok {
		return robots
	}

	robots := g.fetch(ctx, parsed)
	g.cache[host] = robots
	return robots
}

func (g *RobotsGate) fetch(ctx context.Context, parsed *neturl.URL) *robotstxt.RobotsData {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		g.logger.Warn().Err(err).Str("url", robotsURL).Msg("Failed to build robots.txt request")
		return nil
	}
	req.Header.Set("User-Agent", g.config.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Str("url", robotsURL).Msg("Failed to fetch robots.txt, allowing")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		g.logger.Warn().Err(err).Str("url", robotsURL).Msg("Failed to read robots.txt, allowing")
		return nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		g.logger.Warn().Err(err).Str("url", robotsURL).Msg("Failed to parse robots.txt, allowing")
		return nil
	}

	g.logger.Debug().
		Str("host", parsed.Host).
		Int("status", resp.StatusCode).
		Msg("Fetched robots.txt")

	return robots
}
