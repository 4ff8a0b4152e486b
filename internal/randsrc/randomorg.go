package randsrc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "remindbot/pkg/logx"
)

const DefaultRandomOrgURL = "https://www.random.org"

type RandomOrgConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// RandomOrg draws integers from the random.org plain-text integer generator.
type RandomOrg struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	log      logx.Logger
}

func NewRandomOrg(cfg RandomOrgConfig, log logx.Logger) (*RandomOrg, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultRandomOrgURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("random.org base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &RandomOrg{
		endpoint: base + "/integers/",
		client:   client,
		limiter:  lim,
		log:      log.With(logx.String("comp", "randsrc.random_org")),
	}, nil
}

func (p *RandomOrg) Draw(ctx context.Context, min, max, count int) ([]int, error) {
	if err := checkArgs(min, max, count); err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("num", strconv.Itoa(count))
	q.Set("min", strconv.Itoa(min))
	q.Set("max", strconv.Itoa(max))
	q.Set("col", "1")
	q.Set("base", "10")
	q.Set("format", "plain")
	q.Set("rnd", "new")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	started := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: http %d: %s", ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	out, err := parsePlain(io.LimitReader(resp.Body, int64(count)*16+1024), min, max)
	if err != nil {
		return nil, err
	}
	if len(out) != count {
		return nil, fmt.Errorf("%w: got %d integers, want %d", ErrSourceUnavailable, len(out), count)
	}
	p.log.Debug("random batch fetched",
		logx.Int("count", count), logx.Int("min", min), logx.Int("max", max),
		logx.Duration("took", time.Since(started)))
	return out, nil
}

// parsePlain reads one integer per line; blank lines are skipped.
func parsePlain(r io.Reader, min, max int) ([]int, error) {
	var out []int
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%w: bad integer %q", ErrSourceUnavailable, line)
		}
		if n < min || n > max {
			return nil, fmt.Errorf("%w: %d outside [%d, %d]", ErrSourceUnavailable, n, min, max)
		}
		out = append(out, n)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return out, nil
}
