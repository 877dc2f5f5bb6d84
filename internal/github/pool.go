package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	anonymousQuota     = 60
	authenticatedQuota = 5000
	// lowWater is the quota below which the pool prefers the client whose
	// window resets first over the one with the most calls left.
	lowWater = 100
)

type ManagedClient struct {
	Client    *gh.Client
	Token     string
	Proxy     string
	remaining int
	resetAt   time.Time
	mu        sync.Mutex
}

func (mc *ManagedClient) UpdateRateLimit(remaining int, resetAt time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.remaining = remaining
	mc.resetAt = resetAt
}

// observe records the quota headers of a response, if any were sent.
func (mc *ManagedClient) observe(resp *gh.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	mc.UpdateRateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
}

func (mc *ManagedClient) Remaining() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.remaining
}

func (mc *ManagedClient) ResetAt() time.Time {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.resetAt
}

// ClientPool spreads requests over one client per token, each optionally
// behind its own proxy.
type ClientPool struct {
	clients []*ManagedClient
	mu      sync.Mutex
}

func NewClientPool(tokens []string, proxies []string) (*ClientPool, error) {
	if len(tokens) == 0 {
		tokens = []string{""}
	}

	pool := &ClientPool{
		clients: make([]*ManagedClient, 0, len(tokens)),
	}

	for i, token := range tokens {
		var proxyURL string
		if i < len(proxies) {
			proxyURL = proxies[i]
		}

		client, err := createClientWithProxy(token, proxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for token %d: %w", i+1, err)
		}

		quota := authenticatedQuota
		if token == "" {
			quota = anonymousQuota
		}
		pool.clients = append(pool.clients, &ManagedClient{
			Client:    client,
			Token:     token,
			Proxy:     proxyURL,
			remaining: quota,
		})
	}

	return pool, nil
}

func createClientWithProxy(token, proxyURL string) (*gh.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	httpClient := &http.Client{Transport: transport}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{
			Source: ts,
			Base:   transport,
		}
	}

	return gh.NewClient(httpClient), nil
}

// SetBaseURL points every client at another API root, e.g. GitHub
// Enterprise or a test server.
func (p *ClientPool) SetBaseURL(baseURL string) error {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	for _, mc := range p.clients {
		mc.Client.BaseURL = parsed
	}
	return nil
}

// GetClient returns the client with the most quota left, or the one whose
// window resets first once every client is running low.
func (p *ClientPool) GetClient() *ManagedClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.clients) == 1 {
		return p.clients[0]
	}

	best := p.clients[0]
	bestRemaining := best.Remaining()
	for _, mc := range p.clients[1:] {
		if rem := mc.Remaining(); rem > bestRemaining {
			best, bestRemaining = mc, rem
		}
	}
	if bestRemaining >= lowWater {
		return best
	}

	earliest := p.clients[0]
	earliestReset := earliest.ResetAt()
	for _, mc := range p.clients[1:] {
		if reset := mc.ResetAt(); reset.Before(earliestReset) {
			earliest, earliestReset = mc, reset
		}
	}
	return earliest
}

func (p *ClientPool) PrimaryToken() string {
	if len(p.clients) == 0 {
		return ""
	}
	return p.clients[0].Token
}

func (p *ClientPool) Primary() *gh.Client {
	return p.clients[0].Client
}

func (p *ClientPool) Size() int {
	return len(p.clients)
}

func (p *ClientPool) AllClients() []*ManagedClient {
	return p.clients
}

func (p *ClientPool) DisplayPoolRateLimit(ctx context.Context) {
	if p.Size() <= 1 {
		DisplayRateLimit(ctx, p.clients[0].Client)
		return
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	color.Cyan("Token Pool Rate Limits (%d tokens):", p.Size())

	for i, mc := range p.clients {
		label := fmt.Sprintf("  Token %d", i+1)
		if mc.Proxy != "" {
			label += " (proxied)"
		}
		rate, err := GetRateLimit(ctx, mc.Client)
		if err != nil {
			color.Yellow("%s: Could not fetch rate limit: %v", label, err)
			continue
		}
		printRate(label, rate)
	}
}
