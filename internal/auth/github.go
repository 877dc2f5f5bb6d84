package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	gh "github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/gnomegl/iceslurp/internal/cli"
	"github.com/gnomegl/iceslurp/internal/config"
	"github.com/gnomegl/iceslurp/internal/github"
)

const (
	repoOwner = "gnomegl"
	repoName  = "iceslurp"
)

// SetupClientPool builds the request pool from the token file, or else the
// single resolved token, and validates every token before the crawl starts.
func SetupClientPool(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*github.ClientPool, error) {
	tokens, err := loadTokens(cfg)
	if err != nil {
		return nil, err
	}

	var proxies []string
	if cfg.ProxyFile != "" {
		proxies, err = github.ReadProxyFile(cfg.ProxyFile)
		if err != nil {
			return nil, err
		}
		if len(proxies) < len(tokens) {
			color.Yellow("⚠️  %d tokens but only %d proxies; the rest connect directly", len(tokens), len(proxies))
		}
	}

	pool, err := github.NewClientPool(tokens, proxies)
	if err != nil {
		return nil, err
	}
	if cfg.APIURL != "" {
		if err := pool.SetBaseURL(cfg.APIURL); err != nil {
			return nil, err
		}
	}

	for i, mc := range pool.AllClients() {
		if mc.Token == "" {
			continue
		}
		if err := github.ValidateToken(ctx, mc.Client); err != nil {
			return nil, fmt.Errorf("token %d validation failed: %w", i+1, err)
		}
	}
	log.Debug("client pool ready",
		zap.Int("clients", pool.Size()),
		zap.Int("proxies", len(proxies)))

	checkLatestVersion(ctx, pool.Primary())
	return pool, nil
}

func loadTokens(cfg *config.AppConfig) ([]string, error) {
	if cfg.TokenFile != "" {
		return github.ReadTokenFile(cfg.TokenFile)
	}
	savedPath, err := github.SavedTokenPath()
	if err != nil {
		savedPath = ""
	}
	if token := github.ResolveToken(cfg.Token, savedPath); token != "" {
		return []string{token}, nil
	}
	return nil, nil
}

func checkLatestVersion(ctx context.Context, client *gh.Client) {
	if cli.GetVersion() == cli.UnknownVersion {
		return
	}
	release, _, err := client.Repositories.GetLatestRelease(ctx, repoOwner, repoName)
	if err != nil {
		return
	}

	latest := strings.TrimPrefix(release.GetTagName(), "v")
	if current := cli.GetVersion(); newerRelease(latest, current) {
		color.Yellow("⚠️  A new version of %s is available: %s (you're running %s)", repoName, latest, current)
		color.Yellow("   Update at: https://github.com/%s/%s/releases/latest", repoOwner, repoName)
	}
}

// newerRelease reports whether latest differs from a tagged current build.
// Untagged local builds are never nagged.
func newerRelease(latest, current string) bool {
	return latest != "" && current != cli.UnknownVersion && latest != current
}
