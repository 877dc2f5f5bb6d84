package github

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/google/go-github/v57/github"

	"github.com/gnomegl/iceslurp/internal/models"
)

// TokenEnvVar is consulted when no token is passed on the command line.
const TokenEnvVar = "ICESLURP_GITHUB_TOKEN"

// SavedTokenPath is where a token given on the command line is remembered.
func SavedTokenPath() (string, error) {
	return xdg.ConfigFile("iceslurp/token")
}

// ResolveToken picks the token from the flag, the environment, or the saved
// token file, in that order. A flag token is saved for later runs. Crawls
// run unattended, so there is no prompt; an empty result means anonymous.
func ResolveToken(flagToken, savedPath string) string {
	if token := strings.TrimSpace(flagToken); token != "" {
		if savedPath != "" {
			if err := os.WriteFile(savedPath, []byte(token), 0600); err == nil {
				color.Green("Token saved successfully")
			}
		}
		return token
	}

	if token := strings.TrimSpace(os.Getenv(TokenEnvVar)); token != "" {
		return token
	}

	if savedPath != "" {
		if data, err := os.ReadFile(savedPath); err == nil {
			if token := strings.TrimSpace(string(data)); token != "" {
				return token
			}
		}
	}

	color.Yellow("Running without a token. Anonymous requests are limited to 60 per hour.")
	return ""
}

func ValidateToken(ctx context.Context, client *github.Client) error {
	_, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case 401:
				return fmt.Errorf("%w: invalid GitHub token", models.ErrUnauthorized)
			case 403:
				color.Yellow("⚠️  Rate limited, skipping token validation")
				return nil
			}
		}
		return fmt.Errorf("error validating token: %w", classifyError(resp, err))
	}
	return nil
}

func GetRateLimit(ctx context.Context, client *github.Client) (*github.Rate, error) {
	limits, _, err := client.RateLimit.Get(ctx)
	if err != nil {
		return nil, err
	}
	return limits.GetCore(), nil
}

func DisplayRateLimit(ctx context.Context, client *github.Client) {
	rate, err := GetRateLimit(ctx, client)
	if err != nil {
		color.Yellow("Could not fetch rate limit: %v", err)
		return
	}
	printRate("Rate limit", rate)
}

func printRate(label string, rate *github.Rate) {
	if rate.Limit == 0 {
		fmt.Printf("%s: %d remaining\n", label, rate.Remaining)
		return
	}
	percentage := float64(rate.Remaining) / float64(rate.Limit) * 100
	switch {
	case percentage > 50:
		color.Green("%s: %d/%d (%.1f%%)", label, rate.Remaining, rate.Limit, percentage)
	case percentage > 20:
		color.Yellow("%s: %d/%d (%.1f%%)", label, rate.Remaining, rate.Limit, percentage)
	default:
		color.Red("%s: %d/%d (%.1f%%)", label, rate.Remaining, rate.Limit, percentage)
	}
}
