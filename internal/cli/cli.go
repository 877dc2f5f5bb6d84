package cli

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gnomegl/iceslurp/internal/art"
)

const helpTemplate = `{{.Name}} - {{.Usage}}

Usage: {{.HelpName}} {{if .Commands}}<command> {{end}}[options]
{{if .Commands}}
Commands:
   {{range .VisibleCommands}}{{join .Names ", "}}{{"\t"}}{{.Usage}}
   {{end}}{{end}}
Options:
   {{range .VisibleFlags}}{{.}}
   {{end}}`

// stateFlags locate the crawl state; both programs need them.
func stateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file (default $XDG_CONFIG_HOME/iceslurp/config.yaml)",
			EnvVars: []string{"ICESLURP_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"D"},
			Usage:   "Directory holding the crawl state (default $XDG_DATA_HOME/iceslurp)",
			EnvVars: []string{"ICESLURP_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "backend",
			Usage:   "State backend: json or sqlite",
			Value:   "json",
			EnvVars: []string{"ICESLURP_BACKEND"},
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log debug diagnostics",
		},
		&cli.StringFlag{
			Name:    "env",
			Usage:   "Log format: production (JSON) or development (console)",
			Value:   "development",
			EnvVars: []string{"ICESLURP_ENV"},
		},
	}
}

func crawlFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "GitHub personal access token",
			EnvVars: []string{"ICESLURP_GITHUB_TOKEN"},
		},
		&cli.StringFlag{
			Name:  "token-file",
			Usage: "File with one token per line; requests are spread over all of them",
		},
		&cli.StringFlag{
			Name:  "proxy-file",
			Usage: "File with one proxy per line, paired with the tokens in order",
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "GitHub API base URL (GitHub Enterprise)",
			EnvVars: []string{"ICESLURP_API_URL"},
		},
		&cli.DurationFlag{
			Name:    "budget",
			Aliases: []string{"b"},
			Usage:   "Wall-clock budget for follower expansion",
			Value:   14 * time.Hour,
			EnvVars: []string{"ICESLURP_BUDGET"},
		},
		&cli.StringFlag{
			Name:  "checkpoint",
			Usage: "Persist state after each account (each) or once at the end (end)",
			Value: "each",
		},
		&cli.StringFlag{
			Name:  "geo-tag",
			Usage: "Location searched for seed accounts",
			Value: "Iceland",
		},
		&cli.IntFlag{
			Name:  "seed-limit",
			Usage: "Number of search hits used as seeds",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Account ids per lookup batch",
			Value: 100,
		},
		&cli.DurationFlag{
			Name:  "request-interval",
			Usage: "Minimum spacing between API requests",
			Value: 750 * time.Millisecond,
		},
		&cli.DurationFlag{
			Name:  "retry-interval",
			Usage: "Spacing between retries of a failing request",
			Value: 5 * time.Second,
		},
		&cli.StringFlag{
			Name:    "metrics-file",
			Aliases: []string{"m"},
			Usage:   "Write Prometheus metrics to this textfile after the run",
		},
	}
}

func printLogo(c *cli.Context) error {
	if !c.Bool("help") && !c.Bool("version") {
		art.PrintLogo(os.Stderr, c.App.Name, GetVersion())
	}
	return nil
}

// NewApp builds the crawler command line.
func NewApp(action cli.ActionFunc) *cli.App {
	cli.AppHelpTemplate = helpTemplate

	return &cli.App{
		Name:    "iceslurp",
		Usage:   "Incrementally crawl the follower graph of accounts located in Iceland",
		Version: "v" + GetVersion(),
		Flags:   append(stateFlags(), crawlFlags()...),
		Before:  printLogo,
		Action:  action,
		Authors: []*cli.Author{
			{Name: "gnomegl"},
		},
	}
}

// NewPlotApp builds the renderer command line around the given subcommands.
func NewPlotApp(commands ...*cli.Command) *cli.App {
	cli.AppHelpTemplate = helpTemplate

	return &cli.App{
		Name:     "iceplot",
		Usage:    "Render the crawled follower graph",
		Version:  "v" + GetVersion(),
		Flags:    stateFlags(),
		Before:   printLogo,
		Commands: commands,
		Authors: []*cli.Author{
			{Name: "gnomegl"},
		},
	}
}
