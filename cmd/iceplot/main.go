package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	appcli "github.com/gnomegl/iceslurp/internal/cli"
	"github.com/gnomegl/iceslurp/internal/config"
	"github.com/gnomegl/iceslurp/internal/graph"
	"github.com/gnomegl/iceslurp/internal/logger"
	"github.com/gnomegl/iceslurp/internal/report"
	"github.com/gnomegl/iceslurp/internal/store"
)

func graphFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "min-followers",
			Usage: "Draw only accounts with more local followers than this",
			Value: graph.DefaultMinFollowers,
		},
		&cli.IntFlag{
			Name:  "max-nodes",
			Usage: "Keep at most this many of the most followed accounts (0 = no limit)",
		},
	}
}

func outputFlag(value, usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage,
		Value:   value,
	}
}

// loadState reads the crawl state named by the global flags.
func loadState(c *cli.Context) (*store.State, error) {
	cfg, err := config.ParseConfig(c)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Env, cfg.Verbose); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	backend, closeBackend, err := store.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	defer closeBackend()

	state, err := backend.Load(c.Context)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("state loaded",
		zap.String("state", backend.String()),
		zap.Int("locals", state.Relationships.Len()),
		zap.Int("foreigners", state.Foreigners.Len()))
	return state, nil
}

func buildGraph(c *cli.Context) (*store.State, *graph.Graph, error) {
	state, err := loadState(c)
	if err != nil {
		return nil, nil, err
	}
	g := graph.Build(state, graph.Filters{
		MinFollowers: c.Int("min-followers"),
		MaxNodes:     c.Int("max-nodes"),
	})
	// stdout may be carrying the export itself.
	fmt.Fprintln(os.Stderr, color.CyanString("Graph: %d accounts, %d follows", g.NodeCount(), g.EdgeCount()))
	return state, g, nil
}

// createOutput opens path for writing, with "-" meaning stdout.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeTo(path string, write func(io.Writer) error) error {
	out, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if path != "-" {
		color.Green("✓ Wrote %s", path)
	}
	return nil
}

func drawCommand() *cli.Command {
	return &cli.Command{
		Name:  "draw",
		Usage: "Render the graph with Graphviz (a .dot output writes the source instead)",
		Flags: append(graphFlags(), outputFlag(graph.DefaultOutput, "Output file; the extension picks the format")),
		Action: func(c *cli.Context) error {
			_, g, err := buildGraph(c)
			if err != nil {
				return err
			}
			path := c.String("output")
			if filepath.Ext(path) == ".dot" || path == "-" {
				return writeTo(path, func(w io.Writer) error { return graph.WriteDOT(w, g) })
			}
			if err := graph.Render(c.Context, g, path); err != nil {
				return err
			}
			color.Green("✓ Wrote %s", path)
			return nil
		},
	}
}

func gexfCommand() *cli.Command {
	return &cli.Command{
		Name:  "gexf",
		Usage: "Export the graph as GEXF for Gephi",
		Flags: append(graphFlags(), outputFlag("graph.gexf", "Output file, - for stdout")),
		Action: func(c *cli.Context) error {
			_, g, err := buildGraph(c)
			if err != nil {
				return err
			}
			return writeTo(c.String("output"), func(w io.Writer) error {
				return graph.WriteGEXF(w, g, time.Now())
			})
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write a Markdown summary of the crawl",
		Flags: append(graphFlags(), outputFlag("-", "Output file, - for stdout")),
		Action: func(c *cli.Context) error {
			state, g, err := buildGraph(c)
			if err != nil {
				return err
			}
			return writeTo(c.String("output"), func(w io.Writer) error {
				return report.WriteMarkdown(w, state, g)
			})
		},
	}
}

func neo4jCommand() *cli.Command {
	return &cli.Command{
		Name:  "neo4j",
		Usage: "Merge the graph into a Neo4j database",
		Flags: append(graphFlags(),
			&cli.StringFlag{
				Name:    "neo4j-uri",
				Usage:   "Bolt URI of the Neo4j server",
				Value:   "bolt://localhost:7687",
				EnvVars: []string{"NEO4J_URI"},
			},
			&cli.StringFlag{
				Name:    "neo4j-user",
				Usage:   "Neo4j user",
				Value:   "neo4j",
				EnvVars: []string{"NEO4J_USER"},
			},
			&cli.StringFlag{
				Name:    "neo4j-password",
				Usage:   "Neo4j password",
				EnvVars: []string{"NEO4J_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "neo4j-database",
				Usage:   "Target database (server default when empty)",
				EnvVars: []string{"NEO4J_DATABASE"},
			},
		),
		Action: func(c *cli.Context) error {
			_, g, err := buildGraph(c)
			if err != nil {
				return err
			}
			ctx := c.Context
			driver, err := graph.Connect(ctx, c.String("neo4j-uri"), c.String("neo4j-user"), c.String("neo4j-password"))
			if err != nil {
				return err
			}
			defer driver.Close(context.WithoutCancel(ctx))

			if err := graph.NewNeo4jExporter(driver, c.String("neo4j-database")).Export(ctx, g); err != nil {
				return err
			}
			color.Green("✓ Merged %d accounts and %d follows into %s", g.NodeCount(), g.EdgeCount(), c.String("neo4j-uri"))
			return nil
		},
	}
}

func main() {
	log.SetFlags(0)
	config.LoadDotEnv()
	defer logger.Sync()

	app := appcli.NewPlotApp(drawCommand(), gexfCommand(), reportCommand(), neo4jCommand())
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
