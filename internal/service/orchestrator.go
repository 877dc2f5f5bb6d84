package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnomegl/iceslurp/internal/metrics"
	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/spider"
	"github.com/gnomegl/iceslurp/internal/store"
)

const (
	CheckpointEach = "each"
	CheckpointEnd  = "end"
)

type Options struct {
	GeoTag        string
	SeedLimit     int
	BatchSize     int
	Budget        time.Duration
	Checkpoint    string
	RetryInterval time.Duration

	// Now overrides the wall clock the budget is measured with.
	Now func() time.Time
	// Progress receives the progress bar; defaults to stderr.
	Progress io.Writer
}

// RunSummary is what one crawl run did.
type RunSummary struct {
	Seeds           int
	Ingest          spider.IngestResult
	Expanded        int
	Truncated       int
	Remaining       int
	StoppedByBudget bool
	Checkpoints     int
	Elapsed         time.Duration
}

// Orchestrator drives bounded crawl runs of one source into one backend.
type Orchestrator struct {
	source  spider.Source
	backend store.Backend
	opts    Options
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewOrchestrator(source spider.Source, backend store.Backend, opts Options, log *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if opts.Checkpoint == "" {
		opts.Checkpoint = CheckpointEach
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	if m == nil {
		m = metrics.New()
	}
	return &Orchestrator{
		source:  source,
		backend: backend,
		opts:    opts,
		log:     log,
		metrics: m,
	}
}

// run bundles the collaborators of one crawl run.
type run struct {
	state    *store.State
	budget   *spider.Budget
	seeder   *spider.SeedDiscoverer
	ingester *spider.Ingester
	expander *spider.Expander
	summary  *RunSummary
}

// Run executes one crawl. A corrupt state aborts before any remote call.
// Otherwise the state is saved on the way out whatever happened, and a
// fatal remote fault is returned after that save.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	budget := spider.NewBudgetWithClock(o.opts.Budget, o.opts.Now)

	state, err := o.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state from %s: %w", o.backend, err)
	}
	if conflicts := state.Conflicts(); len(conflicts) > 0 {
		o.log.Warn("accounts recorded as both local and foreign", zap.Int("count", len(conflicts)))
	}
	color.Cyan("Loaded %d local accounts (%d unexpanded) and %d foreigners from %s",
		state.Relationships.Len(), len(state.Relationships.Unexpanded()), state.Foreigners.Len(), o.backend)

	retrier := spider.NewRetrier(budget, o.opts.RetryInterval, o.log)
	retrier.OnRetry(func(error) { o.metrics.Retry() })
	ingester := spider.NewIngester(o.source, state, retrier, o.opts.BatchSize, o.log)

	c := &run{
		state:    state,
		budget:   budget,
		seeder:   spider.NewSeedDiscoverer(o.source, retrier, o.opts.GeoTag, o.opts.SeedLimit),
		ingester: ingester,
		expander: spider.NewExpander(o.source, state, ingester, o.log),
		summary:  &RunSummary{},
	}

	runErr := o.crawl(ctx, c)
	if errors.Is(runErr, spider.ErrBudgetExceeded) {
		c.summary.StoppedByBudget = true
		runErr = nil
	}

	summary := c.summary
	summary.Elapsed = budget.Elapsed()
	summary.Remaining = len(state.Relationships.Unexpanded())

	// The run may have been cancelled; the final save must still happen.
	if err := o.save(context.WithoutCancel(ctx), c); err != nil {
		return summary, errors.Join(runErr, err)
	}

	o.metrics.ObserveState(state)
	o.metrics.Finish(summary.Elapsed, summary.StoppedByBudget)
	printSummary(summary)

	return summary, runErr
}

func (o *Orchestrator) crawl(ctx context.Context, c *run) error {
	color.Blue("\nSearching for accounts located in %s...", o.opts.GeoTag)
	seeds, err := c.seeder.Discover(ctx, c.state.Known)
	if err != nil {
		return fmt.Errorf("discover seeds: %w", err)
	}
	c.summary.Seeds = len(seeds)
	o.metrics.SeedsFound(len(seeds))
	color.Green("[+] Found %d new seed accounts", len(seeds))

	res, err := c.ingester.Ingest(ctx, seeds)
	c.summary.Ingest.Add(res)
	o.metrics.ObserveIngest(res)
	if err != nil {
		return fmt.Errorf("ingest seeds: %w", err)
	}
	fmt.Printf("  Cache hits: %d | Foreigners found: %d | Accounts created: %d\n",
		res.CacheHits, res.ForeignersFound, res.LocalsCreated)

	attempted := make(map[models.AccountID]struct{})
	for pass := 1; ; pass++ {
		pending := selectUnexpanded(c.state, attempted)
		if len(pending) == 0 {
			return nil
		}

		color.Blue("\nPass %d - Expanding %d accounts...", pass, len(pending))
		if err := o.expandAll(ctx, c, pending, attempted); err != nil {
			return err
		}
		if c.summary.StoppedByBudget {
			return nil
		}
	}
}

// selectUnexpanded lists accounts with an empty follower list that this run
// has not tried yet. An account whose expansion found no local followers
// stays empty, so without the attempted set it would be picked forever.
func selectUnexpanded(state *store.State, attempted map[models.AccountID]struct{}) []models.AccountID {
	var out []models.AccountID
	for _, id := range state.Relationships.Unexpanded() {
		if _, done := attempted[id]; !done {
			out = append(out, id)
		}
	}
	return out
}

func (o *Orchestrator) expandAll(ctx context.Context, c *run, pending []models.AccountID, attempted map[models.AccountID]struct{}) error {
	bar := newProgressBar(o.opts.Progress, len(pending), "[cyan]Expanding followers[reset]")
	defer bar.Finish()

	for _, id := range pending {
		if c.budget.Exceeded() {
			c.summary.StoppedByBudget = true
			o.log.Info("time budget spent, stopping",
				zap.Duration("elapsed", c.budget.Elapsed()),
				zap.Int("expanded", c.summary.Expanded))
			return nil
		}
		attempted[id] = struct{}{}

		res, err := c.expander.Expand(ctx, id)
		o.metrics.ObserveExpand(res, err)
		c.summary.Ingest.Add(res.Ingest)
		if err != nil {
			return fmt.Errorf("expand %s: %w", id, err)
		}
		c.summary.Expanded++
		if res.Truncated {
			c.summary.Truncated++
		}

		handle, _ := c.state.Identities.Handle(id)
		o.log.Info("account expanded",
			zap.String("id", id.String()),
			zap.String("handle", handle),
			zap.Int("pages", res.Pages),
			zap.Int("followers", res.Followers),
			zap.Int("local_followers", len(res.Locals)),
			zap.Bool("truncated", res.Truncated),
			zap.Duration("elapsed", c.budget.Elapsed()))
		bar.Describe(fmt.Sprintf("[cyan]%s: %d/%d local followers[reset]", displayName(id, handle), len(res.Locals), res.Followers))

		if o.opts.Checkpoint == CheckpointEach {
			if err := o.save(ctx, c); err != nil {
				return fmt.Errorf("checkpoint after %s: %w", id, err)
			}
		}
		_ = bar.Add(1)
	}
	return nil
}

func (o *Orchestrator) save(ctx context.Context, c *run) error {
	if err := o.backend.Save(ctx, c.state); err != nil {
		return fmt.Errorf("save state to %s: %w", o.backend, err)
	}
	c.summary.Checkpoints++
	return nil
}

func displayName(id models.AccountID, handle string) string {
	if handle == "" {
		return id.String()
	}
	return handle
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]#[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printSummary(s *RunSummary) {
	fmt.Println()
	if s.StoppedByBudget {
		color.Yellow("[!] Time budget spent after %s", s.Elapsed.Round(time.Second))
	} else {
		color.Green("[+] Crawl complete in %s", s.Elapsed.Round(time.Second))
	}
	fmt.Printf("  Seeds: %d\n", s.Seeds)
	fmt.Printf("  Accounts expanded: %d (%d cut short)\n", s.Expanded, s.Truncated)
	fmt.Printf("  Accounts created: %d\n", s.Ingest.LocalsCreated)
	fmt.Printf("  Foreigners found: %d\n", s.Ingest.ForeignersFound)
	fmt.Printf("  Cache hits: %d\n", s.Ingest.CacheHits)
	fmt.Printf("  Still unexpanded: %d\n", s.Remaining)
}
