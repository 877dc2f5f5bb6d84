package spider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnomegl/iceslurp/internal/classify"
	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

// DefaultBatchSize is the number of ids per remote lookup call.
const DefaultBatchSize = 100

// IngestResult summarises one Ingest call. Locals lists every candidate
// that is a local account after the call, known before or newly created,
// in candidate order.
type IngestResult struct {
	Locals          []models.AccountID
	CacheHits       int
	ForeignersFound int
	LocalsCreated   int
	Unresolved      int
	Batches         int
}

// Add accumulates o into r.
func (r *IngestResult) Add(o IngestResult) {
	r.Locals = append(r.Locals, o.Locals...)
	r.CacheHits += o.CacheHits
	r.ForeignersFound += o.ForeignersFound
	r.LocalsCreated += o.LocalsCreated
	r.Unresolved += o.Unresolved
	r.Batches += o.Batches
}

// Ingester classifies candidate accounts into the crawl state. Every
// account is classified at most once: known ids never reach the remote.
type Ingester struct {
	source    Source
	state     *store.State
	retrier   *Retrier
	batchSize int
	log       *zap.Logger
}

func NewIngester(source Source, state *store.State, retrier *Retrier, batchSize int, log *zap.Logger) *Ingester {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingester{
		source:    source,
		state:     state,
		retrier:   retrier,
		batchSize: batchSize,
		log:       log,
	}
}

// Ingest looks up unknown candidates in batches and records each returned
// account either as a local (relationships + identities) or a foreigner.
// A budget stop mid-way returns the partial result alongside the error;
// everything recorded so far stays recorded.
func (in *Ingester) Ingest(ctx context.Context, candidates []models.AccountID) (IngestResult, error) {
	var res IngestResult

	seen := make(map[models.AccountID]struct{}, len(candidates))
	var unique, unknown []models.AccountID
	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)

		if in.state.Known(id) {
			res.CacheHits++
		} else {
			unknown = append(unknown, id)
		}
	}

	var lookupErr error
	for start := 0; start < len(unknown); start += in.batchSize {
		end := min(start+in.batchSize, len(unknown))
		batch := unknown[start:end]

		var accounts []models.Account
		err := in.retrier.Do(ctx, "lookup", func() error {
			var err error
			accounts, err = in.source.LookupAccounts(ctx, batch)
			return err
		})
		if err != nil {
			lookupErr = fmt.Errorf("lookup of %d accounts: %w", len(batch), err)
			break
		}
		res.Batches++
		in.record(batch, accounts, &res)
	}

	for _, id := range unique {
		if in.state.Relationships.Has(id) {
			res.Locals = append(res.Locals, id)
		}
	}
	return res, lookupErr
}

func (in *Ingester) record(batch []models.AccountID, accounts []models.Account, res *IngestResult) {
	requested := make(map[models.AccountID]struct{}, len(batch))
	for _, id := range batch {
		requested[id] = struct{}{}
	}

	resolved := 0
	for _, acct := range accounts {
		if _, ok := requested[acct.ID]; !ok || in.state.Known(acct.ID) {
			continue
		}
		resolved++

		if classify.IsLocal(acct.Location) {
			in.state.Relationships.Add(acct.ID)
			in.state.Identities.Set(acct.ID, acct.Handle)
			res.LocalsCreated++
			in.log.Debug("local account created",
				zap.String("id", acct.ID.String()),
				zap.String("handle", acct.Handle),
				zap.String("location", acct.Location))
			continue
		}

		in.state.Foreigners.Insert(acct.ID)
		res.ForeignersFound++
	}
	res.Unresolved += len(batch) - resolved
}
