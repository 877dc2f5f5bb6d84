package spider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

// ExpandResult describes one account expansion.
type ExpandResult struct {
	Account   models.AccountID
	Pages     int
	Followers int
	Locals    []models.AccountID
	Ingest    IngestResult
	// Truncated is set when the listing ended early on a transient fault or
	// a spent budget; the gathered locals are still recorded.
	Truncated bool
	Reason    error
}

type Expander struct {
	source   Source
	state    *store.State
	ingester *Ingester
	log      *zap.Logger
}

func NewExpander(source Source, state *store.State, ingester *Ingester, log *zap.Logger) *Expander {
	return &Expander{
		source:   source,
		state:    state,
		ingester: ingester,
		log:      log,
	}
}

// Expand pages through id's followers, ingests every page, and appends the
// local followers to id's relationship entry in discovery order.
//
// A transient fault while fetching a page, or an account that has vanished
// from the remote, is treated as the end of the listing. Any other fetch or
// lookup error aborts the expansion without touching id's entry.
func (e *Expander) Expand(ctx context.Context, id models.AccountID) (ExpandResult, error) {
	res := ExpandResult{Account: id}
	pages := e.source.Followers(ctx, id)

	for {
		page, err := pages.NextPage(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if models.IsTransient(err) || errors.Is(err, models.ErrNotFound) {
				e.log.Warn("follower listing interrupted, keeping partial result",
					zap.String("account", id.String()),
					zap.Int("pages", res.Pages),
					zap.Error(err))
				res.Truncated = true
				res.Reason = err
				break
			}
			return res, fmt.Errorf("list followers of %s: %w", id, err)
		}
		res.Pages++
		res.Followers += len(page)

		ids := make([]models.AccountID, 0, len(page))
		for _, acct := range page {
			if acct.ID != id {
				ids = append(ids, acct.ID)
			}
		}

		ingested, err := e.ingester.Ingest(ctx, ids)
		res.Ingest.Add(ingested)
		if err != nil {
			if errors.Is(err, ErrBudgetExceeded) {
				res.Truncated = true
				res.Reason = err
				break
			}
			return res, fmt.Errorf("ingest followers of %s: %w", id, err)
		}
	}

	res.Locals = res.Ingest.Locals
	e.state.Relationships.Append(id, res.Locals...)
	return res, nil
}
