// Package report summarises a crawl state as Markdown.
package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/gnomegl/iceslurp/internal/graph"
	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

// TopAccounts is the length of the most followed table.
const TopAccounts = 20

type ranked struct {
	id        models.AccountID
	followers int
}

// WriteMarkdown writes crawl counts, the most followed local accounts and,
// when g is not nil, the size of the drawn graph.
func WriteMarkdown(w io.Writer, state *store.State, g *graph.Graph) error {
	md := markdown.NewMarkdown(w)

	writeSummary(md, state)
	writeTopAccounts(md, state)
	if g != nil {
		writeGraph(md, g)
	}
	writeConflicts(md, state)

	return md.Build()
}

func writeSummary(md *markdown.Markdown, state *store.State) {
	locals := state.Relationships.Len()
	unexpanded := len(state.Relationships.Unexpanded())

	md.H1("Iceland Social Graph")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Local accounts", strconv.Itoa(locals)},
			{"Expanded", strconv.Itoa(locals - unexpanded)},
			{"Unexpanded", strconv.Itoa(unexpanded)},
			{"Foreign accounts", strconv.Itoa(state.Foreigners.Len())},
			{"Known handles", strconv.Itoa(state.Identities.Len())},
			{"Follower edges", strconv.Itoa(state.Relationships.EdgeCount())},
		},
	})
	md.PlainText("")

	if locals+state.Foreigners.Len() == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Classified accounts"),
		piechart.WithShowData(true),
	)
	if n := locals - unexpanded; n > 0 {
		chart.LabelAndIntValue("Expanded", uint64(n))
	}
	if unexpanded > 0 {
		chart.LabelAndIntValue("Unexpanded", uint64(unexpanded))
	}
	if n := state.Foreigners.Len(); n > 0 {
		chart.LabelAndIntValue("Foreign", uint64(n))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeTopAccounts(md *markdown.Markdown, state *store.State) {
	md.H2("Most Followed")
	md.PlainText("")

	accounts := make([]ranked, 0, state.Relationships.Len())
	for _, id := range state.Relationships.IDs() {
		if n := len(state.Relationships.Followers(id)); n > 0 {
			accounts = append(accounts, ranked{id: id, followers: n})
		}
	}
	if len(accounts) == 0 {
		md.PlainText("No follower lists recorded yet.")
		md.PlainText("")
		return
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].followers > accounts[j].followers
	})
	if len(accounts) > TopAccounts {
		accounts = accounts[:TopAccounts]
	}

	rows := make([][]string, len(accounts))
	for i, a := range accounts {
		handle, ok := state.Identities.Handle(a.id)
		if !ok {
			handle = "-"
		}
		rows[i] = []string{strconv.Itoa(i + 1), handle, "`" + a.id.String() + "`", strconv.Itoa(a.followers)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Handle", "ID", "Local followers"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeGraph(md *markdown.Markdown, g *graph.Graph) {
	md.H2("Drawn Graph")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Nodes", strconv.Itoa(g.NodeCount())},
			{"Edges", strconv.Itoa(g.EdgeCount())},
		},
	})
	md.PlainText("")
}

func writeConflicts(md *markdown.Markdown, state *store.State) {
	conflicts := state.Conflicts()
	if len(conflicts) == 0 {
		return
	}
	ids := make([]string, len(conflicts))
	for i, id := range conflicts {
		ids[i] = id.String()
	}
	md.Warningf("%d account(s) are recorded as both local and foreign.", len(conflicts))
	md.PlainText("")
	md.BulletList(ids...)
}
