package graph

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultOutput is where Render writes when no path is given.
const DefaultOutput = "pics/g1.svg"

var ErrDotNotFound = errors.New("graphviz dot binary not found in PATH")

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// WriteDOT writes g as a Graphviz digraph. Nodes are keyed by account id and
// labelled with the handle.
func WriteDOT(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph iceland {")
	for _, n := range g.Nodes {
		fmt.Fprintf(bw, "\t%s [label=%s];\n", dotQuote(n.ID.String()), dotQuote(n.Handle))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(bw, "\t%s -> %s", dotQuote(e.Source.String()), dotQuote(e.Target.String()))
		if e.Weight > 1 {
			fmt.Fprintf(bw, " [weight=%d]", e.Weight)
		}
		fmt.Fprintln(bw, ";")
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// Render pipes g through dot into path. The output format follows the file
// extension (svg, png, pdf, ...) and defaults to svg.
func Render(ctx context.Context, g *Graph, path string) error {
	if path == "" {
		path = DefaultOutput
	}
	bin, err := exec.LookPath("dot")
	if err != nil {
		return ErrDotNotFound
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "svg"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var src bytes.Buffer
	if err := WriteDOT(&src, g); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-T"+format, "-o", path)
	cmd.Stdin = &src
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dot failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
