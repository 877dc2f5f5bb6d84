package art

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// PrintLogo writes the program banner. It goes to stderr in practice so it
// never mixes with rendered output on stdout.
func PrintLogo(w io.Writer, name, version string) {
	banner := figure.NewFigure(name, "chunky", false)
	fmt.Fprintf(w, "\033[36m%s\033[0m", banner.String())
	fmt.Fprintf(w, "              \033[91mv%s by gnomegl\033[0m\n\n", version)
}
