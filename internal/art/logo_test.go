package art

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintLogo(t *testing.T) {
	var buf bytes.Buffer
	PrintLogo(&buf, "iceslurp", "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3 by gnomegl")
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("\n")), 3)
}
