package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestNewAppRunsAction(t *testing.T) {
	var (
		ran     bool
		verbose bool
		budget  time.Duration
	)
	app := NewApp(func(c *cli.Context) error {
		ran = true
		verbose = c.Bool("verbose")
		budget = c.Duration("budget")
		return nil
	})

	require.NotPanics(t, func() {
		require.NoError(t, app.Run([]string{"iceslurp", "--verbose", "--budget", "0s"}))
	})
	assert.True(t, ran)
	assert.True(t, verbose)
	assert.Zero(t, budget)
}

func TestNewAppVersionFlag(t *testing.T) {
	ran := false
	app := NewApp(func(*cli.Context) error {
		ran = true
		return nil
	})

	require.NotPanics(t, func() {
		require.NoError(t, app.Run([]string{"iceslurp", "-v"}))
	})
	assert.False(t, ran, "-v prints the version instead of crawling")
}

func TestNewPlotAppRunsSubcommand(t *testing.T) {
	var verbose bool
	app := NewPlotApp(&cli.Command{
		Name: "draw",
		Action: func(c *cli.Context) error {
			verbose = c.Bool("verbose")
			return nil
		},
	})

	require.NotPanics(t, func() {
		require.NoError(t, app.Run([]string{"iceplot", "--verbose", "draw"}))
	})
	assert.True(t, verbose)
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "1.4.0", normalizeVersion("v1.4.0"))
	assert.Equal(t, UnknownVersion, normalizeVersion("(devel)"))
	assert.Equal(t, UnknownVersion, normalizeVersion(""))
}
