package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestResolveUploadName(t *testing.T) {
	t.Run("plain filename keeps requested mode", func(t *testing.T) {
		name, scan := resolveUploadName("report.pdf", false)
		assert.Equal(t, "report.pdf", name)
		assert.False(t, scan)

		name, scan = resolveUploadName("report.pdf", true)
		assert.Equal(t, "report.pdf", name)
		assert.True(t, scan)
	})

	t.Run("scan suffix forces scan mode", func(t *testing.T) {
		name, scan := resolveUploadName("deck.pdf.v-scan", false)
		assert.Equal(t, "deck.pdf", name)
		assert.True(t, scan)
	})
}

func TestEngineFlags(t *testing.T) {
	flags := engineFlags()

	find := func(name string) *cli.StringFlag {
		for _, flag := range flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
				return f
			}
		}
		return nil
	}

	t.Run("data-dir has default and alias", func(t *testing.T) {
		f := find("data-dir")
		require.NotNil(t, f)
		assert.Equal(t, "./docsearch-data", f.Value)
		assert.Contains(t, f.Aliases, "d")
	})

	t.Run("ai-host defaults to local service", func(t *testing.T) {
		f := find("ai-host")
		require.NotNil(t, f)
		assert.Equal(t, "http://localhost:11434/v1", f.Value)
	})

	t.Run("ai-token reads environment", func(t *testing.T) {
		f := find("ai-token")
		require.NotNil(t, f)
		assert.Contains(t, f.EnvVars, "DOCSEARCH_AI_TOKEN")
	})
}

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
