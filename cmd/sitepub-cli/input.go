package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sitepub/internal/adapters/agentcmd"
	"sitepub/internal/adapters/downloader"
	"sitepub/internal/config"
	"sitepub/internal/core/ports"
)

// inputFlags selects where raw renderer output comes from.
type inputFlags struct {
	file    string
	url     string
	command string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read renderer output from a file (- for stdin)")
	cmd.Flags().StringVar(&f.url, "url", "", "fetch renderer output over HTTP(S)")
	cmd.Flags().StringVar(&f.command, "exec", "", "run a renderer command and read its stdout")
}

// read returns the raw renderer output. Exactly one source must be set.
func (f *inputFlags) read(ctx context.Context, stdin io.Reader, sc config.SourceConfig) (string, error) {
	set := 0
	for _, s := range []string{f.file, f.url, f.command} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return "", errors.New("exactly one of --file, --url or --exec is required")
	}

	var (
		src      ports.Source
		location string
	)
	switch {
	case f.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	case f.file != "":
		b, err := os.ReadFile(f.file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(b), nil
	case f.url != "":
		src, location = downloader.NewHTTPDownloader(sc.HTTPTimeout), f.url
	default:
		src, location = agentcmd.NewRunner(sc.CommandTimeout), f.command
	}

	rc, err := src.Open(ctx, location)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read renderer output: %w", err)
	}
	return string(b), nil
}
