package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

func newIngestCommand() *cobra.Command {
	var (
		file   string
		source string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Resolve a batch file of scraped listings and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := readBatch(file)
			if err != nil {
				return err
			}
			if source != "" {
				batch.Source = source
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.processor.Process(cmd.Context(), batch)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "batch file (.json, .yaml or .yml); - reads JSON from stdin")
	cmd.Flags().StringVar(&source, "source", "", "overrides the batch source")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readBatch decodes a listing batch, choosing the format by file extension.
func readBatch(path string) (*models.ListingBatch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch models.ListingBatch
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &batch)
	default:
		err = json.Unmarshal(data, &batch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode batch file %s: %w", path, err)
	}
	return &batch, nil
}
