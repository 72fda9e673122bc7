package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/glyphtype/internal/config"
	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/store"
)

var (
	exportFormat string
	exportLang   string
	exportSince  string
	exportLast   int
	exportOutput string
)

type exportMistake struct {
	Position    int    `json:"position" yaml:"position"`
	Expected    string `json:"expected" yaml:"expected"`
	Actual      string `json:"actual" yaml:"actual"`
	TimestampMs int64  `json:"timestamp_ms" yaml:"timestamp_ms"`
}

type exportChar struct {
	Char         string  `json:"char" yaml:"char"`
	Correct      int     `json:"correct" yaml:"correct"`
	Incorrect    int     `json:"incorrect" yaml:"incorrect"`
	AvgLatencyMs float64 `json:"avg_latency_ms,omitempty" yaml:"avg_latency_ms,omitempty"`
}

type exportRecord struct {
	ID                int64           `json:"id" yaml:"id"`
	SessionID         string          `json:"session_id" yaml:"session_id"`
	User              string          `json:"user,omitempty" yaml:"user,omitempty"`
	Language          string          `json:"language" yaml:"language"`
	Mode              string          `json:"mode" yaml:"mode"`
	Difficulty        string          `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	TextType          string          `json:"text_type,omitempty" yaml:"text_type,omitempty"`
	StartedAt         time.Time       `json:"started_at" yaml:"started_at"`
	EndedAt           time.Time       `json:"ended_at" yaml:"ended_at"`
	WPM               float64         `json:"wpm" yaml:"wpm"`
	Accuracy          float64         `json:"accuracy" yaml:"accuracy"`
	Consistency       float64         `json:"consistency" yaml:"consistency"`
	CorrectWords      int             `json:"correct_words" yaml:"correct_words"`
	IncorrectWords    int             `json:"incorrect_words" yaml:"incorrect_words"`
	TotalWords        int             `json:"total_words" yaml:"total_words"`
	DurationSeconds   float64         `json:"duration_seconds" yaml:"duration_seconds"`
	CharactersTyped   int             `json:"characters_typed" yaml:"characters_typed"`
	Errors            int             `json:"errors" yaml:"errors"`
	FingerUtilization map[string]int  `json:"finger_utilization" yaml:"finger_utilization"`
	WPMSamples        []float64       `json:"wpm_samples" yaml:"wpm_samples,flow"`
	Mistakes          []exportMistake `json:"mistakes" yaml:"mistakes"`
	Chars             []exportChar    `json:"chars" yaml:"chars"`
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored results as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, yaml)")
	cmd.Flags().StringVar(&exportLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&exportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&exportLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	if exportFormat != "json" && exportFormat != "yaml" {
		return fmt.Errorf("--format must be json or yaml, got %q", exportFormat)
	}
	since, err := parseSince(exportSince)
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	sessions, err := st.ListSessions(ctx, model.StatsConfig{Lang: exportLang, Since: since, Last: exportLast})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	stored, err := st.LoadResults(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close output: %v\n", cerr)
			}
		}()
		out = f
	}
	if err := writeExport(out, exportFormat, toExportRecords(stored)); err != nil {
		return err
	}
	if exportOutput != "" {
		logErrf("Exported %d results to %s\n", len(stored), exportOutput)
	}
	return nil
}

func toExportRecords(stored []model.StoredResult) []exportRecord {
	records := make([]exportRecord, 0, len(stored))
	for _, s := range stored {
		r := s.Results
		rec := exportRecord{
			ID:                s.ID,
			SessionID:         r.SessionID,
			User:              s.Context.UserID,
			Language:          r.Language,
			Mode:              string(r.Mode),
			Difficulty:        string(s.Context.Difficulty),
			TextType:          string(s.Context.TextType),
			StartedAt:         r.StartedAt.UTC(),
			EndedAt:           r.EndedAt.UTC(),
			WPM:               r.WPM,
			Accuracy:          r.Accuracy,
			Consistency:       r.Consistency,
			CorrectWords:      r.CorrectWords,
			IncorrectWords:    r.IncorrectWords,
			TotalWords:        r.TotalWords,
			DurationSeconds:   r.DurationSeconds,
			CharactersTyped:   r.CharactersTyped,
			Errors:            r.Errors,
			FingerUtilization: r.FingerUtilization,
			WPMSamples:        r.WPMSamples,
			Mistakes:          make([]exportMistake, 0, len(r.Mistakes)),
			Chars:             make([]exportChar, 0, len(r.CharStats)),
		}
		if rec.WPMSamples == nil {
			rec.WPMSamples = []float64{}
		}
		for _, m := range r.Mistakes {
			rec.Mistakes = append(rec.Mistakes, exportMistake{
				Position:    m.Position,
				Expected:    m.Expected,
				Actual:      m.Actual,
				TimestampMs: m.Timestamp,
			})
		}
		for _, c := range r.CharStats {
			ch := exportChar{Char: c.Char, Correct: c.Correct, Incorrect: c.Incorrect}
			if c.LatencyCount > 0 {
				ch.AvgLatencyMs = float64(c.LatencySumMs) / float64(c.LatencyCount)
			}
			rec.Chars = append(rec.Chars, ch)
		}
		records = append(records, rec)
	}
	return records
}

func writeExport(w io.Writer, format string, records []exportRecord) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush yaml: %w", err)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	}
	return nil
}
