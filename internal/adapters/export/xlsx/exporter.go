// Package xlsx writes a finished extraction result as an Excel workbook with
// one sheet of themes and one sheet of run statistics.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

const (
	themesSheet = "Themes"
	statsSheet  = "Stats"
)

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Write(w io.Writer, result *domain.ExtractionResult) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), themesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeThemes(f, result.Themes); err != nil {
		return err
	}

	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("create stats sheet: %w", err)
	}
	if err := writeStats(f, result.Stats); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeThemes(f *excelize.File, themes []domain.UnifiedTheme) error {
	header := []any{"ID", "Label", "Keywords", "Description", "Sources", "Weight", "Validation Score"}
	if err := f.SetSheetRow(themesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write themes header: %w", err)
	}

	for i, theme := range themes {
		row := []any{
			theme.ID,
			theme.Label,
			strings.Join(theme.Keywords, ", "),
			theme.Description,
			strings.Join(theme.SourceIDs, ", "),
			theme.Weight,
			theme.ValidationScore,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(themesSheet, cell, &row); err != nil {
			return fmt.Errorf("write theme row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeStats(f *excelize.File, stats domain.BatchExtractionStats) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Sources total", stats.SourcesTotal},
		{"Sources processed", stats.SourcesProcessed},
		{"Sources failed", stats.SourcesFailed},
		{"Words read", stats.WordsRead},
		{"Codes generated", stats.CodesGenerated},
		{"Codes embedded", stats.CodesEmbedded},
		{"Codes skipped", stats.CodesSkipped},
		{"Candidate themes", stats.ThemesCandidate},
		{"Accepted themes", stats.ThemesAccepted},
		{"Rejected themes", stats.ThemesRejected},
		{"Merged themes", stats.ThemesMerged},
		{"Cache hit rate", stats.CacheHitRate()},
		{"Batches", stats.Batches},
		{"Batch concurrency", stats.BatchConcurrency},
		{"Elapsed seconds", stats.Elapsed.Seconds()},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(statsSheet, cell, &row); err != nil {
			return fmt.Errorf("write stats row %d: %w", i+1, err)
		}
	}

	for i, failure := range stats.Failures {
		row := []any{"Failure", fmt.Sprintf("%s (%s): %s", failure.SourceID, failure.Stage, failure.Error)}
		cell := fmt.Sprintf("A%d", len(rows)+i+1)
		if err := f.SetSheetRow(statsSheet, cell, &row); err != nil {
			return fmt.Errorf("write failure row %d: %w", i+1, err)
		}
	}
	return nil
}
