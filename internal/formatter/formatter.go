// package formatter renders sync reports and playlist exports to CSV, Markdown, and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

// ReportToCSV converts a SyncReport to CSV with columns: Status, Track ID, Name, Artist, Similarity
func ReportToCSV(report *models.SyncReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "Track ID", "Name", "Artist", "Similarity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range report.Matched {
		record := []string{
			"matched",
			m.ProviderTrackID,
			m.Name,
			m.Artist,
			strconv.FormatFloat(m.Similarity, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, entry := range report.Unmatched {
		if err := writer.Write([]string{"unmatched", "", entry, "", ""}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a SyncReport to Markdown with matched and unmatched sections
func ReportToMarkdown(report *models.SyncReport, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Sync Report"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Matched**: %d\n", len(report.Matched)))
	buf.WriteString(fmt.Sprintf("**Unmatched**: %d\n\n", len(report.Unmatched)))

	if len(report.Matched) > 0 {
		buf.WriteString("## Matched\n\n")
		for i, m := range report.Matched {
			artistPart := ""
			if m.Artist != "" {
				artistPart = fmt.Sprintf("%s - ", m.Artist)
			}
			buf.WriteString(fmt.Sprintf("%d. %s%s (%.2f)\n", i+1, artistPart, m.Name, m.Similarity))
		}
		buf.WriteString("\n")
	}

	if len(report.Unmatched) > 0 {
		buf.WriteString("## Unmatched\n\n")
		for i, entry := range report.Unmatched {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry))
		}
	}

	return buf.Bytes(), nil
}

// ReportToText converts a SyncReport to plain text
func ReportToText(report *models.SyncReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Matched: %d\n", len(report.Matched)))
	buf.WriteString(fmt.Sprintf("Unmatched: %d\n\n", len(report.Unmatched)))

	for i, m := range report.Matched {
		artistPart := ""
		if m.Artist != "" {
			artistPart = fmt.Sprintf("%s - ", m.Artist)
		}
		buf.WriteString(fmt.Sprintf("✓ %d. %s%s\n", i+1, artistPart, m.Name))
	}

	for i, entry := range report.Unmatched {
		buf.WriteString(fmt.Sprintf("✗ %d. %s\n", i+1, entry))
	}

	return buf.Bytes(), nil
}

// ReportToJSON generates a JSON representation of a SyncReport
func ReportToJSON(report *models.SyncReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// PlaylistToCSV converts playlist entries to CSV with columns: Track ID, Title, Artist
func PlaylistToCSV(entries []models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Track ID", "Title", "Artist"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		if err := writer.Write([]string{entry.ProviderTrackID, entry.Title, entry.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistToMarkdown converts a playlist and its entries to Markdown
func PlaylistToMarkdown(playlist *models.Playlist, entries []models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Name))

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(entries)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(playlist.Public)))

	buf.WriteString("## Tracks\n\n")
	for i, entry := range entries {
		if entry.Artist != "" {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, entry.Artist, entry.Title))
		} else {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry.Title))
		}
	}

	return buf.Bytes(), nil
}

// PlaylistToText converts a playlist and its entries to plain text
func PlaylistToText(playlist *models.Playlist, entries []models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(entries)))

	for i, entry := range entries {
		if entry.Artist != "" {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, entry.Artist, entry.Title))
		} else {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry.Title))
		}
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without entries)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport writes a playlist to {base}_tracks.csv and {base}_metadata.json.
//
// Defaults to the playlist ID as the base filename.
func WriteCSVExport(playlist *models.Playlist, entries []models.PlaylistEntry, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = playlist.ID
	}

	csvData, err := PlaylistToCSV(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(*playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteReport writes a SyncReport in the requested format ("csv", "markdown",
// "json", or "text"). Defaults to sync_report.{ext} when no path is given.
func WriteReport(report *models.SyncReport, format, filepath string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "csv":
		data, err = ReportToCSV(report)
		ext = "csv"
	case "markdown", "md":
		data, err = ReportToMarkdown(report, "")
		ext = "md"
	case "json":
		data, err = ReportToJSON(report)
		ext = "json"
	case "text", "":
		data, err = ReportToText(report)
		ext = "txt"
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if filepath == "" {
		filepath = "sync_report." + ext
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filepath, nil
}
