package match

import (
	"regexp"
	"strings"

	"github.com/tunemerge/tunemerge/internal/models"
)

// Decorative annotations stripped from raw titles before splitting.
// Matches bracketed or parenthesized video markers like "(Official Video)",
// "[Lyric Video]", "(Official Music Video)", "(Audio)".
var titleCleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\(official\s+(music\s+)?video\)`),
	regexp.MustCompile(`(?i)\s*\(official\s+audio\)`),
	regexp.MustCompile(`(?i)\s*\(official\s+lyric\s+video\)`),
	regexp.MustCompile(`(?i)\s*\(lyric\s+video\)`),
	regexp.MustCompile(`(?i)\s*\(lyrics?\)`),
	regexp.MustCompile(`(?i)\s*\(music\s+video\)`),
	regexp.MustCompile(`(?i)\s*\(audio\)`),

	regexp.MustCompile(`(?i)\s*\[official\s+(music\s+)?video\]`),
	regexp.MustCompile(`(?i)\s*\[official\s+audio\]`),
	regexp.MustCompile(`(?i)\s*\[official\s+lyric\s+video\]`),
	regexp.MustCompile(`(?i)\s*\[lyric\s+video\]`),
	regexp.MustCompile(`(?i)\s*\[lyrics?\]`),
	regexp.MustCompile(`(?i)\s*\[music\s+video\]`),
	regexp.MustCompile(`(?i)\s*\[audio\]`),
}

// Separator candidates; the earliest occurrence in the cleaned title
// splits artist from track. The en-dash counts with or without spaces.
var querySeparators = []string{" - ", "–", ":", "|"}

// Normalize strips decorative annotations from a raw title and splits it
// into an (artist, track) guess.
//
// The split follows the common "Artist - Track" convention: text before the
// first separator becomes the artist guess, text after it the track guess.
// Titles without a separator become a track-only query. Mis-ordered titles
// ("Track - Artist") yield a wrong artist guess; no correction pass exists.
func Normalize(rawTitle string) models.TrackQuery {
	cleaned := rawTitle
	for _, p := range titleCleanupPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	query := models.TrackQuery{Raw: rawTitle}

	bestIdx := -1
	bestLen := 0
	for _, sep := range querySeparators {
		if idx := strings.Index(cleaned, sep); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			bestIdx = idx
			bestLen = len(sep)
		}
	}
	if bestIdx >= 0 {
		query.Artist = strings.TrimSpace(cleaned[:bestIdx])
		query.Track = strings.TrimSpace(cleaned[bestIdx+bestLen:])
		return query
	}

	query.Track = cleaned
	return query
}
