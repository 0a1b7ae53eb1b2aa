// Package match implements track-identity normalization and fuzzy title matching.
//
// [Normalize] turns a raw provider title (e.g. a YouTube video title like
// "Artist - Track (Official Video)") into a [models.TrackQuery] with an
// artist and track guess. [Similarity] scores how close a candidate string
// is to a query string on a 0..1 scale.
//
// Both are deliberately textual heuristics. They cannot reconcile
// translated titles, alternate spellings, or remix suffixes beyond what
// normalization already strips, and a mis-ordered "Track - Artist" title
// produces a wrong artist guess.
package match
