// Package tasks orchestrates playlist synchronization between music providers
// with real-time progress reporting.
//
// # Core Operation
//
// The [SyncEngine] interface defines the pipeline:
//
//  1. [SyncEngine.SyncPlaylist] : Full source → target playlist sync
//     - Resolves valid credentials for both providers up front
//     - Lists the source playlist entries in playlist order
//     - Searches each entry on the target (normalized query for free-text
//       titles, direct metadata query otherwise) and scores the top result
//     - Creates the target playlist and adds accepted tracks in order
//     - Returns a [models.SyncReport] of matched and unmatched entries
//
//  2. [SyncEngine.Compare] : Diff two playlists across providers
//     - Lists both playlists and matches entries by normalized title/artist key
//     - Reports matched count, missing entries, and extra entries
//
// # Progress Reporting
//
// All operations emit [ProgressUpdate] values through an optional channel.
// Updates use select with default so a slow or absent consumer never blocks
// the pipeline.
//
// # Failure Policy
//
// A failed search marks the entry unmatched with an error annotation and
// the run continues. A failed playlist creation or track insertion aborts
// the run with [shared.ErrExportFailed]; mutating calls are never retried.
package tasks
