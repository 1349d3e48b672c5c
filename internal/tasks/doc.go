// Package tasks runs multi-step catalogue operations with real-time progress reporting.
//
// # Core Operations
//
// [CatalogEngine] drives the resource API the way the artist form does:
//
//  1. [CatalogEngine.SaveArtist] : create or update one artist
//     - Updates the artist when the form carries an id, creates it otherwise
//     - Creates each album under the artist
//     - Uploads each album's cover files
//
//  2. [CatalogEngine.Import] : save many artists
//     - Bounded worker pool with a request rate limit
//     - Partial failures are collected, not fatal
//
// [LoadImportFile] reads the TOML catalogue file consumed by Import.
//
// # Progress Reporting
//
// All operations take an optional channel of [ProgressUpdate]. Sends never block:
// a full channel drops the update.
package tasks
