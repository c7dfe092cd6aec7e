// Package replication copies every record of a source store into a
// destination store and summarises the run as a Result.
//
// A run scans the source page by page until the page token is exhausted and
// writes each record to the destination unchanged, so ids are preserved and
// re-running is idempotent. A failing write is counted and logged and the
// run continues; a failing scan ends the run as Failed.
package replication
