// package tasks implements the long-running playlist operations: import,
// re-sync, track reconciliation, metadata enrichment, and scoring.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers. Enrichment runs on an explicit bounded queue
// with worker goroutines; its failures never affect import results.
package tasks
