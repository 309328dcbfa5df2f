// Package services holds the application logic behind the HTTP handlers and
// the CLI.
//
// DatasetService owns the dataset lifecycle: it loads bundled sources or
// uploaded files into a datasets.Store, and runs the survey pipeline over a
// stored dataset:
//
//	select columns -> query conditions -> drop missing -> validate -> ISO coordinates
//
// Pipeline results are memoized per dataset and ProcessOptions in a bounded
// LRU cache, and concurrent identical runs share one computation through
// singleflight. Reports, exports, location counts, map points and plot data
// are all derived from the processed table.
//
// HealthService reports liveness, readiness of the store and data directory,
// and build information.
package services
