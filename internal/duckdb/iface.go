package duckdb

import "github.com/tinytelemetry/prognosticator/internal/model"

// Compile-time check that Store satisfies the history contract used by the
// terminal and web front-ends.
var _ model.HistoryStore = (*Store)(nil)
