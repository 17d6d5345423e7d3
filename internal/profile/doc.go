// Package profile holds the rule engine that authorizes gestures.
//
// A profile document maps gesture names and voice triggers to action
// descriptors, with per-rule thresholds and cooldowns. The Runtime
// loads a validated document, keeps secondary indices by hand and by
// type, and answers authorization queries from the dispatch pipeline.
// Reloading swaps the rule set atomically so concurrent readers never
// see a half-built index.
package profile
