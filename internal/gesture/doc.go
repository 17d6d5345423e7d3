// Package gesture defines the data model shared by the detection, routing,
// and dispatch layers: raw detection events, interpreted gestures, and the
// action descriptors handed to executors.
//
// A Gesture is a common envelope (name, type, confidence, timestamp) plus
// explicitly declared optional payloads that later pipeline stages fill in:
// motion deltas, spoken text, fusion sources, sequence provenance, and
// continuous-tracking annotations. Stages mutate a gesture in place while it
// is owned by the pipeline; once converted to an Action it is immutable.
package gesture
