// Package pipeline runs one task per location.
//
// A task is a Document passed through a Pipeline of Steps: fetch the
// location, then scan the text and stream every match into the sink
// chain. The Runner reads locations from a Source as it goes and runs
// tasks concurrently with errgroup, up to a configured limit. A failed
// task is logged and counted; it never stops its siblings.
package pipeline
