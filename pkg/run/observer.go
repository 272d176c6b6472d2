// pkg/run/observer.go
package run

// Observer receives synchronous progress callbacks at defined checkpoints.
// Implementations belong to the presentation layer; the pipeline blocks only
// for the duration of the call itself, so observers must not do slow work
// inline.
type Observer interface {
	// Phase is invoked when the run enters a named phase: read, stage,
	// load, promote, done
	Phase(name string)
	// Progress is invoked periodically while reading, with the number of
	// data rows read so far
	Progress(rowsRead int)
}

// NopObserver ignores all checkpoints
type NopObserver struct{}

// Phase does nothing
func (NopObserver) Phase(string) {}

// Progress does nothing
func (NopObserver) Progress(int) {}
