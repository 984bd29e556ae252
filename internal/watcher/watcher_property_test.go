//go:build property

package watcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates the grouping performed by the debouncer
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("one flush holds each path once, sorted", prop.ForAll(
		func(ids []int) bool {
			if len(ids) == 0 {
				return true
			}

			d := NewDebouncer(time.Hour)
			distinct := make(map[string]bool)
			for _, id := range ids {
				path := fmt.Sprintf("file_%02d.csv", id)
				distinct[path] = true
				d.addEvent(ChangeEvent{Type: EventTypeModified, Path: path})
			}
			d.stop()
			d.flush()

			events := <-d.output
			if len(events) != len(distinct) {
				return false
			}
			for i := 1; i < len(events); i++ {
				if events[i-1].Path >= events[i].Path {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.TestingRun(t)
}
