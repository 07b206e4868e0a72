// Package processor defines the InputProcessor contract external
// collaborators implement, and the identity scheme the engine uses to
// key both the per-session guard and the throttler.
package processor

import (
	"context"
	"reflect"

	"github.com/IshaanNene/polycrawl/internal/model"
)

// InputProcessor is the narrow interface every concrete data-source
// adapter implements (web page fetch, API query, filesystem read, media
// download, ...). The engine knows nothing about what a processor
// actually does.
type InputProcessor interface {
	// Source returns this processor's stable identity metadata. ID
	// should be unique per processor instance.
	Source() model.Source

	// CanProcess reports whether this processor can handle input. It may
	// perform I/O and may take long, but must never panic — a panic is
	// treated as false and logged.
	CanProcess(ctx context.Context, input model.CrawlingInput, view model.ContextView) bool

	// Process runs the processor against input. A returned error is a
	// Failure outcome: logged, no output emitted, session continues.
	Process(ctx context.Context, input model.CrawlingInput, view model.ContextView) (model.Output, error)
}

// Identity returns the processor-identity string the engine uses as the
// guard and throttler key: the concrete implementation type.
func Identity(p InputProcessor) string {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
