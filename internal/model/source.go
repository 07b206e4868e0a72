// Package model defines the data model shared by every component of the
// crawling engine: sources, inputs, outputs, the crawling context, and the
// events the engine emits.
package model

// Source identifies the processor (or synthetic root) that produced a
// value. Name is a human label; ID is recommended unique per processor
// instance and is opaque to the engine.
type Source struct {
	Name string
	ID   string
}

// RootSource is the synthetic source attached to seed inputs — nothing
// produced a seed, so it is attributed to the engine itself.
var RootSource = Source{Name: "root", ID: "root"}
