// Package orchestration is the generic harness around a strategy: it runs a
// batch, forwards every outcome to the presentation layer in completion
// order, and condenses the run into a RunSummary. It decouples execution
// from display via the CompletionReporter, ProgressReporter and
// ResultPresenter interfaces.
package orchestration
