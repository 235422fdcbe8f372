// Package workload provides the simulated work units run by the demos: an
// I/O-bound unit that suspends through the task.Waiter and CPU-bound units
// that compute without ever suspending. Every unit fails deterministically
// for the task numbers selected by its failure predicate and otherwise
// returns task_num + 100.
//
// Units built only from serialisable parameters can describe themselves as a
// Spec, which lets a worker process rebuild an identical unit on its side of
// the process boundary.
package workload
