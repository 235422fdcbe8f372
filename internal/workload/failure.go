package workload

import "slices"

// FailurePredicate decides whether the work for taskNum must fail.
type FailurePredicate func(taskNum int) bool

// FailSet is a serialisable failure predicate: the work fails for exactly the
// task numbers it contains.
type FailSet []int

// DefaultFailOn is the task number that fails in the reference demos.
const DefaultFailOn = 2

// FailOn returns a FailSet for the given task numbers.
func FailOn(nums ...int) FailSet { return FailSet(nums) }

// Contains reports whether taskNum is in the set.
func (s FailSet) Contains(taskNum int) bool { return slices.Contains(s, taskNum) }

// decide applies the override predicate when present, else the set.
func decide(override FailurePredicate, set FailSet, taskNum int) bool {
	if override != nil {
		return override(taskNum)
	}
	return set.Contains(taskNum)
}
