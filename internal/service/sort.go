package service

import "cmp"

// priorityRank orders high before medium before low; unknown values last.
func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// CompareTasks orders incomplete tasks before completed ones, then by
// priority (high, medium, low).
func CompareTasks(a, b Task) int {
	if ac, bc := a.Completed(), b.Completed(); ac != bc {
		if ac {
			return 1
		}
		return -1
	}
	return cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority))
}
