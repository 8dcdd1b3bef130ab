package task

// IndexOf returns the index of the task with the given id, or -1.
func IndexOf(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the task ids in list order.
func IDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return ids
}

// Move relocates movedID to the index currently held by targetID using
// splice semantics: remove from the source index, insert at the target
// index, shifting everything in between by one. Positions of the result are
// renumbered 0..n-1. The input slice is not modified.
//
// It reports false, and returns nil, when the ids are equal or either is
// not in the list.
func Move(tasks []Task, movedID, targetID string) ([]Task, bool) {
	if movedID == targetID {
		return nil, false
	}
	from := IndexOf(tasks, movedID)
	to := IndexOf(tasks, targetID)
	if from < 0 || to < 0 {
		return nil, false
	}

	out := make([]Task, 0, len(tasks))
	out = append(out, tasks[:from]...)
	out = append(out, tasks[from+1:]...)
	out = append(out[:to], append([]Task{tasks[from]}, out[to:]...)...)

	Renumber(out)
	return out, true
}

// Renumber sets each task's position to its index.
func Renumber(tasks []Task) {
	for i := range tasks {
		tasks[i].Position = i
	}
}

// NextPosition is one past the highest position in the list, or 0 when empty.
func NextPosition(tasks []Task) int {
	max := -1
	for i := range tasks {
		if tasks[i].Position > max {
			max = tasks[i].Position
		}
	}
	return max + 1
}
