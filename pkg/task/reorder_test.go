package task

import (
	"fmt"
	"testing"
)

func tasksNamed(ids ...string) []Task {
	out := make([]Task, len(ids))
	for i, id := range ids {
		out[i] = Task{ID: id, Title: id, Position: i}
	}
	return out
}

func TestMoveScenarios(t *testing.T) {
	cases := []struct {
		name          string
		moved, target string
		want          []string
	}{
		{"first to last", "A", "C", []string{"B", "C", "A"}},
		{"last to first", "C", "A", []string{"C", "A", "B"}},
		{"adjacent down", "A", "B", []string{"B", "A", "C"}},
		{"adjacent up", "C", "B", []string{"A", "C", "B"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tasksNamed("A", "B", "C")
			got, ok := Move(in, tc.moved, tc.target)
			if !ok {
				t.Fatal("Move reported no change")
			}
			ids := IDs(got)
			if fmt.Sprint(ids) != fmt.Sprint(tc.want) {
				t.Errorf("order = %v, want %v", ids, tc.want)
			}
			for i := range got {
				if got[i].Position != i {
					t.Errorf("%s position = %d, want %d", got[i].ID, got[i].Position, i)
				}
			}
			// input is untouched
			if fmt.Sprint(IDs(in)) != "[A B C]" {
				t.Errorf("input mutated: %v", IDs(in))
			}
		})
	}
}

func TestMoveNoop(t *testing.T) {
	in := tasksNamed("A", "B", "C")
	for _, pair := range [][2]string{{"A", "A"}, {"A", "Z"}, {"Z", "A"}} {
		if got, ok := Move(in, pair[0], pair[1]); ok || got != nil {
			t.Errorf("Move(%s, %s) = %v, %v; want nil, false", pair[0], pair[1], got, ok)
		}
	}
}

// Every i -> j move on a five element list lands the moved task at j,
// shifts the tasks between by one and leaves no duplicate positions.
func TestMoveEveryPair(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E"}
	for i := range ids {
		for j := range ids {
			if i == j {
				continue
			}
			in := tasksNamed(ids...)
			got, ok := Move(in, ids[i], ids[j])
			if !ok {
				t.Fatalf("Move(%d, %d) reported no change", i, j)
			}
			if got[j].ID != ids[i] {
				t.Errorf("Move(%d, %d): index %d holds %s, want %s", i, j, j, got[j].ID, ids[i])
			}

			seen := map[int]bool{}
			for _, tk := range got {
				if seen[tk.Position] {
					t.Errorf("Move(%d, %d): duplicate position %d", i, j, tk.Position)
				}
				seen[tk.Position] = true
			}

			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			for k := range ids {
				if k == j {
					continue
				}
				src := k
				if k >= lo && k <= hi {
					if i < j {
						src = k + 1
					} else {
						src = k - 1
					}
				}
				if got[k].ID != ids[src] {
					t.Errorf("Move(%d, %d): index %d holds %s, want %s", i, j, k, got[k].ID, ids[src])
				}
			}
		}
	}
}

func TestNextPosition(t *testing.T) {
	if got := NextPosition(nil); got != 0 {
		t.Errorf("NextPosition(empty) = %d, want 0", got)
	}
	tasks := []Task{{Position: 0}, {Position: 4}, {Position: 2}}
	if got := NextPosition(tasks); got != 5 {
		t.Errorf("NextPosition = %d, want 5", got)
	}
}
