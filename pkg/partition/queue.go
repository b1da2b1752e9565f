package partition

import "container/heap"

// candidate is a priority queue entry. Entries are never updated in place:
// when the authoritative value changes, the stale entry is detected on pop
// and replaced.
type candidate struct {
	key    float64
	pin    int
	target int // coarsening only: the pin to contract into pin
}

// maxQueue pops the largest key first, breaking ties by lower pin and then
// lower target index so runs are reproducible.
type maxQueue []candidate

func (q maxQueue) Len() int { return len(q) }
func (q maxQueue) Less(i, j int) bool {
	if q[i].key != q[j].key {
		return q[i].key > q[j].key
	}
	if q[i].pin != q[j].pin {
		return q[i].pin < q[j].pin
	}
	return q[i].target < q[j].target
}
func (q maxQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *maxQueue) Push(x any)   { *q = append(*q, x.(candidate)) }
func (q *maxQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

func (q *maxQueue) push(c candidate) { heap.Push(q, c) }
func (q *maxQueue) pop() candidate   { return heap.Pop(q).(candidate) }
func (q *maxQueue) reset()           { *q = (*q)[:0] }
