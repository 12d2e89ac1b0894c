package graph

// hopItem is a BFS frontier entry: a node and its distance from the seed.
type hopItem struct {
	id   string
	hops int
}

// hopQueue is a FIFO over a slice with a moving head; Pop is O(1) and the
// backing array is reclaimed once the queue drains.
type hopQueue struct {
	items []hopItem
	head  int
}

func (q *hopQueue) Push(it hopItem) { q.items = append(q.items, it) }

func (q *hopQueue) Len() int { return len(q.items) - q.head }

func (q *hopQueue) Pop() (hopItem, bool) {
	if q.Len() == 0 {
		return hopItem{}, false
	}
	it := q.items[q.head]
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return it, true
}
