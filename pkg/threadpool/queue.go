package threadpool

// arenaShrinkThreshold is the slot count above which an emptied queue drops
// its arena instead of keeping it for reuse.
const arenaShrinkThreshold = 4096

// node is one arena slot. Slot 0 is the list root.
type node struct {
	job  *Job
	prev int32
	next int32
}

// queue is a FIFO of jobs stored in an arena and addressed by stable handles.
// A job records its own handle, which gives O(1) removal from any position
// without the queue holding links inside caller memory. Handle 0 is the root,
// so a zero handle means "not queued".
//
// queue is not safe for concurrent use; the engine guards it with its mutex.
type queue struct {
	nodes []node
	free  []int32
	n     int
}

// init empties the queue and leaves the root self-linked.
func (q *queue) init() {
	q.nodes = append(q.nodes[:0], node{})
	q.free = q.free[:0]
	q.n = 0
}

func (q *queue) empty() bool {
	return q.nodes[0].next == 0
}

func (q *queue) len() int {
	return q.n
}

// pushBack links j at the tail and returns its handle.
func (q *queue) pushBack(j *Job) int32 {
	var h int32
	if n := len(q.free); n > 0 {
		h = q.free[n-1]
		q.free = q.free[:n-1]
	} else {
		h = int32(len(q.nodes))
		q.nodes = append(q.nodes, node{})
	}

	tail := q.nodes[0].prev
	q.nodes[h] = node{job: j, prev: tail, next: 0}
	q.nodes[tail].next = h
	q.nodes[0].prev = h
	q.n++
	return h
}

// front returns the job at the head and its handle, or nil, 0 when empty.
func (q *queue) front() (*Job, int32) {
	h := q.nodes[0].next
	if h == 0 {
		return nil, 0
	}
	return q.nodes[h].job, h
}

// remove unlinks the slot h and returns the job it held. Neighbors are
// rewired so the list stays consistent.
func (q *queue) remove(h int32) *Job {
	nd := q.nodes[h]
	q.nodes[nd.prev].next = nd.next
	q.nodes[nd.next].prev = nd.prev
	q.nodes[h] = node{}
	q.free = append(q.free, h)
	q.n--

	if q.n == 0 && len(q.nodes) > arenaShrinkThreshold {
		q.nodes = nil
		q.free = nil
		q.init()
	}
	return nd.job
}
