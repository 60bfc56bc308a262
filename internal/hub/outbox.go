package hub

import "sync"

// outbox holds the frames a subscriber has not written yet. At most one UPDATE
// is pending: a newer tick replaces an unsent one instead of queueing behind it.
// A queued alert is always preceded by an UPDATE.
type outbox struct {
	mu      sync.Mutex
	frames  [][]byte
	update  int
	limit   int
	dropped uint64
	wake    chan struct{}
}

func newOutbox(limit int) *outbox {
	if limit < 2 {
		limit = 2
	}
	return &outbox{
		update: -1,
		limit:  limit,
		wake:   make(chan struct{}, 1),
	}
}

func (o *outbox) pushTick(update []byte, alerts [][]byte) {
	o.mu.Lock()
	if o.update >= 0 {
		// the unsent update is overwritten in place, so alerts still queued
		// behind it keep following a full state
		o.frames[o.update] = update
		o.dropped++
	} else {
		o.update = len(o.frames)
		o.frames = append(o.frames, update)
	}
	o.frames = append(o.frames, alerts...)
	o.trim()
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) push(frame []byte) {
	o.mu.Lock()
	o.frames = append(o.frames, frame)
	o.trim()
	o.mu.Unlock()
	o.signal()
}

// trim drops the oldest non-update frames beyond the limit.
func (o *outbox) trim() {
	for len(o.frames) > o.limit {
		drop := 0
		if drop == o.update {
			drop = 1
		}
		o.frames = append(o.frames[:drop], o.frames[drop+1:]...)
		if o.update > drop {
			o.update--
		}
		o.dropped++
	}
}

func (o *outbox) drain() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	frames := o.frames
	o.frames = nil
	o.update = -1
	return frames
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) droppedCount() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}
