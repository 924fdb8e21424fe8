package writer

import "sync"

// scratchPool hands out reusable []byte scratch buffers sized to the
// largest record kind, avoiding a heap allocation per emitted event.
// Grounded on the teacher's internal/queue/pool.go *[]byte-pointer
// pattern, which avoids boxing a slice header into the sync.Pool's
// interface{} on every Get/Put.
type scratchPool struct {
	once sync.Once
	pool sync.Pool
}

const maxRecordSize = 24 // rounds sizeDurationColored (22) up to a tidy bound

func (p *scratchPool) init() {
	p.pool.New = func() any {
		b := make([]byte, maxRecordSize)
		return &b
	}
}

func (p *scratchPool) get(n int) []byte {
	p.once.Do(p.init)
	bp := p.pool.Get().(*[]byte)
	b := *bp
	if cap(b) < n {
		b = make([]byte, n)
	}
	return b[:n]
}

func (p *scratchPool) put(b []byte) {
	b = b[:cap(b)]
	p.pool.Put(&b)
}
