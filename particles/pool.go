package particles

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum particle count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 2048

// chunkRunner processes particles [start, end) on behalf of a worker.
type chunkRunner interface {
	runChunk(start, end, worker int)
}

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	start, end int
	runner     chunkRunner
}

// workerPool is a persistent set of goroutines processing chunks of one
// step at a time. Dispatch blocks until every chunk is done, so the pool
// never overlaps two steps.
type workerPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// newWorkerPool creates a pool; n <= 0 uses GOMAXPROCS.
func newWorkerPool(n int) *workerPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: n}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.runner.runChunk(chunk.start, chunk.end, workerID)
			p.doneChan <- struct{}{}
		}
	}
}

// run processes n items, single-threaded for small counts.
func (p *workerPool) run(n int, r chunkRunner) {
	if n == 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		r.runChunk(0, n, 0)
		return
	}

	// Ensure workers are running
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, runner: r}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
