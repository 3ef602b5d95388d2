package predictor

import (
	"bytes"
	"io"
	"sync"
)

// HoldWriter passes writes through to an underlying writer until Hold is
// called. While held, writes are buffered; the last Release replays them in
// order. Holds nest.
type HoldWriter struct {
	mu    sync.Mutex
	out   io.Writer
	held  int
	buf   bytes.Buffer
	limit int
	// dropped counts bytes discarded because the buffer reached limit.
	dropped int
}

// defaultHoldLimit caps the held buffer.
const defaultHoldLimit = 4 << 20

// NewHoldWriter wraps out.
func NewHoldWriter(out io.Writer) *HoldWriter {
	return &HoldWriter{out: out, limit: defaultHoldLimit}
}

func (w *HoldWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.held == 0 {
		return w.out.Write(p)
	}
	if w.buf.Len()+len(p) > w.limit {
		w.dropped += len(p)
		return len(p), nil
	}
	return w.buf.Write(p)
}

// Hold starts buffering writes.
func (w *HoldWriter) Hold() {
	w.mu.Lock()
	w.held++
	w.mu.Unlock()
}

// Release ends one Hold. When no holds remain the buffered output is
// written to the underlying writer.
func (w *HoldWriter) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.held == 0 {
		return nil
	}
	w.held--
	if w.held > 0 {
		return nil
	}
	w.dropped = 0
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.out.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

// Dropped reports how many bytes were discarded since the last replay
// because the held buffer was full.
func (w *HoldWriter) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Held reports whether output is currently being buffered.
func (w *HoldWriter) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held > 0
}
