package predictor

import (
	"time"
)

// Close initiates a graceful drain and releases the model.
//   - Sets state to draining to reject new enqueues.
//   - Waits up to the drain timeout for in-flight and queued requests to finish.
//   - Takes the generation slot when it frees up before the deadline, then closes
//     the runtime session and stops the result cache.
func (p *Predictor) Close() error {
	p.mu.Lock()
	if p.state == StateDraining {
		p.mu.Unlock()
		return nil
	}
	p.state = StateDraining
	p.mu.Unlock()
	p.publisher.Publish(Event{Name: "close_start", ModelID: p.model.ID, Fields: map[string]any{}})

	deadline := time.Now().Add(p.drainTimeout)
	for {
		qlen := len(p.queueCh)
		inflight := len(p.genCh)
		if inflight == 0 && qlen == 0 {
			break
		}
		if time.Now().After(deadline) {
			p.publisher.Publish(Event{Name: "close_timeout", ModelID: p.model.ID, Fields: map[string]any{"inflight": inflight, "queue": qlen}})
			p.log.Warn().Int("inflight", inflight).Int("queue", qlen).Msg("drain timeout; releasing model with work outstanding")
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Take the generation slot for good so nothing runs against a freed model.
	// A generation still running past the deadline sees its session closed
	// underneath it and fails with the runtime's error.
	select {
	case p.genCh <- struct{}{}:
	case <-time.After(time.Until(deadline)):
		p.log.Warn().Msg("generation still running at drain deadline; closing session")
	}

	p.mu.Lock()
	sess := p.sess
	p.sess = nil
	p.mu.Unlock()

	var err error
	if sess != nil {
		err = sess.Close()
	}
	p.cache.close()
	p.publisher.Publish(Event{Name: "close_done", ModelID: p.model.ID, Fields: map[string]any{}})
	return err
}
