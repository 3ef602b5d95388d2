package predictor

import (
	"os"
	"time"

	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// Status builds a detailed status response for /status.
func (p *Predictor) Status() types.StatusResponse {
	p.mu.RLock()
	state, lastErr := p.state, p.err
	p.mu.RUnlock()
	resp := types.StatusResponse{
		State:            string(state),
		Variant:          string(p.variant),
		LastError:        lastErr,
		QueueLen:         len(p.queueCh),
		Inflight:         len(p.genCh),
		MaxQueueDepth:    cap(p.queueCh),
		PredictionsTotal: p.predictions.Load(),
		UptimeSeconds:    int64(time.Since(p.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
		Sanity:           p.SanityCheck(),
	}
	if p.model.ID != "" || p.model.Path != "" {
		mdl := p.model
		resp.Model = &mdl
	}
	return resp
}

// SanityCheck validates that the runtime is built in and the weights exist.
// It does not mutate state and is safe to call at any time.
func (p *Predictor) SanityCheck() types.SanityReport {
	r := types.SanityReport{RuntimeBuilt: runtime.Built, ModelPath: p.model.Path}
	if p.model.Path == "" {
		r.Error = "no model configured"
		return r
	}
	fi, err := os.Stat(p.model.Path)
	switch {
	case err != nil:
		r.Error = err.Error()
	case fi.IsDir():
		r.Error = "model path is a directory"
	default:
		r.ModelFound = true
	}
	return r
}
