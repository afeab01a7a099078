package testutil

import (
	"context"
	"fmt"
	"sync"

	"gallery-go/internal/gallery"
)

// ScriptedGenerator is a gallery.Generator that replays canned responses.
// Each CheckStatus call for a job consumes the next scripted status; the last
// one repeats once the script runs out.
type ScriptedGenerator struct {
	Payloads []string // returned by Generate for images
	JobIDs   []string // returned by Generate for videos
	Err      error    // returned by Generate when set

	mu       sync.Mutex
	scripts  map[string][]*gallery.JobStatus
	requests []gallery.GenerateParams
	polls    map[string]int
}

// Script sets the sequence of statuses CheckStatus reports for jobID.
func (g *ScriptedGenerator) Script(jobID string, statuses ...*gallery.JobStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.scripts == nil {
		g.scripts = make(map[string][]*gallery.JobStatus)
	}
	g.scripts[jobID] = statuses
}

func (g *ScriptedGenerator) Generate(_ context.Context, _ gallery.Credentials, params gallery.GenerateParams) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, params)
	if g.Err != nil {
		return nil, g.Err
	}
	if params.Kind == gallery.KindVideo {
		return g.JobIDs, nil
	}
	return g.Payloads, nil
}

func (g *ScriptedGenerator) CheckStatus(_ context.Context, _ gallery.Credentials, jobID string) (*gallery.JobStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	script := g.scripts[jobID]
	if len(script) == 0 {
		return nil, fmt.Errorf("unknown job %q", jobID)
	}
	if g.polls == nil {
		g.polls = make(map[string]int)
	}
	i := min(g.polls[jobID], len(script)-1)
	g.polls[jobID]++
	return script[i], nil
}

// Requests returns the parameters of every Generate call.
func (g *ScriptedGenerator) Requests() []gallery.GenerateParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gallery.GenerateParams(nil), g.requests...)
}

// Polls returns how many times CheckStatus was called for jobID.
func (g *ScriptedGenerator) Polls(jobID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.polls[jobID]
}
