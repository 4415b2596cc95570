package conversation

import (
	"context"
	"sync"

	"github.com/diogo/cleansight/internal/models"
)

// fakeGenerator records requests and answers with a canned reply or error
type fakeGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []*models.GenerateRequest
	// release, when set, blocks Generate until it is closed
	release chan struct{}
	started chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req *models.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	release, started := f.release, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) last() *models.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// failingImage is an ImageRef whose Load always fails
type failingImage struct{ err error }

func (f failingImage) Name() string { return "broken.png" }

func (f failingImage) Load(context.Context) ([]byte, string, error) {
	return nil, "", f.err
}
