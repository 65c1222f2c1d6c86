// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/playkit-contrib/kcontrib/internal/runner"
)

// Response is what the fake returns for a matching command line.
type Response struct {
	Result runner.Result
	Err    error
	// Do runs before the response is returned, e.g. to create files a real tool would write.
	Do func(cmd runner.Command)
}

// Fake records every command and answers from Responses.
// A command line matches a key when it starts with that key; the longest key wins.
// Unmatched commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	Responses map[string]Response
	Calls     []runner.Command
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Responses: map[string]Response{}}
}

// On registers a response for command lines starting with prefix.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[prefix] = resp
	return f
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	if err := ctx.Err(); err != nil {
		return runner.Result{}, err
	}
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	line := cmd.String()
	var (
		best  string
		resp  Response
		found bool
	)
	for prefix, r := range f.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, resp, found = prefix, r, true
		}
	}
	f.mu.Unlock()

	if !found {
		return runner.Result{}, nil
	}
	if resp.Do != nil {
		resp.Do(cmd)
	}
	return resp.Result, resp.Err
}

// Lines returns the recorded command lines in call order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}
