package runner

import (
	"context"
	"fmt"
)

// Response is a canned result for FakeRunner
type Response struct {
	Output   string
	ExitCode int
	// Effect runs before the response is returned, e.g. to touch files
	Effect func()
}

// FakeRunner replays canned responses and records every command it was given.
// Commands without a response succeed with empty output.
type FakeRunner struct {
	Responses map[string]Response
	Calls     []string
}

// NewFakeRunner creates a fake with the given responses
func NewFakeRunner(responses map[string]Response) *FakeRunner {
	if responses == nil {
		responses = make(map[string]Response)
	}
	return &FakeRunner{Responses: responses}
}

// Run records command and returns its canned response
func (f *FakeRunner) Run(ctx context.Context, command string) (string, error) {
	f.Calls = append(f.Calls, command)

	if err := ctx.Err(); err != nil {
		return "", &CommandError{Command: command, ExitCode: -1, Err: err, Output: err.Error()}
	}

	resp, ok := f.Responses[command]
	if !ok {
		return "", nil
	}
	if resp.Effect != nil {
		resp.Effect()
	}
	if resp.ExitCode == 0 {
		return resp.Output, nil
	}
	return resp.Output, &CommandError{
		Command:  command,
		Output:   resp.Output,
		ExitCode: resp.ExitCode,
		Err:      fmt.Errorf("exit status %d", resp.ExitCode),
	}
}

// Called reports how many times command was run
func (f *FakeRunner) Called(command string) int {
	n := 0
	for _, c := range f.Calls {
		if c == command {
			n++
		}
	}
	return n
}
