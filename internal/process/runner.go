package process

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

type OutputLine struct {
	Stream  string // "stdout" or "stderr"
	Content string
}

// Swapped in tests to re-exec the test binary.
var execCommandContext = exec.CommandContext

type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) logCommand(name string, args []string) {
	log.Debug().Str("cmd", name).Str("args", strings.Join(args, " ")).Msg("exec")
}

// Run executes a command with streaming output via channels. The error
// channel receives at most one value and is closed once the command exits.
func (r *Runner) Run(ctx context.Context, name string, args []string) (<-chan OutputLine, <-chan error) {
	r.logCommand(name, args)

	outChan := make(chan OutputLine, 100)
	errChan := make(chan error, 1)

	go func() {
		defer close(outChan)
		defer close(errChan)

		cmd := execCommandContext(ctx, name, args...)

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			errChan <- fmt.Errorf("stdout pipe: %w", err)
			return
		}

		stderr, err := cmd.StderrPipe()
		if err != nil {
			errChan <- fmt.Errorf("stderr pipe: %w", err)
			return
		}

		if err := cmd.Start(); err != nil {
			errChan <- fmt.Errorf("start: %w", err)
			return
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			scanLines(ctx, stdout, "stdout", outChan)
		}()
		go func() {
			defer wg.Done()
			scanLines(ctx, stderr, "stderr", outChan)
		}()
		wg.Wait()

		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("cmd", name).Msg("exec failed")
			errChan <- err
			return
		}
	}()

	return outChan, errChan
}

const maxLineSize = 1 << 20

// scanLines forwards lines from rd. Once scanning stops early the rest of the
// stream is discarded so the child never blocks on a full pipe.
func scanLines(ctx context.Context, rd io.Reader, stream string, out chan<- OutputLine) {
	defer func() { _, _ = io.Copy(io.Discard, rd) }()

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case out <- OutputLine{Stream: stream, Content: scanner.Text()}:
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug().Err(err).Str("stream", stream).Msg("output scan stopped")
	}
}

// RunSilent executes a command and returns stdout. Stderr is included in errors.
func (r *Runner) RunSilent(ctx context.Context, name string, args []string) ([]byte, error) {
	r.logCommand(name, args)

	cmd := execCommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Debug().Err(err).Str("cmd", name).Msg("exec failed")
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

// Wait drains a Run pair, handing each line to onLine (which may be nil), and
// returns the command's exit error.
func Wait(ctx context.Context, lines <-chan OutputLine, errs <-chan error, onLine func(OutputLine)) error {
	var runErr error
	for lines != nil || errs != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if onLine != nil {
				onLine(line)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			runErr = err
		}
	}
	return runErr
}
