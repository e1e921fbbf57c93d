package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/arnavsurve/wadctl/internal/process"
	"github.com/fatih/color"
)

// failureTail is how many output lines are echoed when a quiet command fails.
const failureTail = 10

// Renderer handles terminal output with colors and spinners
type Renderer struct {
	out io.Writer

	mu          sync.Mutex
	spinning    bool
	msg         string
	spinnerDone chan struct{}
	spinnerExit chan struct{}
}

// NewRenderer creates a Renderer writing to stderr
func NewRenderer() *Renderer {
	return NewRendererTo(os.Stderr)
}

func NewRendererTo(w io.Writer) *Renderer {
	return &Renderer{out: w}
}

// Colors
var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Spinner frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StartSpinner starts an animated spinner with a message
func (r *Renderer) StartSpinner(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinning {
		return
	}

	r.spinning = true
	r.msg = fmt.Sprintf(format, args...)
	r.spinnerDone = make(chan struct{})
	r.spinnerExit = make(chan struct{})

	go r.spin(r.spinnerDone, r.spinnerExit)
}

func (r *Renderer) spin(done, exit chan struct{}) {
	defer close(exit)

	frame := 0
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.mu.Lock()
			select {
			case <-done:
				r.mu.Unlock()
				return
			default:
			}
			fmt.Fprintf(r.out, "\r%s %s", cyan(spinnerFrames[frame]), r.msg)
			r.mu.Unlock()
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

// StopSpinner stops the spinner and clears its line. It returns after the
// animation goroutine has exited.
func (r *Renderer) StopSpinner(success bool) {
	r.mu.Lock()
	if !r.spinning {
		r.mu.Unlock()
		return
	}

	close(r.spinnerDone)
	r.spinning = false
	exit := r.spinnerExit
	r.mu.Unlock()

	<-exit

	r.mu.Lock()
	fmt.Fprint(r.out, "\r\033[K")
	r.mu.Unlock()
}

// Above prints a line while a spinner may be running; the spinner redraws on
// its next tick.
func (r *Renderer) Above(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinning {
		fmt.Fprint(r.out, "\r\033[K")
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

// CommandWithProgress shows a spinner labelled text until the command behind
// lines/errs finishes. Verbose mode echoes every output line; otherwise the
// last lines are shown only on failure.
func (r *Renderer) CommandWithProgress(ctx context.Context, text string, lines <-chan process.OutputLine, errs <-chan error, verbose bool) error {
	r.StartSpinner("%s", text)

	var tail []string
	err := process.Wait(ctx, lines, errs, func(line process.OutputLine) {
		if verbose {
			r.Above("  %s", dim(line.Content))
			return
		}
		tail = append(tail, line.Content)
		if len(tail) > failureTail {
			tail = tail[1:]
		}
	})

	r.StopSpinner(err == nil)

	if err != nil {
		r.Error("%s failed: %v", text, err)
		for _, l := range tail {
			r.Dim("%s", l)
		}
		return err
	}

	r.Success("%s", text)
	return nil
}

// Success prints a success message
func (r *Renderer) Success(format string, args ...any) {
	r.print(green("✓"), format, args...)
}

// Error prints an error message
func (r *Renderer) Error(format string, args ...any) {
	r.print(red("✗"), format, args...)
}

// Warning prints a warning message
func (r *Renderer) Warning(format string, args ...any) {
	r.print(yellow("!"), format, args...)
}

// Info prints an info message
func (r *Renderer) Info(format string, args ...any) {
	r.print(" ", format, args...)
}

// Dim prints dimmed/secondary text
func (r *Renderer) Dim(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  %s\n", dim(msg))
}

func (r *Renderer) print(prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", prefix, msg)
}

// DeviceInfo contains device information for display
type DeviceInfo struct {
	Label string
	IP    string
	GUID  string
}

// RenderDeviceList prints a formatted list of devices
func (r *Renderer) RenderDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		r.Info("No devices found")
		return
	}

	width := 0
	for _, d := range devices {
		if len(d.Label) > width {
			width = len(d.Label)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n%s\n", bold("DEVICES"))
	for _, d := range devices {
		fmt.Fprintf(r.out, "  %-*s  %-15s %s\n", width, d.Label, d.IP, dim(d.GUID))
	}
	fmt.Fprintln(r.out)
}
