package manager

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// OperationResult is the terminal outcome of an external plugin operation.
// Partial failures are reported as one aggregate result, never per item.
type OperationResult struct {
	Success   bool
	Installed int
	Failed    int
	Updated   []string
	Errors    []string
}

// Summary renders the one-line notification for the status bar.
func (r OperationResult) Summary() string {
	var parts []string
	if r.Installed > 0 {
		parts = append(parts, fmt.Sprintf("%d installed", r.Installed))
	}
	if len(r.Updated) > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", len(r.Updated)))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if len(parts) == 0 {
		if r.Success {
			return "done"
		}
		if len(r.Errors) > 0 {
			return r.Errors[0]
		}
		return "operation failed"
	}
	return strings.Join(parts, ", ")
}

// ProgressFunc receives ordered progress lines from a running operation.
type ProgressFunc func(line string)

// PluginOps is the collaborator contract for plugin install/add/remove/
// update. Implementations run out-of-band; the core only sees the progress
// stream and the terminal result. There is no cancellation beyond ctx.
type PluginOps interface {
	Install(ctx context.Context, progress ProgressFunc) OperationResult
	Add(ctx context.Context, sources []string, progress ProgressFunc) OperationResult
	Remove(ctx context.Context, names []string, progress ProgressFunc) OperationResult
	Update(ctx context.Context, names []string, progress ProgressFunc) OperationResult
}

// ExecPluginOps shells out to the site generator's plugin CLI, e.g.
//
//	<bin> plugin install
//	<bin> plugin add <source>...
//	<bin> plugin remove <name>...
//	<bin> plugin update [name...]
//
// stdout lines become progress; stderr lines are collected as errors.
type ExecPluginOps struct {
	Bin string
	Dir string
}

var (
	installedLinePattern = regexp.MustCompile(`(?i)\binstalled\b\D*(\d+)`)
	failedLinePattern    = regexp.MustCompile(`(?i)\bfailed\b\D*(\d+)`)
	updatedLinePattern   = regexp.MustCompile(`(?i)^updated\s+(\S+)`)
)

func (o *ExecPluginOps) Install(ctx context.Context, progress ProgressFunc) OperationResult {
	return o.run(ctx, progress, "plugin", "install")
}

func (o *ExecPluginOps) Add(ctx context.Context, sources []string, progress ProgressFunc) OperationResult {
	return o.run(ctx, progress, append([]string{"plugin", "add"}, sources...)...)
}

func (o *ExecPluginOps) Remove(ctx context.Context, names []string, progress ProgressFunc) OperationResult {
	return o.run(ctx, progress, append([]string{"plugin", "remove"}, names...)...)
}

func (o *ExecPluginOps) Update(ctx context.Context, names []string, progress ProgressFunc) OperationResult {
	return o.run(ctx, progress, append([]string{"plugin", "update"}, names...)...)
}

func (o *ExecPluginOps) run(ctx context.Context, progress ProgressFunc, args ...string) OperationResult {
	bin := o.Bin
	if bin == "" {
		bin = "ssg"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = o.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return OperationResult{Errors: []string{err.Error()}}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return OperationResult{Errors: []string{err.Error()}}
	}
	if err := cmd.Start(); err != nil {
		return OperationResult{Errors: []string{fmt.Sprintf("start %s: %v", bin, err)}}
	}

	var result OperationResult
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			line := sc.Text()
			if progress != nil {
				progress(line)
			}
			mu.Lock()
			parseResultLine(&result, line)
			mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			mu.Lock()
			result.Errors = append(result.Errors, line)
			mu.Unlock()
		}
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	result.Success = waitErr == nil && result.Failed == 0
	if waitErr != nil {
		result.Errors = append(result.Errors, waitErr.Error())
	}
	return result
}

// parseResultLine scrapes aggregate counts from CLI summary lines.
// Best-effort: unrecognized lines are plain progress.
func parseResultLine(r *OperationResult, line string) {
	if m := installedLinePattern.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.Installed = n
		}
	}
	if m := failedLinePattern.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.Failed = n
		}
	}
	if m := updatedLinePattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		r.Updated = append(r.Updated, m[1])
	}
}

// ProgressLog retains the most recent N progress lines, dropping the oldest.
type ProgressLog struct {
	mu    sync.Mutex
	max   int
	lines []string
}

// NewProgressLog creates a log bounded to max lines (default 8 when <= 0).
func NewProgressLog(max int) *ProgressLog {
	if max <= 0 {
		max = 8
	}
	return &ProgressLog{max: max}
}

// Append records a progress line, evicting the oldest beyond the bound.
func (p *ProgressLog) Append(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
	if len(p.lines) > p.max {
		p.lines = p.lines[len(p.lines)-p.max:]
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (p *ProgressLog) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

// Reset clears the log for a new operation.
func (p *ProgressLog) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = nil
}
