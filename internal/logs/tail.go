package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
)

// pollInterval is how often a following Tail re-reads the file.
const pollInterval = 250 * time.Millisecond

// TailOptions controls Tail. A negative Offset reads the last Limit lines;
// otherwise reading resumes at Offset. With Follow, Tail waits up to Wait for
// new lines when none are available yet.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult holds matching lines and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log file at path. A missing file yields no lines.
// Only newline-terminated lines are returned; a line still being written is
// left for the next call.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit, opts.Filter)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or replaced since the caller last read it.
			offset = 0
		}
		result, err = linesFrom(path, offset, opts.Filter)
	}
	if err != nil || !opts.Follow || opts.Wait <= 0 || len(result.Lines) > 0 {
		return result, err
	}
	return follow(ctx, path, result.Offset, opts.Wait, opts.Filter)
}

// lastLines keeps the final limit matching lines. limit <= 0 only positions
// the offset at the end of the last complete line.
func lastLines(path string, limit int, filter Filter) (TailResult, error) {
	var ring []string
	next := 0
	full := false
	offset, err := scan(path, 0, func(line string) {
		if limit <= 0 || !filter.Match(line) {
			return
		}
		if len(ring) < limit {
			ring = append(ring, line)
			return
		}
		ring[next] = line
		next = (next + 1) % limit
		full = true
	})
	if err != nil {
		return TailResult{}, err
	}
	if full {
		ring = slices.Concat(ring[next:], ring[:next])
	}
	return TailResult{Lines: ring, Offset: offset}, nil
}

func linesFrom(path string, offset int64, filter Filter) (TailResult, error) {
	var lines []string
	end, err := scan(path, offset, func(line string) {
		if filter.Match(line) {
			lines = append(lines, line)
		}
	})
	if err != nil {
		return TailResult{Offset: offset}, err
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// scan calls visit for every complete line after offset and returns the
// offset just past the last one.
func scan(path string, offset int64, visit func(string)) (int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		visit(strings.TrimRight(line, "\r\n"))
	}
}

func follow(ctx context.Context, path string, offset int64, wait time.Duration, filter Filter) (TailResult, error) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-deadline.C:
			return TailResult{Offset: offset}, nil
		case <-ticker.C:
		}
		result, err := linesFrom(path, offset, filter)
		if err != nil || len(result.Lines) > 0 {
			return result, err
		}
		offset = result.Offset
	}
}
