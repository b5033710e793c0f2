package infrastructure

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// DefaultFFmpegPath is the ffmpeg binary looked up on PATH.
const DefaultFFmpegPath = "ffmpeg"

// stderrTailSize is how much ffmpeg diagnostic output is kept for error messages.
const stderrTailSize = 2048

// Transcoder opens a raw PCM stream (s16le, 48kHz, stereo) for a source URL.
type Transcoder interface {
	Open(sourceURL string) (io.ReadCloser, error)
}

// FFmpegTranscoder runs ffmpeg as a subprocess per stream.
type FFmpegTranscoder struct {
	path string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder using the given binary.
func NewFFmpegTranscoder(path string) *FFmpegTranscoder {
	if path == "" {
		path = DefaultFFmpegPath
	}
	return &FFmpegTranscoder{path: path}
}

var _ Transcoder = (*FFmpegTranscoder)(nil)

// Open starts ffmpeg reading sourceURL. The returned stream must be closed,
// which also reaps the process.
func (t *FFmpegTranscoder) Open(sourceURL string) (io.ReadCloser, error) {
	cmd := exec.Command(t.path, ffmpegArgs(sourceURL)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("command start error: %w", err)
	}

	return &ffmpegProcess{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		eof:    atomic.NewBool(false),
	}, nil
}

// ffmpegArgs builds the command line: reconnect on dropped HTTP sources,
// no video, raw PCM on stdout.
func ffmpegArgs(sourceURL string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", sourceURL,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "warning",
		"pipe:1",
	}
}

type ffmpegProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
	eof    *atomic.Bool
}

func (p *ffmpegProcess) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		p.eof.Store(true)
	}
	return n, err
}

// Close kills ffmpeg if it is still running and waits for it.
// A kill after the output was fully read is not an error.
func (p *ffmpegProcess) Close() error {
	_ = p.cmd.Process.Kill()
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && !exitErr.Exited() && p.eof.Load() {
		return nil
	}

	if tail := strings.TrimSpace(p.stderr.String()); tail != "" {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail)
	}
	return fmt.Errorf("ffmpeg: %w", err)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
