// Package facerec runs an external face-recognition program and reports
// which registered user it matched.
package facerec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/abrezinsky/evote/internal/logger"
)

// Failure modes reported by the recognizer
var (
	ErrNoCamera   = errors.New("could not open camera")
	ErrNoFace     = errors.New("no face detected")
	ErrNoMatch    = errors.New("no matching face found")
	ErrNoFaceData = errors.New("no face data available")
)

// Match status values written by the recognition program
const (
	StatusVerified = "verified"
	StatusUnknown  = "unknown"
)

// Match is a recognised user
type Match struct {
	Username   string  `json:"username"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// Verified reports whether the program was confident in the match
func (m Match) Verified() bool {
	return m.Status == StatusVerified
}

// Recognizer identifies the person in front of the camera
type Recognizer interface {
	Identify(ctx context.Context) (Match, error)
}

// ProcessError is an unclassified failure of the recognition program
type ProcessError struct {
	Output string
	Err    error
}

func (e *ProcessError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("face recognition failed: %v: %s", e.Err, e.Output)
	}
	return fmt.Sprintf("face recognition failed: %v", e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Config describes how to launch the recognition program
type Config struct {
	Python   string        // interpreter, e.g. "python"
	Script   string        // script path
	FacesDir string        // directory of registered face images
	Timeout  time.Duration // per call; zero means no limit beyond ctx
}

// ProcessRecognizer runs Config.Script once per Identify call
type ProcessRecognizer struct {
	cfg Config
	log logger.Logger
}

// NewProcessRecognizer creates a recognizer for cfg
func NewProcessRecognizer(cfg Config, log logger.Logger) *ProcessRecognizer {
	return &ProcessRecognizer{cfg: cfg, log: log}
}

// Identify runs the program and parses its answer. The faces directory is
// checked before anything is spawned.
func (r *ProcessRecognizer) Identify(ctx context.Context) (Match, error) {
	if err := checkFaceData(r.cfg.FacesDir); err != nil {
		return Match{}, err
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.cfg.Python, "-u", r.cfg.Script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	runErr := cmd.Run()
	r.log.Debug("Face recognition finished", "duration", time.Since(start), "error", runErr)

	// The program reports its own failures as text, so classify output
	// before looking at the exit status.
	if err := classify(stdout.String() + "\n" + stderr.String()); err != nil {
		return Match{}, err
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return Match{}, &ProcessError{Err: ctx.Err()}
		}
		return Match{}, &ProcessError{Output: strings.TrimSpace(stderr.String()), Err: runErr}
	}
	return ParseOutput(stdout.String())
}

func checkFaceData(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return ErrNoFaceData
	}
	return nil
}

// classify maps a known failure message anywhere in output to its sentinel
func classify(output string) error {
	switch {
	case strings.Contains(output, "Could not open camera"):
		return ErrNoCamera
	case strings.Contains(output, "Faces directory is empty"):
		return ErrNoFaceData
	case strings.Contains(output, "No face detected"):
		return ErrNoFace
	case strings.Contains(output, "No matching face found"):
		return ErrNoMatch
	}
	return nil
}

// ParseOutput reads the first line that is not a warning or load message.
// The line is "username|confidence|status"; a bare username is accepted
// with zero confidence and status unknown.
func ParseOutput(output string) (Match, error) {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "Warning:") || strings.HasPrefix(line, "Loaded") {
			continue
		}
		if err := classify(line); err != nil {
			return Match{}, err
		}
		return parseLine(line), nil
	}
	return Match{}, ErrNoMatch
}

func parseLine(line string) Match {
	parts := strings.Split(line, "|")
	m := Match{Username: strings.TrimSpace(parts[0]), Status: StatusUnknown}
	if len(parts) > 1 {
		if c, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			m.Confidence = c
		}
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		m.Status = strings.TrimSpace(parts[2])
	}
	return m
}
