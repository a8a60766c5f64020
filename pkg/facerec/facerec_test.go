package facerec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abrezinsky/evote/internal/logger"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    Match
		wantErr error
	}{
		{
			name:   "full line",
			output: "alice|0.8123|verified\n",
			want:   Match{Username: "alice", Confidence: 0.8123, Status: "verified"},
		},
		{
			name:   "warnings skipped",
			output: "Warning: low light\nLoaded 4 faces\n\nbob|0.51|low_confidence\n",
			want:   Match{Username: "bob", Confidence: 0.51, Status: "low_confidence"},
		},
		{
			name:   "bare username",
			output: "carol\n",
			want:   Match{Username: "carol", Confidence: 0, Status: StatusUnknown},
		},
		{
			name:   "bad confidence",
			output: "dave|high|verified",
			want:   Match{Username: "dave", Status: "verified"},
		},
		{name: "empty", output: "", wantErr: ErrNoMatch},
		{name: "only warnings", output: "Warning: x\nLoaded 2\n", wantErr: ErrNoMatch},
		{name: "no match line", output: "No matching face found|0.0000|failed\n", wantErr: ErrNoMatch},
		{name: "no face", output: "No face detected within the time limit\n", wantErr: ErrNoFace},
		{name: "no camera", output: "Error: Could not open camera after multiple attempts\n", wantErr: ErrNoCamera},
		{name: "empty faces", output: "Error: Faces directory is empty or does not exist\n", wantErr: ErrNoFaceData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.output)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatch_Verified(t *testing.T) {
	if !(Match{Status: StatusVerified}).Verified() {
		t.Error("expected verified")
	}
	if (Match{Status: "low_confidence"}).Verified() {
		t.Error("expected not verified")
	}
}

// writeScript creates a shell script standing in for the recognition program
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fr.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func facesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alice.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatalf("write face: %v", err)
	}
	return dir
}

func TestProcessRecognizer_Identify(t *testing.T) {
	script := writeScript(t, "echo 'Loaded 1 faces'\necho 'alice|0.9000|verified'\n")
	r := NewProcessRecognizer(Config{Python: "sh", Script: script, FacesDir: facesDir(t), Timeout: 5 * time.Second}, logger.Discard())

	m, err := r.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if m.Username != "alice" || !m.Verified() {
		t.Errorf("unexpected match: %+v", m)
	}
}

func TestProcessRecognizer_EmptyFacesDir(t *testing.T) {
	script := writeScript(t, "echo should-not-run > \"$0.ran\"\n")
	r := NewProcessRecognizer(Config{Python: "sh", Script: script, FacesDir: t.TempDir()}, logger.Discard())

	if _, err := r.Identify(context.Background()); !errors.Is(err, ErrNoFaceData) {
		t.Fatalf("expected ErrNoFaceData, got %v", err)
	}
	if _, err := os.Stat(script + ".ran"); !os.IsNotExist(err) {
		t.Error("script should not run when there is no face data")
	}
}

func TestProcessRecognizer_MissingFacesDir(t *testing.T) {
	r := NewProcessRecognizer(Config{Python: "sh", Script: "unused", FacesDir: filepath.Join(t.TempDir(), "nope")}, logger.Discard())
	if _, err := r.Identify(context.Background()); !errors.Is(err, ErrNoFaceData) {
		t.Fatalf("expected ErrNoFaceData, got %v", err)
	}
}

func TestProcessRecognizer_CameraFailureOnStderr(t *testing.T) {
	script := writeScript(t, "echo 'Error: Could not open camera' >&2\nexit 1\n")
	r := NewProcessRecognizer(Config{Python: "sh", Script: script, FacesDir: facesDir(t)}, logger.Discard())

	if _, err := r.Identify(context.Background()); !errors.Is(err, ErrNoCamera) {
		t.Fatalf("expected ErrNoCamera, got %v", err)
	}
}

func TestProcessRecognizer_UnknownFailure(t *testing.T) {
	script := writeScript(t, "echo 'Traceback: boom' >&2\nexit 3\n")
	r := NewProcessRecognizer(Config{Python: "sh", Script: script, FacesDir: facesDir(t)}, logger.Discard())

	_, err := r.Identify(context.Background())
	var pe *ProcessError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProcessError, got %v", err)
	}
	if pe.Output != "Traceback: boom" {
		t.Errorf("unexpected output %q", pe.Output)
	}
}

func TestProcessRecognizer_Timeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")
	r := NewProcessRecognizer(Config{Python: "sh", Script: script, FacesDir: facesDir(t), Timeout: 100 * time.Millisecond}, logger.Discard())

	_, err := r.Identify(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMockRecognizer(t *testing.T) {
	t.Run("default is no match", func(t *testing.T) {
		m := NewMockRecognizer()
		if _, err := m.Identify(context.Background()); !errors.Is(err, ErrNoMatch) {
			t.Errorf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("configured match", func(t *testing.T) {
		m := NewMockRecognizer(WithMatch("alice", 0.7, StatusVerified))
		got, err := m.Identify(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("expected alice, got %s", got.Username)
		}
		if m.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", m.Calls())
		}
	})

	t.Run("configured error", func(t *testing.T) {
		m := NewMockRecognizer(WithMatch("alice", 0.7, StatusVerified), WithError(ErrNoCamera))
		if _, err := m.Identify(context.Background()); !errors.Is(err, ErrNoCamera) {
			t.Errorf("expected ErrNoCamera, got %v", err)
		}
	})
}
