package probe

import (
	"context"
	"encoding/json/v2"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/reelstitch/reelstitch/internal/errors"
)

// creationTimeLayout is the container timestamp format cameras write:
// ISO-8601 with six fractional digits and a literal Z (UTC).
const creationTimeLayout = "2006-01-02T15:04:05.000000Z"

// FFprobeProber shells out to ffprobe for metadata extraction.
type FFprobeProber struct {
	binary string

	availOnce sync.Once
	available bool
}

// NewFFprobeProber creates a prober using the given ffprobe binary.
// An empty binary means "ffprobe" resolved via PATH.
func NewFFprobeProber(binary string) *FFprobeProber {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobeProber{binary: binary}
}

// IsAvailable reports whether the ffprobe binary can be resolved.
// The check runs once and is cached.
func (p *FFprobeProber) IsAvailable() bool {
	p.availOnce.Do(func() {
		_, err := exec.LookPath(p.binary)
		p.available = err == nil
	})
	return p.available
}

// Probe extracts the embedded creation time and duration for path.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbeFailed, "ffprobe failed for %s", path)
	}

	return decodeProbeOutput(output, path)
}

// decodeProbeOutput parses ffprobe's JSON and extracts the two fields the
// pipeline needs. A missing creation_time tag or duration is an error for
// the file, never a silent zero.
func decodeProbeOutput(output []byte, path string) (*Result, error) {
	var data ffprobeOutput
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbeFailed, "unparseable ffprobe output for %s", path)
	}

	raw := data.Format.Tags["creation_time"]
	if raw == "" {
		return nil, errors.ProbeFailedf("no creation_time tag in %s", path)
	}
	creationTime, err := time.Parse(creationTimeLayout, raw)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbeFailed, "bad creation_time %q in %s", raw, path)
	}

	if data.Format.Duration == "" {
		return nil, errors.ProbeFailedf("no duration in %s", path)
	}
	duration, err := strconv.ParseFloat(data.Format.Duration, 64)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbeFailed, "bad duration %q in %s", data.Format.Duration, path)
	}

	return &Result{
		CreationTime:    creationTime,
		DurationSeconds: duration,
	}, nil
}

// ffprobeOutput represents the slice of ffprobe JSON output we consume.
type ffprobeOutput struct {
	Format ffprobeFormat `json:"format"`
}

type ffprobeFormat struct {
	Tags     map[string]string `json:"tags"`
	Duration string            `json:"duration"`
}
