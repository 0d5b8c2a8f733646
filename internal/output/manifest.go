package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"salesreport/internal/report"
	"salesreport/internal/schema"
	"salesreport/internal/transformer"
)

// ManifestFile describes one run.
const ManifestFile = "manifest.json"

// Manifest records what a run read, how it mapped columns and what it wrote.
type Manifest struct {
	RunID     string            `json:"run_id"`
	Job       string            `json:"job"`
	StartedAt time.Time         `json:"started_at"`
	Input     InputInfo         `json:"input"`
	Mapping   map[string]string `json:"mapping"`
	Stats     transformer.Stats `json:"stats"`
	KPIs      report.KPIs       `json:"kpis"`
	Files     []string          `json:"files"`
}

// InputInfo identifies the input file by path and content digest.
type InputInfo struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
	XXH3     string `json:"xxh3"`
}

// NewRunID returns a random run identifier.
func NewRunID() string { return uuid.NewString() }

// DigestFile returns the size and hex xxh3-64 digest of the file at path.
func DigestFile(path string) (InputInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return InputInfo{}, fmt.Errorf("digest: %w", err)
	}
	defer f.Close()

	h := xxh3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return InputInfo{}, fmt.Errorf("digest %s: %w", path, err)
	}
	return InputInfo{Path: path, Size: n, XXH3: fmt.Sprintf("%016x", h.Sum64())}, nil
}

// MappingNames converts a resolved mapping to plain strings for JSON.
func MappingNames(m schema.Mapping) map[string]string {
	out := make(map[string]string, len(m))
	for f, col := range m {
		out[string(f)] = col
	}
	return out
}

// ManifestArtifact writes m as indented JSON.
func ManifestArtifact(m Manifest) Artifact {
	return Artifact{Name: ManifestFile, Write: func(w io.Writer) error { return writeJSON(w, m) }}
}
