package localstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/ports"
)

const (
	inputFile    = "input.txt"
	artifactFile = "artifact.json"
)

// LocalStorage implements ports.ArtifactStore on the local filesystem,
// one directory per artifact.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// CreateArtifact creates the job directory and writes the raw input next
// to the artifact record.
func (s *LocalStorage) CreateArtifact(ctx context.Context, a *domain.Artifact) error {
	path := s.GetJobPath(a.ID)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create job directory %s: %w", path, err)
	}
	if err := os.WriteFile(filepath.Join(path, inputFile), []byte(a.RawInput), 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", inputFile, err)
	}
	return s.writeArtifact(a)
}

// LoadArtifact reads an artifact and its raw input back.
func (s *LocalStorage) LoadArtifact(ctx context.Context, id string) (*domain.Artifact, error) {
	path := s.GetJobPath(id)
	data, err := os.ReadFile(filepath.Join(path, artifactFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ports.ErrArtifactNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", artifactFile, err)
	}

	var a domain.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", artifactFile, err)
	}
	raw, err := os.ReadFile(filepath.Join(path, inputFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", inputFile, err)
	}
	a.RawInput = string(raw)
	return &a, nil
}

// SaveArtifact rewrites the artifact record. The raw input is immutable.
func (s *LocalStorage) SaveArtifact(ctx context.Context, a *domain.Artifact) error {
	if _, err := os.Stat(filepath.Join(s.GetJobPath(a.ID), artifactFile)); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ports.ErrArtifactNotFound, a.ID)
	}
	return s.writeArtifact(a)
}

// ListArtifacts loads every artifact under the jobs directory.
func (s *LocalStorage) ListArtifacts(ctx context.Context) ([]domain.Artifact, error) {
	entries, err := os.ReadDir(filepath.Join(s.BaseDir, "jobs"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	var out []domain.Artifact
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		a, err := s.LoadArtifact(ctx, e.Name())
		if errors.Is(err, ports.ErrArtifactNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetJobPath returns the path for a job directory.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, "jobs", jobID)
}

// writeArtifact replaces artifact.json through a temp file so a crash never
// leaves a truncated record behind.
func (s *LocalStorage) writeArtifact(a *domain.Artifact) error {
	stored := *a
	stored.RawInput = ""
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	path := filepath.Join(s.GetJobPath(a.ID), artifactFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", artifactFile, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", artifactFile, err)
	}
	return nil
}
