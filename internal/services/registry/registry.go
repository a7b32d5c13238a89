// Package registry stores trained model artifacts on disk together with a
// single JSON metadata document keyed by model identifier. The document is
// read fully at open, mutated in memory, and rewritten atomically on every
// save or delete. Writers within one process are serialized by a mutex;
// concurrent writers from multiple processes are a known limitation.
package registry

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"QuantForge/internal/services/preprocess"
	"QuantForge/pkg/logger"
)

const metadataFile = "model_metadata.json"

// ErrNotFound is returned when a model id is absent from the registry or
// its artifact file is missing on disk.
var ErrNotFound = errors.New("model not found")

// minimizedMetrics are compared lower-is-better by Best; everything else is
// higher-is-better.
var minimizedMetrics = map[string]bool{"RMSE": true, "MAE": true, "MSE": true}

// Record is the immutable metadata stored per saved model.
type Record struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	TaskType      string                    `json:"task_type"`
	CreatedAt     time.Time                 `json:"created_at"`
	ArtifactPath  string                    `json:"artifact_path"`
	Metrics       map[string]float64        `json:"metrics"`
	Params        preprocess.PipelineParams `json:"preprocessing_params"`
	FeatureNames  []string                  `json:"feature_names"`
	ArtifactBytes int64                     `json:"artifact_bytes"`
}

// Usage summarizes disk consumption of the registry.
type Usage struct {
	Count       int     `json:"count"`
	TotalBytes  int64   `json:"total_bytes"`
	AvgBytes    float64 `json:"avg_bytes"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

// Store is a registry rooted at a directory on the local filesystem.
type Store struct {
	dir  string
	log  *logger.Logger
	mu   sync.Mutex
	meta map[string]Record
	now  func() time.Time
}

// Open loads (or initializes) a registry at dir.
func Open(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	s := &Store{dir: dir, log: log, meta: make(map[string]Record), now: time.Now}

	path := filepath.Join(dir, metadataFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &s.meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return s, nil
}

// Save writes the artifact to disk and appends a metadata record. The
// returned id is name plus the creation timestamp; a numeric suffix is
// added on collision so two saves within one second stay distinct.
func (s *Store) Save(artifact []byte, name, taskType string, metrics map[string]float64, params preprocess.PipelineParams, featureNames []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now()
	id := fmt.Sprintf("%s_%s", sanitizeName(name), created.Format("20060102_150405"))
	base := id
	for i := 2; ; i++ {
		if _, exists := s.meta[id]; !exists {
			break
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}

	path := filepath.Join(s.dir, id+".bin")
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	rec := Record{
		ID:            id,
		Name:          name,
		TaskType:      taskType,
		CreatedAt:     created,
		ArtifactPath:  path,
		Metrics:       metrics,
		Params:        params,
		FeatureNames:  featureNames,
		ArtifactBytes: int64(len(artifact)),
	}
	s.meta[id] = rec
	if err := s.flushLocked(); err != nil {
		// roll the artifact back so metadata and disk stay consistent
		os.Remove(path)
		delete(s.meta, id)
		return "", err
	}

	s.log.Info("model saved",
		logger.String("model_id", id),
		logger.String("task_type", taskType),
		logger.Int64("bytes", rec.ArtifactBytes))
	return id, nil
}

// Load returns the artifact bytes and metadata for id. A metadata entry
// whose artifact file was removed out-of-band is a recoverable
// inconsistency: it is logged and reported as ErrNotFound without
// touching the registry.
func (s *Store) Load(id string) ([]byte, Record, error) {
	s.mu.Lock()
	rec, ok := s.meta[id]
	s.mu.Unlock()
	if !ok {
		return nil, Record{}, fmt.Errorf("model %q: %w", id, ErrNotFound)
	}

	data, err := os.ReadFile(rec.ArtifactPath)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("model artifact missing on disk",
			logger.String("model_id", id),
			logger.String("path", rec.ArtifactPath))
		return nil, Record{}, fmt.Errorf("artifact for %q missing: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("read artifact: %w", err)
	}
	return data, rec, nil
}

// Get returns the metadata record alone.
func (s *Store) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.meta[id]
	if !ok {
		return Record{}, fmt.Errorf("model %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// List returns all records ordered newest first.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.meta))
	for _, rec := range s.meta {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Delete removes the artifact and metadata entry. It reports false for an
// unknown id instead of returning an error.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.meta[id]
	if !ok {
		return false, nil
	}
	if err := os.Remove(rec.ArtifactPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove artifact: %w", err)
	}
	delete(s.meta, id)
	if err := s.flushLocked(); err != nil {
		return false, err
	}
	s.log.Info("model deleted", logger.String("model_id", id))
	return true, nil
}

// Best returns the id and score of the record with the best value for the
// named metric among records of taskType. RMSE, MAE and MSE are minimized,
// every other metric is maximized. ok is false when no record matches.
func (s *Store) Best(metric, taskType string) (id string, score float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := minimizedMetrics[strings.ToUpper(metric)]
	for _, rec := range s.meta {
		if rec.TaskType != taskType {
			continue
		}
		v, has := rec.Metrics[metric]
		if !has {
			continue
		}
		if !ok || (lower && v < score) || (!lower && v > score) {
			id, score, ok = rec.ID, v, true
		}
	}
	return id, score, ok
}

// RetainLatest keeps the n most recently created records and deletes the
// rest. It returns the number of records removed.
func (s *Store) RetainLatest(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("retain count must be non-negative, got %d", n)
	}
	recs := s.List()
	if len(recs) <= n {
		return 0, nil
	}
	removed := 0
	for _, rec := range recs[n:] {
		ok, err := s.Delete(rec.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	s.log.Info("registry cleanup", logger.Int("kept", n), logger.Int("removed", removed))
	return removed, nil
}

// StorageUsage reports the registry's disk footprint from metadata.
func (s *Store) StorageUsage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := Usage{Count: len(s.meta)}
	for _, rec := range s.meta {
		u.TotalBytes += rec.ArtifactBytes
	}
	if u.Count > 0 {
		u.AvgBytes = float64(u.TotalBytes) / float64(u.Count)
	}
	u.TotalSizeMB = float64(u.TotalBytes) / (1024 * 1024)
	return u
}

// ExportSummaryCSV writes a one-row-per-model summary next to the
// artifacts and returns its path.
func (s *Store) ExportSummaryCSV() (string, error) {
	recs := s.List()
	if len(recs) == 0 {
		return "", fmt.Errorf("no models to export")
	}

	metricNames := map[string]bool{}
	for _, rec := range recs {
		for m := range rec.Metrics {
			metricNames[m] = true
		}
	}
	metrics := make([]string, 0, len(metricNames))
	for m := range metricNames {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	var b strings.Builder
	w := csv.NewWriter(&b)
	header := append([]string{"model_id", "name", "task_type", "created_at", "artifact_bytes"}, metrics...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write summary header: %w", err)
	}
	for _, rec := range recs {
		row := []string{rec.ID, rec.Name, rec.TaskType,
			rec.CreatedAt.Format(time.RFC3339), strconv.FormatInt(rec.ArtifactBytes, 10)}
		for _, m := range metrics {
			if v, ok := rec.Metrics[m]; ok {
				row = append(row, fmt.Sprintf("%.4f", v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("model_summary_%s.csv", s.now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// flushLocked rewrites the metadata document atomically. Callers hold mu.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	path := filepath.Join(s.dir, metadataFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "model"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
