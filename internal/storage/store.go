package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/hjreach/internal/config"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/solver"
)

const (
	metadataFile = "metadata.json"
	problemFile  = "problem.yaml"
	valuesFile   = "values.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	Shape     []int              `json:"shape"`
	Times     []float64          `json:"times"`
	Mode      string             `json:"mode"`
	SubSteps  int                `json:"substeps"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
}

// Save writes a finished solve: metadata, the problem file that produced it
// and one CSV column per stored field. Models implementing
// dynamo.Configurable also record their resolved parameters.
func (s *Store) Save(cfg *config.Config, sys dynamo.System, shape []int, result *solver.Result, metrics map[string]float64) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Model.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      cfg.Name,
		Model:     cfg.Model.Name,
		Timestamp: time.Now(),
		Shape:     shape,
		Times:     result.Times,
		Mode:      cfg.Solver.Mode,
		SubSteps:  result.SubSteps,
		Elapsed:   result.Elapsed,
		Metrics:   metrics,
	}
	if c, ok := sys.(dynamo.Configurable); ok {
		meta.Params = c.GetParams()
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, problemFile), cfg); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, valuesFile))
	if err != nil {
		return "", err
	}
	if err := WriteFields(f, result.Times, result.Fields); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteFields writes one row per node and one column per field.
func WriteFields(w io.Writer, times []float64, fields [][]float64) error {
	if len(times) != len(fields) {
		return fmt.Errorf("storage: %d times for %d fields", len(times), len(fields))
	}
	cw := csv.NewWriter(w)

	header := []string{"node"}
	for _, t := range times {
		header = append(header, "t="+strconv.FormatFloat(t, 'g', -1, 64))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	if len(fields) > 0 {
		row := make([]string, len(fields)+1)
		for i := range fields[0] {
			row[0] = strconv.Itoa(i)
			for k, f := range fields {
				row[k+1] = strconv.FormatFloat(f[i], 'g', -1, 64)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadProblem reads back the problem file stored with a run.
func (s *Store) LoadProblem(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, problemFile))
}

// LoadFields returns the stored sample times and fields of a run.
func (s *Store) LoadFields(runID string) ([]float64, [][]float64, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, valuesFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fields, err := ReadFields(f)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}
	if len(fields) != len(meta.Times) {
		return nil, nil, fmt.Errorf("storage: run %s has %d columns for %d times", runID, len(fields), len(meta.Times))
	}
	return meta.Times, fields, nil
}

// ReadFields parses the layout written by WriteFields.
func ReadFields(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	fields := make([][]float64, len(header)-1)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for k := range fields {
			v, err := strconv.ParseFloat(record[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, k+1, err)
			}
			fields[k] = append(fields[k], v)
		}
	}
	return fields, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
