package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/vlsens/internal/solver"
)

var ErrRunNotFound = errors.New("storage: run not found")

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
	Geometry  string             `json:"geometry"`
	Title     string             `json:"title"`
	Kernel    string             `json:"kernel"`
	Timestamp time.Time          `json:"timestamp"`
	Condition map[string]float64 `json:"condition"`
	Forces    map[string]float64 `json:"forces"`
	Outputs   []string           `json:"outputs"`
}

// Row is one entry of a sensitivity result: d Output / d Input, where Input
// lives in Category and, for geometry, on Entity at position Index.
type Row struct {
	Output   string  `json:"output"`
	Category string  `json:"category"`
	Entity   string  `json:"entity,omitempty"`
	Input    string  `json:"input"`
	Index    int     `json:"index"`
	Value    float64 `json:"value"`
}

const (
	CategoryConstraint = "constraint"
	CategoryGeometry   = "geometry"
	CategoryParameter  = "parameter"
	CategoryReference  = "reference"
)

var header = []string{"output", "category", "entity", "input", "index", "value"}

// Flatten lists every entry of res in a stable order.
func Flatten(res solver.Result) []Row {
	var rows []Row
	for _, out := range slices.Sorted(maps.Keys(res)) {
		g := res[out]
		scalars := func(cat string, m map[string]float64) {
			for _, name := range slices.Sorted(maps.Keys(m)) {
				rows = append(rows, Row{Output: out, Category: cat, Input: name, Value: m[name]})
			}
		}
		scalars(CategoryConstraint, g.Constraints)
		for _, surf := range slices.Sorted(maps.Keys(g.Geometry)) {
			keys := g.Geometry[surf]
			for _, key := range slices.Sorted(maps.Keys(keys)) {
				for k, x := range keys[key].Floats() {
					rows = append(rows, Row{
						Output: out, Category: CategoryGeometry, Entity: surf,
						Input: key, Index: k, Value: x,
					})
				}
			}
		}
		scalars(CategoryParameter, g.Parameters)
		scalars(CategoryReference, g.Reference)
	}
	return rows
}

// Save writes a run directory holding metadata.json and sensitivities.csv
// and returns the new run ID.
func (s *Store) Save(meta RunMetadata, res solver.Result) (string, error) {
	meta.ID = uuid.NewString()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.Outputs == nil {
		meta.Outputs = slices.Sorted(maps.Keys(res))
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "sensitivities.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range Flatten(res) {
		rec := []string{
			r.Output, r.Category, r.Entity, r.Input,
			strconv.Itoa(r.Index), strconv.FormatFloat(r.Value, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns the saved runs, newest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadSensitivities(runID string) ([]Row, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "sensitivities.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		idx, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		val, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rows = append(rows, Row{
			Output: rec[0], Category: rec[1], Entity: rec[2], Input: rec[3],
			Index: idx, Value: val,
		})
	}

	return rows, nil
}
