package dataset

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/sonago"
)

// snapshotVersion guards against loading frames written by an
// incompatible release.
const snapshotVersion = 1

type datasetJSON struct {
	Cols int       `json:"cols"`
	IDs  []string  `json:"ids"`
	Data []float64 `json:"data"`
}

type snapshotJSON struct {
	Version  int                    `json:"version"`
	Datasets map[string]datasetJSON `json:"datasets,omitempty"`
	Models   map[string][]byte      `json:"models,omitempty"`
}

// Snapshot bundles datasets and fitted model state for persistence.
// Model payloads come from MarshalBinary on scalers, PCA instances and
// other fitted state.
type Snapshot struct {
	datasets map[string]*DataSet
	models   map[string][]byte
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		datasets: make(map[string]*DataSet),
		models:   make(map[string][]byte),
	}
}

// PutDataSet stores ds under name.
func (s *Snapshot) PutDataSet(name string, ds *DataSet) {
	s.datasets[name] = ds
}

// DataSet returns the dataset stored under name.
func (s *Snapshot) DataSet(name string) (*DataSet, bool) {
	ds, ok := s.datasets[name]
	return ds, ok
}

// PutModel binary-marshals m and stores the payload under name.
func (s *Snapshot) PutModel(name string, m encoding.BinaryMarshaler) error {
	b, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal model %q: %w", name, err)
	}
	s.models[name] = b
	return nil
}

// Model restores the payload stored under name into m.
func (s *Snapshot) Model(name string, m encoding.BinaryUnmarshaler) error {
	b, ok := s.models[name]
	if !ok {
		return fmt.Errorf("%w: model %q", ErrPointNotFound, name)
	}
	return m.UnmarshalBinary(b)
}

// ManagerOptions configure a snapshot Manager.
type ManagerOptions struct {
	// Logger for snapshot operations.
	Logger *sonago.Logger

	// CompressionLevel is the zstd level for written frames.
	CompressionLevel zstd.EncoderLevel
}

// Manager writes and reads snapshots as a JSON document inside a zstd
// frame.
type Manager struct {
	logger *sonago.Logger
	level  zstd.EncoderLevel
}

// NewManager creates a snapshot manager.
func NewManager(optFns ...func(*ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Logger:           sonago.NoopLogger(),
		CompressionLevel: zstd.SpeedDefault,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{logger: opts.Logger, level: opts.CompressionLevel}
}

// Save writes s to w.
func (m *Manager) Save(w io.Writer, s *Snapshot) error {
	doc := snapshotJSON{
		Version:  snapshotVersion,
		Datasets: make(map[string]datasetJSON, len(s.datasets)),
		Models:   s.models,
	}
	for name, ds := range s.datasets {
		doc.Datasets[name] = datasetJSON{Cols: ds.cols, IDs: ds.ids, Data: ds.data}
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(m.level))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(doc); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}

	m.logger.WithCount(len(s.datasets)).Debug("snapshot saved")
	return nil
}

// Load reads a snapshot from r.
func (m *Manager) Load(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var doc snapshotJSON
	if err := json.NewDecoder(dec).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}

	s := NewSnapshot()
	if doc.Models != nil {
		s.models = doc.Models
	}
	for name, dj := range doc.Datasets {
		if dj.Cols < 1 || len(dj.Data) != len(dj.IDs)*dj.Cols {
			return nil, fmt.Errorf("corrupt snapshot: dataset %q", name)
		}
		ds, err := New(dj.Cols)
		if err != nil {
			return nil, err
		}
		ds.ids = dj.IDs
		ds.data = dj.Data
		for i, id := range dj.IDs {
			ds.index[id] = i
		}
		s.datasets[name] = ds
		m.logger.WithShape(len(dj.IDs), dj.Cols).Debug("dataset restored", "name", name)
	}

	m.logger.WithCount(len(s.datasets)).Debug("snapshot loaded")
	return s, nil
}

// SaveFile writes s to path, replacing any existing file atomically.
func (m *Manager) SaveFile(path string, s *Snapshot) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := m.Save(f, s); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile reads a snapshot from path.
func (m *Manager) LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.Load(f)
}
