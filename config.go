package rpctriangulate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// CameraConfig describes one camera of a scene: either a path to an RPC
// coefficient file or an inline 3x4 projection matrix (12 row-major values).
type CameraConfig struct {
	RPCFile    string    `json:"rpc_file,omitempty"`
	Projection []float64 `json:"projection,omitempty"`
}

// Config is the scene description consumed by the CLI.
type Config struct {
	CameraModel string         `json:"camera_model"`
	Cameras     []CameraConfig `json:"cameras"`
	TracksFile  string         `json:"tracks_file"`
	OutputPCD   string         `json:"output_pcd,omitempty"`

	// Pairs lists the camera pairs to triangulate. When empty, pairs are
	// selected from the camera geometry (RPC scenes only).
	Pairs       []CameraPair `json:"pairs,omitempty"`
	PairOptions *PairOptions `json:"pair_options,omitempty"`

	// dir the config was loaded from; relative paths resolve against it
	baseDir string
}

func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if err := CameraModel(cfg.CameraModel).Validate(); err != nil {
		return err
	}
	if len(cfg.Cameras) == 0 {
		return fmt.Errorf("need at least one camera")
	}
	if cfg.TracksFile == "" {
		return fmt.Errorf("need tracks_file")
	}
	for i, cc := range cfg.Cameras {
		isRPC := CameraModel(cfg.CameraModel) == ModelRPC
		if isRPC && cc.RPCFile == "" {
			return fmt.Errorf("camera %d: rpc camera model needs rpc_file", i)
		}
		if !isRPC && len(cc.Projection) != 12 {
			return fmt.Errorf("camera %d: projection must have 12 values, got %d", i, len(cc.Projection))
		}
	}
	return nil
}

func (cfg *Config) resolve(path string) string {
	if filepath.IsAbs(path) || cfg.baseDir == "" {
		return path
	}
	return filepath.Join(cfg.baseDir, path)
}

// LoadCameras instantiates the scene's camera list in track-matrix order.
func (cfg *Config) LoadCameras() ([]Camera, error) {
	cameras := make([]Camera, len(cfg.Cameras))
	for i, cc := range cfg.Cameras {
		if CameraModel(cfg.CameraModel) == ModelRPC {
			rpc, err := LoadRPCCamera(cfg.resolve(cc.RPCFile))
			if err != nil {
				return nil, fmt.Errorf("camera %d: %w", i, err)
			}
			cameras[i] = rpc
			continue
		}
		pc, err := NewProjectiveCamera(mat.NewDense(3, 4, cc.Projection))
		if err != nil {
			return nil, fmt.Errorf("camera %d: %w", i, err)
		}
		cameras[i] = pc
	}
	return cameras, nil
}

// LoadTracks reads the correspondence matrix from the configured JSON file:
// an array of 2*n_cameras rows, null marking a missing observation.
func (cfg *Config) LoadTracks() (*TrackMatrix, error) {
	raw, err := os.ReadFile(cfg.resolve(cfg.TracksFile))
	if err != nil {
		return nil, err
	}
	var rows [][]*float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parsing tracks %s: %w", cfg.TracksFile, err)
	}
	dense := make([][]float64, len(rows))
	for i, r := range rows {
		dense[i] = make([]float64, len(r))
		for j, v := range r {
			if v == nil {
				dense[i][j] = math.NaN()
			} else {
				dense[i][j] = *v
			}
		}
	}
	m, err := TrackMatrixFromRows(dense)
	if err != nil {
		return nil, err
	}
	if m.NumCameras() != len(cfg.Cameras) {
		return nil, fmt.Errorf("tracks file has %d cameras, config has %d", m.NumCameras(), len(cfg.Cameras))
	}
	return m, nil
}
