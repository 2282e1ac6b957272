package rpctriangulate

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
	return path
}

func TestLoadConfigProjectiveScene(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tracks.json", `[
		[100.0, null],
		[200.0, null],
		[110.0, 50.0],
		[210.0, 60.0]
	]`)
	path := writeFile(t, dir, "scene.json", `{
		"camera_model": "perspective",
		"cameras": [
			{"projection": [1000, 0, 500, 0, 0, 1000, 500, 0, 0, 0, 1, 10]},
			{"projection": [1000, 0, 500, 3000, 0, 1000, 500, 0, 0, 0, 1, 10]}
		],
		"tracks_file": "tracks.json",
		"pairs": [{"i": 0, "j": 1}]
	}`)

	cfg, err := LoadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Pairs, test.ShouldResemble, []CameraPair{{I: 0, J: 1}})

	cameras, err := cfg.LoadCameras()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cameras, test.ShouldHaveLength, 2)

	m, err := cfg.LoadTracks()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumCameras(), test.ShouldEqual, 2)
	test.That(t, m.NumTracks(), test.ShouldEqual, 2)
	_, ok := m.Observation(0, 1)
	test.That(t, ok, test.ShouldBeFalse)
	pt, ok := m.Observation(0, 0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt.X, test.ShouldEqual, 100.0)
	test.That(t, pt.Y, test.ShouldEqual, 200.0)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{CameraModel: "orthographic"}
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = &Config{CameraModel: "rpc"}
	test.That(t, cfg.Validate(), test.ShouldNotBeNil) // no cameras

	cfg = &Config{
		CameraModel: "rpc",
		Cameras:     []CameraConfig{{}},
		TracksFile:  "tracks.json",
	}
	test.That(t, cfg.Validate(), test.ShouldNotBeNil) // rpc camera without rpc_file

	cfg = &Config{
		CameraModel: "affine",
		Cameras:     []CameraConfig{{Projection: []float64{1, 2, 3}}},
		TracksFile:  "tracks.json",
	}
	test.That(t, cfg.Validate(), test.ShouldNotBeNil) // short projection

	cfg = &Config{
		CameraModel: "affine",
		Cameras:     []CameraConfig{{Projection: make([]float64, 12)}},
		TracksFile:  "tracks.json",
	}
	test.That(t, cfg.Validate(), test.ShouldBeNil)
}

func TestLoadRPCCameraFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rpc.json", `{
		"row_num": [0, 1, 0, 0.3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
		"row_den": [1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
		"col_num": [0, 0, 1, 0.2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
		"col_den": [1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
		"lat_offset": 44.0, "lat_scale": 0.05,
		"lon_offset": 5.0, "lon_scale": 0.05,
		"alt_offset": 500, "alt_scale": 500,
		"row_offset": 10000, "row_scale": 10000,
		"col_offset": 10000, "col_scale": 10000
	}`)

	cam, err := LoadRPCCamera(path)
	test.That(t, err, test.ShouldBeNil)

	want := linearRPC(0.3, 0.2)
	test.That(t, cam, test.ShouldResemble, want)
}
