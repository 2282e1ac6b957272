package main

import (
	"errors"
	"flag"
	"os"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"

	"rpctriangulate"
)

func main() {
	err := realMain()
	if err != nil {
		panic(err)
	}
}

func realMain() error {
	configPath := flag.String("config", "", "path to a scene config JSON")
	multiview := flag.Bool("multiview", false, "use one multiview solve per track instead of pairwise averaging (projective scenes only)")
	debug := flag.Bool("debug", false, "debug logging, including triangulation progress")
	flag.Parse()

	if *configPath == "" {
		return errors.New("need -config")
	}

	logger := logging.NewLogger("rpctriangulate")
	if *debug {
		logger = logging.NewDebugLogger("rpctriangulate")
	}

	cfg, err := rpctriangulate.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	cameras, err := cfg.LoadCameras()
	if err != nil {
		return err
	}
	tracks, err := cfg.LoadTracks()
	if err != nil {
		return err
	}
	logger.Infof("scene: %d cameras, %d tracks, model %s", tracks.NumCameras(), tracks.NumTracks(), cfg.CameraModel)

	model := rpctriangulate.CameraModel(cfg.CameraModel)

	var estimates []rpctriangulate.TrackEstimate
	if *multiview {
		estimates, err = rpctriangulate.InitPointsMultiview(tracks, cameras, logger)
	} else {
		pairs := cfg.Pairs
		if len(pairs) == 0 {
			pairs, err = selectPairs(cfg, cameras, model)
			if err != nil {
				return err
			}
			logger.Infof("selected %d suitable pairs", len(pairs))
		}
		estimates, err = rpctriangulate.InitPoints(tracks, cameras, model, pairs, logger)
	}
	if err != nil {
		return err
	}

	resolved := 0
	for _, e := range estimates {
		if e.Resolved() {
			resolved++
		}
	}
	stats := rpctriangulate.ReprojectionError(tracks, cameras, estimates)
	logger.Infof("initialized %d/%d tracks, mean reprojection error %.3f px (max %.3f, %d residuals)",
		resolved, len(estimates), stats.Mean, stats.Max, stats.N)

	if cfg.OutputPCD != "" {
		if err := writePCD(cfg.OutputPCD, estimates); err != nil {
			return err
		}
		logger.Infof("wrote %s", cfg.OutputPCD)
	}
	return nil
}

func selectPairs(cfg *rpctriangulate.Config, cameras []rpctriangulate.Camera, model rpctriangulate.CameraModel) ([]rpctriangulate.CameraPair, error) {
	if model != rpctriangulate.ModelRPC {
		return nil, errors.New("config has no pairs and pair selection needs rpc cameras; list pairs explicitly")
	}
	rpcs := make([]*rpctriangulate.RPCCamera, len(cameras))
	for i, cam := range cameras {
		rpcs[i] = cam.(*rpctriangulate.RPCCamera)
	}
	opts := rpctriangulate.PairOptions{}
	if cfg.PairOptions != nil {
		opts = *cfg.PairOptions
	}
	return rpctriangulate.SuitablePairs(rpcs, opts)
}

func writePCD(path string, estimates []rpctriangulate.TrackEstimate) error {
	pc := pointcloud.New()
	for _, e := range estimates {
		if !e.Resolved() {
			continue
		}
		if err := pc.Set(e.Point, nil); err != nil {
			return err
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return pointcloud.ToPCD(pc, out, pointcloud.PCDAscii)
}
