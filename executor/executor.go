// Package executor runs a configured occlusion test: for every input
// scene and every view it builds or loads the spatial index, runs the
// selected estimation strategies and aggregates the occlusion rankings.
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sraesch/raycasting-occlusion/config"
	"github.com/sraesch/raycasting-occlusion/estimator"
	"github.com/sraesch/raycasting-occlusion/index"
	"github.com/sraesch/raycasting-occlusion/log"
	"github.com/sraesch/raycasting-occlusion/sampler"
	"github.com/sraesch/raycasting-occlusion/scene"
	sceneio "github.com/sraesch/raycasting-occlusion/scene/io"
	"github.com/sraesch/raycasting-occlusion/stats"
)

// Frames of the two strategies are expected to agree on at least this
// fraction of their pixels. Falling short is reported, not fatal.
const agreementThreshold = 0.99

// Result is the outcome of one strategy over one view of one scene.
type Result struct {
	SceneFile string
	Method    string
	ViewIndex int

	Ranking estimator.Ranking
	Stats   estimator.TestStats

	// Pixel agreement with the other strategy's frame; 1 when only one
	// strategy ran.
	Agreement float64
}

// Executor drives a test run.
type Executor struct {
	logger log.Logger

	cfg    *config.TestConfig
	outDir string
	stats  *stats.Node
}

// New creates an executor for the configuration. Frames are written below
// outDir when the configuration asks for them.
func New(cfg *config.TestConfig, outDir string, statsNode *stats.Node) *Executor {
	return &Executor{
		logger: log.New("executor"),
		cfg:    cfg,
		outDir: outDir,
		stats:  statsNode,
	}
}

// Run executes the configured test and returns one result per scene, view
// and strategy.
func (e *Executor) Run() ([]Result, error) {
	defer e.stats.Start()()

	e.logger.Infof("%d input scenes, %d views, method %s",
		len(e.cfg.Input), len(e.cfg.Views), e.cfg.Method)

	if e.cfg.WriteFrames {
		if err := os.MkdirAll(e.outDir, 0755); err != nil {
			return nil, err
		}
	}

	var results []Result
	for _, sceneFile := range e.cfg.Input {
		res, err := e.runScene(sceneFile)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", sceneFile, err)
		}
		results = append(results, res...)
	}

	return results, nil
}

func (e *Executor) runScene(sceneFile string) ([]Result, error) {
	sc, err := sceneio.ReadScene(sceneFile)
	if err != nil {
		return nil, err
	}

	ix, err := e.loadOrBuildIndex(sceneFile, sc)
	if err != nil {
		return nil, err
	}

	var estimators []estimator.Estimator
	if e.cfg.Method == config.MethodRaycast || e.cfg.Method == config.MethodBoth {
		estimators = append(estimators, estimator.NewRaycaster(ix, e.cfg.NumThreads))
	}
	if e.cfg.Method == config.MethodRasterize || e.cfg.Method == config.MethodBoth {
		estimators = append(estimators, estimator.NewRasterizer[uint32](sc, e.cfg.NumThreads))
	}

	var results []Result
	for viewIndex, v := range e.cfg.Views {
		view, err := sampler.NewView(v.Camera(), e.cfg.FrameSize, e.cfg.FrameSize)
		if err != nil {
			return nil, fmt.Errorf("view %d: %w", viewIndex, err)
		}

		smp := sampler.New(view)
		if e.cfg.JitterSeed != nil {
			smp = sampler.NewJittered(view, *e.cfg.JitterSeed)
		}

		frames := make([]*estimator.Frame, len(estimators))
		for i, est := range estimators {
			e.logger.Infof("estimate view %d/%d with %s", viewIndex+1, len(e.cfg.Views), est.Name())

			frame := estimator.NewFrame(e.cfg.FrameSize, e.cfg.FrameSize, e.cfg.WriteFrames)
			frames[i] = frame

			stop := e.stats.Child(est.Name()).Start()
			res, err := est.Estimate(smp, frame)
			stop()
			if err != nil {
				return nil, fmt.Errorf("%s estimate of view %d: %w", est.Name(), viewIndex, err)
			}

			results = append(results, Result{
				SceneFile: sceneFile,
				Method:    est.Name(),
				ViewIndex: viewIndex,
				Ranking:   estimator.Aggregate(frame, res.Footprints, len(sc.Objects)),
				Stats:     res.Stats,
				Agreement: 1,
			})

			if e.cfg.WriteFrames {
				if err := e.writeFrames(sceneFile, est.Name(), viewIndex, frame, len(sc.Objects)); err != nil {
					return nil, err
				}
			}
		}

		if len(estimators) == 2 {
			agreement, x, y := estimator.CompareIDBuffers(frames[0], frames[1])
			results[len(results)-2].Agreement = agreement
			results[len(results)-1].Agreement = agreement

			if agreement < agreementThreshold {
				e.logger.Warningf(
					"methods disagree on view %d: %.2f%% agreement, first mismatch at (%d, %d)",
					viewIndex, agreement*100, x, y)
			}
		}
	}

	return results, nil
}

// Load the index persisted next to the scene file if it matches the
// scene, otherwise build it from scratch.
func (e *Executor) loadOrBuildIndex(sceneFile string, sc *scene.Scene) (*index.Index, error) {
	indexFile := strings.TrimSuffix(sceneFile, filepath.Ext(sceneFile)) + ".idx"
	if _, err := os.Stat(indexFile); err == nil {
		ix, err := index.ReadIndex(indexFile)
		if err == nil && ix.NumObjects == len(sc.Objects) && ix.BudgetBytes == e.cfg.BudgetBytes {
			e.logger.Infof("using persisted index %s", indexFile)
			return ix, nil
		}
		e.logger.Warningf("persisted index %s does not match the scene or budget, rebuilding", indexFile)
	}

	defer e.stats.Child("build").Start()()
	return index.Build(sc, index.BuildOptions{
		BudgetBytes: e.cfg.BudgetBytes,
		MaxLeafSize: e.cfg.MaxLeafSize,
	})
}

func (e *Executor) writeFrames(sceneFile, method string, viewIndex int, frame *estimator.Frame, numObjects int) error {
	base := strings.TrimSuffix(filepath.Base(sceneFile), filepath.Ext(sceneFile))
	name := fmt.Sprintf("%s_%s_view_%d", base, method, viewIndex)

	ppm, err := os.Create(filepath.Join(e.outDir, name+".ppm"))
	if err != nil {
		return err
	}
	defer ppm.Close()
	if err := frame.WritePPM(ppm, estimator.Palette(numObjects)); err != nil {
		return err
	}

	pgm, err := os.Create(filepath.Join(e.outDir, name+"_depth.pgm"))
	if err != nil {
		return err
	}
	defer pgm.Close()
	return frame.WriteDepthPGM(pgm)
}
