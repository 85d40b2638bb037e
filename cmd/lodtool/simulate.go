package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/engine/camera"
	"github.com/Faultbox/midgard-lod/internal/layer"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/metrics"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

// frameRecord is one line of simulate output. Run tells apart runs appended
// to the same file.
type frameRecord struct {
	Run      string  `json:"run"`
	Frame    int     `json:"frame"`
	Distance float64 `json:"distance"`
	lod.FrameStats
}

type statsWriter interface {
	Write(rec frameRecord) error
}

type tableWriter struct {
	w      io.Writer
	header bool
}

func (t *tableWriter) Write(rec frameRecord) error {
	if !t.header {
		fmt.Fprintf(t.w, "%6s %10s %8s %8s %8s %8s %8s %6s\n",
			"frame", "distance", "records", "resident", "pending", "created", "disposed", "drawn")
		t.header = true
	}
	s := rec.FrameStats
	_, err := fmt.Fprintf(t.w, "%6d %10.1f %8d %8d %8d %8d %8d %6d\n",
		rec.Frame, rec.Distance, s.Records, s.Resident, s.Pending, s.Created, s.Disposed, s.Drawn)
	return err
}

type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(rec frameRecord) error {
	return j.enc.Encode(rec)
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath, depth := commonFlags(fs)
	frames := fs.Int("frames", 600, "Frames to simulate")
	reload := fs.Int("reload", 15, "Frames between data source loads")
	jsonOut := fs.Bool("json", false, "Print one JSON object per frame")
	all := fs.Bool("all", false, "Print idle frames too")
	metricsAddr := fs.String("metrics", "", "Serve Prometheus metrics on this address; waits for Ctrl-C after the run")
	fs.Parse(args)

	if *frames < 2 || *reload < 1 {
		fatalf("need -frames >= 2 and -reload >= 1")
	}

	cfg := setup(*configPath, *depth)
	defer logger.Sync()

	run := uuid.NewString()
	log := logger.Named("simulate").With(zap.String("run", run))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *metricsAddr != "" {
		wait := metrics.Serve(ctx, *metricsAddr)
		defer wait()
	}

	l, _, opts := newLayer(cfg, projection.Identity{})
	defer runtime.KeepAlive(opts)
	defer l.Close()

	var out statsWriter = &tableWriter{w: os.Stdout}
	if *jsonOut {
		out = &jsonWriter{enc: json.NewEncoder(os.Stdout)}
	}

	size := cfg.Streaming.RegionSize
	cam := camera.NewOrbitCamera()
	cam.FovY = cfg.Graphics.FOV
	cam.MaxDistance = size * 4
	cam.FitToBounds(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{size, size, 0})
	aspect := float64(cfg.Graphics.Width) / float64(cfg.Graphics.Height)

	// Zoom from the whole region down to the finest tile and back out.
	far := cam.Distance
	near := math.Max(size/math.Exp2(float64(cfg.Streaming.MaxDepth)), cam.MinDistance)
	half := *frames / 2

	var created, disposed int
	for frame := 0; frame < *frames; frame++ {
		if ctx.Err() != nil {
			break
		}

		p := float64(frame) / float64(half)
		if frame > half {
			p = float64(*frames-1-frame) / float64(*frames-1-half)
		}
		cam.Distance = far * math.Pow(near/far, p)
		cam.Yaw += 0.01
		view := layer.ViewFromCamera(cam, aspect)

		if frame%*reload == 0 {
			if err := l.Update(ctx, view); err != nil {
				log.Error("update failed", zap.Error(err))
				break
			}
		}
		l.OnDrawFrame(1.0/60, view)

		stats := l.Renderer().LastFrameStats()
		created += stats.Created
		disposed += stats.Disposed
		if !*all && stats.Created == 0 && stats.Disposed == 0 {
			continue
		}
		if err := out.Write(frameRecord{Run: run, Frame: frame, Distance: cam.Distance, FrameStats: stats}); err != nil {
			fatalf("%v", err)
		}
	}

	log.Info("simulation finished",
		zap.Int("created", created),
		zap.Int("disposed", disposed),
		zap.Int("records", l.Renderer().RecordCount()),
	)

	if *metricsAddr != "" {
		log.Info("serving metrics until interrupted", zap.String("addr", *metricsAddr))
		<-ctx.Done()
	}
}
