package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/layer"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

const maxSettleFrames = 100000

func cmdPick(args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	configPath, depth := commonFlags(fs)
	x := fs.Float64("x", 0, "Point X (longitude with -projection epsg3857); default region centre")
	y := fs.Float64("y", 0, "Point Y (latitude with -projection epsg3857); default region centre")
	altitude := fs.Float64("altitude", 10, "Camera height above the ground")
	projName := fs.String("projection", "identity", "Coordinate projection: identity or epsg3857")
	fs.Parse(args)

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := setup(*configPath, *depth)
	defer logger.Sync()

	var proj projection.Projection
	switch strings.ToLower(*projName) {
	case "identity":
		proj = projection.Identity{}
	case "epsg3857", "epsg:3857", "mercator":
		proj = projection.EPSG3857{}
	default:
		fatalf("unknown projection %q", *projName)
	}

	l, _, opts := newLayer(cfg, proj)
	defer runtime.KeepAlive(opts)
	defer l.Close()

	centre := cfg.Streaming.RegionSize / 2
	point := mgl64.Vec3{centre, centre, 0}
	if set["x"] || set["y"] {
		ext := proj.FromInternal(point)
		if set["x"] {
			ext[0] = *x
		}
		if set["y"] {
			ext[1] = *y
		}
		point = proj.ToInternal(ext)
	}
	eye := mgl64.Vec3{point[0], point[1], *altitude}

	view := lod.ViewState{
		Projection: mgl64.Ident4(),
		Modelview:  mgl64.LookAtV(eye, point, mgl64.Vec3{0, 1, 0}),
		CameraPos:  eye,
	}

	frames, err := settle(l, view)
	if err != nil {
		fatalf("%v", err)
	}

	hits := l.Pick(eye, mgl64.Vec3{0, 0, -1}, &view)
	fmt.Printf("Point:   %.6f, %.6f (%s)\n", proj.FromInternal(point)[0], proj.FromInternal(point)[1], proj.Name())
	fmt.Printf("Frames:  %d\n", frames)
	fmt.Printf("Records: %d (%s)\n", l.Renderer().RecordCount(), phaseSummary(l.Renderer().Snapshot()))
	fmt.Println()

	if len(hits) == 0 {
		fmt.Println("No hits")
		return
	}
	fmt.Printf("%-3s %-16s %-14s %-36s %s\n", "#", "feature", "id", "hit", "distance")
	for i, h := range hits {
		fmt.Printf("%-3d %-16s %-14d %-36s %.3f\n", i, h.Feature.Name, h.Feature.ID,
			fmt.Sprintf("(%.6f, %.6f, %.2f)", h.HitPos[0], h.HitPos[1], h.HitPos[2]), h.Distance)
	}
}

// settle loads the tree for view and runs frames until every wanted model
// exists, then reloads once more so stand-in ancestors are released.
func settle(l *layer.ModelLODTreeLayer, view lod.ViewState) (int, error) {
	ctx := context.Background()
	frames := 0
	for pass := 0; pass < 2; pass++ {
		if err := l.Update(ctx, view); err != nil {
			return frames, err
		}
		for {
			frames++
			if !l.OnDrawFrame(0, view) {
				break
			}
			if frames > maxSettleFrames {
				return frames, fmt.Errorf("tree did not settle after %d frames", frames)
			}
		}
	}
	return frames, nil
}

// phaseSummary counts records per lifecycle phase, e.g.
// "12 resident, 1 pending-dispose".
func phaseSummary(nodes []lod.NodeState) string {
	phases := []lod.Phase{lod.PhaseResident, lod.PhasePendingCreate, lod.PhasePendingDispose, lod.PhaseUnused}
	counts := make(map[lod.Phase]int)
	for _, n := range nodes {
		counts[n.Phase()]++
	}
	var parts []string
	for _, p := range phases {
		if counts[p] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[p], p))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}
