// lodtool is a CLI utility for exercising the LOD scheduler without a GPU.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/layer"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simulate", "sim":
		cmdSimulate(args)
	case "pick":
		cmdPick(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lodtool - headless LOD streaming utility

Usage:
  lodtool <command> [options]

Commands:
  simulate [-frames N] [-json] [-metrics addr]   Fly a camera over the grid and print frame stats
  pick [-x X -y Y] [-altitude Z] [-projection p]  Settle the tree under a point and list ray hits
  config [-o file]                                Print or write the default config

Common options:
  -config file   Config file (default: ./config.yaml or the user config dir)
  -depth N       Override streaming.max_depth

Examples:
  lodtool simulate -frames 300
  lodtool simulate -json -depth 6 > frames.jsonl
  lodtool pick -x 1000 -y 1000 -altitude 20
  lodtool pick -projection epsg3857 -x 0.01 -y 0.01
  lodtool config -o config.yaml`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// commonFlags registers -config and -depth on fs.
func commonFlags(fs *flag.FlagSet) (configPath *string, depth *int) {
	configPath = fs.String("config", "", "Path to config file")
	depth = fs.Int("depth", -1, "Override streaming max depth")
	return configPath, depth
}

// setup loads the config, applies overrides and starts logging.
func setup(configPath string, depth int) *config.Config {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fatalf("%v", err)
	}
	if depth >= 0 {
		cfg.Streaming.MaxDepth = depth
	}
	if err := logger.Init(cfg.Logging.Options()); err != nil {
		fatalf("logger: %v", err)
	}
	return cfg
}

// newLayer builds a headless grid layer with lighting from cfg. The
// returned options must stay reachable for as long as the layer draws.
func newLayer(cfg *config.Config, proj projection.Projection) (*layer.ModelLODTreeLayer, *layer.GridSource, *lod.Options) {
	src, err := layer.NewGridSource(layer.GridOptions{
		Size:         cfg.Streaming.RegionSize,
		MaxDepth:     cfg.Streaming.MaxDepth,
		RefineFactor: cfg.Streaming.RefineFactor,
		Projection:   proj,
		NewModel:     layer.HeadlessFactory,
	})
	if err != nil {
		fatalf("%v", err)
	}
	opts, err := cfg.Lighting.Options()
	if err != nil {
		fatalf("%v", err)
	}

	l := layer.NewModelLODTreeLayer("grid", src)
	l.SetOptions(opts)
	l.OnSurfaceCreated()
	return l, src, opts
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	out := fs.String("o", "", "Write to file instead of stdout")
	fs.Parse(args)

	cfg := config.Default()
	if *out != "" {
		if err := cfg.SaveTo(*out); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Wrote %s\n", *out)
		return
	}

	data, err := cfg.Marshal()
	if err != nil {
		fatalf("%v", err)
	}
	os.Stdout.Write(data)
}
