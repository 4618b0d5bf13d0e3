package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries every CLI-settable option into the App.
type AppOptions struct {
	ConfigFile     string
	CatalogFile    string
	TablesFile     string
	StorePath      string
	AnchorSpec     string
	BoundingRadius float64
	OutputFile     string
	RenderFormat   string
	VectorFormat   string
	HTTPPort       int

	AlignOnly    bool
	ResolveQuery string
	RenderOnly   bool
	ServeMode    bool
}

// AppRunner is the seam between flag parsing and the application, so run()
// can be tested without touching files, brokers, or sockets.
type AppRunner interface {
	ApplyOptions(opts AppOptions)
	RunAlign()
	RunResolve(query string)
	RunRender()
	RunServe()
}

// run parses args and dispatches to exactly one mode on the given app.
func run(args []string, stdout io.Writer, app AppRunner) error {
	fs := flag.NewFlagSet("damsight", flag.ContinueOnError)
	fs.SetOutput(stdout)

	configFile := fs.String("config", "config.yaml", "Path to configuration file")
	catalogFile := fs.String("catalog", "", "Override catalog JSON path from config")
	tablesFile := fs.String("tables", "", "Override tag/alias tables path from config")
	storePath := fs.String("store", "", "Override instrument database path from config")
	anchorSpec := fs.String("anchor", "", "World anchor as lon,lat,height (degrees, degrees, meters)")
	boundingRadius := fs.Float64("radius", 500.0, "Anchor bounding-sphere radius in meters")
	outputFile := fs.String("output", "alignment.json", "Output file for -align / -render modes")
	renderFormat := fs.String("format", "raster", "Render format: raster, vector, or both")
	vectorFormat := fs.String("vector-format", "svg", "Vector output format: svg or png")
	httpPort := fs.Int("http-port", 0, "Override HTTP port from config")

	alignOnly := fs.Bool("align", false, "Run one-shot alignment and exit")
	resolveQuery := fs.String("resolve", "", "Resolve one identity (point id, or #tag) and exit")
	renderOnly := fs.Bool("render", false, "Render the site plan and exit")
	serveMode := fs.Bool("serve", false, "Run the HTTP + MQTT service")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := AppOptions{
		ConfigFile:     *configFile,
		CatalogFile:    *catalogFile,
		TablesFile:     *tablesFile,
		StorePath:      *storePath,
		AnchorSpec:     *anchorSpec,
		BoundingRadius: *boundingRadius,
		OutputFile:     *outputFile,
		RenderFormat:   *renderFormat,
		VectorFormat:   *vectorFormat,
		HTTPPort:       *httpPort,
		AlignOnly:      *alignOnly,
		ResolveQuery:   *resolveQuery,
		RenderOnly:     *renderOnly,
		ServeMode:      *serveMode,
	}
	app.ApplyOptions(opts)

	switch {
	case opts.AlignOnly:
		app.RunAlign()
	case opts.ResolveQuery != "":
		app.RunResolve(opts.ResolveQuery)
	case opts.RenderOnly:
		app.RunRender()
	case opts.ServeMode:
		app.RunServe()
	default:
		printUsage(stdout)
	}

	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "damsight - instrument alignment and identity resolution")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Modes:")
	fmt.Fprintln(w, "  -align                One-shot alignment (requires -anchor)")
	fmt.Fprintln(w, "  -resolve ID|#TAG      Resolve one identity against the tables and store")
	fmt.Fprintln(w, "  -render               Render the site plan to -output")
	fmt.Fprintln(w, "  -serve                Run the HTTP + MQTT service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  config.yaml           MQTT, catalog, tables, store, http settings")
	fmt.Fprintln(w, "  tables.yaml           Tag and alias mapping tables")
}

func main() {
	fmt.Printf("damsight version: %s\n", Version)

	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		os.Exit(2)
	}
}
