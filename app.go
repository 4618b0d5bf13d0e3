package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/kwv/damsight/align"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *align.Config
	Session    *align.Session
	Store      *align.Store
	MQTTClient *align.MQTTClient
	Publisher  *align.Publisher
	Dispatcher *align.Dispatcher

	// CLI Flags (effectively dependencies)
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
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.CatalogFile = opts.CatalogFile
	a.TablesFile = opts.TablesFile
	a.StorePath = opts.StorePath
	a.AnchorSpec = opts.AnchorSpec
	a.BoundingRadius = opts.BoundingRadius
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.VectorFormat = opts.VectorFormat
	a.HTTPPort = opts.HTTPPort
}

// loadConfig loads config.yaml and applies CLI overrides on top of it.
func (a *App) loadConfig() *align.Config {
	config, err := align.LoadConfig(a.ConfigFile)
	if err != nil {
		// One-shot modes can run from flags alone; a missing config file is
		// only fatal when nothing else names a catalog.
		if a.CatalogFile == "" {
			log.Fatalf("Failed to load config: %v (looked at %s)", err, a.ConfigFile)
		}
		config = &align.Config{HTTPPort: 8080}
	}

	if a.CatalogFile != "" {
		config.CatalogFile = a.CatalogFile
	}
	if a.TablesFile != "" {
		config.TablesFile = a.TablesFile
	}
	if a.StorePath != "" {
		config.StorePath = a.StorePath
	}
	if a.HTTPPort != 0 {
		config.HTTPPort = a.HTTPPort
	}

	a.Config = config
	return config
}

// loadSession builds a Session from the config: tables, catalog, and the
// store-backed instrument-code catalog when a store path is set.
func (a *App) loadSession(config *align.Config) *align.Session {
	tables, err := align.LoadTables(config.TablesFile)
	if err != nil {
		log.Fatalf("Failed to load tables: %v", err)
	}

	session := align.NewSession(tables)

	points, err := align.ParseCatalogFile(config.CatalogFile)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	session.SetCatalog(points)

	summary := align.SummarizeCatalog(points)
	fmt.Printf("Loaded %d catalog point(s), %d tagged\n", summary.PointCount, summary.TaggedCount)

	if config.StorePath != "" {
		store, err := align.OpenStore(config.StorePath)
		if err != nil {
			log.Fatalf("Failed to open instrument store: %v", err)
		}
		a.Store = store

		codes, err := store.InstrumentCodes()
		if err != nil {
			log.Fatalf("Failed to read instrument codes: %v", err)
		}
		session.SetKnownInstruments(codes)
		fmt.Printf("Loaded %d instrument code(s) from %s\n", len(codes), config.StorePath)
	}

	a.Session = session
	return session
}

// parseAnchorSpec parses a "lon,lat,height" CLI anchor into a WorldAnchor.
func parseAnchorSpec(spec string, boundingRadius float64) (*align.WorldAnchor, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("anchor must be lon,lat,height, got %q", spec)
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing anchor component %q: %w", p, err)
		}
		vals[i] = v
	}

	center := align.FromGeodetic(align.Geodetic{Lon: vals[0], Lat: vals[1], Height: vals[2]})
	return align.NewWorldAnchor(center, boundingRadius), nil
}

// RunAlign performs a one-shot alignment and writes the result to OutputFile.
func (a *App) RunAlign() {
	if a.AnchorSpec == "" {
		log.Fatal("-align requires -anchor lon,lat,height")
	}

	config := a.loadConfig()
	session := a.loadSession(config)

	anchor, err := parseAnchorSpec(a.AnchorSpec, a.BoundingRadius)
	if err != nil {
		log.Fatalf("Invalid anchor: %v", err)
	}
	session.SetAnchor(anchor)

	aligned, err := session.Align()
	if err != nil {
		log.Fatalf("Alignment failed: %v", err)
	}

	linked := 0
	for i := range aligned {
		if aligned[i].Linked() {
			linked++
		}
	}
	fmt.Printf("Aligned %d instrument(s), %d linked\n", len(aligned), linked)

	var data []byte
	if strings.HasSuffix(a.OutputFile, ".geojson") {
		data, err = json.MarshalIndent(align.AlignmentFeatureCollection(aligned), "", "  ")
	} else {
		data, err = json.MarshalIndent(aligned, "", "  ")
	}
	if err != nil {
		log.Fatalf("Error encoding alignment: %v", err)
	}

	if err := os.WriteFile(a.OutputFile, data, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", a.OutputFile, err)
	}
	fmt.Printf("Wrote %s\n", a.OutputFile)
}

// RunResolve resolves one identity and prints the result. A query starting
// with '#' is treated as a numeric feature tag.
func (a *App) RunResolve(query string) {
	config := a.loadConfig()
	session := a.loadSession(config)
	resolver := session.Resolver()

	var res align.Resolution
	if strings.HasPrefix(query, "#") {
		tag, err := strconv.ParseInt(strings.TrimPrefix(query, "#"), 10, 64)
		if err != nil {
			log.Fatalf("Invalid tag %q: %v", query, err)
		}
		res = resolver.ResolveTag(tag)
	} else {
		res = resolver.ResolvePointID(query)
	}

	fmt.Printf("Query:   %s\n", query)
	fmt.Printf("PointID: %s\n", orDash(res.PointID))
	fmt.Printf("DBCode:  %s\n", orDash(res.DBCode))
	fmt.Printf("Tier:    %s\n", res.Tier)

	if res.DBCode != "" && a.Store != nil {
		inst, found, err := a.Store.InstrumentByCode(res.DBCode)
		if err != nil {
			log.Fatalf("Store lookup failed: %v", err)
		}
		if found {
			fmt.Printf("Type:    %s\n", inst.Type)
			if inst.Location != "" {
				fmt.Printf("Location: %s\n", inst.Location)
			}
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RunRender renders the site plan to OutputFile in the configured format.
func (a *App) RunRender() {
	config := a.loadConfig()
	session := a.loadSession(config)

	points := session.Catalog()
	resolved := resolvedCodes(session)

	switch a.RenderFormat {
	case "raster":
		a.renderRaster(points, resolved, a.OutputFile)
	case "vector":
		a.renderVector(points, resolved, a.OutputFile)
	case "both":
		a.renderRaster(points, resolved, "siteplan.png")
		a.renderVector(points, resolved, "siteplan.svg")
	default:
		log.Fatalf("Unknown render format %q (want raster, vector, or both)", a.RenderFormat)
	}
}

func (a *App) renderRaster(points []align.RawCatalogPoint, resolved map[string]string, path string) {
	renderer := align.NewSitePlanRenderer(points, resolved)
	img := renderer.Render()

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Error creating %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Fatalf("Error encoding %s: %v", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func (a *App) renderVector(points []align.RawCatalogPoint, resolved map[string]string, path string) {
	renderer := align.NewVectorRenderer(points, resolved)

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Error creating %s: %v", path, err)
	}
	defer f.Close()

	if a.VectorFormat == "png" || strings.HasSuffix(path, ".png") {
		err = renderer.RenderToPNG(f)
	} else {
		err = renderer.RenderToSVG(f)
	}
	if err != nil {
		log.Fatalf("Error rendering %s: %v", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// resolvedCodes maps every catalog point id to its resolved db code (empty
// for unlinked points), for link-state coloring in the renderers.
func resolvedCodes(session *align.Session) map[string]string {
	resolver := session.Resolver()
	out := make(map[string]string)
	for _, p := range session.Catalog() {
		out[p.PointID] = resolver.ResolvePointID(p.PointID).DBCode
	}
	return out
}

// RunServe starts the combined HTTP and MQTT service
func (a *App) RunServe() {
	fmt.Println("Starting damsight service...")

	config := a.loadConfig()
	session := a.loadSession(config)
	a.Dispatcher = session.NewDispatcher()

	// 1. Anchor from CLI if provided; otherwise it arrives via POST /api/anchor
	if a.AnchorSpec != "" {
		anchor, err := parseAnchorSpec(a.AnchorSpec, a.BoundingRadius)
		if err != nil {
			log.Fatalf("Invalid anchor: %v", err)
		}
		session.SetAnchor(anchor)
		log.Println("World anchor set from command line")
	} else {
		log.Println("World anchor pending (POST /api/anchor when the tileset loads)")
	}

	// 2. MQTT: instrument-catalog subscription + alignment publishing
	mqttClient, err := align.InitMQTT(config, session.SetKnownInstruments)
	if err != nil {
		log.Fatalf("Failed to initialize MQTT: %v", err)
	}
	a.MQTTClient = mqttClient

	if mqttClient != nil {
		a.Publisher = align.NewPublisher(mqttClient.GetClient())
		session.OnAlignment(func(instruments []align.AlignedInstrument) {
			if err := a.Publisher.PublishAlignment(instruments); err != nil {
				log.Printf("Error publishing alignment: %v", err)
			}
		})
		fmt.Println("MQTT alignment publisher initialized")
	}

	// 3. HTTP server
	httpServer := newHTTPServer(session, a.Store, a.Dispatcher, a.Publisher)
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", config.HTTPPort)
		log.Printf("[HTTP] Starting server on %s", addr)
		if err := http.ListenAndServe(addr, httpServer); err != nil {
			log.Fatalf("[HTTP] Server error: %v", err)
		}
	}()

	// 4. Print service info
	fmt.Println("\nService Running")
	fmt.Println("===============")

	if mqttClient != nil {
		fmt.Println("\nMQTT:")
		fmt.Printf("  Instrument catalog topic: %s\n", config.MQTT.InstrumentsTopic)
		publishPrefix := config.MQTT.PublishPrefix
		if publishPrefix == "" {
			publishPrefix = "damsight"
		}
		fmt.Printf("  Publishing alignments to: %s/alignment\n", publishPrefix)
		fmt.Printf("  Publishing picks to:      %s/pick\n", publishPrefix)
	}

	fmt.Printf("\nHTTP endpoints (port %d):\n", config.HTTPPort)
	fmt.Println("  GET  /health                - Health check")
	fmt.Println("  GET  /api/alignment         - Alignment snapshot")
	fmt.Println("  GET  /api/alignment.geojson - Alignment as GeoJSON")
	fmt.Println("  POST /api/anchor            - Set the world anchor")
	fmt.Println("  POST /api/pick              - Dispatch a scene pick")
	fmt.Println("  GET  /api/instruments       - Instrument store records")
	fmt.Println("  GET  /siteplan.svg          - Vector site plan")
	fmt.Println("  GET  /siteplan.png          - Raster site plan")

	fmt.Println("\nPress Ctrl+C to stop")

	// 5. Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	fmt.Println("Service stopped")
}
