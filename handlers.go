package main

import (
	"encoding/json"
	"image/png"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kwv/damsight/align"
)

// apiResponse is the JSON envelope every /api endpoint replies with.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg}); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}

// anchorRequest is the POST /api/anchor payload from the tileset loader.
// Either the world-space center or a geodetic position must be given.
type anchorRequest struct {
	Center         *align.Cartesian3 `json:"center,omitempty"`
	Geodetic       *align.Geodetic   `json:"geodetic,omitempty"`
	BoundingRadius float64           `json:"boundingRadius"`
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(session *align.Session, store *align.Store, dispatcher *align.Dispatcher, publisher *align.Publisher) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status      string    `json:"status"`
			Timestamp   time.Time `json:"timestamp"`
			Ready       bool      `json:"ready"`
			Instruments int       `json:"instruments"`
			Generation  uint64    `json:"generation"`
		}{
			Status:      "ok",
			Timestamp:   time.Now(),
			Ready:       session.Ready(),
			Instruments: session.Registry().Len(),
			Generation:  session.Registry().Generation(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Alignment snapshot
	mux.HandleFunc("/api/alignment", func(w http.ResponseWriter, r *http.Request) {
		instruments := session.Registry().All()

		linked := 0
		for i := range instruments {
			if instruments[i].Linked() {
				linked++
			}
		}

		writeData(w, map[string]any{
			"ready":       session.Ready(),
			"generation":  session.Registry().Generation(),
			"count":       len(instruments),
			"linked":      linked,
			"instruments": instruments,
		})
	})

	// Alignment as a GeoJSON FeatureCollection for the marker layer
	mux.HandleFunc("/api/alignment.geojson", func(w http.ResponseWriter, r *http.Request) {
		instruments := session.Registry().All()
		if len(instruments) == 0 {
			writeError(w, http.StatusServiceUnavailable, "no alignment available")
			return
		}

		w.Header().Set("Content-Type", "application/geo+json")
		fc := align.AlignmentFeatureCollection(instruments)
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			log.Printf("Error encoding GeoJSON: %v", err)
		}
	})

	// World anchor input from the tileset loader
	mux.HandleFunc("/api/anchor", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}

		var req anchorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid anchor payload: "+err.Error())
			return
		}

		var center align.Cartesian3
		switch {
		case req.Center != nil:
			center = *req.Center
		case req.Geodetic != nil:
			center = align.FromGeodetic(*req.Geodetic)
		default:
			writeError(w, http.StatusBadRequest, "anchor needs center or geodetic")
			return
		}

		anchor := align.NewWorldAnchor(center, req.BoundingRadius)
		if !anchor.Valid() {
			writeError(w, http.StatusBadRequest, "anchor is not usable")
			return
		}

		session.SetAnchor(anchor)
		log.Printf("[HTTP] World anchor set (radius %.1fm)", anchor.BoundingRadius)

		writeData(w, map[string]any{
			"ready":      session.Ready(),
			"generation": session.Registry().Generation(),
			"aligned":    session.Registry().Len(),
		})
	})

	// Scene pick dispatch
	mux.HandleFunc("/api/pick", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}

		var input align.PickInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid pick payload: "+err.Error())
			return
		}

		result := dispatcher.Dispatch(input)

		if publisher != nil {
			if err := publisher.PublishPick(result); err != nil {
				log.Printf("Error publishing pick: %v", err)
			}
		}

		writeData(w, result)
	})

	// Instrument store records
	mux.HandleFunc("/api/instruments", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusServiceUnavailable, "no instrument store configured")
			return
		}

		instruments, err := store.Instruments()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeData(w, map[string]any{
			"count":       len(instruments),
			"instruments": instruments,
		})
	})

	// Vector site plan
	mux.HandleFunc("/siteplan.svg", func(w http.ResponseWriter, r *http.Request) {
		points := session.Catalog()
		if len(points) == 0 {
			http.Error(w, "No catalog loaded", http.StatusServiceUnavailable)
			return
		}

		renderer := align.NewVectorRenderer(points, resolvedCodes(session))
		if spacing := gridSpacingParam(r); spacing >= 0 {
			renderer.GridSpacing = spacing
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error rendering site plan SVG: %v", err)
		}
	})

	// Raster site plan
	mux.HandleFunc("/siteplan.png", func(w http.ResponseWriter, r *http.Request) {
		points := session.Catalog()
		if len(points) == 0 {
			http.Error(w, "No catalog loaded", http.StatusServiceUnavailable)
			return
		}

		renderer := align.NewSitePlanRenderer(points, resolvedCodes(session))
		img := renderer.Render()

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding site plan PNG: %v", err)
		}
	})

	return mux
}

// gridSpacingParam reads an optional ?grid=<meters> query parameter.
// Returns -1 when absent or unparsable so the renderer default applies.
func gridSpacingParam(r *http.Request) float64 {
	raw := r.URL.Query().Get("grid")
	if raw == "" {
		return -1
	}
	spacing, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(spacing) || math.IsInf(spacing, 0) || spacing < 0 {
		return -1
	}
	return spacing
}
