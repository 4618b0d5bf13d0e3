package align

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha.
// The canvas library expects premultiplied RGBA.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer renders the instrument catalog as a vector site plan:
// a top-down east/north view in meters with markers colored by link state.
type VectorRenderer struct {
	Points   []RawCatalogPoint
	Resolved map[string]string // pointID -> dbCode; empty value means unlinked

	Padding     float64           // padding in meters around the catalog extent
	GridSpacing float64           // grid line spacing in meters; 0 disables
	MarkerSize  float64           // marker radius in meters
	Resolution  canvas.Resolution // resolution for PNG output

	Linked   color.NRGBA
	Unlinked color.NRGBA
}

// NewVectorRenderer creates a vector renderer with default settings.
func NewVectorRenderer(points []RawCatalogPoint, resolved map[string]string) *VectorRenderer {
	return &VectorRenderer{
		Points:      points,
		Resolved:    resolved,
		Padding:     5.0,
		GridSpacing: 10.0,
		MarkerSize:  0.5,
		Resolution:  canvas.DPI(300),
		Linked:      color.NRGBA{R: 33, G: 118, B: 210, A: 255},
		Unlinked:    color.NRGBA{R: 158, G: 158, B: 158, A: 255},
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the site plan as an SVG to the provided writer.
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	minE, minN, maxE, maxN := r.planBounds()

	width := (maxE - minE) + 2*r.Padding
	height := (maxN - minN) + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, minE, minN, maxE, maxN, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the site plan as a PNG to the provided writer.
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	minE, minN, maxE, maxN := r.planBounds()

	width := (maxE - minE) + 2*r.Padding
	height := (maxN - minN) + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, minE, minN, maxE, maxN, width, height)
	return png.Encode(w, rast)
}

// renderToCanvas renders the site plan to a canvas renderer (shared logic for SVG and PNG).
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, minE, minN, maxE, maxN, width, height float64) {
	// White background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Helper to transform east/north meters to canvas coordinates
	toCanvas := func(east, north float64) (float64, float64) {
		tx := (east - minE) + r.Padding
		ty := (north - minN) + r.Padding
		return tx, ty
	}

	// Grid lines
	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.05
		gridStyle.Dashes = []float64{0.5, 0.5}

		for e := math.Floor(minE/r.GridSpacing) * r.GridSpacing; e <= maxE; e += r.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(e, minN)
			x2, y2 := toCanvas(e, maxN)
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}

		for n := math.Floor(minN/r.GridSpacing) * r.GridSpacing; n <= maxN; n += r.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(minE, n)
			x2, y2 := toCanvas(maxE, n)
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Alignment origin cross
	originStyle := canvas.DefaultStyle
	originStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	originStyle.Stroke = canvas.Paint{Color: canvas.Red}
	originStyle.StrokeWidth = 0.1

	ox, oy := toCanvas(0, 0)
	cross := &canvas.Path{}
	cross.MoveTo(ox-1.0, oy)
	cross.LineTo(ox+1.0, oy)
	cross.MoveTo(ox, oy-1.0)
	cross.LineTo(ox, oy+1.0)
	renderer.RenderPath(cross, originStyle, canvas.Identity)

	// Instrument markers
	for _, p := range r.Points {
		off := LocalOffset(p)
		cx, cy := toCanvas(off.X, off.Y)

		markerColor := r.Unlinked
		if r.Resolved != nil && r.Resolved[p.PointID] != "" {
			markerColor = r.Linked
		}

		markerStyle := canvas.DefaultStyle
		markerStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(markerColor)}
		markerStyle.Stroke = canvas.Paint{Color: canvas.Black}
		markerStyle.StrokeWidth = 0.05

		markerPath := canvas.Circle(r.MarkerSize)
		markerPath = markerPath.Translate(cx, cy)
		renderer.RenderPath(markerPath, markerStyle, canvas.Identity)
	}
}

// planBounds returns the east/north extent of the catalog in meters,
// always including the alignment origin.
func (r *VectorRenderer) planBounds() (minE, minN, maxE, maxN float64) {
	for _, p := range r.Points {
		off := LocalOffset(p)
		minE = math.Min(minE, off.X)
		maxE = math.Max(maxE, off.X)
		minN = math.Min(minN, off.Y)
		maxN = math.Max(maxN, off.Y)
	}
	return minE, minN, maxE, maxN
}
