package align

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Marker colors for the raster site plan.
var (
	linkedColor     = color.RGBA{33, 118, 210, 255}  // blue: resolved to a store code
	unlinkedColor   = color.RGBA{158, 158, 158, 255} // gray: catalog-only
	planBackground  = color.RGBA{255, 255, 255, 255}
	planGridColor   = color.RGBA{220, 220, 220, 255}
	planOriginColor = color.RGBA{200, 60, 60, 255}
)

// SitePlanRenderer renders a top-down plan view of the instrument catalog:
// east/north offsets in meters, markers colored by link state. It is a
// diagnostic view, not a map of the tiled asset.
type SitePlanRenderer struct {
	Points   []RawCatalogPoint
	Resolved map[string]string // pointID -> dbCode, empty value = unlinked

	Scale       float64 // pixels per meter
	Padding     float64 // meters of padding around the extent
	GridSpacing float64 // meters between grid lines; 0 disables
	MarkerSize  int     // marker radius in pixels
	Labels      bool
}

// NewSitePlanRenderer creates a renderer with default settings.
func NewSitePlanRenderer(points []RawCatalogPoint, resolved map[string]string) *SitePlanRenderer {
	return &SitePlanRenderer{
		Points:      points,
		Resolved:    resolved,
		Scale:       10.0,
		Padding:     5.0,
		GridSpacing: 10.0,
		MarkerSize:  4,
		Labels:      true,
	}
}

// planBounds returns the east/north extent of the catalog in meters,
// always including the local origin since it is the alignment origin.
func (r *SitePlanRenderer) planBounds() (minE, minN, maxE, maxN float64) {
	minE, minN = 0, 0
	maxE, maxN = 0, 0
	for _, p := range r.Points {
		off := LocalOffset(p)
		minE = math.Min(minE, off.X)
		maxE = math.Max(maxE, off.X)
		minN = math.Min(minN, off.Y)
		maxN = math.Max(maxN, off.Y)
	}
	return minE, minN, maxE, maxN
}

// Render draws the plan view into a new RGBA image. North is up.
func (r *SitePlanRenderer) Render() *image.RGBA {
	minE, minN, maxE, maxN := r.planBounds()
	minE -= r.Padding
	minN -= r.Padding
	maxE += r.Padding
	maxN += r.Padding

	width := int(math.Ceil((maxE - minE) * r.Scale))
	height := int(math.Ceil((maxN - minN) * r.Scale))
	if width < 64 {
		width = 64
	}
	if height < 64 {
		height = 64
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, planBackground)

	toPixel := func(east, north float64) (int, int) {
		x := int(math.Round((east - minE) * r.Scale))
		y := int(math.Round((maxN - north) * r.Scale)) // flip: north up
		return x, y
	}

	if r.GridSpacing > 0 {
		for e := math.Floor(minE/r.GridSpacing) * r.GridSpacing; e <= maxE; e += r.GridSpacing {
			x, _ := toPixel(e, 0)
			drawVLine(img, x, planGridColor)
		}
		for n := math.Floor(minN/r.GridSpacing) * r.GridSpacing; n <= maxN; n += r.GridSpacing {
			_, y := toPixel(0, n)
			drawHLine(img, y, planGridColor)
		}
	}

	// Alignment origin cross.
	ox, oy := toPixel(0, 0)
	drawCross(img, ox, oy, 6, planOriginColor)

	for _, p := range r.Points {
		off := LocalOffset(p)
		x, y := toPixel(off.X, off.Y)

		c := unlinkedColor
		if r.Resolved != nil && r.Resolved[p.PointID] != "" {
			c = linkedColor
		}
		drawDisc(img, x, y, r.MarkerSize, c)

		if r.Labels {
			drawText(img, x+r.MarkerSize+3, y+4, p.PointID, color.RGBA{0, 0, 0, 255})
		}
	}

	return img
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawVLine(img *image.RGBA, x int, c color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(x, y, c)
	}
}

func drawHLine(img *image.RGBA, y int, c color.RGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, y, c)
	}
}

func drawCross(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	b := img.Bounds()
	for d := -size; d <= size; d++ {
		if x := cx + d; x >= b.Min.X && x < b.Max.X && cy >= b.Min.Y && cy < b.Max.Y {
			img.SetRGBA(x, cy, c)
		}
		if y := cy + d; y >= b.Min.Y && y < b.Max.Y && cx >= b.Min.X && cx < b.Max.X {
			img.SetRGBA(cx, y, c)
		}
	}
}

func drawDisc(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	b := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := cx+dx, cy+dy
			if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
