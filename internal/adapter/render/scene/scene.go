// Package scene turns entity frames into screen-space draw commands and
// resolves pointer hits. It has no graphics dependency so it can be tested
// headless.
package scene

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/slickgotchi/thereaalm/internal/adapter/render/camera"
	"github.com/slickgotchi/thereaalm/internal/app/zonesync"
	"github.com/slickgotchi/thereaalm/internal/domain/entity"
)

// Rect is one filled tile-sized quad in screen pixels.
type Rect struct {
	X, Y, W, H float32
	Fill       color.RGBA
	Selected   bool
	Label      string
}

var palette = map[entity.Kind]color.RGBA{
	entity.KindGotchi:             {R: 0xb0, G: 0x6c, B: 0xff, A: 0xff},
	entity.KindLickquidator:       {R: 0xe0, G: 0x3c, B: 0x3c, A: 0xff},
	entity.KindBerryBush:          {R: 0x3c, G: 0x9c, B: 0x4c, A: 0xff},
	entity.KindFomoBerryBush:      {R: 0xd0, G: 0x7c, B: 0x2c, A: 0xff},
	entity.KindKekWoodTree:        {R: 0x2c, G: 0x6c, B: 0x2c, A: 0xff},
	entity.KindAlphaSlateBoulders: {R: 0x80, G: 0x84, B: 0x8c, A: 0xff},
	entity.KindImpassable:         {R: 0x30, G: 0x30, B: 0x30, A: 0xff},
	entity.KindShop:               {R: 0xf0, G: 0xd0, B: 0x40, A: 0xff},
	entity.KindAltar:              {R: 0x40, G: 0xc0, B: 0xe0, A: 0xff},
	entity.KindLickVoid:           {R: 0x5c, G: 0x1c, B: 0x6c, A: 0xff},
}

var unknownFill = color.RGBA{R: 0xff, G: 0x00, B: 0xff, A: 0xff}

func Fill(k entity.Kind) color.RGBA {
	if c, ok := palette[k]; ok {
		return c
	}
	return unknownFill
}

type Scene struct {
	Camera   *camera.Camera
	TileSize int
}

// Layout culls frames outside a viewW x viewH view and returns the rest with
// static entities first so movers draw on top.
func (s Scene) Layout(frames []entity.Frame, viewW, viewH int) []Rect {
	size := float32(float64(s.TileSize) * s.Camera.Zoom)
	if size < 1 {
		size = 1
	}
	ordered := make([]entity.Frame, len(frames))
	copy(ordered, frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !entity.CapabilitiesOf(ordered[i].Kind).Movable && entity.CapabilitiesOf(ordered[j].Kind).Movable
	})

	out := make([]Rect, 0, len(ordered))
	for _, f := range ordered {
		sx, sy := s.Camera.WorldToScreen(f.Pos.X, f.Pos.Y)
		x, y := float32(sx), float32(sy)
		if x+size < 0 || y+size < 0 || x > float32(viewW) || y > float32(viewH) {
			continue
		}
		out = append(out, Rect{
			X: x, Y: y, W: size, H: size,
			Fill:     Fill(f.Kind),
			Selected: f.Selected,
			Label:    label(f),
		})
	}
	return out
}

func label(f entity.Frame) string {
	if !f.Selected {
		return ""
	}
	s := fmt.Sprintf("%s %s", f.Kind, f.ID)
	if f.Health != nil {
		s += fmt.Sprintf(" %d/%d", f.Health.Current, f.Health.Max)
	}
	if f.Action != "" {
		s += " " + f.Action
	}
	return s
}

// Picker resolves screen points to live entities. Movers win over statics on
// the same tile. It reads the registry and must run on the render goroutine.
type Picker struct {
	Camera   *camera.Camera
	Registry *zonesync.Registry
	TileSize int
}

func (p Picker) Pick(x, y float64) (*entity.Entity, bool) {
	wx, wy := p.Camera.ScreenToWorld(x, y)
	size := float64(p.TileSize)
	var hit *entity.Frame
	frames := p.Registry.Frames()
	for i := range frames {
		f := &frames[i]
		if wx < f.Pos.X || wy < f.Pos.Y || wx >= f.Pos.X+size || wy >= f.Pos.Y+size {
			continue
		}
		if hit == nil || (!entity.CapabilitiesOf(hit.Kind).Movable && entity.CapabilitiesOf(f.Kind).Movable) {
			hit = f
		}
	}
	if hit == nil {
		return nil, false
	}
	return p.Registry.Lookup(hit.ZoneID, hit.ID)
}
