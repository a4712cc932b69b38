// Package window runs the viewer as an ebiten game: pointer input feeds the
// selection disambiguator and the camera, every update steps the session.
package window

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/time/rate"

	"github.com/slickgotchi/thereaalm/internal/adapter/render/camera"
	"github.com/slickgotchi/thereaalm/internal/adapter/render/scene"
	"github.com/slickgotchi/thereaalm/internal/app/session"
)

var (
	background   = color.RGBA{R: 0x13, G: 0x13, B: 0x13, A: 0xff}
	selectionClr = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

type Options struct {
	Width  int
	Height int
	Title  string
}

type Game struct {
	ctx     context.Context
	session *session.Session
	camera  *camera.Camera
	scene   scene.Scene

	wheel   *rate.Limiter
	last    time.Time
	pressed bool
	w, h    int
}

func NewGame(ctx context.Context, s *session.Session, cam *camera.Camera, sc scene.Scene, opts Options) *Game {
	return &Game{
		ctx:     ctx,
		session: s,
		camera:  cam,
		scene:   sc,
		wheel:   rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		w:       opts.Width,
		h:       opts.Height,
	}
}

func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	now := time.Now()
	dt := time.Duration(0)
	if !g.last.IsZero() {
		dt = now.Sub(g.last)
	}
	g.last = now

	g.input(now)
	g.session.Step(g.ctx, dt)
	return nil
}

func (g *Game) input(now time.Time) {
	sel := g.session.Selection()
	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.pressed = true
		sel.PointerDown(x, y, now)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.pressed = false
		sel.PointerUp(x, y, now)
	case g.pressed:
		sel.PointerMove(x, y, now)
	}
	sel.Tick(now)

	if _, wy := ebiten.Wheel(); wy != 0 && g.wheel.Allow() {
		g.camera.ZoomAt(x, y, wy)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	frames := g.session.Frames()
	for _, r := range g.scene.Layout(frames, g.w, g.h) {
		vector.DrawFilledRect(screen, r.X, r.Y, r.W, r.H, r.Fill, false)
		if r.Selected {
			vector.StrokeRect(screen, r.X, r.Y, r.W, r.H, 2, selectionClr, false)
		}
		if r.Label != "" {
			ebitenutil.DebugPrintAt(screen, r.Label, int(r.X), int(r.Y+r.H)+2)
		}
	}
	st := g.session.Status()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("entities %d  zoom %.3f  tps %.0f", st.Entities, g.camera.Zoom, ebiten.ActualTPS()), 4, 4)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.w, g.h = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(g *Game, opts Options) error {
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}
