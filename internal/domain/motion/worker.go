package motion

import (
	"math"
	"time"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

const DefaultTileDuration = 200 * time.Millisecond

// Sample is one emission of the worker. Done is set on the final emission of
// a chain, which always carries DirNone and the exact target pixel.
type Sample struct {
	Pos  world.Vec
	Dir  world.Direction
	Done bool
}

// Worker tweens a presentation along a waypoint chain. It holds at most one
// chain; starting a new one discards the old at its current frame.
type Worker struct {
	tileSize int
	perTile  time.Duration
	emit     func(Sample)

	start     world.Point
	waypoints []world.Waypoint
	elapsed   time.Duration
	total     time.Duration
	tweening  bool
	last      Sample
}

func NewWorker(tileSize int, perTile time.Duration, emit func(Sample)) *Worker {
	if perTile <= 0 {
		perTile = DefaultTileDuration
	}
	if emit == nil {
		emit = func(Sample) {}
	}
	return &Worker{tileSize: tileSize, perTile: perTile, emit: emit}
}

func (w *Worker) IsTweening() bool { return w.tweening }

// Last is the most recent emission.
func (w *Worker) Last() Sample { return w.last }

// Total is the duration of the current chain; zero when idle.
func (w *Worker) Total() time.Duration {
	if !w.tweening {
		return 0
	}
	return w.total
}

// TweenToWaypoints starts a chain from start. An empty chain emits the start
// pixel with DirNone and leaves the worker idle.
func (w *Worker) TweenToWaypoints(start world.Point, waypoints []world.Waypoint) {
	w.Stop()
	if len(waypoints) == 0 {
		w.publish(Sample{Pos: world.PixelOf(start, w.tileSize), Dir: world.DirNone, Done: true})
		return
	}
	w.start = start
	w.waypoints = append(w.waypoints[:0], waypoints...)
	w.elapsed = 0
	w.total = w.perTile * time.Duration(len(waypoints))
	w.tweening = true
	w.publish(Sample{Pos: world.PixelOf(start, w.tileSize), Dir: waypoints[0].Direction})
}

// Stop drops the in-flight chain without emitting.
func (w *Worker) Stop() {
	w.tweening = false
	w.waypoints = w.waypoints[:0]
	w.elapsed = 0
	w.total = 0
}

// Advance moves the chain forward by dt. Completion fires exactly once.
func (w *Worker) Advance(dt time.Duration) {
	if !w.tweening || dt < 0 {
		return
	}
	w.elapsed += dt
	n := len(w.waypoints)
	if w.elapsed >= w.total {
		target := w.waypoints[n-1].Tile()
		w.Stop()
		w.publish(Sample{Pos: world.PixelOf(target, w.tileSize), Dir: world.DirNone, Done: true})
		return
	}

	progress := float64(w.elapsed) / float64(w.total) * float64(n)
	i := int(math.Floor(progress))
	if i > n-1 {
		i = n - 1
	}
	from := w.start
	if i > 0 {
		from = w.waypoints[i-1].Tile()
	}
	to := w.waypoints[i]
	pos := world.PixelOf(from, w.tileSize).Lerp(world.PixelOf(to.Tile(), w.tileSize), progress-float64(i))
	w.publish(Sample{Pos: pos, Dir: to.Direction})
}

func (w *Worker) publish(s Sample) {
	w.last = s
	w.emit(s)
}
