// Package app hosts the wind trail session in a raylib window.
package app

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/renderer"
	"github.com/pthm-cable/windtrail/session"
	"github.com/pthm-cable/windtrail/stream"
	"github.com/pthm-cable/windtrail/ui"
)

// App holds the window state around a session.
type App struct {
	cfg     *config.Config
	session *session.Session

	basemap  *renderer.Basemap
	overlay  *renderer.FieldOverlay
	trails   *renderer.TrailRenderer
	ramp     colorramp.Cache
	hud      *ui.HUD
	perf     *ui.PerfPanel
	controls *ui.ControlsPanel

	showOverlay bool
	showPerf    bool
	drawn       int

	screenWidth, screenHeight float32
}

// New creates the app. The raylib window must already be open.
func New(cfg *config.Config, s *session.Session) *App {
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	s.Camera().Resize(float64(w), float64(h))

	return &App{
		cfg:          cfg,
		session:      s,
		basemap:      renderer.NewBasemap([3]uint8{8, 12, 20}, [3]uint8{14, 24, 38}, 30),
		overlay:      renderer.NewFieldOverlay(0.35),
		trails:       renderer.NewTrailRenderer(false),
		hud:          ui.NewHUD(),
		perf:         ui.NewPerfPanel(10, int32(h)-190, 260),
		controls:     ui.NewControlsPanel(10, 10, 260),
		showPerf:     true,
		screenWidth:  w,
		screenHeight: h,
	}
}

// AttachHub forwards to the session so remote controls reach the layer.
func (a *App) AttachHub(h *stream.Hub) {
	a.session.AttachHub(h)
}

// Update handles input and advances one frame.
func (a *App) Update() {
	a.handleInput()
	a.session.Perf().RecordPresent()
	a.session.Frame(float64(rl.GetFrameTime()))
}

// Draw renders the current frame.
func (a *App) Draw() {
	cam := a.session.Camera()
	layer := a.session.Layer()
	props := layer.Props()

	rl.BeginDrawing()
	a.basemap.Draw(cam)

	if a.showOverlay {
		a.ramp.Extend = props.ExtendRamp
		a.overlay.Update(layer.Raster(), a.ramp.Get(props.ColorStops))
		a.overlay.Draw(cam, props.Bounds)
	}

	a.drawn = a.trails.Draw(a.session.Segments(), cam)

	a.drawUI()
	rl.EndDrawing()
}

func (a *App) drawUI() {
	cam := a.session.Camera()
	layer := a.session.Layer()

	props, action := a.controls.Draw(layer.Props())
	a.session.SetProps(props)
	switch action {
	case ui.ActionStep:
		a.session.StepOnce()
	case ui.ActionClear:
		a.session.Clear()
	case ui.ActionProjection:
		a.toggleProjection()
	}

	a.hud.Draw(int32(a.screenWidth), ui.HUDData{
		Title:      "Wind Trails",
		Tick:       a.session.Tick(),
		FPS:        rl.GetFPS(),
		Zoom:       cam.Zoom,
		Center:     [2]float64{cam.Longitude, cam.Latitude},
		Projection: fmt.Sprintf("%s | %s", cam.Projection, a.cfg.Scheduler.Cadence),
		Stats:      layer.LastStats(),
		Segments:   a.drawn,
		Paused:     !props.Animate,
	})
	if a.showPerf {
		a.perf.Draw(a.session.Perf().Stats())
	}
	a.hud.DrawControls(int32(a.screenHeight),
		"Space: animate | S: step | C: clear | G: globe | F: field | P: perf | H: panel | Drag/arrows: pan | Wheel: zoom | R: reset")
}

// Tick returns the frame count.
func (a *App) Tick() int64 {
	return a.session.Tick()
}

// Unload frees window resources.
func (a *App) Unload() {
	a.overlay.Unload()
}
