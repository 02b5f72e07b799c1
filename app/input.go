package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/viewport"
)

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	layer := a.session.Layer()
	if rl.IsKeyPressed(rl.KeySpace) {
		p := layer.Props()
		p.Animate = !p.Animate
		a.session.SetProps(p)
	}
	if rl.IsKeyPressed(rl.KeyS) {
		a.session.StepOnce()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		a.session.Clear()
	}
	if rl.IsKeyPressed(rl.KeyG) {
		a.toggleProjection()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		a.showOverlay = !a.showOverlay
	}
	if rl.IsKeyPressed(rl.KeyP) {
		a.showPerf = !a.showPerf
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.session.Camera().Reset()
	}

	a.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth = w
	a.screenHeight = h
	a.session.Camera().Resize(float64(w), float64(h))
	a.perf.SetPosition(10, int32(h)-190)
}

// handleCameraInput processes camera pan/zoom controls.
func (a *App) handleCameraInput() {
	cam := a.session.Camera()
	mouse := rl.GetMousePosition()
	overUI := a.controls.Contains(mouse.X, mouse.Y)

	// Pan a fixed number of pixels per frame regardless of zoom
	const panPixels = 8.0
	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(panPixels, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-panPixels, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, panPixels)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, -panPixels)
	}

	if !overUI && rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		cam.Pan(-float64(d.X), -float64(d.Y))
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !overUI {
		cam.ZoomBy(float64(wheel) * 0.25)
	}
	if rl.IsKeyPressed(rl.KeyEqual) {
		cam.ZoomBy(0.5)
	}
	if rl.IsKeyPressed(rl.KeyMinus) {
		cam.ZoomBy(-0.5)
	}
}

// toggleProjection switches between the planar map and the globe.
func (a *App) toggleProjection() {
	cam := a.session.Camera()
	if cam.Projection == viewport.Globe {
		cam.Projection = viewport.Planar
	} else {
		cam.Projection = viewport.Globe
	}
}
