// Synthetic wind field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/colorramp"
	"github.com/pthm-cable/windtrail/config"
	"github.com/pthm-cable/windtrail/field"
	"github.com/pthm-cable/windtrail/session"
)

const (
	windowWidth  = 1100
	windowHeight = 600
	previewW     = 720
	previewH     = 360
	panelWidth   = windowWidth - previewW - 30
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Wind Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := session.SyntheticParams(cfg.Field)
	stops := colorramp.FromFlat(flatStops(cfg.Particle.ColorStops)...)
	table := colorramp.Compile(stops)

	img := rl.GenImageColor(params.Width, params.Height, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var raster *field.Raster
	animating := false
	needsRegen := true

	for !rl.WindowShouldClose() {
		if animating {
			params.Time += float64(rl.GetFrameTime()) * 0.1
			needsRegen = true
		}

		if needsRegen {
			raster = field.Generate(params)
			updateTexture(texture, raster, &table)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{Width: float32(params.Width), Height: float32(params.Height)},
			rl.Rectangle{X: 10, Y: 10, Width: previewW, Height: previewH},
			rl.Vector2{},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		minSpeed, maxSpeed, meanSpeed := speedStats(raster)
		statsY := int32(previewH + 25)
		rl.DrawText(fmt.Sprintf("Speed min: %.1f  max: %.1f  mean: %.1f", minSpeed, maxSpeed, meanSpeed), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.2f", params.Time), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewW + 20)
		panelY := float32(10)
		rl.DrawText("Synthetic Wind Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label string, value, lo, hi float32, format string) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				value, lo, hi,
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		if v := float64(slider("Scale (noise frequency)", float32(params.Scale), 0.5, 10, "%.2f")); v != float64(float32(params.Scale)) {
			params.Scale = v
			needsRegen = true
		}
		if v := int(slider("Octaves (FBM detail)", float32(params.Octaves), 1, 6, "%.0f")); v != params.Octaves {
			params.Octaves = v
			needsRegen = true
		}
		if v := float64(slider("Strength (peak component)", float32(params.Strength), 1, 100, "%.1f")); v != float64(float32(params.Strength)) {
			params.Strength = v
			needsRegen = true
		}
		if v := int64(slider("Seed", float32(params.Seed), 0, 9999, "%.0f")); v != params.Seed {
			params.Seed = v
			needsRegen = true
		}
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			params.Time = 0
			needsRegen = true
		}

		rl.EndDrawing()
	}
}

func flatStops(stops []config.ColorStopConfig) []any {
	flat := make([]any, 0, 2*len(stops))
	for _, s := range stops {
		flat = append(flat, s.Speed, s.Color)
	}
	return flat
}

func speedStats(r *field.Raster) (lo, hi, mean float64) {
	lo = math.Inf(1)
	var sum float64
	var n int
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c := r.Texel(x, y)
			if !r.HasValues(c) {
				continue
			}
			u, v := r.Values(c)
			s := math.Hypot(u, v)
			lo = min(lo, s)
			hi = max(hi, s)
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return lo, hi, sum / float64(n)
}

// updateTexture colors the raster by speed and uploads it.
func updateTexture(texture rl.Texture2D, r *field.Raster, table *colorramp.Table) {
	img := canvas.SpeedImage(r, table)
	pixels := make([]color.RGBA, r.Width*r.Height)
	for i := range pixels {
		p := img.Pix[i*4 : i*4+4]
		pixels[i] = color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
