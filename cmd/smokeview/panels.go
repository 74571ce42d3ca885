package main

import (
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/engine/ui"
	"github.com/Faultbox/voxsmoke/internal/smoke"
	"github.com/Faultbox/voxsmoke/internal/smoke/composite"
	"github.com/Faultbox/voxsmoke/internal/smoke/noise"
	"github.com/Faultbox/voxsmoke/internal/smoke/raymarch"
	"github.com/Faultbox/voxsmoke/internal/smoke/voxel"
)

var (
	phases      = []raymarch.Phase{raymarch.HenyeyGreenstein, raymarch.Mie, raymarch.Rayleigh}
	resolutions = []composite.Resolution{composite.Full, composite.Half, composite.Quarter}
	filters     = []composite.Filter{composite.Bilinear, composite.Bicubic}
	debugViews  = []composite.DebugView{
		composite.ViewNone, composite.ViewAlbedo, composite.ViewMask,
		composite.ViewSmokeDepth, composite.ViewSceneDepth,
	}
	absModes = []noise.AbsMode{noise.AbsNone, noise.AbsWhileSumming, noise.AbsOnSum}
	stages   = []smoke.Stage{
		smoke.StageNoise, smoke.StageGrid, smoke.StageDecals,
		smoke.StageRaymarch, smoke.StageComposite,
	}
)

// render is called once per frame by the backend.
func (app *App) render() {
	select {
	case path := <-app.pendingPath:
		app.loadScene(path)
	default:
	}

	app.handleShortcuts()
	app.step()

	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open Scene...") {
				app.openSceneDialog()
			}
			if imgui.MenuItemBool("Save Config") {
				app.saveConfig()
			}
			if imgui.MenuItemBool("Screenshot") {
				app.screenshot()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Exit") {
				app.Close()
				os.Exit(0)
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}

	posX, posY, width, height := app.backend.GetViewport()
	controlsWidth := float32(360)
	slicesWidth := float32(300)
	statusBarHeight := float32(30)
	contentHeight := height - statusBarHeight
	viewWidth := width - controlsWidth - slicesWidth

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	imgui.SetNextWindowPos(imgui.NewVec2(posX, posY))
	imgui.SetNextWindowSize(imgui.NewVec2(controlsWidth, contentHeight))
	if imgui.BeginV("Controls", nil, flags) {
		app.renderControls()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(posX+controlsWidth, posY))
	imgui.SetNextWindowSize(imgui.NewVec2(viewWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags|imgui.WindowFlagsNoScrollbar) {
		app.renderViewport()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(posX+controlsWidth+viewWidth, posY))
	imgui.SetNextWindowSize(imgui.NewVec2(slicesWidth, contentHeight))
	if imgui.BeginV("Slices", nil, flags) {
		app.renderSlices()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(posX, posY+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(width, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		grid := app.effect.Grid()
		imgui.Text(fmt.Sprintf("%s | %.0f FPS | %s | %d filled | %d decals | %s",
			app.sceneName, app.fps, grid.State(), grid.FilledCount(),
			app.effect.Decals().Count(), app.status))
	}
	imgui.End()
}

func (app *App) handleShortcuts() {
	if imgui.IsAnyItemActive() {
		return
	}
	if ui.IsKeyPressed(imgui.KeySpace) {
		app.fire()
	}
	if ui.IsKeyPressed(imgui.KeyF12) {
		app.screenshot()
	}
}

func (app *App) renderControls() {
	app.renderGridControls()
	app.renderNoiseControls()
	app.renderRenderControls()
	app.renderCompositeControls()
	app.renderTimings()
}

func (app *App) renderGridControls() {
	if !imgui.TreeNodeExStrV("Grid", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	defer imgui.TreePop()

	grid := app.effect.Grid()
	imgui.Text(fmt.Sprintf("State: %s", grid.State()))
	imgui.ProgressBarV(grid.Progress(), imgui.NewVec2(-1, 0), "")
	nx, ny, nz := grid.Resolution()
	imgui.Text(fmt.Sprintf("Voxels: %dx%dx%d, %d static", nx, ny, nz, grid.StaticCount()))

	if imgui.Button("Detonate") {
		app.detonate(app.cfg.TriggerPoint(app.scene))
	}
	imgui.SameLine()
	if imgui.Button("Fire") {
		app.fire()
	}
	imgui.Checkbox("Paused", &app.paused)
	imgui.SliderFloatV("Time scale", &app.timeScale, 0.1, 3, "%.1fx", imgui.SliderFlagsNone)

	imgui.Separator()
	imgui.TextDisabled("Applied on rebuild")
	vc := &app.effCfg.Voxel
	imgui.SliderFloatV("Growth speed", &vc.GrowthSpeed, 0.1, 5, "%.2f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Voxel size", &vc.VoxelSize, 0.1, 1, "%.2f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Radius X", &vc.MaxRadius.X, 0.5, vc.BoundsExtent.X, "%.2f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Radius Y", &vc.MaxRadius.Y, 0.5, vc.BoundsExtent.Y*2, "%.2f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Radius Z", &vc.MaxRadius.Z, 0.5, vc.BoundsExtent.Z, "%.2f", imgui.SliderFlagsNone)
	faces := vc.Connectivity == voxel.Faces
	if imgui.Checkbox("Face neighbours only", &faces) {
		vc.Connectivity = voxel.Full
		if faces {
			vc.Connectivity = voxel.Faces
		}
	}
	for _, name := range voxel.EaseNames() {
		if imgui.SelectableBoolV(name, vc.Ease == name, 0, imgui.NewVec2(0, 0)) {
			vc.Ease = name
		}
	}
	if imgui.Button("Rebuild") {
		if err := app.rebuild(); err != nil {
			app.status = "rebuild failed: " + err.Error()
			app.log.Error("rebuild", zap.Error(err))
		}
	}
}

func (app *App) renderNoiseControls() {
	if !imgui.TreeNodeExStrV("Noise", imgui.TreeNodeFlagsNone) {
		return
	}
	defer imgui.TreePop()

	params := app.effect.Noise().Params()
	changed := false

	octaves := int32(params.Octaves)
	if imgui.SliderIntV("Octaves", &octaves, 1, 8, "%d", imgui.SliderFlagsNone) {
		params.Octaves = int(octaves)
		changed = true
	}
	cell := int32(params.CellSize)
	if imgui.SliderIntV("Cell size", &cell, 2, int32(params.Resolution), "%d", imgui.SliderFlagsNone) {
		params.CellSize = int(cell)
		changed = true
	}
	changed = imgui.SliderFloatV("Frequency", &params.Frequency, 1, 4, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Persistence", &params.Persistence, 0.1, 1, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Warp", &params.Warp, 0, 16, "%.1f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Add", &params.Add, -0.5, 0.5, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.Checkbox("Invert", &params.Invert) || changed
	changed = imgui.Checkbox("Clamp", &params.Clamp) || changed
	for _, m := range absModes {
		if imgui.SelectableBoolV("Abs: "+m.String(), params.AbsMode == m, 0, imgui.NewVec2(0, 0)) {
			params.AbsMode = m
			changed = true
		}
	}

	imgui.Text(fmt.Sprintf("Seed: %d, generation %d", params.Seed, app.effect.Noise().Generation()))
	if imgui.Button("New seed") {
		params.Seed++
		changed = true
	}
	if changed {
		app.effect.RequestNoise(params)
	}
}

func (app *App) renderRenderControls() {
	if !imgui.TreeNodeExStrV("Raymarch", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	defer imgui.TreePop()

	p := app.effect.RenderParams()
	changed := false

	steps := int32(p.StepCount)
	if imgui.SliderIntV("Steps", &steps, 8, 256, "%d", imgui.SliderFlagsNone) {
		p.StepCount = int(steps)
		changed = true
	}
	changed = imgui.SliderFloatV("Step size", &p.StepSize, 0.01, 0.3, "%.3f", imgui.SliderFlagsNone) || changed
	lightSteps := int32(p.LightStepCount)
	if imgui.SliderIntV("Light steps", &lightSteps, 0, 16, "%d", imgui.SliderFlagsNone) {
		p.LightStepCount = int(lightSteps)
		changed = true
	}
	changed = imgui.SliderFloatV("Density", &p.VolumeDensity, 0, 20, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Shadow density", &p.ShadowDensity, 0, 5, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Falloff", &p.DensityFalloff, 0, 2, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Absorption", &p.Absorption, 0, 3, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Scattering", &p.Scattering, 0, 3, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Anisotropy", &p.G, -0.9, 0.9, "%.2f", imgui.SliderFlagsNone) || changed
	for _, ph := range phases {
		if imgui.SelectableBoolV("Phase: "+ph.String(), p.Phase == ph, 0, imgui.NewVec2(0, 0)) {
			p.Phase = ph
			changed = true
		}
	}
	changed = imgui.SliderFloatV("Noise scale", &p.NoiseScale, 0.01, 1, "%.3f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Noise strength", &p.NoiseStrength, 0, 2, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Alpha threshold", &p.AlphaThreshold, 0, 0.2, "%.3f", imgui.SliderFlagsNone) || changed

	imgui.Separator()
	changed = imgui.Checkbox("Density slice", &p.Slice.Enabled) || changed
	if p.Slice.Enabled {
		axis := int32(p.Slice.Axis)
		if imgui.SliderIntV("Slice axis", &axis, 0, 2, "%d", imgui.SliderFlagsNone) {
			p.Slice.Axis = int(axis)
			changed = true
		}
		changed = imgui.SliderFloatV("Slice position", &p.Slice.Position, 0, 1, "%.2f", imgui.SliderFlagsNone) || changed
	}

	if changed {
		if err := app.effect.SetRenderParams(p); err != nil {
			app.status = err.Error()
		}
	}
}

func (app *App) renderCompositeControls() {
	if !imgui.TreeNodeExStrV("Composite", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	defer imgui.TreePop()

	cfg := app.effect.Compositor().Config()
	changed := false

	for _, r := range resolutions {
		if imgui.SelectableBoolV("Resolution: "+r.String(), cfg.Resolution == r, 0, imgui.NewVec2(0, 0)) {
			cfg.Resolution = r
			changed = true
		}
	}
	for _, f := range filters {
		if imgui.SelectableBoolV("Filter: "+f.String(), cfg.Filter == f, 0, imgui.NewVec2(0, 0)) {
			cfg.Filter = f
			changed = true
		}
	}
	changed = imgui.SliderFloatV("Sharpness", &cfg.Sharpness, 0, 1, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.Checkbox("Depth aware", &cfg.DepthAware) || changed
	for _, v := range debugViews {
		if imgui.SelectableBoolV("View: "+v.String(), cfg.DebugView == v, 0, imgui.NewVec2(0, 0)) {
			cfg.DebugView = v
			changed = true
		}
	}
	changed = imgui.SliderFloatV("Depth range", &cfg.DepthRange, 1, 100, "%.0f", imgui.SliderFlagsNone) || changed

	imgui.Separator()
	imgui.SliderFloatV("Exposure", &app.exposure, 0.1, 4, "%.2f", imgui.SliderFlagsNone)
	imgui.Checkbox("Show bounds", &app.showBounds)

	if changed {
		app.effect.SetCompositeConfig(cfg)
	}
}

func (app *App) renderTimings() {
	if !imgui.TreeNodeExStrV("Timings", imgui.TreeNodeFlagsNone) {
		return
	}
	defer imgui.TreePop()

	for _, s := range stages {
		imgui.Text(fmt.Sprintf("%-10s %v", s, app.timings[s]))
	}
}

// renderViewport draws the frame. Left click detonates at the hit point, right drag
// orbits and the wheel zooms.
func (app *App) renderViewport() {
	avail := imgui.ContentRegionAvail()
	origin := imgui.CursorScreenPos()
	size := app.frameTex.Image(avail.X, avail.Y)
	if !imgui.IsItemHovered() || size.X == 0 {
		app.lastMouse = imgui.MousePos()
		return
	}

	mouse := imgui.MousePos()
	if imgui.IsMouseDown(imgui.MouseButtonRight) {
		app.cam.HandleDrag(mouse.X-app.lastMouse.X, mouse.Y-app.lastMouse.Y)
	}
	app.lastMouse = mouse

	if wheel := imgui.CurrentIO().MouseWheel(); wheel != 0 {
		app.cam.HandleZoom(wheel)
	}

	if imgui.IsItemClicked() {
		px := (mouse.X - origin.X) / size.X * float32(app.width)
		py := (mouse.Y - origin.Y) / size.Y * float32(app.height)
		hit, ok := app.scene.Raycast(app.view().Ray(px, py), app.cfg.Scene.RaycastDistance)
		if ok {
			app.detonate(hit.Point)
		} else {
			app.status = "no surface under the cursor"
		}
	}
}

func (app *App) renderSlices() {
	grid := app.effect.Grid()
	nx, ny, nz := grid.Resolution()
	dims := [3]int{nx, ny, nz}

	imgui.Text("Voxel fill")
	if imgui.SliderIntV("Axis", &app.sliceAxis, 0, 2, "%d", imgui.SliderFlagsNone) {
		app.sliceIndex = int32(dims[app.sliceAxis] / 2)
	}
	imgui.SliderIntV("Index", &app.sliceIndex, 0, int32(dims[app.sliceAxis]-1), "%d", imgui.SliderFlagsNone)
	avail := imgui.ContentRegionAvail()
	app.voxelTex.Image(avail.X, avail.X)

	imgui.Separator()
	imgui.Text("Noise")
	res := app.effect.Noise().Params().Resolution
	imgui.SliderIntV("Layer", &app.noiseSlice, 0, int32(res-1), "%d", imgui.SliderFlagsNone)
	avail = imgui.ContentRegionAvail()
	app.noiseTex.Image(avail.X, avail.X)
}

func (app *App) saveConfig() {
	cfg := *app.cfg
	p := app.effect.RenderParams()
	cfg.Render.StepCount = p.StepCount
	cfg.Render.StepSize = p.StepSize
	cfg.Render.LightStepCount = p.LightStepCount
	cfg.Render.VolumeDensity = p.VolumeDensity
	cfg.Render.ShadowDensity = p.ShadowDensity
	cfg.Render.DensityFalloff = p.DensityFalloff
	cfg.Render.Absorption = p.Absorption
	cfg.Render.Scattering = p.Scattering
	cfg.Render.Anisotropy = p.G
	cfg.Render.Phase = p.Phase.String()
	cfg.Render.NoiseScale = p.NoiseScale
	cfg.Render.NoiseStrength = p.NoiseStrength
	cfg.Render.AlphaThreshold = p.AlphaThreshold

	c := app.effect.Compositor().Config()
	cfg.Composite.Resolution = c.Resolution.String()
	cfg.Composite.Filter = c.Filter.String()
	cfg.Composite.Sharpness = c.Sharpness
	cfg.Composite.DepthAware = c.DepthAware
	cfg.Composite.DebugView = c.DebugView.String()
	cfg.Composite.DepthRange = c.DepthRange

	n := app.effect.Noise().Params()
	cfg.Noise.Resolution = n.Resolution
	cfg.Noise.Octaves = n.Octaves
	cfg.Noise.CellSize = n.CellSize
	cfg.Noise.Frequency = n.Frequency
	cfg.Noise.Persistence = n.Persistence
	cfg.Noise.Warp = n.Warp
	cfg.Noise.Add = n.Add
	cfg.Noise.Invert = n.Invert
	cfg.Noise.Seed = n.Seed
	cfg.Noise.AbsMode = n.AbsMode.String()
	cfg.Noise.Clamp = n.Clamp

	vc := app.effCfg.Voxel
	cfg.Voxel.GrowthSpeed = vc.GrowthSpeed
	cfg.Voxel.VoxelSize = vc.VoxelSize
	cfg.Voxel.MaxRadius = vc.MaxRadius.Array()
	cfg.Voxel.Connectivity = int(vc.Connectivity)
	cfg.Voxel.Ease = vc.Ease

	if err := cfg.Save(); err != nil {
		app.status = "save failed: " + err.Error()
		app.log.Error("save config", zap.Error(err))
		return
	}
	app.status = "config saved"
}
