// Package ui provides ImGui-based user interface components.
package ui

import (
	"fmt"
	"image"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/logger"
)

// Backend wraps the ImGui SDL backend for the viewer.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	width   int32
	height  int32
	log     *zap.Logger
}

// NewBackend creates the window and the ImGui context.
func NewBackend(title string, width, height int32) (*Backend, error) {
	b := &Backend{
		width:  width,
		height: height,
		log:    logger.Named("ui"),
	}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	b.backend.CreateWindow(title, int(width), int(height))

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init opengl: %w", err)
	}

	b.log.Info("ui backend ready", zap.String("title", title),
		zap.Int32("width", width), zap.Int32("height", height))
	return b, nil
}

// Run starts the main render loop.
func (b *Backend) Run(renderFunc func()) {
	b.backend.Run(renderFunc)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// GetWindowSize returns the size the window was created with.
func (b *Backend) GetWindowSize() (int32, int32) {
	return b.width, b.height
}

// GetViewport returns the main viewport work area.
func (b *Backend) GetViewport() (posX, posY, width, height float32) {
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()
	return workPos.X, workPos.Y, workSize.X, workSize.Y
}

// Texture is an ImGui texture that is re-created whenever its image changes.
type Texture struct {
	tex  *backend.Texture
	w, h int
}

// Set replaces the texture contents with img.
func (t *Texture) Set(img *image.RGBA) {
	t.Release()
	if img == nil {
		return
	}
	t.tex = backend.NewTextureFromRgba(img)
	t.w, t.h = img.Bounds().Dx(), img.Bounds().Dy()
}

// Valid reports whether the texture holds an image.
func (t *Texture) Valid() bool { return t.tex != nil }

// Size returns the pixel size of the last image.
func (t *Texture) Size() (int, int) { return t.w, t.h }

// Release frees the GPU texture.
func (t *Texture) Release() {
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

// Image draws the texture fitted into maxW x maxH, keeping its aspect ratio.
// It returns the drawn size.
func (t *Texture) Image(maxW, maxH float32) imgui.Vec2 {
	if t.tex == nil || t.w == 0 || t.h == 0 {
		imgui.TextDisabled("no image")
		return imgui.NewVec2(0, 0)
	}
	scale := min(maxW/float32(t.w), maxH/float32(t.h))
	size := imgui.NewVec2(float32(t.w)*scale, float32(t.h)*scale)
	imgui.ImageWithBgV(
		t.tex.ID,
		size,
		imgui.NewVec2(0, 0),
		imgui.NewVec2(1, 1),
		imgui.NewVec4(0.15, 0.15, 0.15, 1.0),
		imgui.NewVec4(1, 1, 1, 1),
	)
	return size
}

// IsKeyPressed checks if a key was pressed this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}

// IsKeyDown checks if a key is currently held down.
func IsKeyDown(key imgui.Key) bool {
	return imgui.IsKeyDown(key)
}
