// Package present shows CPU rendered images in the OpenGL window.
//
// The smoke pipeline renders into float buffers on the CPU; a Presenter uploads the final
// image into a texture each frame and draws it with one full-screen triangle, applying
// exposure and the sRGB transfer in the fragment shader.
package present

import (
	"fmt"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Presenter owns the texture, program and vertex array of the blit.
// IMPORTANT: must be created after the OpenGL context.
type Presenter struct {
	program  uint32
	vao      uint32
	texture  uint32
	texW     int
	texH     int
	exposure float32

	locImage    int32
	locExposure int32
	locLinear   int32

	log *zap.Logger
}

// New initialises OpenGL and builds the blit program.
func New() (*Presenter, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	p := &Presenter{exposure: 1, log: logger.Named("present")}
	p.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	var err error
	p.program, err = compileProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("present program: %w", err)
	}
	p.locImage = uniform(p.program, "uImage")
	p.locExposure = uniform(p.program, "uExposure")
	p.locLinear = uniform(p.program, "uLinear")

	// Core profile requires a bound VAO even without attributes.
	gl.GenVertexArrays(1, &p.vao)

	gl.GenTextures(1, &p.texture)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.Disable(gl.DEPTH_TEST)
	gl.ClearColor(0.1, 0.1, 0.12, 1.0)
	return p, nil
}

// SetExposure sets the multiplier applied before tone mapping.
func (p *Presenter) SetExposure(e float32) { p.exposure = e }

// Upload copies a linear RGBA float image into the texture.
func (p *Presenter) Upload(im *buffer.Image) error {
	if im.C != buffer.ChannelsRGBA {
		return fmt.Errorf("present: need an RGBA image, %q has %d channels", im.Name(), im.C)
	}
	data := im.Data()
	if len(data) == 0 {
		return fmt.Errorf("present: image %q is released", im.Name())
	}

	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	if im.W != p.texW || im.H != p.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(im.W), int32(im.H), 0,
			gl.RGBA, gl.FLOAT, gl.Ptr(data))
		p.texW, p.texH = im.W, im.H
		p.log.Debug("texture reallocated", zap.Int("width", im.W), zap.Int("height", im.H))
		return nil
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(im.W), int32(im.H),
		gl.RGBA, gl.FLOAT, gl.Ptr(data))
	return nil
}

// Draw clears the framebuffer and blits the texture over a width x height viewport.
func (p *Presenter) Draw(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if p.texW == 0 {
		return
	}

	gl.UseProgram(p.program)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.Uniform1i(p.locImage, 0)
	gl.Uniform1f(p.locExposure, p.exposure)
	gl.Uniform1i(p.locLinear, 1)

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// ReadPixels reads the back buffer as RGBA bytes, bottom row first.
func (p *Presenter) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Close deletes the GL objects.
func (p *Presenter) Close() {
	p.log.Info("closing presenter")
	if p.texture != 0 {
		gl.DeleteTextures(1, &p.texture)
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
	}
}
