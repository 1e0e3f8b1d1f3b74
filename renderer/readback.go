package renderer

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Readback renders the surface offscreen at the given size and copies the
// pixels to CPU memory. Row 0 of the result is the top of the screen.
// The surface's own viewport size is restored afterwards.
func (s *Surface) Readback(width, height int32) *image.RGBA {
	target := rl.LoadRenderTexture(width, height)
	defer rl.UnloadRenderTexture(target)

	prevW, prevH := s.width, s.height
	s.Resize(width, height)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	s.Draw()
	rl.EndTextureMode()

	s.Resize(prevW, prevH)

	// Texture rows come back bottom-up (OpenGL convention), so flip them
	img := rl.LoadImageFromTexture(target.Texture)
	defer rl.UnloadImage(img)
	rl.ImageFlipVertical(img)

	colors := rl.LoadImageColors(img)
	defer rl.UnloadImageColors(colors)

	out := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for i, c := range colors {
		out.SetRGBA(i%int(width), i/int(width), color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
	}
	return out
}
