package sdf

import (
	"github.com/chewxy/math32"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/chazu/regolith/pkg/math3"
)

// HeightField is a rectangular grid of terrain heights sampled bilinearly
// by height-map shapes. Heights are in voxels above the shape's origin.
type HeightField struct {
	w, h   int
	data   []float32
	maxVal float32
}

// NewHeightField wraps w*h height samples in row-major order (x fastest).
func NewHeightField(w, h int, data []float32) *HeightField {
	if len(data) != w*h {
		panic("sdf: height field data length does not match dimensions")
	}
	maxVal := float32(0)
	for _, v := range data {
		if v > maxVal {
			maxVal = v
		}
	}
	return &HeightField{w: w, h: h, data: data, maxVal: maxVal}
}

// NoiseParams tunes fractal noise height-field generation. The zero value
// is not useful; Octaves must be at least 1.
type NoiseParams struct {
	Amplitude   float32
	Scale       float32
	Octaves     int
	Lacunarity  float32
	Persistence float32
}

// NewHeightFieldNoise fills a w*h height field with fractal opensimplex
// noise, offset so all heights are non-negative.
func NewHeightFieldNoise(seed int64, w, h int, p NoiseParams) *HeightField {
	noise := opensimplex.New32(seed)
	data := make([]float32, w*h)
	var minVal float32 = math32.MaxFloat32
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			val := float32(0)
			x1 := float32(x)
			y1 := float32(y)
			amplitude := p.Amplitude
			for i := 0; i < p.Octaves; i++ {
				val += noise.Eval2(x1/p.Scale, y1/p.Scale) * amplitude
				x1 *= p.Lacunarity
				y1 *= p.Lacunarity
				amplitude *= p.Persistence
			}
			data[y*w+x] = val
			if val < minVal {
				minVal = val
			}
		}
	}
	for i := range data {
		data[i] -= minVal
	}
	return NewHeightField(w, h, data)
}

// Size returns the world extent of the field: w-1 by h-1 cells in the
// plane, by the tallest height.
func (hf *HeightField) Size() math3.Vec3 {
	return math3.Vec3{float32(hf.w - 1), float32(hf.h - 1), hf.maxVal}
}

// Sample returns the bilinearly interpolated height at (x, y), clamping
// coordinates to the grid edge.
func (hf *HeightField) Sample(x, y float32) float32 {
	x = math32.Min(math32.Max(x, 0), float32(hf.w-1))
	y = math32.Min(math32.Max(y, 0), float32(hf.h-1))
	x0 := int(math32.Floor(x))
	y0 := int(math32.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > hf.w-1 {
		x1 = hf.w - 1
	}
	if y1 > hf.h-1 {
		y1 = hf.h - 1
	}
	fx := x - float32(x0)
	fy := y - float32(y0)

	h00 := hf.data[y0*hf.w+x0]
	h10 := hf.data[y0*hf.w+x1]
	h01 := hf.data[y1*hf.w+x0]
	h11 := hf.data[y1*hf.w+x1]
	return math3.Lerp(math3.Lerp(h00, h10, fx), math3.Lerp(h01, h11, fx), fy)
}
