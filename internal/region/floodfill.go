package region

import "image"

// floodFill sets every pixel 4-connected to seed that shares the seed's value
// to value. pix is a row-major buffer of dims. It returns the number of pixels
// changed.
//
// Visited pixels are tracked in a scratch mask padded by one pixel on every
// side, with the padding pre-marked so scans stop at the raster edge.
func floodFill(pix []byte, dims Dims, seed image.Point, value byte) int {
	if !dims.Contains(seed) {
		return 0
	}

	w, h := dims.Width, dims.Height
	target := pix[seed.Y*w+seed.X]
	if target == value {
		return 0
	}

	stride := w + 2
	visited := make([]bool, (h+2)*stride)
	for x := 0; x < stride; x++ {
		visited[x] = true
		visited[(h+1)*stride+x] = true
	}
	for y := 0; y < h+2; y++ {
		visited[y*stride] = true
		visited[y*stride+w+1] = true
	}

	inside := func(x, y int) bool {
		return !visited[(y+1)*stride+x+1] && pix[y*w+x] == target
	}

	filled := 0
	stack := []image.Point{seed}
	for len(stack) > 0 {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !inside(pt.X, pt.Y) {
			continue
		}

		x0 := pt.X
		for x0 > 0 && inside(x0-1, pt.Y) {
			x0--
		}
		x1 := pt.X
		for x1 < w-1 && inside(x1+1, pt.Y) {
			x1++
		}

		for x := x0; x <= x1; x++ {
			visited[(pt.Y+1)*stride+x+1] = true
			pix[pt.Y*w+x] = value
			filled++
		}

		for _, ny := range [2]int{pt.Y - 1, pt.Y + 1} {
			if ny < 0 || ny >= h {
				continue
			}
			// Push one seed per run of fillable pixels on the neighbouring row.
			inRun := false
			for x := x0; x <= x1; x++ {
				if inside(x, ny) {
					if !inRun {
						stack = append(stack, image.Pt(x, ny))
						inRun = true
					}
				} else {
					inRun = false
				}
			}
		}
	}
	return filled
}
