package media

import "github.com/gopxl/beep/v2"

// gainStage scales a stream by a linear gain that ramps sample by sample
// toward its target, so gain changes never step audibly.
type gainStage struct {
	src       beep.Streamer
	current   float64
	target    float64
	step      float64
	remaining int
}

func newGainStage(src beep.Streamer, gain float64) *gainStage {
	return &gainStage{src: src, current: gain, target: gain}
}

// set starts a ramp to target over the given number of samples.
func (g *gainStage) set(target float64, samples int) {
	g.target = target
	if samples <= 0 {
		g.current = target
		g.remaining = 0
		return
	}
	g.remaining = samples
	g.step = (target - g.current) / float64(samples)
}

func (g *gainStage) Stream(samples [][2]float64) (int, bool) {
	n, ok := g.src.Stream(samples)
	for i := range samples[:n] {
		if g.remaining > 0 {
			g.current += g.step
			g.remaining--
			if g.remaining == 0 {
				g.current = g.target
			}
		}
		samples[i][0] *= g.current
		samples[i][1] *= g.current
	}
	return n, ok
}

func (g *gainStage) Err() error {
	return g.src.Err()
}
