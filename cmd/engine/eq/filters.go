package eq

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// Biquad holds normalized coefficients and per-channel state (direct form I).
type Biquad struct {
	b0, b1, b2, a1, a2 float64
	bypass             bool
	x1, x2, y1, y2     [2]float64
}

// Peaking builds an RBJ peaking filter. Bands at 0 dB or at/above Nyquist pass through.
func Peaking(freq, gainDB, q float64, sampleRate beep.SampleRate) Biquad {
	sr := float64(sampleRate)
	if gainDB == 0 || freq <= 0 || freq >= sr/2 {
		return Biquad{bypass: true}
	}
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sr
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	a0 := 1 + alpha/a
	return Biquad{
		b0: (1 + alpha*a) / a0,
		b1: -2 * cosw / a0,
		b2: (1 - alpha*a) / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha/a) / a0,
	}
}

// Response is the filter's magnitude at freq.
func (b *Biquad) Response(freq float64, sampleRate beep.SampleRate) float64 {
	if b.bypass {
		return 1
	}
	w := 2 * math.Pi * freq / float64(sampleRate)
	// H(z) with z = e^{jw}
	numRe := b.b0 + b.b1*math.Cos(w) + b.b2*math.Cos(2*w)
	numIm := -b.b1*math.Sin(w) - b.b2*math.Sin(2*w)
	denRe := 1 + b.a1*math.Cos(w) + b.a2*math.Cos(2*w)
	denIm := -b.a1*math.Sin(w) - b.a2*math.Sin(2*w)
	return math.Hypot(numRe, numIm) / math.Hypot(denRe, denIm)
}

func (b *Biquad) process(ch int, x float64) float64 {
	y := b.b0*x + b.b1*b.x1[ch] + b.b2*b.x2[ch] - b.a1*b.y1[ch] - b.a2*b.y2[ch]
	b.x2[ch], b.x1[ch] = b.x1[ch], x
	b.y2[ch], b.y1[ch] = b.y1[ch], y
	return y
}

// retune swaps coefficients while keeping the delay line, so parameter
// changes during playback do not click.
func (b *Biquad) retune(next Biquad) {
	b.b0, b.b1, b.b2, b.a1, b.a2, b.bypass = next.b0, next.b1, next.b2, next.a1, next.a2, next.bypass
}

// chain runs a source through every band of the graph.
type chain struct {
	graph      *Graph
	src        beep.Streamer
	sampleRate beep.SampleRate
	version    uint64
	bands      [BandCount]Biquad
}

// NewChain wraps src with the graph's peaking filters.
func (g *Graph) NewChain(src beep.Streamer, sampleRate beep.SampleRate) beep.Streamer {
	c := &chain{graph: g, src: src, sampleRate: sampleRate}
	c.refresh()
	return c
}

func (c *chain) refresh() {
	c.version = c.graph.Version()
	gains := c.graph.Gains()
	for i, f := range Frequencies {
		c.bands[i].retune(Peaking(float64(f), gains[i], Q, c.sampleRate))
	}
}

func (c *chain) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.src.Stream(samples)
	if c.graph.Version() != c.version {
		c.refresh()
	}
	for i := range samples[:n] {
		for b := range c.bands {
			band := &c.bands[b]
			if band.bypass {
				continue
			}
			samples[i][0] = band.process(0, samples[i][0])
			samples[i][1] = band.process(1, samples[i][1])
		}
	}
	return n, ok
}

func (c *chain) Err() error {
	return c.src.Err()
}

// StaticCurve returns the compressor output level in dB for an input level
// in dB, with a quadratic soft knee.
func StaticCurve(p CompressorParams, inputDB float64) float64 {
	over := inputDB - p.ThresholdDB
	switch {
	case 2*over < -p.KneeDB:
		return inputDB
	case p.KneeDB > 0 && 2*math.Abs(over) <= p.KneeDB:
		k := over + p.KneeDB/2
		return inputDB + (1/p.Ratio-1)*k*k/(2*p.KneeDB)
	default:
		return p.ThresholdDB + over/p.Ratio
	}
}

type compressor struct {
	graph        *Graph
	src          beep.Streamer
	sampleRate   beep.SampleRate
	envelopeDB   float64
	attackCoeff  float64
	releaseCoeff float64
	params       CompressorParams
}

// NewCompressor wraps the mixed output with the graph's compressor.
func (g *Graph) NewCompressor(src beep.Streamer, sampleRate beep.SampleRate) beep.Streamer {
	p := g.Compressor()
	sr := float64(sampleRate)
	return &compressor{
		graph:        g,
		src:          src,
		sampleRate:   sampleRate,
		params:       p,
		attackCoeff:  math.Exp(-1 / (p.Attack.Seconds() * sr)),
		releaseCoeff: math.Exp(-1 / (p.Release.Seconds() * sr)),
	}
}

func (c *compressor) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.src.Stream(samples)
	for i := range samples[:n] {
		level := math.Max(math.Abs(samples[i][0]), math.Abs(samples[i][1]))
		inDB := -120.0
		if level > 1e-6 {
			inDB = 20 * math.Log10(level)
		}
		reduction := StaticCurve(c.params, inDB) - inDB

		coeff := c.releaseCoeff
		if reduction < c.envelopeDB {
			coeff = c.attackCoeff
		}
		c.envelopeDB = coeff*c.envelopeDB + (1-coeff)*reduction

		gain := math.Pow(10, c.envelopeDB/20)
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
	return n, ok
}

func (c *compressor) Err() error {
	return c.src.Err()
}
