package choir

import (
	"math"
	"time"

	"github.com/cwbudde/algo-choir/dsp"
	"github.com/cwbudde/algo-choir/phoneme"
)

type formantLane struct {
	exc exciter
	res [phoneme.Bands]dsp.Resonator
	// Channels 0..Bands-1 are center frequencies, the rest bandwidths.
	bank   *dsp.SmootherBank
	values [2 * phoneme.Bands]float32
	cur    *phoneme.Phoneme
	f0     float32

	vibPhase float64
	tick     int
}

// FormantMethod drives five serial resonators toward the formant target of
// the current phoneme.
type FormantMethod struct {
	sampleRate float32
	lanes      []formantLane

	pulseMix    float32
	breathiness float32
	glottal     dsp.GlottalModel
	smoothing   float32
	outputGain  float32

	vibRate, vibDepth float32
	// Per-sample vibrato for the next block, set by SetVibratoCurve.
	rateCurve, depthCurve []float32

	stats methodStats
}

// NewFormantMethod creates an unprepared formant method with default settings.
func NewFormantMethod() *FormantMethod {
	m := &FormantMethod{}
	m.SetParams(NewDefaultParams())
	return m
}

func (m *FormantMethod) Name() string { return MethodFormant.String() }

func (m *FormantMethod) Prepare(p MethodParams) error {
	if p.SampleRate <= 0 || p.Voices < 1 || p.MaxBlockSize < 1 {
		return invalidArgf("formant: bad prepare params %+v", p)
	}
	m.sampleRate = p.SampleRate
	m.lanes = make([]formantLane, p.Voices)
	for i := range m.lanes {
		l := &m.lanes[i]
		l.exc = newExciter(p.SampleRate, uint32(i)*2654435761+1)
		l.exc.glottal.SetModel(m.glottal)
		l.bank = dsp.NewSmootherBank(2*phoneme.Bands, m.smoothing, p.SampleRate)
		m.snap(l, phoneme.Default())
	}
	m.stats.reset()
	return nil
}

func (m *FormantMethod) SetParams(p *Params) {
	m.pulseMix = p.Formant.PulseMix
	m.breathiness = p.Formant.Breathiness
	m.smoothing = p.Formant.FormantSmoothing
	m.outputGain = p.Formant.OutputGain
	if m.glottal != p.Formant.Glottal {
		m.glottal = p.Formant.Glottal
		for i := range m.lanes {
			m.lanes[i].exc.glottal.SetModel(m.glottal)
		}
	}
	for i := range m.lanes {
		m.lanes[i].bank.SetTimeConstant(m.smoothing, m.sampleRate)
	}
}

// SetExcitationMix sets the glottal share of blended excitations.
func (m *FormantMethod) SetExcitationMix(pulseMix float32) {
	m.pulseMix = dsp.Clamp(pulseMix, 0, 1)
}

func (m *FormantMethod) SetVibrato(rateHz, depthSemitones float32) {
	m.vibRate, m.vibDepth = rateHz, depthSemitones
	m.rateCurve, m.depthCurve = nil, nil
}

// SetVibratoCurve supplies per-sample vibrato rate and depth for the next
// block. The slices are read, not copied, and must cover the block.
func (m *FormantMethod) SetVibratoCurve(rateHz, depthSemitones []float32) {
	m.rateCurve, m.depthCurve = rateHz, depthSemitones
	if n := len(rateHz); n > 0 && len(depthSemitones) >= n {
		m.vibRate, m.vibDepth = rateHz[n-1], depthSemitones[n-1]
	}
}

func (m *FormantMethod) Start(voice int, frequency float32, ph *phoneme.Phoneme) {
	if voice < 0 || voice >= len(m.lanes) {
		return
	}
	if ph == nil {
		ph = phoneme.Default()
	}
	l := &m.lanes[voice]
	l.exc.reset()
	l.vibPhase = 0
	l.f0 = frequency
	l.exc.glottal.SetFrequency(frequency)
	m.snap(l, ph)
}

func (m *FormantMethod) snap(l *formantLane, ph *phoneme.Phoneme) {
	for b := 0; b < phoneme.Bands; b++ {
		l.bank.SetTargetImmediate(b, ph.Target.Freqs[b])
		l.bank.SetTargetImmediate(phoneme.Bands+b, ph.Target.Bandwidths[b])
		l.res[b].Reset()
		l.res[b].SetParameters(ph.Target.Freqs[b], ph.Target.Bandwidths[b], m.sampleRate)
	}
	l.exc.onset(ph)
	l.cur = ph
	l.tick = 0
}

func (m *FormantMethod) retarget(l *formantLane, ph *phoneme.Phoneme) {
	for b := 0; b < phoneme.Bands; b++ {
		l.bank.SetTarget(b, ph.Target.Freqs[b])
		l.bank.SetTarget(phoneme.Bands+b, ph.Target.Bandwidths[b])
	}
	l.exc.onset(ph)
	l.cur = ph
}

func (m *FormantMethod) Process(voice int, frequency, amplitude float32, ph *phoneme.Phoneme, out []float32) error {
	if err := laneIndex(m.Name(), voice, len(m.lanes)); err != nil {
		return err
	}
	start := time.Now()
	if ph == nil {
		ph = phoneme.Default()
	}
	l := &m.lanes[voice]
	if ph != l.cur {
		m.retarget(l, ph)
	}
	if frequency != l.f0 {
		l.f0 = frequency
		l.exc.glottal.SetFrequency(frequency)
	}

	perSample := len(m.rateCurve) >= len(out) && len(m.depthCurve) >= len(out)
	radPerHz := 2 * math.Pi / float64(m.sampleRate)
	vibInc := float64(m.vibRate) * radPerHz
	depth := m.vibDepth
	gain := amplitude * m.outputGain
	for i := range out {
		if perSample {
			vibInc = float64(m.rateCurve[i]) * radPerHz
			depth = m.depthCurve[i]
		}
		l.bank.Next(l.values[:])
		if l.tick == 0 {
			m.updateResonators(l, depth)
		}
		l.tick++
		if l.tick >= controlInterval {
			l.tick = 0
		}
		l.vibPhase += vibInc
		if l.vibPhase >= 2*math.Pi {
			l.vibPhase -= 2 * math.Pi
		}

		y := l.exc.next(ph, m.pulseMix, m.breathiness)
		for b := range l.res {
			y = l.res[b].ProcessCascade(y)
		}
		out[i] = y * gain
	}
	if err := checkBlock(m.Name(), voice, out); err != nil {
		return err
	}
	m.stats.record(1, len(out), m.sampleRate, time.Since(start))
	return nil
}

func (m *FormantMethod) updateResonators(l *formantLane, depth float32) {
	vib := float32(1)
	if depth > 0 {
		vib = semitonesToRatio(depth * float32(math.Sin(l.vibPhase)))
	}
	for b := 0; b < phoneme.Bands; b++ {
		f := l.values[b]
		if b < 2 {
			f *= vib
		}
		l.res[b].SetParameters(f, l.values[phoneme.Bands+b], m.sampleRate)
	}
}

func (m *FormantMethod) ProcessBatch(voices []int, freqs, amps []float32, phs []*phoneme.Phoneme, out [][]float32) error {
	return processBatch(m, voices, freqs, amps, phs, out)
}

func (m *FormantMethod) Reset() {
	for i := range m.lanes {
		l := &m.lanes[i]
		l.exc.reset()
		l.vibPhase = 0
		l.f0 = 0
		m.snap(l, phoneme.Default())
	}
	m.stats.reset()
}

func (m *FormantMethod) Stats() MethodStats { return m.stats.snapshot(m.Name()) }
