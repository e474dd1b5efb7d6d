package choir

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/cwbudde/algo-choir/dsp"
	"github.com/cwbudde/algo-choir/phoneme"
)

// TransitionRatio maps linear progress t in [0,1] of a transition from one
// phoneme class to another onto interpolation progress. Consonant to vowel
// transitions cross 50% at consonantRatio, vowel to consonant ones at
// vowelRatio; like-to-like transitions are linear.
func TransitionRatio(from, to phoneme.Category, t, consonantRatio, vowelRatio float32) float32 {
	t = dsp.Clamp(t, 0, 1)
	fromV := from == phoneme.Vowel
	toV := to == phoneme.Vowel
	var cross float32
	switch {
	case !fromV && toV:
		cross = consonantRatio
	case fromV && !toV:
		cross = vowelRatio
	default:
		return t
	}
	if cross <= 0 || cross >= 1 {
		return t
	}
	if t < cross {
		return 0.5 * t / cross
	}
	return 0.5 + 0.5*(t-cross)/(1-cross)
}

type diphoneLane struct {
	exc exciter
	res [phoneme.Bands]dsp.Resonator

	from, to   *phoneme.Phoneme
	fromTarget phoneme.Target
	current    phoneme.Target
	mix        float32
	pos        int
	f0         float32
	tick       int
}

// DiphoneMethod crossfades formant targets between consecutive phonemes of a
// voice. Each phoneme change starts a transition from wherever the previous
// one had reached.
type DiphoneMethod struct {
	sampleRate float32
	lanes      []diphoneLane

	duration       float32
	curve          float32
	consonantRatio float32
	vowelRatio     float32
	coarticulation bool
	pulseMix       float32
	breathiness    float32
	outputGain     float32
	glottal        dsp.GlottalModel

	stats methodStats
}

// NewDiphoneMethod creates an unprepared diphone method with default settings.
func NewDiphoneMethod() *DiphoneMethod {
	m := &DiphoneMethod{}
	m.SetParams(NewDefaultParams())
	return m
}

func (m *DiphoneMethod) Name() string { return MethodDiphone.String() }

func (m *DiphoneMethod) Prepare(p MethodParams) error {
	if p.SampleRate <= 0 || p.Voices < 1 || p.MaxBlockSize < 1 {
		return invalidArgf("diphone: bad prepare params %+v", p)
	}
	m.sampleRate = p.SampleRate
	m.lanes = make([]diphoneLane, p.Voices)
	for i := range m.lanes {
		l := &m.lanes[i]
		l.exc = newExciter(p.SampleRate, uint32(i)*2246822519+7)
		l.exc.glottal.SetModel(m.glottal)
		m.snap(l, phoneme.Default())
	}
	m.stats.reset()
	return nil
}

func (m *DiphoneMethod) SetParams(p *Params) {
	m.duration = p.Diphone.Duration
	m.curve = p.Diphone.Curve
	m.consonantRatio = p.Diphone.ConsonantRatio
	m.vowelRatio = p.Diphone.VowelRatio
	m.coarticulation = p.Diphone.Coarticulation
	m.pulseMix = p.Formant.PulseMix
	m.breathiness = p.Formant.Breathiness
	m.outputGain = p.Formant.OutputGain
	if m.glottal != p.Formant.Glottal {
		m.glottal = p.Formant.Glottal
		for i := range m.lanes {
			m.lanes[i].exc.glottal.SetModel(m.glottal)
		}
	}
}

// SetTransition overrides duration (seconds) and crossfade curve.
func (m *DiphoneMethod) SetTransition(duration, curve float32) {
	m.duration = dsp.Clamp(duration, 0.01, 1)
	m.curve = dsp.Clamp(curve, 0.1, 3)
}

// SetVibrato is a no-op; diphone voices follow their transition only.
func (m *DiphoneMethod) SetVibrato(rateHz, depthSemitones float32) {}

func (m *DiphoneMethod) Start(voice int, frequency float32, ph *phoneme.Phoneme) {
	if voice < 0 || voice >= len(m.lanes) {
		return
	}
	if ph == nil {
		ph = phoneme.Default()
	}
	l := &m.lanes[voice]
	l.exc.reset()
	l.f0 = frequency
	l.exc.glottal.SetFrequency(frequency)
	m.snap(l, ph)
}

func (m *DiphoneMethod) snap(l *diphoneLane, ph *phoneme.Phoneme) {
	l.from, l.to = ph, ph
	l.fromTarget = ph.Target
	l.current = ph.Target
	l.mix = 1
	l.pos = 0
	l.tick = 0
	for b := range l.res {
		l.res[b].Reset()
		l.res[b].SetParameters(ph.Target.Freqs[b], ph.Target.Bandwidths[b], m.sampleRate)
	}
	l.exc.onset(ph)
}

func (m *DiphoneMethod) begin(l *diphoneLane, ph *phoneme.Phoneme) {
	l.from = l.dominant()
	l.fromTarget = l.current
	l.to = ph
	l.pos = 0
	l.mix = 0
	if !m.coarticulation {
		l.mix = 1
		l.current = ph.Target
	}
	l.exc.onset(ph)
}

func (l *diphoneLane) dominant() *phoneme.Phoneme {
	if l.mix < 0.5 {
		return l.from
	}
	return l.to
}

// Progress returns the interpolation progress of voice in [0,1].
func (m *DiphoneMethod) Progress(voice int) float32 {
	if voice < 0 || voice >= len(m.lanes) {
		return 0
	}
	return m.lanes[voice].mix
}

func (m *DiphoneMethod) Process(voice int, frequency, amplitude float32, ph *phoneme.Phoneme, out []float32) error {
	if err := laneIndex(m.Name(), voice, len(m.lanes)); err != nil {
		return err
	}
	start := time.Now()
	if ph == nil {
		ph = phoneme.Default()
	}
	l := &m.lanes[voice]
	if ph != l.to {
		m.begin(l, ph)
	}
	if frequency != l.f0 {
		l.f0 = frequency
		l.exc.glottal.SetFrequency(frequency)
	}

	length := int(m.duration * m.sampleRate)
	if length < 1 {
		length = 1
	}
	gain := amplitude * m.outputGain
	for i := range out {
		if l.mix < 1 {
			l.pos++
			t := float32(l.pos) / float32(length)
			r := TransitionRatio(l.from.Category, l.to.Category, t, m.consonantRatio, m.vowelRatio)
			l.mix = math32.Pow(r, m.curve)
			if l.pos >= length {
				l.mix = 1
			}
			l.current = phoneme.Lerp(l.fromTarget, l.to.Target, l.mix)
		}
		if l.tick == 0 {
			for b := range l.res {
				l.res[b].SetParameters(l.current.Freqs[b], l.current.Bandwidths[b], m.sampleRate)
			}
		}
		l.tick++
		if l.tick >= controlInterval {
			l.tick = 0
		}

		y := l.exc.next(l.dominant(), m.pulseMix, m.breathiness)
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

func (m *DiphoneMethod) ProcessBatch(voices []int, freqs, amps []float32, phs []*phoneme.Phoneme, out [][]float32) error {
	return processBatch(m, voices, freqs, amps, phs, out)
}

func (m *DiphoneMethod) Reset() {
	for i := range m.lanes {
		l := &m.lanes[i]
		l.exc.reset()
		l.f0 = 0
		m.snap(l, phoneme.Default())
	}
	m.stats.reset()
}

func (m *DiphoneMethod) Stats() MethodStats { return m.stats.snapshot(m.Name()) }
