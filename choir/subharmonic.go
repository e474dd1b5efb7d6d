package choir

import (
	"math"
	"time"

	"github.com/chewxy/math32"
	"github.com/cwbudde/algo-choir/dsp"
	"github.com/cwbudde/algo-choir/phoneme"
)

const (
	brightenCornerHz = 3000
	subFormants      = 2
	ventricularDrive = 2.5
	chestBoost       = 1.2
	formantModDepth  = 0.15
)

type subharmonicLane struct {
	glottal dsp.GlottalSource
	dc      dsp.DCBlocker
	tracker dsp.SubharmonicTracker

	res    [phoneme.Bands]dsp.Resonator
	sub    [subFormants]dsp.Resonator
	melody dsp.Resonator
	// melodyNorm scales the melody resonator to unity gain at its peak.
	melodyNorm float32
	bright     *dsp.Brightener

	cur        *phoneme.Phoneme
	f0         float32
	pulsePhase float64
	tick       int
}

// SubharmonicMethod blends a glottal fundamental with a phase-locked
// subharmonic, each filtered through its own formants, in the manner of a
// throat-singing preset.
type SubharmonicMethod struct {
	sampleRate float32
	lanes      []subharmonicLane

	presets      PresetTable
	preset       Preset
	ratio        float32
	mix          float32
	brightnessDB float32
	usePresetF0  bool
	glottal      dsp.GlottalModel
	outputGain   float32

	stats methodStats
}

// NewSubharmonicMethod creates an unprepared method reading presets from
// table. A nil table uses the built-in presets.
func NewSubharmonicMethod(table PresetTable) *SubharmonicMethod {
	if table == nil {
		table = DefaultPresets()
	}
	m := &SubharmonicMethod{presets: table}
	m.preset = builtinPresets[0]
	m.SetParams(NewDefaultParams())
	return m
}

func (m *SubharmonicMethod) Name() string { return MethodSubharmonic.String() }

func (m *SubharmonicMethod) Prepare(p MethodParams) error {
	if p.SampleRate <= 0 || p.Voices < 1 || p.MaxBlockSize < 1 {
		return invalidArgf("subharmonic: bad prepare params %+v", p)
	}
	m.sampleRate = p.SampleRate
	gainDB := float64(m.brightnessDB)
	if gainDB <= 0 {
		gainDB = 6
	}
	m.lanes = make([]subharmonicLane, p.Voices)
	for i := range m.lanes {
		l := &m.lanes[i]
		l.glottal = dsp.NewGlottalSource(p.SampleRate)
		l.glottal.SetModel(m.glottal)
		l.dc = dsp.NewDCBlocker(0.995)
		l.tracker = dsp.NewSubharmonicTracker(p.SampleRate)
		l.bright = dsp.NewBrightener(brightenCornerHz, gainDB, float64(p.SampleRate))
		l.bright.SetEnabled(m.brightnessDB > 0)
		m.snap(l, phoneme.Default())
	}
	m.stats.reset()
	return nil
}

// SetParams selects the preset and overrides. An unknown preset name keeps
// the current preset. The brightening gain is fixed at Prepare; later
// changes only switch the stage on or off.
func (m *SubharmonicMethod) SetParams(p *Params) {
	if pr, ok := m.presets.Lookup(p.Subharmonic.Preset); ok {
		m.preset = pr
	}
	m.ratio = p.Subharmonic.Ratio
	m.mix = p.Subharmonic.Mix
	m.brightnessDB = p.Subharmonic.Brightness
	m.usePresetF0 = p.Subharmonic.UsePresetF0
	m.outputGain = p.Formant.OutputGain
	if m.glottal != p.Formant.Glottal {
		m.glottal = p.Formant.Glottal
		for i := range m.lanes {
			m.lanes[i].glottal.SetModel(m.glottal)
		}
	}
	for i := range m.lanes {
		m.lanes[i].bright.SetEnabled(m.brightnessDB > 0)
		m.lanes[i].tick = 0
	}
}

// Preset returns the active preset.
func (m *SubharmonicMethod) Preset() Preset { return m.preset }

// SelectPreset switches to the named preset.
func (m *SubharmonicMethod) SelectPreset(name string) error {
	pr, ok := m.presets.Lookup(name)
	if !ok {
		return invalidArgf("unknown preset %q", name)
	}
	m.preset = pr
	return nil
}

func (m *SubharmonicMethod) SetVibrato(rateHz, depthSemitones float32) {}

func (m *SubharmonicMethod) Start(voice int, frequency float32, ph *phoneme.Phoneme) {
	if voice < 0 || voice >= len(m.lanes) {
		return
	}
	if ph == nil {
		ph = phoneme.Default()
	}
	frequency = m.fundamental(frequency)
	l := &m.lanes[voice]
	l.glottal.Reset()
	l.glottal.SetFrequency(frequency)
	l.f0 = frequency
	l.dc.Reset()
	l.tracker.Reset()
	l.bright.Reset()
	l.pulsePhase = 0
	m.snap(l, ph)
}

func (m *SubharmonicMethod) fundamental(note float32) float32 {
	if m.usePresetF0 && m.preset.F0 > 0 {
		return m.preset.F0
	}
	return note
}

func (m *SubharmonicMethod) snap(l *subharmonicLane, ph *phoneme.Phoneme) {
	for b := range l.res {
		l.res[b].Reset()
		l.res[b].SetParameters(ph.Target.Freqs[b], ph.Target.Bandwidths[b], m.sampleRate)
	}
	for b := range l.sub {
		l.sub[b].Reset()
		l.sub[b].SetParameters(ph.Target.Freqs[b], ph.Target.Bandwidths[b], m.sampleRate)
	}
	l.melody.Reset()
	m.setMelody(l, 0)
	l.cur = ph
	l.tick = 0
}

func (m *SubharmonicMethod) retarget(l *subharmonicLane, ph *phoneme.Phoneme) {
	for b := range l.res {
		l.res[b].SetParameters(ph.Target.Freqs[b], ph.Target.Bandwidths[b], m.sampleRate)
	}
	for b := range l.sub {
		l.sub[b].SetParameters(ph.Target.Freqs[b], ph.Target.Bandwidths[b], m.sampleRate)
	}
	l.cur = ph
}

func (m *SubharmonicMethod) setMelody(l *subharmonicLane, lfo float32) {
	f := m.preset.MelodyFormant
	bw := m.preset.MelodyBandwidth
	if m.preset.SharpResonance {
		bw *= 0.5
	}
	if m.preset.FormantModulation {
		f *= 1 + formantModDepth*lfo
	}
	l.melody.SetParameters(f, bw, m.sampleRate)
	if peak := l.melody.MagnitudeResponse(l.melody.Frequency()); peak > 0 {
		l.melodyNorm = float32(1 / peak)
	}
}

func (m *SubharmonicMethod) Process(voice int, frequency, amplitude float32, ph *phoneme.Phoneme, out []float32) error {
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
	frequency = m.fundamental(frequency)
	if frequency != l.f0 {
		l.f0 = frequency
		l.glottal.SetFrequency(frequency)
	}

	ratio, mix := m.preset.Ratio, m.mix
	if m.ratio > 0 {
		ratio = m.ratio
	}
	if ph.Sub != nil {
		ratio, mix = ph.Sub.Ratio, ph.Sub.Mix
	}
	if l.tracker.Ratio() != ratio {
		l.tracker.SetRatio(ratio)
	}

	subAmp := m.preset.SubAmplitude
	if m.preset.ChestVoice {
		subAmp *= chestBoost
	}
	pulseInc := 2 * math.Pi * float64(m.preset.PulseRate) / float64(m.sampleRate)
	pulsed := m.preset.PulseRate > 0 && m.preset.PulseDepth > 0
	f0 := l.glottal.Frequency()

	for i := range out {
		var lfo float32
		if pulsed || m.preset.FormantModulation {
			lfo = float32(math.Sin(l.pulsePhase))
			l.pulsePhase += pulseInc
			if l.pulsePhase >= 2*math.Pi {
				l.pulsePhase -= 2 * math.Pi
			}
		}
		if l.tick == 0 && m.preset.FormantModulation {
			m.setMelody(l, lfo)
		}
		l.tick++
		if l.tick >= controlInterval {
			l.tick = 0
		}

		g := l.dc.Process(l.glottal.Next())
		fund := g
		for b := range l.res {
			fund = l.res[b].ProcessCascade(fund)
		}
		fund = fund*m.outputGain + l.melody.Process(g)*l.melodyNorm*m.preset.MelodyAmplitude

		s := l.tracker.Next(f0)
		if m.preset.VentricularFolds {
			s = math32.Tanh(ventricularDrive*s) / math32.Tanh(ventricularDrive)
		}
		for b := range l.sub {
			s = l.sub[b].ProcessCascade(s)
		}

		y := fund*(1-mix) + s*mix*subAmp
		if pulsed {
			y *= 1 - m.preset.PulseDepth*0.5*(1-lfo)
		}
		y = l.bright.Process(y * amplitude)
		out[i] = dsp.Clamp(y, -1, 1)
	}
	if err := checkBlock(m.Name(), voice, out); err != nil {
		return err
	}
	m.stats.record(1, len(out), m.sampleRate, time.Since(start))
	return nil
}

func (m *SubharmonicMethod) ProcessBatch(voices []int, freqs, amps []float32, phs []*phoneme.Phoneme, out [][]float32) error {
	return processBatch(m, voices, freqs, amps, phs, out)
}

func (m *SubharmonicMethod) Reset() {
	for i := range m.lanes {
		l := &m.lanes[i]
		l.glottal.Reset()
		l.dc.Reset()
		l.tracker.Reset()
		l.bright.Reset()
		l.pulsePhase = 0
		l.f0 = 0
		m.snap(l, phoneme.Default())
	}
	m.stats.reset()
}

func (m *SubharmonicMethod) Stats() MethodStats { return m.stats.snapshot(m.Name()) }
