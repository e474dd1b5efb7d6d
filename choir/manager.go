package choir

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-choir/dsp"
	"github.com/cwbudde/algo-choir/phoneme"
)

const (
	// Length of the fade rendered for a stolen voice.
	stealFadeSeconds = 0.005

	defaultQueueSize = 256
)

// Option configures a VoiceManager.
type Option func(*VoiceManager)

// WithSeed seeds the random priority term. Equal seeds give equal renders.
func WithSeed(seed uint64) Option {
	return func(m *VoiceManager) { m.seed = seed }
}

// WithLogger sets the logger used on setup paths. The audio path never logs.
func WithLogger(l *slog.Logger) Option {
	return func(m *VoiceManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithPresets replaces the subharmonic preset table.
func WithPresets(t PresetTable) Option {
	return func(m *VoiceManager) {
		if t != nil {
			m.presets = t
		}
	}
}

// WithParams sets the initial parameters. p is copied and clamped.
func WithParams(p *Params) Option {
	return func(m *VoiceManager) {
		if p != nil {
			m.params = *p
			m.params.Clamp()
		}
	}
}

// WithQueueSize sets the capacity of the control event queue.
func WithQueueSize(n int) Option {
	return func(m *VoiceManager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

type voiceRuntime struct {
	env        Envelope
	kind       MethodKind
	ph         *phoneme.Phoneme
	freq, amp  float32
	panL, panR float32

	tailL, tailR []float32
	tailLen      int
	tailPos      int
}

// VoiceManager turns note events into a stereo mix. NoteOn, NoteOff,
// ProcessBlock and Reset belong to the audio thread; other goroutines talk to
// it through Post and SetParams.
type VoiceManager struct {
	logger    *slog.Logger
	seed      uint64
	capacity  int
	queueSize int
	presets   PresetTable
	params    Params

	alloc   *VoiceAllocator
	methods [numMethods]Method
	voices  []voiceRuntime
	queue   *Queue[Event]

	sampleRate float32
	maxBlock   int
	prepared   bool

	master, attack, release dsp.Smoother
	vibRate, vibDepth       dsp.Smoother

	gainCurve  []float32
	vibRates   []float32
	vibDepths  []float32
	attackCoef []float32
	releaseMul []float32
	tailBuf    []float32
	ids        []int

	bufs       [BatchWidth][]float32
	batchIDs   [BatchWidth]int
	batchFreqs [BatchWidth]float32
	batchAmps  [BatchWidth]float32
	batchPhs   [BatchWidth]*phoneme.Phoneme
	batchOut   [BatchWidth][]float32

	stats statsCounters
}

// NewVoiceManager creates a manager with capacity voice slots.
func NewVoiceManager(capacity int, opts ...Option) (*VoiceManager, error) {
	if capacity < 1 {
		return nil, invalidArgf("capacity must be >= 1 (got %d)", capacity)
	}
	m := &VoiceManager{
		logger:    slog.Default(),
		capacity:  capacity,
		queueSize: defaultQueueSize,
		presets:   DefaultPresets(),
		params:    *NewDefaultParams(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, ok := m.presets.Lookup(m.params.Subharmonic.Preset); !ok && m.params.Subharmonic.Preset != "" {
		return nil, invalidArgf("unknown preset %q", m.params.Subharmonic.Preset)
	}
	m.alloc = NewVoiceAllocator(capacity, m.seed)
	m.methods = [numMethods]Method{
		MethodFormant:     NewFormantMethod(),
		MethodDiphone:     NewDiphoneMethod(),
		MethodSubharmonic: NewSubharmonicMethod(m.presets),
	}
	m.queue = NewQueue[Event](m.queueSize)
	return m, nil
}

// Prepare allocates every buffer for sampleRate and blocks of up to
// maxBlockSize samples. It is the only call that allocates and may be
// repeated; each call starts from a clean state.
func (m *VoiceManager) Prepare(sampleRate float32, maxBlockSize int) error {
	if !isFinite(sampleRate) || sampleRate < 8000 || sampleRate > 192000 {
		return invalidArgf("sample rate %g outside [8000,192000]", sampleRate)
	}
	if maxBlockSize < 1 {
		return invalidArgf("max block size must be >= 1 (got %d)", maxBlockSize)
	}
	m.sampleRate = sampleRate
	m.maxBlock = maxBlockSize

	mp := MethodParams{SampleRate: sampleRate, MaxBlockSize: maxBlockSize, Voices: m.capacity}
	for k := range m.methods {
		m.methods[k].SetParams(&m.params)
		if err := m.methods[k].Prepare(mp); err != nil {
			return fmt.Errorf("prepare %s: %w", m.methods[k].Name(), err)
		}
		m.methods[k].SetParams(&m.params)
	}

	tailLen := int(stealFadeSeconds * sampleRate)
	m.voices = make([]voiceRuntime, m.capacity)
	for i := range m.voices {
		m.voices[i].tailL = make([]float32, tailLen)
		m.voices[i].tailR = make([]float32, tailLen)
	}
	m.tailBuf = make([]float32, tailLen)
	m.gainCurve = make([]float32, maxBlockSize)
	m.vibRates = make([]float32, maxBlockSize)
	m.vibDepths = make([]float32, maxBlockSize)
	m.attackCoef = make([]float32, maxBlockSize)
	m.releaseMul = make([]float32, maxBlockSize)
	m.ids = make([]int, 0, m.capacity)
	for i := range m.bufs {
		m.bufs[i] = make([]float32, maxBlockSize)
	}

	m.alloc.Reset()
	m.initSmoothers()
	m.drainQueue()
	m.stats.reset()
	m.prepared = true

	m.logger.Info("voice manager prepared",
		"sample_rate", sampleRate,
		"max_block", maxBlockSize,
		"voices", m.capacity,
		"params", m.params.String())
	return nil
}

func (m *VoiceManager) initSmoothers() {
	tau := m.params.SmoothingTime
	fs := m.sampleRate
	for _, s := range []struct {
		sm *dsp.Smoother
		v  float32
	}{
		{&m.master, m.params.MasterGain},
		{&m.attack, m.params.Attack},
		{&m.release, m.params.Release},
		{&m.vibRate, m.params.VibratoRate},
		{&m.vibDepth, m.params.VibratoDepth},
	} {
		s.sm.SetTimeConstant(tau, fs)
		s.sm.SetTargetImmediate(s.v)
	}
}

// Prepared reports whether Prepare has succeeded.
func (m *VoiceManager) Prepared() bool { return m.prepared }

// SampleRate returns the prepared sample rate.
func (m *VoiceManager) SampleRate() float32 { return m.sampleRate }

// Capacity returns the number of voice slots.
func (m *VoiceManager) Capacity() int { return m.capacity }

// Presets returns the subharmonic preset table.
func (m *VoiceManager) Presets() PresetTable { return m.presets }

// Params returns a copy of the parameters in effect. Call it from the audio
// thread or while audio is stopped.
func (m *VoiceManager) Params() Params { return m.params }

// Method returns the implementation of kind.
func (m *VoiceManager) Method(kind MethodKind) Method {
	if !kind.Valid() {
		return nil
	}
	return m.methods[kind]
}

// Voice returns a copy of slot id and its envelope state.
func (m *VoiceManager) Voice(id int) (VoiceSlot, EnvelopeState, bool) {
	s, ok := m.alloc.Voice(id)
	if !ok {
		return VoiceSlot{}, EnvIdle, false
	}
	return *s, m.voices[id].env.State(), true
}

// NoteOn starts note with the configured method and the neutral vowel.
func (m *VoiceManager) NoteOn(note int, velocity float32) (int, error) {
	return m.NoteOnWith(note, velocity, m.params.Method, nil)
}

// NoteOnWith starts note with an explicit method and phoneme. A nil phoneme
// selects the neutral vowel. It returns the slot id.
func (m *VoiceManager) NoteOnWith(note int, velocity float32, kind MethodKind, ph *phoneme.Phoneme) (int, error) {
	if !m.prepared {
		return -1, ErrNotPrepared
	}
	if !kind.Valid() {
		return -1, invalidArgf("method %d is not defined", int(kind))
	}
	if ph == nil {
		ph = phoneme.Default()
	} else if err := ph.Validate(); err != nil {
		return -1, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	a, err := m.alloc.Allocate(note, velocity)
	if err != nil {
		return -1, err
	}
	id := a.SlotID
	if a.Stolen {
		m.renderStealTail(id)
		m.stats.stolen.Add(1)
	}
	m.stats.allocations.Add(1)
	m.stats.active.Store(int64(m.alloc.ActiveCount()))

	slot, _ := m.alloc.Voice(id)
	pan := m.params.PanSpread * float32(note-64) / 64
	slot.Pan = dsp.Clamp(pan, -1, 1)

	rt := &m.voices[id]
	rt.kind = kind
	rt.ph = ph
	rt.freq = slot.Frequency
	rt.amp = slot.Amplitude
	rt.panL, rt.panR = equalPowerPan(slot.Pan)
	rt.env.Trigger()
	m.methods[kind].Start(id, rt.freq, ph)
	return id, nil
}

// renderStealTail fades the voice leaving slot id into its tail buffer so
// the eviction does not click.
func (m *VoiceManager) renderStealTail(id int) {
	rt := &m.voices[id]
	n := len(rt.tailL)
	if n == 0 || rt.env.State() == EnvIdle {
		return
	}
	buf := m.tailBuf[:n]
	if err := m.methods[rt.kind].Process(id, rt.freq, rt.amp, rt.ph, buf); err != nil {
		rt.tailLen = 0
		return
	}
	level := rt.env.Level()
	for i, x := range buf {
		fade := 1 - float32(i)/float32(n)
		s := x * level * fade
		rt.tailL[i] = s * rt.panL
		rt.tailR[i] = s * rt.panR
	}
	rt.tailLen = n
	rt.tailPos = 0
}

// NoteOff releases every attacking or sustaining voice playing note. Unknown
// notes are ignored.
func (m *VoiceManager) NoteOff(note int, velocity float32) error {
	if !m.prepared {
		return ErrNotPrepared
	}
	if note < 0 || note > 127 {
		return invalidArgf("note %d outside [0,127]", note)
	}
	if !isFinite(velocity) || velocity < 0 || velocity > 127 {
		return invalidArgf("velocity %g outside [0,127]", velocity)
	}
	for id := range m.voices {
		s, ok := m.alloc.Voice(id)
		if !ok || s.Note != note {
			continue
		}
		m.releaseVoice(id, s)
	}
	return nil
}

// AllNotesOff releases every sounding voice.
func (m *VoiceManager) AllNotesOff() {
	for id := range m.voices {
		if s, ok := m.alloc.Voice(id); ok {
			m.releaseVoice(id, s)
		}
	}
}

func (m *VoiceManager) releaseVoice(id int, s *VoiceSlot) {
	if s.State == VoiceAttack || s.State == VoiceSustain {
		m.voices[id].env.Release()
		s.State = VoiceRelease
	}
}

// SetPhoneme moves the sounding voices of note to ph.
func (m *VoiceManager) SetPhoneme(note int, ph *phoneme.Phoneme) error {
	if !m.prepared {
		return ErrNotPrepared
	}
	if ph == nil {
		return invalidArgf("phoneme is nil")
	}
	if err := ph.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	for id := range m.voices {
		if s, ok := m.alloc.Voice(id); ok && s.Note == note && s.State != VoiceRelease {
			m.voices[id].ph = ph
		}
	}
	return nil
}

// Post queues ev for the start of the next block. It is safe to call from
// one control goroutine while the audio thread runs ProcessBlock. It reports
// false when the queue is full.
func (m *VoiceManager) Post(ev Event) bool {
	if !m.queue.Push(ev) {
		m.stats.dropped.Add(1)
		return false
	}
	return true
}

// SetParams validates p and schedules it for the next block. Before Prepare
// the parameters apply immediately.
func (m *VoiceManager) SetParams(p *Params) error {
	if p == nil {
		return invalidArgf("params are nil")
	}
	cp := *p
	if err := cp.Validate(); err != nil {
		m.logger.Warn("rejected params", "err", err)
		return err
	}
	if cp.Subharmonic.Preset != "" {
		if _, ok := m.presets.Lookup(cp.Subharmonic.Preset); !ok {
			m.logger.Warn("unknown subharmonic preset", "preset", cp.Subharmonic.Preset, "available", m.presets.Names())
			return invalidArgf("unknown preset %q", cp.Subharmonic.Preset)
		}
	}
	if !m.prepared {
		m.applyParams(&cp)
		return nil
	}
	if !m.Post(Event{Kind: EventParams, Params: &cp}) {
		return ErrQueueFull
	}
	return nil
}

func (m *VoiceManager) applyParams(p *Params) {
	m.params = *p
	tau, fs := m.params.SmoothingTime, m.sampleRate
	m.master.SetTimeConstant(tau, fs)
	m.attack.SetTimeConstant(tau, fs)
	m.release.SetTimeConstant(tau, fs)
	m.vibRate.SetTimeConstant(tau, fs)
	m.vibDepth.SetTimeConstant(tau, fs)
	m.master.SetTarget(m.params.MasterGain)
	m.attack.SetTarget(m.params.Attack)
	m.release.SetTarget(m.params.Release)
	m.vibRate.SetTarget(m.params.VibratoRate)
	m.vibDepth.SetTarget(m.params.VibratoDepth)
	for k := range m.methods {
		m.methods[k].SetParams(&m.params)
	}
}

func (m *VoiceManager) drainQueue() {
	for {
		if _, ok := m.queue.Pop(); !ok {
			return
		}
	}
}

func (m *VoiceManager) applyEvents() {
	for {
		ev, ok := m.queue.Pop()
		if !ok {
			return
		}
		var err error
		switch ev.Kind {
		case EventNoteOn:
			kind := ev.Method
			if kind < 0 {
				kind = m.params.Method
			}
			_, err = m.NoteOnWith(ev.Note, ev.Velocity, kind, ev.Phoneme)
		case EventNoteOff:
			err = m.NoteOff(ev.Note, ev.Velocity)
		case EventAllNotesOff:
			m.AllNotesOff()
		case EventParams:
			if ev.Params != nil {
				m.applyParams(ev.Params)
			}
		case EventPhoneme:
			err = m.SetPhoneme(ev.Note, ev.Phoneme)
		}
		if err != nil {
			m.stats.rejected.Add(1)
		}
	}
}

// ProcessBlock renders numSamples frames into outLeft and outRight,
// overwriting them. A method failure stops the block; the returned error then
// wraps ErrSynthesisFailure and the partially written buffers should be
// discarded.
func (m *VoiceManager) ProcessBlock(outLeft, outRight []float32, numSamples int) error {
	if !m.prepared {
		return ErrNotPrepared
	}
	if numSamples <= 0 || numSamples > len(outLeft) || numSamples > len(outRight) {
		return invalidArgf("numSamples %d with buffers of %d/%d", numSamples, len(outLeft), len(outRight))
	}
	start := time.Now()
	m.applyEvents()

	for off := 0; off < numSamples; off += m.maxBlock {
		n := minInt(m.maxBlock, numSamples-off)
		if err := m.processChunk(outLeft[off:off+n], outRight[off:off+n]); err != nil {
			m.stats.failures.Add(1)
			return err
		}
	}

	m.alloc.UpdatePriorities(float32(numSamples) / m.sampleRate)
	m.stats.active.Store(int64(m.alloc.ActiveCount()))
	m.stats.blocks.Add(1)
	m.stats.setCPU(time.Since(start).Seconds() / (float64(numSamples) / float64(m.sampleRate)))
	return nil
}

func (m *VoiceManager) processChunk(left, right []float32) error {
	n := len(left)
	fs := m.sampleRate
	clear(left)
	clear(right)

	for i := 0; i < n; i++ {
		m.gainCurve[i] = m.master.Next()
		m.attackCoef[i] = attackCoefficient(m.attack.Next(), fs)
		m.releaseMul[i] = releaseMultiplier(m.release.Next(), fs)
		m.vibRates[i] = m.vibRate.Next()
		m.vibDepths[i] = m.vibDepth.Next()
	}
	for k := range m.methods {
		if vc, ok := m.methods[k].(vibratoCurver); ok {
			vc.SetVibratoCurve(m.vibRates[:n], m.vibDepths[:n])
			continue
		}
		m.methods[k].SetVibrato(m.vibRate.Current(), m.vibDepth.Current())
	}

	m.mixTails(left, right)

	m.ids = m.alloc.ActiveIDs(m.ids[:0])
	for kind := MethodKind(0); kind < numMethods; kind++ {
		count := 0
		for _, id := range m.ids {
			rt := &m.voices[id]
			if rt.kind != kind {
				continue
			}
			m.batchIDs[count] = id
			m.batchFreqs[count] = rt.freq
			m.batchAmps[count] = rt.amp
			m.batchPhs[count] = rt.ph
			m.batchOut[count] = m.bufs[count][:n]
			count++
			if count == BatchWidth {
				if err := m.renderBatch(kind, count, left, right); err != nil {
					return err
				}
				count = 0
			}
		}
		if count > 0 {
			if err := m.renderBatch(kind, count, left, right); err != nil {
				return err
			}
		}
	}

	for i := 0; i < n; i++ {
		left[i] *= m.gainCurve[i]
		right[i] *= m.gainCurve[i]
	}
	return nil
}

func (m *VoiceManager) renderBatch(kind MethodKind, count int, left, right []float32) error {
	err := m.methods[kind].ProcessBatch(m.batchIDs[:count], m.batchFreqs[:count], m.batchAmps[:count], m.batchPhs[:count], m.batchOut[:count])
	if err != nil {
		var se *SynthesisError
		if errors.As(err, &se) {
			m.dropVoice(kind, se.Voice)
		}
		return err
	}
	for j := 0; j < count; j++ {
		m.mixVoice(m.batchIDs[j], m.batchOut[j], left, right)
	}
	return nil
}

// dropVoice frees a voice whose method failed and restarts its lane so the
// bad state does not carry into later blocks.
func (m *VoiceManager) dropVoice(kind MethodKind, id int) {
	if id < 0 || id >= len(m.voices) {
		return
	}
	rt := &m.voices[id]
	m.methods[kind].Start(id, rt.freq, rt.ph)
	rt.env.Reset()
	m.alloc.Free(id)
	m.stats.active.Store(int64(m.alloc.ActiveCount()))
}

func (m *VoiceManager) mixVoice(id int, buf, left, right []float32) {
	rt := &m.voices[id]
	for i, x := range buf {
		s := x * rt.env.Next(m.attackCoef[i], m.releaseMul[i])
		left[i] += s * rt.panL
		right[i] += s * rt.panR
	}
	switch rt.env.State() {
	case EnvSustain:
		if s, ok := m.alloc.Voice(id); ok && s.State == VoiceAttack {
			s.State = VoiceSustain
		}
	case EnvIdle:
		m.alloc.Free(id)
	}
}

func (m *VoiceManager) mixTails(left, right []float32) {
	for id := range m.voices {
		rt := &m.voices[id]
		if rt.tailPos >= rt.tailLen {
			continue
		}
		k := minInt(len(left), rt.tailLen-rt.tailPos)
		for i := 0; i < k; i++ {
			left[i] += rt.tailL[rt.tailPos+i]
			right[i] += rt.tailR[rt.tailPos+i]
		}
		rt.tailPos += k
	}
}

// Reset silences every voice, clears the counters and restores the
// parameter smoothers. Buffers from Prepare are kept.
func (m *VoiceManager) Reset() {
	m.alloc.Reset()
	for k := range m.methods {
		m.methods[k].Reset()
	}
	for i := range m.voices {
		rt := &m.voices[i]
		rt.env.Reset()
		rt.kind = MethodFormant
		rt.ph = nil
		rt.tailLen, rt.tailPos = 0, 0
	}
	m.initSmoothers()
	m.drainQueue()
	m.stats.reset()
	m.logger.Debug("voice manager reset", "voices", m.capacity)
}
