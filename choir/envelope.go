package choir

import "github.com/chewxy/math32"

// EnvelopeState is the stage of a voice amplitude envelope.
type EnvelopeState int

const (
	EnvIdle EnvelopeState = iota
	EnvAttack
	EnvSustain
	EnvRelease
)

func (s EnvelopeState) String() string {
	switch s {
	case EnvIdle:
		return "idle"
	case EnvAttack:
		return "attack"
	case EnvSustain:
		return "sustain"
	case EnvRelease:
		return "release"
	default:
		return "unknown"
	}
}

const (
	// Attack completes once the level is this close to 1.
	envAttackDone = 0.999
	// Release completes below this level.
	envReleaseDone = 0.001

	ln1000 = 6.907755278982137
)

// Envelope is an exponential attack/release envelope. Both stages reach
// their end threshold after the configured time.
type Envelope struct {
	state EnvelopeState
	level float32
}

// attackCoefficient is the per-sample approach factor toward 1 that covers
// 99.9% of the distance in attack seconds.
func attackCoefficient(attack, sampleRate float32) float32 {
	if attack <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math32.Exp(-ln1000/(attack*sampleRate))
}

// releaseMultiplier is the per-sample decay factor that falls by 60 dB in
// release seconds.
func releaseMultiplier(release, sampleRate float32) float32 {
	if release <= 0 || sampleRate <= 0 {
		return 0
	}
	return math32.Exp(-ln1000 / (release * sampleRate))
}

// Trigger restarts the attack from silence.
func (e *Envelope) Trigger() {
	e.state = EnvAttack
	e.level = 0
}

// Release enters the release stage. Idle envelopes stay idle.
func (e *Envelope) Release() {
	if e.state == EnvAttack || e.state == EnvSustain {
		e.state = EnvRelease
	}
}

// Next advances one sample with the given per-sample coefficients.
func (e *Envelope) Next(attackCoef, releaseMul float32) float32 {
	switch e.state {
	case EnvAttack:
		e.level += attackCoef * (1 - e.level)
		if e.level >= envAttackDone {
			e.level = 1
			e.state = EnvSustain
		}
	case EnvRelease:
		e.level *= releaseMul
		if e.level < envReleaseDone {
			e.level = 0
			e.state = EnvIdle
		}
	case EnvIdle:
		e.level = 0
	}
	return e.level
}

// State returns the current stage.
func (e *Envelope) State() EnvelopeState { return e.state }

// Level returns the current gain.
func (e *Envelope) Level() float32 { return e.level }

// Reset silences the envelope.
func (e *Envelope) Reset() {
	e.state = EnvIdle
	e.level = 0
}
