// Package tone synthesizes the hit cues and plays them on the local speaker.
package tone

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Cue timings
const (
	successNoteDuration = 90 * time.Millisecond
	errorDuration       = 220 * time.Millisecond
	attack              = 5 * time.Millisecond
	release             = 60 * time.Millisecond
)

// oscillator generates a sine or square wave for a fixed number of samples.
type oscillator struct {
	freq     float64
	phase    float64
	position int
	duration int
	square   bool
	rate     beep.SampleRate
}

func newOscillator(freq float64, d time.Duration, square bool, rate beep.SampleRate) *oscillator {
	return &oscillator{freq: freq, duration: rate.N(d), square: square, rate: rate}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}
		var val float64
		if o.square {
			val = -1
			if o.phase < 0.5 {
				val = 1
			}
		} else {
			val = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies a linear attack and release to a stream.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, d time.Duration, rate beep.SampleRate) *envelope {
	return &envelope{streamer: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(d)}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		}
		if left := e.total - e.position; left < e.release && e.release > 0 {
			vol = math.Max(0, float64(left)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// withVolume scales s by a linear factor; 0 or less is silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// SuccessSound is a rising two-note chime.
func SuccessSound(vol float64) beep.Streamer {
	n1 := newEnvelope(newOscillator(880, successNoteDuration, false, sampleRate), successNoteDuration, sampleRate)
	n2 := newEnvelope(newOscillator(1318.51, successNoteDuration, false, sampleRate), successNoteDuration, sampleRate)
	return withVolume(beep.Seq(n1, n2), vol)
}

// ErrorSound is a low square-wave buzz.
func ErrorSound(vol float64) beep.Streamer {
	buzz := newEnvelope(newOscillator(140, errorDuration, true, sampleRate), errorDuration, sampleRate)
	return withVolume(buzz, vol*0.6)
}

// Speaker plays cues on the default audio device.
type Speaker struct {
	mu     sync.Mutex
	volume float64
	mixer  *beep.Mixer
}

// NewSpeaker opens the audio device. Only one speaker may exist per process.
func NewSpeaker(volume float64) (*Speaker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	s := &Speaker{volume: volume, mixer: &beep.Mixer{}}
	speaker.Play(s.mixer)
	return s, nil
}

func (s *Speaker) Success() { s.play(SuccessSound) }
func (s *Speaker) Error()   { s.play(ErrorSound) }

func (s *Speaker) play(sound func(vol float64) beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := sound(s.volume)
	speaker.Lock()
	s.mixer.Add(st)
	speaker.Unlock()
}

// SetVolume changes the volume of cues played from now on.
func (s *Speaker) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

// Close stops playback and releases the device.
func (s *Speaker) Close() {
	speaker.Clear()
	speaker.Close()
}
