// Package routing implements the clip -> group -> master bus mixing graph:
// per-group gain smoothing, mute/solo logic, and the meters the UI thread
// polls for metering displays.
package routing

import (
	"math"
	"sync/atomic"

	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/smoother"
	"github.com/chrislyons/cueengine/status"
)

// MaxGroups bounds the number of mix groups the matrix supports, matching
// spec.md's fixed, pre-allocated routing topology (no group is ever created
// or destroyed on the audio thread).
const MaxGroups = 32

// GroupState holds one group's runtime mix settings. Mute/Solo are plain
// atomics (single booleans, no smoothing needed); Gain is a Smoother so
// changing a group's level is click-free.
type GroupState struct {
	Gain   *smoother.Smoother
	muted  atomic.Bool
	soloed atomic.Bool
}

func newGroupState(sampleRate, smoothingMs float64) *GroupState {
	g := &GroupState{Gain: smoother.New(sampleRate, smoothingMs)}
	g.Gain.Reset(1.0)
	return g
}

// SetMute publishes a new mute flag for the group. UI-thread call, consumed
// by the audio thread on the next buffer.
func (g *GroupState) SetMute(muted bool) { g.muted.Store(muted) }

// SetSolo publishes a new solo flag for the group.
func (g *GroupState) SetSolo(soloed bool) { g.soloed.Store(soloed) }

func (g *GroupState) isMuted() bool  { return g.muted.Load() }
func (g *GroupState) isSoloed() bool { return g.soloed.Load() }

// Matrix accumulates per-group buffers from Voice output, applies
// mute/solo and per-group gain, and sums the result into a single master
// buffer. It owns the metering state the UI thread polls for group and
// master levels.
//
// Every buffer is pre-allocated at construction (spec.md's "no allocation
// inside the real-time render path") and reused across Mix calls — only the
// frame count, never the slice identity, changes per call.
type Matrix struct {
	groups     [MaxGroups]*GroupState
	groupBuf   [MaxGroups][]float32
	masterBuf  []float32
	groupPeak  [MaxGroups]atomic.Uint32
	groupRMS   [MaxGroups]atomic.Uint32
	masterPeak atomic.Uint32
	masterRMS  atomic.Uint32
	numGroups  uint8
	maxFrames  int
	sampleRate float64
}

// NewMatrix builds a Matrix with numGroups groups, each buffer large enough
// for maxFrames samples at sampleRate.
func NewMatrix(numGroups uint8, maxFrames int, sampleRate float64) *Matrix {
	if numGroups > MaxGroups {
		numGroups = MaxGroups
	}
	m := &Matrix{
		numGroups:  numGroups,
		maxFrames:  maxFrames,
		sampleRate: sampleRate,
		masterBuf:  make([]float32, maxFrames),
	}
	for i := 0; i < int(numGroups); i++ {
		m.groups[i] = newGroupState(sampleRate, 10)
		m.groupBuf[i] = make([]float32, maxFrames)
	}
	return m
}

// Group returns the mutable mix state for index, or an error if index is
// out of range.
func (m *Matrix) Group(index uint8) (*GroupState, error) {
	if index >= m.numGroups {
		return nil, status.New(status.InvalidParameter, "group", nil)
	}
	return m.groups[index], nil
}

// BeginBuffer clears every group accumulator and the master buffer ahead of
// a new render pass. frames must be <= maxFrames.
func (m *Matrix) BeginBuffer(frames int) {
	for i := 0; i < int(m.numGroups); i++ {
		clearBuf(m.groupBuf[i][:frames])
	}
	clearBuf(m.masterBuf[:frames])
}

// AccumulateClip adds a clip's rendered samples into the buffer for its
// destination group, or directly into the master buffer at unity when
// group is clip.UnassignedGroup, per spec.md's "bypass group routing
// entirely" rule.
func (m *Matrix) AccumulateClip(group uint8, samples []float32) {
	if group == clip.UnassignedGroup || group >= m.numGroups {
		acc := m.masterBuf
		for i, s := range samples {
			if i >= len(acc) {
				break
			}
			acc[i] += s
		}
		return
	}
	acc := m.groupBuf[group]
	for i, s := range samples {
		if i >= len(acc) {
			break
		}
		acc[i] += s
	}
}

// soloActive reports whether any group currently has solo engaged.
func (m *Matrix) soloActive() bool {
	for i := 0; i < int(m.numGroups); i++ {
		if m.groups[i].isSoloed() {
			return true
		}
	}
	return false
}

// audible reports whether group i should be heard this buffer: muted
// groups are always silent; when any group is soloed, only soloed groups
// are audible (solo implicitly mutes every non-soloed group).
func (m *Matrix) audible(i int, anySolo bool) bool {
	g := m.groups[i]
	if g.isMuted() {
		return false
	}
	if anySolo && !g.isSoloed() {
		return false
	}
	return true
}

// Mix applies each group's gain smoother and mute/solo state, sums audible
// groups into the master buffer (which already holds unassigned-clip
// samples from AccumulateClip), and updates peak/RMS meters. out must have
// length >= frames; it receives the final master-bus signal. spec.md has
// no master-level gain stage — the master bus is simply the sum of groups
// (and unassigned clips) copied straight to the driver.
func (m *Matrix) Mix(frames int, out []float32) {
	anySolo := m.soloActive()

	for i := 0; i < int(m.numGroups); i++ {
		buf := m.groupBuf[i][:frames]
		gain := m.groups[i].Gain
		audible := m.audible(i, anySolo)
		var peak, sumSq float32
		for s := 0; s < frames; s++ {
			g := gain.Process()
			v := buf[s]
			if audible {
				v *= g
			} else {
				v = 0
			}
			buf[s] = v
			m.masterBuf[s] += v
			if abs32(v) > peak {
				peak = abs32(v)
			}
			sumSq += v * v
		}
		rms := float32(math.Sqrt(float64(sumSq) / float64(max(frames, 1))))
		m.groupPeak[i].Store(math.Float32bits(peak))
		m.groupRMS[i].Store(math.Float32bits(rms))
	}

	var mPeak, mSumSq float32
	for s := 0; s < frames && s < len(out); s++ {
		v := m.masterBuf[s]
		out[s] = v
		if abs32(v) > mPeak {
			mPeak = abs32(v)
		}
		mSumSq += v * v
	}
	mRMS := float32(math.Sqrt(float64(mSumSq) / float64(max(frames, 1))))
	m.masterPeak.Store(math.Float32bits(mPeak))
	m.masterRMS.Store(math.Float32bits(mRMS))
}

// GroupMeter returns group index's last-computed peak and RMS levels.
// Safe to call from the UI thread at any time.
func (m *Matrix) GroupMeter(index uint8) (peak, rms float32, err error) {
	if index >= m.numGroups {
		return 0, 0, status.New(status.InvalidParameter, "group_meter", nil)
	}
	return math.Float32frombits(m.groupPeak[index].Load()), math.Float32frombits(m.groupRMS[index].Load()), nil
}

// MasterMeter returns the master bus's last-computed peak and RMS levels.
func (m *Matrix) MasterMeter() (peak, rms float32) {
	return math.Float32frombits(m.masterPeak.Load()), math.Float32frombits(m.masterRMS.Load())
}

func clearBuf(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
