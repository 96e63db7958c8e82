package driver

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDriver is an output-only Driver backed by a blocking PortAudio
// stream, adapted from the teacher's playback half of AudioEngine.Start
// (client/audio.go): same device-resolve-then-OpenStream-then-goroutine-loop
// shape, but driving Transport.Process instead of a jitter-buffered
// network decode.
type PortAudioDriver struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []float32
	cfg    Config

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	latency int64
}

// NewPortAudioDriver returns an uninitialized driver. Call Initialize
// before Start.
func NewPortAudioDriver() *PortAudioDriver {
	return &PortAudioDriver{}
}

// Initialize opens (but does not start) the output stream for the default
// device, or the device at cfg.DeviceID when >= 0.
func (d *PortAudioDriver) Initialize(cfg Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("portaudio devices: %w", err)
	}
	outputDev, err := resolveOutputDevice(devices, cfg.DeviceID)
	if err != nil {
		return err
	}

	buf := make([]float32, cfg.BufferSize*cfg.NumOutputs)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   outputDev,
			Channels: cfg.NumOutputs,
			Latency:  outputDev.DefaultLowOutputLatency,
		},
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.BufferSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}

	d.mu.Lock()
	d.stream = stream
	d.buf = buf
	d.cfg = cfg
	d.latency = int64(outputDev.DefaultLowOutputLatency.Seconds() * cfg.SampleRate)
	d.mu.Unlock()
	return nil
}

// Start begins pulling buffers from the stream and invoking cb on a
// dedicated goroutine, mirroring the teacher's playbackLoop.
func (d *PortAudioDriver) Start(cb Callback) error {
	d.mu.Lock()
	stream := d.stream
	buf := d.buf
	d.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("driver not initialized")
	}

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}

	d.stopCh = make(chan struct{})
	d.running.Store(true)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop(stream, buf, cb)
	}()
	return nil
}

func (d *PortAudioDriver) loop(stream *portaudio.Stream, buf []float32, cb Callback) {
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}
		cb(nil, buf, len(buf))
		if err := stream.Write(); err != nil {
			// Device-level failure: stop pulling and let the caller observe
			// IsRunning() go false. No panic, and no DeviceChanged event is
			// emitted for it.
			d.running.Store(false)
			return
		}
	}
}

// Stop halts the playback goroutine and closes the stream.
func (d *PortAudioDriver) Stop() error {
	if !d.running.Load() {
		return nil
	}
	close(d.stopCh)
	d.wg.Wait()
	d.running.Store(false)

	d.mu.Lock()
	stream := d.stream
	d.mu.Unlock()
	if stream == nil {
		return nil
	}
	if err := stream.Stop(); err != nil {
		return err
	}
	return stream.Close()
}

// IsRunning reports whether the playback goroutine is active.
func (d *PortAudioDriver) IsRunning() bool { return d.running.Load() }

// LatencySamples returns the output device's reported default low latency,
// converted to samples at the configured rate.
func (d *PortAudioDriver) LatencySamples() int64 { return d.latency }

func resolveOutputDevice(devices []*portaudio.DeviceInfo, id int) (*portaudio.DeviceInfo, error) {
	if id >= 0 && id < len(devices) {
		return devices[id], nil
	}
	return portaudio.DefaultOutputDevice()
}
