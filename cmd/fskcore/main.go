// Command fskcore wires the sender registry, the call-control facade,
// and the peripheral adapters (rig, PTT, audio I/O) together and runs
// the protocol core until terminated, mirroring the teacher's
// cmd/direwolf thin-binary-over-library-package split (here
// cmd/fskcore over the internal/* packages rather than cgo's
// src/direwolf package).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/oldradio/fskcore/internal/audioio"
	"github.com/oldradio/fskcore/internal/callcontrol"
	"github.com/oldradio/fskcore/internal/channel"
	"github.com/oldradio/fskcore/internal/config"
	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/oldradio/fskcore/internal/logx"
	"github.com/oldradio/fskcore/internal/ptt"
	"github.com/oldradio/fskcore/internal/rig"
	"github.com/oldradio/fskcore/internal/txn"
)

func main() {
	if err := run(); err != nil {
		logx.For(logx.Err, -1).Fatal(err)
	}
}

func run() error {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("fskcore: %w", err)
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("fskcore: %w", err)
	}
	flags.Apply(cfg)
	if cfg.LogLevel != "" {
		if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
			logx.SetLevel(lvl)
		}
	}

	registry, peripherals, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("fskcore: %w", err)
	}
	defer shutdownRegistry(registry, peripherals)

	upward := &logOnlyUpward{}
	facade := callcontrol.New(registry, upward)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.DNSSDName != "" {
		if err := facade.Advertise(ctx, cfg.DNSSDName, cfg.CallControl.Port); err != nil {
			logx.For(logx.Err, -1).Printf("dnssd advertisement failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i, cc := range cfg.Channels {
		if peripherals[i].stream == nil {
			continue
		}
		wg.Add(1)
		go func(idx int, stream *audioio.Stream, framesPerBuffer int, sampleRate float64) {
			defer wg.Done()
			pumpSamples(ctx, facade, idx, stream, framesPerBuffer, sampleRate)
		}(i, peripherals[i].stream, cc.FramesPerBuffer, cc.SampleRate)
	}

	logx.For(logx.Info, -1).Printf("fskcore running with %d channel(s)", len(registry))
	<-ctx.Done()
	wg.Wait()
	logx.For(logx.Info, -1).Printf("shutting down")
	return nil
}

// pumpSamples is the sample-pump driver of §5: the goroutine that calls
// the protocol core's two synchronous entry points,
// callcontrol.Facade.OnSamplesReceived and FillTxSamples, once per
// frames-per-buffer tick for one channel's audio peripheral.
func pumpSamples(ctx context.Context, facade *callcontrol.Facade, idx int, stream *audioio.Stream, framesPerBuffer int, sampleRate float64) {
	period := time.Duration(float64(framesPerBuffer) / sampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	rx := make([]float64, framesPerBuffer)
	tx := make([]float64, framesPerBuffer)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := stream.ReadSamples(rx)
			if err != nil {
				logx.For(logx.Err, idx).Printf("read samples: %v", err)
				continue
			}
			if err := facade.OnSamplesReceived(idx, now, rx[:n]); err != nil {
				logx.For(logx.Err, idx).Printf("on samples received: %v", err)
			}
			if err := facade.FillTxSamples(idx, now, tx); err != nil {
				logx.For(logx.Err, idx).Printf("fill tx samples: %v", err)
				continue
			}
			if err := stream.WriteSamples(tx); err != nil {
				logx.For(logx.Err, idx).Printf("write samples: %v", err)
			}
		}
	}
}

// peripheralSet holds the hardware handles a channel owns outside its
// channel.Channel value, so run() can close them on shutdown.
type peripheralSet struct {
	rig    *rig.Controller
	key    ptt.KeyLine
	stream *audioio.Stream
}

// buildRegistry constructs one channel.Channel (plus its rig/PTT/audio
// peripherals) per config.ChannelConfig entry, in registry order, per
// §2's Sender Registry.
func buildRegistry(cfg *config.Config) ([]*channel.Channel, []peripheralSet, error) {
	registry := make([]*channel.Channel, 0, len(cfg.Channels))
	peripherals := make([]peripheralSet, 0, len(cfg.Channels))

	for _, cc := range cfg.Channels {
		d := dsp.New(dsp.Config{ChanNum: cc.Number, SampleRate: cc.SampleRate, BitRate: cc.BitRate})
		ch := channel.New(cc.Number, cc.ToSystemInfo(), txn.DefaultTiming(), d)
		ch.SetLogger(logx.For(logx.Info, cc.Number))

		var set peripheralSet
		if cc.AudioEnabled {
			stream, err := audioio.Open(cc.SampleRate, cc.FramesPerBuffer)
			if err != nil {
				shutdownRegistry(registry, peripherals)
				return nil, nil, fmt.Errorf("channel %d: %w", cc.Number, err)
			}
			set.stream = stream
		}
		if cc.RigDevice != "" {
			r, err := rig.New(cc.RigModel, cc.RigDevice)
			if err != nil {
				shutdownRegistry(registry, peripherals)
				return nil, nil, fmt.Errorf("channel %d: %w", cc.Number, err)
			}
			set.rig = r
		}

		switch {
		case cc.PTTDevice != "":
			k, err := ptt.OpenSerial(cc.PTTDevice, ptt.RTS)
			if err != nil {
				shutdownRegistry(registry, peripherals)
				return nil, nil, fmt.Errorf("channel %d: %w", cc.Number, err)
			}
			set.key = k
		case cc.PTTGPIO != 0:
			k, err := ptt.OpenGPIO("gpiochip0", cc.PTTGPIO, true)
			if err != nil {
				shutdownRegistry(registry, peripherals)
				return nil, nil, fmt.Errorf("channel %d: %w", cc.Number, err)
			}
			set.key = k
		default:
			set.key = ptt.Null{}
		}

		registry = append(registry, ch)
		peripherals = append(peripherals, set)
	}
	return registry, peripherals, nil
}

func shutdownRegistry(registry []*channel.Channel, peripherals []peripheralSet) {
	for _, ch := range registry {
		ch.Shutdown()
	}
	for _, p := range peripherals {
		if p.key != nil {
			p.key.Close()
		}
		if p.rig != nil {
			p.rig.Close()
		}
		if p.stream != nil {
			p.stream.Close()
		}
	}
}

// logOnlyUpward is the default Upward implementation when no external
// telephony transport is configured: it just logs the five upward
// verbs, per §1's "external call-control transport ... out of scope
// (treated only through [its] interface)".
type logOnlyUpward struct{}

func (logOnlyUpward) Setup(ref callcontrol.CallRef, callingNumber, dialedNumber string) {
	logx.For(logx.Info, -1).Printf("setup %s: %s -> %s", ref, callingNumber, dialedNumber)
}

func (logOnlyUpward) Alerting(ref callcontrol.CallRef) {
	logx.For(logx.Info, -1).Printf("alerting %s", ref)
}

func (logOnlyUpward) Answer(ref callcontrol.CallRef, connectedNumber string) {
	logx.For(logx.Info, -1).Printf("answer %s: %s", ref, connectedNumber)
}

func (logOnlyUpward) Release(ref callcontrol.CallRef, cause txn.Cause) {
	logx.For(logx.Info, -1).Printf("release %s: %s", ref, cause)
}

func (logOnlyUpward) AudioIn(ref callcontrol.CallRef, pcm []float64) {}
