// Package ptt drives the push-to-talk control line the DSP front end
// keys around a transmit burst, grounded on the teacher's ptt.go
// (traditionally the serial port's RTS/DTR signal, or a GPIO line on
// Linux single-board computers), re-expressed as two small backends
// implementing a single KeyLine interface instead of the teacher's
// single giant `ptt_set` switch over a config-selected method.
package ptt

import (
	"fmt"

	"github.com/pkg/term"
	"github.com/warthog618/go-gpiocdev"
)

// KeyLine is the minimal surface the DSP front end needs to key a
// transmitter: assert the line for transmit, release it for receive.
type KeyLine interface {
	Key(on bool) error
	Close() error
}

// GPIOLine drives a libgpiod character-device line, the modern
// replacement for the teacher's /sys/class/gpio sysfs poking.
type GPIOLine struct {
	line   *gpiocdev.Line
	active bool // true: logical high means "keyed"
}

// OpenGPIO requests exclusive output control of chipName's offset-th
// line, initially released (not keyed).
func OpenGPIO(chipName string, offset int, activeHigh bool) (*GPIOLine, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if !activeHigh {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := gpiocdev.RequestLine(chipName, offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("ptt: request gpio line %s:%d: %w", chipName, offset, err)
	}
	return &GPIOLine{line: line, active: activeHigh}, nil
}

// Key implements KeyLine.
func (g *GPIOLine) Key(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := g.line.SetValue(v); err != nil {
		return fmt.Errorf("ptt: set gpio line: %w", err)
	}
	return nil
}

// Close implements KeyLine.
func (g *GPIOLine) Close() error {
	return g.line.Close()
}

// SerialLine drives a serial port's RTS or DTR line, the teacher's
// traditional PTT method for radios with a serial CAT/PTT interface.
type SerialLine struct {
	tty  *term.Term
	line rtsOrDTR
}

// rtsOrDTR selects which modem-control signal carries PTT, since one
// serial port can key two radios (one per signal) per the teacher's
// "two radio channels and only one serial port" note.
type rtsOrDTR int

const (
	RTS rtsOrDTR = iota
	DTR
)

// OpenSerial opens device for exclusive modem-control-line use.
func OpenSerial(device string, signal rtsOrDTR) (*SerialLine, error) {
	tty, err := term.Open(device)
	if err != nil {
		return nil, fmt.Errorf("ptt: open serial port %s: %w", device, err)
	}
	return &SerialLine{tty: tty, line: signal}, nil
}

// Key implements KeyLine.
func (s *SerialLine) Key(on bool) error {
	var err error
	switch s.line {
	case RTS:
		err = s.tty.SetRTS(on)
	case DTR:
		err = s.tty.SetDTR(on)
	}
	if err != nil {
		return fmt.Errorf("ptt: set serial control line: %w", err)
	}
	return nil
}

// Close implements KeyLine.
func (s *SerialLine) Close() error {
	return s.tty.Close()
}

// Null is a no-op KeyLine for channels with no physical PTT (e.g.
// software-only testing or SDR transmit gated entirely by the DSP
// front end itself).
type Null struct{}

func (Null) Key(bool) error { return nil }
func (Null) Close() error   { return nil }
