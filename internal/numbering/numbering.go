// Package numbering validates and parses subscriber-number strings for
// both systems, per §6.
package numbering

import (
	"fmt"
	"strconv"

	"github.com/oldradio/fskcore/internal/codec"
)

// ParseFirstSystem parses a first-system subscriber number: 7 decimal
// digits, or 11 digits prefixed with "0160". Digits 1-2 encode the
// national/exchange code, digits 3-7 the rest-number (must be
// ≤ 65535 to fit the 16-bit rest-number field; 5 decimal digits reach
// 99999, so larger values are rejected explicitly — the boundary case
// is the 65535/65536 split, see §8).
func ParseFirstSystem(number string) (codec.Identity, error) {
	switch len(number) {
	case 11:
		if number[:4] != "0160" {
			return codec.Identity{}, fmt.Errorf("numbering: 11-digit number must start with 0160")
		}
		number = number[4:]
	case 7:
		// already bare
	default:
		return codec.Identity{}, fmt.Errorf("numbering: expected 7 or 11 (0160-prefixed) digits, got %d", len(number))
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return codec.Identity{}, fmt.Errorf("numbering: non-digit character %q", c)
		}
	}
	national, _ := strconv.Atoi(number[0:1])
	exchange, _ := strconv.Atoi(number[1:2])
	rest, _ := strconv.Atoi(number[2:7])
	if rest > 65535 {
		return codec.Identity{}, fmt.Errorf("numbering: rest-number %d exceeds 65535", rest)
	}
	return codec.Identity{
		Nationality: uint8(national),
		Exchange:    uint8(exchange),
		Rest:        uint16(rest),
	}, nil
}

// SecondSystemID is the second system's (type, relay, mobile-id)
// subscriber identity triple.
type SecondSystemID struct {
	Type     uint8  // ≤ 7
	Relay    uint16 // ≤ 511
	MobileID uint32 // ≤ 65535
}

// ParseSecondSystem parses a second-system subscriber number: 9 decimal
// digits, first ≤7 (mobile type), next 3 ≤511 (relay), last 5 ≤65535
// (mobile id).
func ParseSecondSystem(number string) (SecondSystemID, error) {
	if len(number) != 9 {
		return SecondSystemID{}, fmt.Errorf("numbering: expected 9 digits, got %d", len(number))
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return SecondSystemID{}, fmt.Errorf("numbering: non-digit character %q", c)
		}
	}
	typ, _ := strconv.Atoi(number[0:1])
	relay, _ := strconv.Atoi(number[1:4])
	mobileID, _ := strconv.Atoi(number[4:9])
	if typ > 7 {
		return SecondSystemID{}, fmt.Errorf("numbering: mobile type %d exceeds 7", typ)
	}
	if relay > 511 {
		return SecondSystemID{}, fmt.Errorf("numbering: relay %d exceeds 511", relay)
	}
	if mobileID > 65535 {
		return SecondSystemID{}, fmt.Errorf("numbering: mobile id %d exceeds 65535", mobileID)
	}
	return SecondSystemID{Type: uint8(typ), Relay: uint16(relay), MobileID: uint32(mobileID)}, nil
}
