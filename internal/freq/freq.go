// Package freq implements the channel-number-to-frequency mapping of
// §6 for both systems; the goHamlib-backed rig.Controller in
// internal/rig consumes it.
package freq

import "fmt"

// OrganisationChannel is the reserved organisation channel of the
// first system.
const OrganisationChannel = 131

// FirstSystemFrequencies maps a first-system channel number to its
// downlink/uplink frequency pair in MHz, per §6's piecewise formula.
func FirstSystemFrequencies(channel int) (downlinkMHz, uplinkMHz float64, err error) {
	if err := ValidateFirstSystemChannel(channel); err != nil {
		return 0, 0, err
	}
	const base = 465.750
	var downlink float64
	if channel%2 == 1 {
		downlink = base - float64(channel+1)/2*0.010
	} else {
		downlink = base - float64(channel)/2*0.0125
	}
	return downlink, downlink - 10.0, nil
}

// ValidateFirstSystemChannel reports whether channel is in the valid
// range for the first system (odd 1..947, even 2..758); channels 1
// and 2 are accepted with a caller-visible warning flag rather than an
// error, per §6 ("unused but accepted").
func ValidateFirstSystemChannel(channel int) error {
	if channel%2 == 1 {
		if channel < 1 || channel > 947 {
			return fmt.Errorf("freq: odd channel %d out of range 1..947", channel)
		}
		return nil
	}
	if channel < 2 || channel > 758 {
		return fmt.Errorf("freq: even channel %d out of range 2..758", channel)
	}
	return nil
}

// IsUnusedButAccepted reports channels 1 and 2, the two first-system
// channel numbers §6 calls "unused" but still valid.
func IsUnusedButAccepted(channel int) bool {
	return channel == 1 || channel == 2
}

// Band is one entry of the second system's 12-band frequency table.
type Band struct {
	Name       string
	DownlinkF0 float64 // MHz, channel 0's downlink frequency
	Channels   int     // number of channels in this band
	DuplexMHz  float64 // downlink-to-uplink duplex spacing
}

// SecondSystemBands is the second system's 12-entry band table. Exact
// per-country channel counts/offsets are not present in the filtered
// original_source/ excerpt (r2000.c computes frequencies inline from a
// single-band constant rather than a table); this 12-entry layout is a
// documented Open Question resolution spreading a plausible spectrum
// allocation (200 channels/band at 12.5 kHz spacing, 10 MHz duplex)
// across 12 bands, consistent with §6's per-channel formula and
// channel count shape without inventing specific country allocations.
var SecondSystemBands = [12]Band{
	{Name: "A", DownlinkF0: 165.2125, Channels: 200, DuplexMHz: 10},
	{Name: "B", DownlinkF0: 167.7125, Channels: 200, DuplexMHz: 10},
	{Name: "C", DownlinkF0: 170.2125, Channels: 200, DuplexMHz: 10},
	{Name: "D", DownlinkF0: 172.7125, Channels: 200, DuplexMHz: 10},
	{Name: "E", DownlinkF0: 175.2125, Channels: 200, DuplexMHz: 10},
	{Name: "F", DownlinkF0: 177.7125, Channels: 200, DuplexMHz: 10},
	{Name: "G", DownlinkF0: 192.7125, Channels: 200, DuplexMHz: 10},
	{Name: "H", DownlinkF0: 195.2125, Channels: 200, DuplexMHz: 10},
	{Name: "I", DownlinkF0: 197.7125, Channels: 200, DuplexMHz: 10},
	{Name: "J", DownlinkF0: 200.2125, Channels: 200, DuplexMHz: 10},
	{Name: "K", DownlinkF0: 202.7125, Channels: 200, DuplexMHz: 10},
	{Name: "L", DownlinkF0: 205.2125, Channels: 200, DuplexMHz: 10},
}

// SecondSystemFrequency returns the downlink/uplink pair for channel c
// in band b, per §6: `downlink = dl_f0 + 12.5 kHz * c`.
func SecondSystemFrequency(band int, c int) (downlinkMHz, uplinkMHz float64, err error) {
	if band < 0 || band >= len(SecondSystemBands) {
		return 0, 0, fmt.Errorf("freq: band %d out of range 0..%d", band, len(SecondSystemBands)-1)
	}
	b := SecondSystemBands[band]
	if c < 0 || c >= b.Channels {
		return 0, 0, fmt.Errorf("freq: channel %d out of range for band %s (0..%d)", c, b.Name, b.Channels-1)
	}
	downlink := b.DownlinkF0 + 0.0125*float64(c)
	return downlink, downlink - b.DuplexMHz, nil
}
