package codec

// Function is the 2-bit POCSAG-style function code carried in an
// address codeword. Only Numeric and Alpha select a content mode that
// the spec requires the base station to understand; Pager sends the
// other two values as an address codeword with no message body, and
// BatchDecoder renders any message codewords received after such an
// address as a raw hex dump (§4.2).
type Function uint8

const (
	FunctionNumeric Function = 0
	FunctionTone1   Function = 1
	FunctionTone2   Function = 2
	FunctionAlpha   Function = 3
)

// numericAlphabet is the 16-character numeric-message alphabet,
// indexed by 4-bit nibble; index 12 (' ') is the padding code.
const numericAlphabet = "0123456789RU -]["

const hexAlphabet = "0123456789abcdef"

const numericSpaceCode = 0xc

// EncodeAddress packs a RIC and function code into an address
// codeword. The lower 3 bits of the RIC are implied by the slot the
// codeword is sent in and are not carried on the air.
func EncodeAddress(ric uint32, fn Function) Codeword {
	payload := ((ric >> 3) << 2) | uint32(fn&0x3)
	return EncodeCodeword(false, payload)
}

// DecodeAddress reconstructs the full RIC from an address codeword's
// payload and the slot index (0..7) it was received in.
func DecodeAddress(w Codeword, slot uint8) (ric uint32, fn Function) {
	p := w.Payload()
	ric = ((p >> 2) << 3) + uint32(slot)
	fn = Function(p & 0x3)
	return ric, fn
}

// NumericCursor drives multi-codeword numeric message encoding.
type NumericCursor struct {
	data []byte
	pos  int
}

// NewNumericCursor starts encoding text as a numeric message.
// Characters outside the numeric alphabet are silently skipped.
func NewNumericCursor(text string) *NumericCursor {
	return &NumericCursor{data: []byte(text)}
}

// Done reports whether every character has been consumed.
func (c *NumericCursor) Done() bool {
	return c.pos >= len(c.data)
}

// NextWord encodes up to 5 digits into one message codeword, padding
// with the space code when the source text runs out mid-codeword.
func (c *NumericCursor) NextWord() Codeword {
	digits := [5]byte{numericSpaceCode, numericSpaceCode, numericSpaceCode, numericSpaceCode, numericSpaceCode}
	n := 0
	for c.pos < len(c.data) && n < 5 {
		ch := c.data[c.pos]
		c.pos++
		idx := indexOf(numericAlphabet, ch)
		if idx >= 0 {
			digits[n] = byte(idx)
			n++
		}
	}
	var payload uint32
	for _, d := range digits {
		payload = (payload << 1) | uint32(d&0x1)
		payload = (payload << 1) | uint32((d>>1)&0x1)
		payload = (payload << 1) | uint32((d>>2)&0x1)
		payload = (payload << 1) | uint32((d>>3)&0x1)
	}
	return EncodeCodeword(true, payload)
}

func indexOf(alphabet string, ch byte) int {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == ch {
			return i
		}
	}
	return -1
}

// DecodeNumericWord extracts up to 5 numeric-alphabet characters from
// a message codeword's payload, appending them to dst.
func DecodeNumericWord(w Codeword, dst []byte) []byte {
	p := w.Payload()
	for i := 0; i < 5; i++ {
		shift := uint(16 - i*4)
		b3 := (p >> (shift + 3)) & 1
		b2 := (p >> (shift + 2)) & 1
		b1 := (p >> (shift + 1)) & 1
		b0 := (p >> shift) & 1
		digit := (b0 << 3) | (b1 << 2) | (b2 << 1) | b3
		dst = append(dst, numericAlphabet[digit])
	}
	return dst
}

// DecodeHexWord dumps a message codeword's payload as 5 hex nibbles,
// used when the function code is neither numeric nor alpha.
func DecodeHexWord(w Codeword, dst []byte) []byte {
	p := w.Payload()
	for i := 0; i < 5; i++ {
		shift := uint(16 - i*4)
		b3 := (p >> (shift + 3)) & 1
		b2 := (p >> (shift + 2)) & 1
		b1 := (p >> (shift + 1)) & 1
		b0 := (p >> shift) & 1
		digit := (b0 << 3) | (b1 << 2) | (b2 << 1) | b3
		dst = append(dst, hexAlphabet[digit])
	}
	return dst
}

// AlphaCursor drives multi-codeword 7-bit alphanumeric message
// encoding, packing characters continuously across codeword
// boundaries, LSB of each character first.
type AlphaCursor struct {
	data     []byte
	dataPos  int
	bitIndex int
}

// NewAlphaCursor starts encoding text as an alphanumeric message.
// Bytes with the high bit set are dropped, matching the 7-bit channel.
func NewAlphaCursor(text string) *AlphaCursor {
	return &AlphaCursor{data: []byte(text)}
}

// Done reports whether encoding has consumed all source bytes. The
// codeword that exhausts the source also carries its own end-of-
// transmission padding, so no further NextWord call is needed once
// this returns true.
func (c *AlphaCursor) Done() bool {
	return c.dataPos >= len(c.data)
}

// NextWord packs the next 20 bits of the alphanumeric stream into a
// message codeword. Real message bits are only ever consumed in whole
// characters (the stream can only run out between characters), so
// once it runs out, remaining whole 7-bit groups are filled with EOT
// (0x04), and any left-over bits are zero, matching §4.2 exactly.
func (c *AlphaCursor) NextWord() Codeword {
	var payload uint32
	bits := 0
	for c.dataPos < len(c.data) {
		if c.data[c.dataPos]&0x80 != 0 {
			c.dataPos++
			continue
		}
		for {
			bit := (uint32(c.data[c.dataPos]) >> uint(c.bitIndex)) & 1
			payload = (payload << 1) | bit
			bits++
			c.bitIndex++
			if c.bitIndex == 7 {
				c.bitIndex = 0
				c.dataPos++
				break
			}
			if bits == 20 {
				break
			}
		}
		if bits == 20 {
			break
		}
	}
	for bits <= 13 {
		payload = (payload << 7) | 0x10
		bits += 7
	}
	if bits < 20 {
		payload <<= uint(20 - bits)
	}
	return EncodeCodeword(true, payload)
}

// AlphaDecoder reassembles 7-bit characters from a stream of message
// codeword payloads, mirroring NextWord's bit order.
type AlphaDecoder struct {
	out      []byte
	bitIndex int
}

// PutWord feeds one message codeword's 20 payload bits into the
// decoder.
func (d *AlphaDecoder) PutWord(w Codeword) {
	p := w.Payload()
	for i := 0; i < 20; i++ {
		bit := (p >> uint(19-i)) & 1
		if d.bitIndex == 0 {
			d.out = append(d.out, 0)
		}
		last := len(d.out) - 1
		d.out[last] = (d.out[last] >> 1) | byte(bit<<6)
		d.bitIndex++
		if d.bitIndex == 7 {
			d.bitIndex = 0
		}
	}
}

// Bytes returns the reassembled character stream.
func (d *AlphaDecoder) Bytes() []byte {
	return d.out
}
