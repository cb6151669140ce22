package codec

import "fmt"

// DecodedPage is one reassembled inbound or loopback-verified page.
type DecodedPage struct {
	RIC      uint32
	Function Function
	Text     string
}

// BatchDecoder reassembles one batch's worth of codewords (16,
// delivered in slot order) into pages, combining address codewords
// with the message codewords that follow them.
type BatchDecoder struct {
	out []DecodedPage

	haveAddr bool
	ric      uint32
	fn       Function
	numBuf   []byte
	alpha    AlphaDecoder
}

// NewBatchDecoder returns an empty decoder.
func NewBatchDecoder() *BatchDecoder {
	return &BatchDecoder{}
}

// PutCodeword feeds one codeword received at the given slot (0..7;
// ignored for sync/idle) into the decoder. Invalid codewords (failed
// CRC or parity) are reported but otherwise dropped, per §7.3.
func (d *BatchDecoder) PutCodeword(w Codeword, slot uint8) error {
	if w == SyncCodeword || w == PreambleWord {
		return nil
	}
	if err := ValidateCodeword(w); err != nil {
		d.finishCurrent()
		return err
	}
	if w == IdleCodeword {
		d.finishCurrent()
		return nil
	}
	if !w.IsMessage() {
		d.finishCurrent()
		ric, fn := DecodeAddress(w, slot)
		d.haveAddr = true
		d.ric = ric
		d.fn = fn
		d.numBuf = d.numBuf[:0]
		d.alpha = AlphaDecoder{}
		return nil
	}
	if !d.haveAddr {
		return fmt.Errorf("codec: message codeword with no preceding address")
	}
	switch d.fn {
	case FunctionNumeric:
		d.numBuf = DecodeNumericWord(w, d.numBuf)
	case FunctionAlpha:
		d.alpha.PutWord(w)
	default:
		d.numBuf = DecodeHexWord(w, d.numBuf)
	}
	return nil
}

func (d *BatchDecoder) finishCurrent() {
	if !d.haveAddr {
		return
	}
	text := ""
	switch d.fn {
	case FunctionAlpha:
		text = RenderControlChars(d.alpha.Bytes())
	default:
		text = string(d.numBuf)
	}
	d.out = append(d.out, DecodedPage{RIC: d.ric, Function: d.fn, Text: text})
	d.haveAddr = false
}

// Pages flushes and returns every page decoded so far.
func (d *BatchDecoder) Pages() []DecodedPage {
	d.finishCurrent()
	return d.out
}

var controlCharNames = [...]string{
	"<NUL>", "<SOH>", "<STX>", "<ETX>", "<EOT>", "<ENQ>", "<ACK>", "<BEL>",
	"<BS>", "<HT>", "<LF>", "<VT>", "<FF>", "<CR>", "<SO>", "<SI>",
	"<DLE>", "<DC1>", "<DC2>", "<DC3>", "<DC4>", "<NAK>", "<SYN>", "<ETB>",
	"<CAN>", "<EM>", "<SUB>", "<ESC>", "<FS>", "<GS>", "<RS>", "<US>",
}

// RenderControlChars renders a decoded alphanumeric byte stream for
// logging, spelling out control characters and DEL the way
// osmocom-analog's pocsag/frame.c does, instead of printing them raw.
func RenderControlChars(data []byte) string {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch {
		case b == 127:
			out = append(out, "<DEL>"...)
		case b < 32:
			out = append(out, controlCharNames[b]...)
		default:
			out = append(out, b)
		}
	}
	return string(out)
}
