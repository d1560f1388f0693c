package input

import (
	"bufio"
	"strconv"
	"unicode/utf8"
)

// Mouse buttons as reported by SGR mouse mode.
const (
	MouseLeft   = 0
	MouseMiddle = 1
	MouseRight  = 2
)

// Click is a mouse button press at a 1-based terminal cell.
type Click struct {
	Col    int
	Row    int
	Button int
}

// Input represents the current frame's input events.
type Input struct {
	Quit      bool // Ctrl-C or Ctrl-D
	Enter     bool
	Tab       bool
	Backspace bool
	Escape    bool
	Space     bool
	Text      []rune // Printable characters in arrival order, space included
	Clicks    []Click
	Pressed   []byte // Raw bytes seen this frame
}

// Stream delivers input bytes via a channel and keeps partial escape
// sequences until the rest arrives.
type Stream struct {
	ch      chan byte
	pending []byte
	closed  bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 256)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool { return s.closed }

// ReadInput drains all available bytes from the stream (non-blocking) and
// parses them into events.
func ReadInput(s *Stream) Input {
	var buf []byte
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := Input{Pressed: buf}
	if len(buf) == 0 && len(s.pending) == 1 && s.pending[0] == '\x1b' {
		// A whole frame passed with nothing after ESC: the key itself.
		s.pending = nil
		in.Escape = true
		return in
	}
	data := append(s.pending, buf...)
	s.pending = nil
	rest := Parse(data, &in)
	if len(rest) > 0 && !s.closed {
		s.pending = append([]byte(nil), rest...)
	} else if len(rest) > 0 && rest[0] == '\x1b' {
		in.Escape = true
	}
	return in
}

// Parse decodes data into in and returns a trailing incomplete escape
// sequence, if any.
func Parse(data []byte, in *Input) []byte {
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b == '\x1b':
			n, complete := parseEscape(data[i:], in)
			if !complete {
				return data[i:]
			}
			i += n
			continue
		case b == 0x03 || b == 0x04:
			in.Quit = true
		case b == '\r' || b == '\n':
			in.Enter = true
		case b == '\t':
			in.Tab = true
		case b == '\b' || b == 0x7f:
			in.Backspace = true
		case b == ' ':
			in.Space = true
			in.Text = append(in.Text, ' ')
		case b >= 0x20 && b < 0x7f:
			in.Text = append(in.Text, rune(b))
		case b >= 0x80:
			if !utf8.FullRune(data[i:]) {
				return data[i:]
			}
			r, size := utf8.DecodeRune(data[i:])
			if r != utf8.RuneError {
				in.Text = append(in.Text, r)
			}
			i += size
			continue
		}
		i++
	}
	return nil
}

// parseEscape consumes one sequence starting at data[0] == ESC. It returns
// the bytes consumed, or complete=false when more bytes are needed.
func parseEscape(data []byte, in *Input) (n int, complete bool) {
	if len(data) == 1 {
		return 0, false
	}
	if data[1] != '[' {
		// Lone ESC followed by something else
		in.Escape = true
		return 1, true
	}
	if len(data) == 2 {
		return 0, false
	}
	if data[2] == '<' {
		return parseSGRMouse(data, in)
	}
	// Generic CSI: parameters then a final byte in 0x40..0x7e. Arrow keys and
	// the like are swallowed.
	for j := 2; j < len(data); j++ {
		if data[j] >= 0x40 && data[j] <= 0x7e {
			return j + 1, true
		}
	}
	return 0, false
}

// parseSGRMouse decodes ESC [ < b ; x ; y (M|m). Only presses of the left,
// middle and right buttons become clicks; releases, motion and wheel are dropped.
func parseSGRMouse(data []byte, in *Input) (int, bool) {
	var fields [3]int
	field := 0
	start := 3
	for j := 3; j < len(data); j++ {
		c := data[j]
		switch {
		case c >= '0' && c <= '9':
			continue
		case c == ';':
			if field >= 2 {
				return j + 1, true
			}
			v, _ := strconv.Atoi(string(data[start:j]))
			fields[field] = v
			field++
			start = j + 1
		case c == 'M' || c == 'm':
			if field != 2 {
				return j + 1, true
			}
			v, _ := strconv.Atoi(string(data[start:j]))
			fields[2] = v
			code := fields[0]
			if c == 'M' && code&(32|64) == 0 {
				in.Clicks = append(in.Clicks, Click{Col: fields[1], Row: fields[2], Button: code & 3})
			}
			return j + 1, true
		default:
			// Malformed, drop it
			return j + 1, true
		}
	}
	return 0, false
}
