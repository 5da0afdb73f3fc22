package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// Limits bounds what a Reader accepts from a client.
type Limits struct {
	// MaxArgs caps the elements of one command array.
	MaxArgs int
	// MaxBulk caps a single bulk argument. WRITE payloads beyond the
	// device capacity are clamped anyway.
	MaxBulk int
	// MaxInline caps an inline command line.
	MaxInline int
}

// DefaultLimits returns the limits used by the server. Device commands
// take at most four arguments.
func DefaultLimits() Limits {
	return Limits{
		MaxArgs:   16,
		MaxBulk:   64 << 10,
		MaxInline: 4 << 10,
	}
}

// headerLimit caps "*<n>" and "$<n>" lines.
const headerLimit = 32

// Reader decodes client commands.
type Reader struct {
	br  *bufio.Reader
	lim Limits
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader, lim Limits) *Reader {
	return &Reader{br: bufio.NewReader(r), lim: lim}
}

// Wait blocks until at least one byte of the next command is buffered.
func (r *Reader) Wait() error {
	_, err := r.br.Peek(1)
	return err
}

// ReadCommand reads one command, either a RESP array of bulk strings or an
// inline line. A null bulk argument comes back as a nil element. Blank
// inline lines and empty arrays yield a nil command.
func (r *Reader) ReadCommand() ([][]byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] != '*' {
		return r.readInline()
	}

	n, err := r.readHeader('*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > r.lim.MaxArgs {
		return nil, fmt.Errorf("%w: %d arguments, max %d", ErrLimitExceeded, n, r.lim.MaxArgs)
	}

	args := make([][]byte, n)
	for i := range args {
		if args[i], err = r.readArg(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (r *Reader) readInline() ([][]byte, error) {
	line, err := r.readLine(r.lim.MaxInline)
	if err != nil {
		return nil, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// readArg reads a bulk string. Simple strings are accepted as a courtesy.
func (r *Reader) readArg() ([]byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '+' {
		line, err := r.readLine(r.lim.MaxInline)
		if err != nil {
			return nil, err
		}
		return line[1:], nil
	}

	n, err := r.readHeader('$')
	if err != nil {
		return nil, err
	}
	switch {
	case n == -1:
		return nil, nil
	case n < 0:
		return nil, fmt.Errorf("%w: bulk length %d", ErrProtocol, n)
	case n > r.lim.MaxBulk:
		return nil, fmt.Errorf("%w: bulk length %d, max %d", ErrLimitExceeded, n, r.lim.MaxBulk)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk not terminated by CRLF", ErrProtocol)
	}
	return buf[:n], nil
}

// readHeader reads a "<prefix><int>" line.
func (r *Reader) readHeader(prefix byte) (int, error) {
	line, err := r.readLine(headerLimit)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c', got %q", ErrProtocol, prefix, line)
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad length %q", ErrProtocol, line[1:])
	}
	return n, nil
}

// readLine reads one CRLF-terminated line of at most max bytes and returns
// it without the terminator.
func (r *Reader) readLine(max int) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		line = append(line, frag...)
		if len(line) > max+2 {
			return nil, fmt.Errorf("%w: line longer than %d", ErrLimitExceeded, max)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
	}
	if !bytes.HasSuffix(line, []byte("\r\n")) {
		return nil, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return line[:len(line)-2], nil
}

// Writer encodes replies. The first write error sticks and is returned by
// Flush.
type Writer struct {
	bw  *bufio.Writer
	err error
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) line(prefix byte, s string) {
	if w.err != nil {
		return
	}
	if err := w.bw.WriteByte(prefix); err != nil {
		w.err = err
		return
	}
	if _, err := w.bw.WriteString(s); err != nil {
		w.err = err
		return
	}
	_, w.err = w.bw.WriteString("\r\n")
}

// Status writes a "+" reply.
func (w *Writer) Status(s string) { w.line('+', s) }

// Error writes a "-" reply. Line breaks in s are replaced by spaces.
func (w *Writer) Error(s string) {
	w.line('-', strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

// Int writes a ":" reply.
func (w *Writer) Int(n int64) { w.line(':', strconv.FormatInt(n, 10)) }

// Null writes the null bulk reply.
func (w *Writer) Null() { w.line('$', "-1") }

// Bulk writes a bulk reply; nil is written as the null bulk.
func (w *Writer) Bulk(b []byte) {
	if b == nil {
		w.Null()
		return
	}
	w.line('$', strconv.Itoa(len(b)))
	if w.err != nil {
		return
	}
	if _, err := w.bw.Write(b); err != nil {
		w.err = err
		return
	}
	_, w.err = w.bw.WriteString("\r\n")
}

// BulkString writes s as a bulk reply.
func (w *Writer) BulkString(s string) { w.Bulk([]byte(s)) }

// Strings writes an array of bulk strings.
func (w *Writer) Strings(items []string) {
	w.line('*', strconv.Itoa(len(items)))
	for _, it := range items {
		w.BulkString(it)
	}
}

// Flush sends buffered replies and reports the first error.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.bw.Flush()
	return w.err
}

// commandName upper-cases an ASCII command name.
func commandName(b []byte) string {
	return string(bytes.ToUpper(b))
}
