package common

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// 按给定的分段返回数据，记录每次 Read 请求的大小
type scriptedConn struct {
	chunks   [][]byte
	asked    []int
	written  bytes.Buffer
	writeMax int
}

func newScriptedConn(chunks ...string) *scriptedConn {
	c := &scriptedConn{}
	for _, s := range chunks {
		c.chunks = append(c.chunks, []byte(s))
	}
	return c
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.asked = append(c.asked, len(p))
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	if c.writeMax > 0 && len(p) > c.writeMax {
		p = p[:c.writeMax]
	}
	return c.written.Write(p)
}

type zeroWriter struct{}

func (zeroWriter) Write([]byte) (int, error) { return 0, nil }

func TestFramer(t *testing.T) {
	Convey("Given a framer", t, func() {
		f := NewFramer(DefaultChunkSize)

		Convey("A request that arrives in one read is returned whole", func() {
			req := "POST /a HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"
			frame, err := f.Frame(newScriptedConn(req))
			So(err, ShouldBeNil)
			So(frame.SizeError, ShouldBeFalse)
			So(string(frame.Data), ShouldEqual, req)
		})

		Convey("A body split over several reads is read to content-length", func() {
			conn := newScriptedConn("POST /a HTTP/1.1\r\ncontent-LENGTH: 10\r\n\r\n01", "234", "56789")
			frame, err := f.Frame(conn)
			So(err, ShouldBeNil)
			So(string(frame.Data), ShouldEqual, "POST /a HTTP/1.1\r\ncontent-LENGTH: 10\r\n\r\n0123456789")
		})

		Convey("Without content-length only the first read is used", func() {
			conn := newScriptedConn("GET / HTTP/1.1\r\nHost: x\r\n\r\nabc", "never read")
			frame, err := f.Frame(conn)
			So(err, ShouldBeNil)
			So(string(frame.Data), ShouldEqual, "GET / HTTP/1.1\r\nHost: x\r\n\r\nabc")
			So(len(conn.chunks), ShouldEqual, 1)
		})

		Convey("Bytes past content-length are dropped", func() {
			frame, err := f.Frame(newScriptedConn("POST / HTTP/1.1\r\nContent-Length: 2\r\n\r\nokGET / HTTP/1.1\r\n\r\n"))
			So(err, ShouldBeNil)
			So(string(frame.Data), ShouldEqual, "POST / HTTP/1.1\r\nContent-Length: 2\r\n\r\nok")
		})

		Convey("A repeated content-length uses the last one, like the parsed headers", func() {
			conn := newScriptedConn("POST /a HTTP/1.1\r\nContent-Length: 2\r\nContent-Length: 6\r\n\r\nab", "cdef")
			frame, err := f.Frame(conn)
			So(err, ShouldBeNil)
			So(string(frame.Data), ShouldEqual, "POST /a HTTP/1.1\r\nContent-Length: 2\r\nContent-Length: 6\r\n\r\nabcdef")

			req, err := ParseRequest(frame.Data)
			So(err, ShouldBeNil)
			So(req.Headers["content-length"], ShouldEqual, "6")
			So(string(req.Body), ShouldEqual, "abcdef")
		})

		Convey("A bad content-length is a header error", func() {
			_, err := f.Frame(newScriptedConn("POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\n"))
			So(errors.Is(err, ErrMalformedHeaderLine), ShouldBeTrue)

			_, err = f.Frame(newScriptedConn("POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"))
			So(errors.Is(err, ErrMalformedHeaderLine), ShouldBeTrue)
		})

		Convey("A peer that closes mid-body breaks the transport", func() {
			_, err := f.Frame(newScriptedConn("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\n0123"))
			So(errors.Is(err, ErrTransportBroken), ShouldBeTrue)
		})

		Convey("An immediate close is a size error with no data", func() {
			frame, err := f.Frame(newScriptedConn())
			So(err, ShouldBeNil)
			So(frame.SizeError, ShouldBeTrue)
			So(frame.Data, ShouldBeEmpty)
		})
	})

	Convey("Given a small chunk size", t, func() {
		f := NewFramer(64)

		Convey("A header block larger than one read is a size error", func() {
			head := "GET / HTTP/1.1\r\nX-Long: " + strings.Repeat("a", 200) + "\r\n\r\n"
			conn := newScriptedConn(head)
			frame, err := f.Frame(conn)
			So(err, ShouldBeNil)
			So(frame.SizeError, ShouldBeTrue)
			So(string(frame.Data), ShouldEqual, head[:64])
			So(conn.asked, ShouldResemble, []int{64})
		})

		Convey("A large body is read in chunk-sized reads", func() {
			head := "POST / HTTP/1.1\r\nContent-Length: 300\r\n\r\n"
			body := strings.Repeat("0123456789", 30)
			conn := newScriptedConn(head + body)
			frame, err := f.Frame(conn)
			So(err, ShouldBeNil)
			So(string(frame.Data), ShouldEqual, head+body)
			for _, n := range conn.asked {
				So(n, ShouldBeLessThanOrEqualTo, 64)
			}
		})
	})
}

func TestReadExact(t *testing.T) {
	Convey("ReadExact collects exactly n bytes", t, func() {
		conn := newScriptedConn("ab", "cdef", "ghij")
		data, err := ReadExact(conn, 8, 3)
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, "abcdefgh")
		So(conn.asked, ShouldResemble, []int{3, 3, 3, 2})
	})

	Convey("ReadExact fails when the stream ends early", t, func() {
		_, err := ReadExact(newScriptedConn("abc"), 8, 3)
		So(errors.Is(err, ErrTransportBroken), ShouldBeTrue)
	})
}

func TestWriteExact(t *testing.T) {
	Convey("WriteExact keeps writing after short writes", t, func() {
		conn := &scriptedConn{writeMax: 3}
		So(WriteExact(conn, []byte("HTTP/1.1 200 OK\r\n\r\n")), ShouldBeNil)
		So(conn.written.String(), ShouldEqual, "HTTP/1.1 200 OK\r\n\r\n")
	})

	Convey("WriteExact fails on a write with no progress", t, func() {
		err := WriteExact(zeroWriter{}, []byte("x"))
		So(errors.Is(err, ErrTransportBroken), ShouldBeTrue)
	})
}
