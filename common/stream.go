package common

import (
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// 一次读取的默认大小
const DefaultChunkSize = 4096

var (
	CRLF      = []byte("\r\n")
	HeaderEnd = []byte("\r\n\r\n")
)

/*
一次请求的完整数据
SizeError 为 true 时，第一次读取中没有 \r\n\r\n，Data 是原样的第一次读取
*/
type Frame struct {
	Data      []byte
	SizeError bool
}

type Framer struct {
	ChunkSize int
}

func NewFramer(chunkSize int) *Framer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Framer{ChunkSize: chunkSize}
}

/*
从连接中读取一次完整的HTTP请求数据：
1. 读一次（最多 ChunkSize 字节）
2. 没有 \r\n\r\n => 请求头过大，不再继续读
3. 有 Content-Length => 读满剩余的请求体
4. 没有 Content-Length => 请求体就是第一次读到的部分
*/
func (f *Framer) Frame(r io.Reader) (*Frame, error) {
	buf := make([]byte, f.ChunkSize)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrTransportBroken, err.Error())
	}
	chunk := buf[:n]

	i := bytes.Index(chunk, HeaderEnd)
	if i == -1 {
		return &Frame{Data: chunk, SizeError: true}, nil
	}
	head, prefix := chunk[:i], chunk[i+len(HeaderEnd):]

	cl, ok, err := contentLength(head)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Frame{Data: chunk}, nil
	}

	if len(prefix) >= cl {
		// 多出来的字节不属于这次请求
		return &Frame{Data: chunk[:i+len(HeaderEnd)+cl]}, nil
	}
	rest, err := ReadExact(r, cl-len(prefix), f.ChunkSize)
	if err != nil {
		return nil, err
	}
	return &Frame{Data: append(chunk, rest...)}, nil
}

// 只为分帧读取 content-length，其余请求头交给 ParseRequest
// 和 ParseRequest 一样，重复的请求头以最后一个为准
func contentLength(head []byte) (int, bool, error) {
	var value []byte
	found := false
	lines := bytes.Split(head, CRLF)
	for _, line := range lines[1:] {
		name, v, ok := bytes.Cut(line, []byte(": "))
		if ok && bytes.EqualFold(name, []byte("content-length")) {
			value, found = v, true
		}
	}
	if !found {
		return 0, false, nil
	}
	cl, err := strconv.Atoi(string(bytes.TrimSpace(value)))
	if err != nil || cl < 0 {
		return 0, false, errors.Wrapf(ErrMalformedHeaderLine, "content-length %q", value)
	}
	return cl, true, nil
}

/*
读满 n 个字节，每次最多读 chunkSize
一次读取没有任何进展 => 连接断开
*/
func ReadExact(r io.Reader, n, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	data := make([]byte, 0, n)
	buf := make([]byte, chunkSize)
	for len(data) < n {
		want := n - len(data)
		if want > chunkSize {
			want = chunkSize
		}
		m, err := r.Read(buf[:want])
		data = append(data, buf[:m]...)
		if m == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return nil, errors.Wrapf(ErrTransportBroken, "receive: %d of %d bytes: %v", len(data), n, err)
		}
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(ErrTransportBroken, "receive: %v", err)
		}
	}
	return data, nil
}

/*
把 buf 全部写出去
*/
func WriteExact(w io.Writer, buf []byte) error {
	sent := 0
	for sent < len(buf) {
		m, err := w.Write(buf[sent:])
		sent += m
		if m == 0 {
			if err == nil {
				err = io.ErrShortWrite
			}
			return errors.Wrapf(ErrTransportBroken, "send: %d of %d bytes: %v", sent, len(buf), err)
		}
		if err != nil {
			return errors.Wrapf(ErrTransportBroken, "send: %v", err)
		}
	}
	return nil
}
