package common

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

const DefaultVersion = "1.1"

// 请求头，键为小写
type Header map[string]string

func (h Header) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

/*
一次解析完的HTTP请求，创建后只读
*/
type Request struct {
	Method  string
	Target  string
	Version string
	Headers Header
	Body    []byte
}

/*
解析一次完整的HTTP请求数据
block 中必须有 \r\n\r\n；Body 的长度由 Framer 决定，这里不再校验
*/
func ParseRequest(block []byte) (*Request, error) {
	head, body, found := bytes.Cut(block, HeaderEnd)
	if !found {
		return nil, ErrFramingIncomplete
	}

	lines := bytes.Split(head, CRLF)
	words := bytes.Split(lines[0], []byte{' '})
	if len(words[0]) == 0 {
		return nil, errors.Wrapf(ErrMalformedRequestLine, "%q", lines[0])
	}
	req := &Request{
		Method:  string(words[0]),
		Version: DefaultVersion,
		Body:    body,
	}
	if len(words) > 1 {
		req.Target = string(words[1])
	}
	if len(words) > 2 {
		req.Version = string(words[2])
	}

	headers, err := parseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}
	req.Headers = headers
	return req, nil
}

// 重复的请求头后一个覆盖前一个
func parseHeaders(lines [][]byte) (Header, error) {
	h := make(Header, len(lines))
	for _, line := range lines {
		name, value, found := bytes.Cut(line, []byte(": "))
		if !found {
			return nil, errors.Wrapf(ErrMalformedHeaderLine, "%q", line)
		}
		h[strings.ToLower(string(name))] = string(value)
	}
	return h, nil
}
