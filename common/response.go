package common

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	StatusOK                          = 200
	StatusCreated                     = 201
	StatusNotFound                    = 404
	StatusRequestHeaderFieldsTooLarge = 431
	StatusNotImplemented              = 501
)

// 状态码 => 原因短语
type StatusTable map[int]string

func DefaultStatusTable() StatusTable {
	return StatusTable{
		StatusOK:                          "OK",
		StatusCreated:                     "Created",
		StatusNotFound:                    "Not Found",
		StatusRequestHeaderFieldsTooLarge: "Request Header Fields Too Large",
		StatusNotImplemented:              "Not Implemented",
	}
}

type HeaderField struct {
	Name  string
	Value string
}

// 每个响应都带的响应头，按顺序输出
type HeaderList []HeaderField

func DefaultHeaders() HeaderList {
	return HeaderList{
		{Name: "Server", Value: "BasicServer"},
		{Name: "Content-Type", Value: "text/html"},
	}
}

type Response struct {
	StatusCode int
	Header     map[string]string // 覆盖默认响应头
	Body       []byte
}

func NewResponse(code int, body []byte) *Response {
	return &Response{StatusCode: code, Header: make(map[string]string), Body: body}
}

func (r *Response) SetHeader(name, value string) *Response {
	if r.Header == nil {
		r.Header = make(map[string]string)
	}
	r.Header[name] = value
	return r
}

/*
响应序列化
不会自动加 Content-Length，连接在响应写完后关闭
*/
type Encoder struct {
	status  StatusTable
	headers HeaderList
}

func NewEncoder(status StatusTable, headers HeaderList) *Encoder {
	return &Encoder{status: status, headers: headers}
}

func (e *Encoder) Reason(code int) (string, bool) {
	reason, ok := e.status[code]
	return reason, ok
}

func (e *Encoder) Encode(resp *Response) ([]byte, error) {
	reason, ok := e.status[resp.StatusCode]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStatus, "%d", resp.StatusCode)
	}

	var buf bytes.Buffer
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(resp.StatusCode))
	buf.WriteByte(' ')
	buf.WriteString(reason)
	buf.Write(CRLF)
	for _, f := range e.merge(resp.Header) {
		buf.WriteString(f.Name)
		buf.WriteString(": ")
		buf.WriteString(f.Value)
		buf.Write(CRLF)
	}
	buf.Write(CRLF)
	buf.Write(resp.Body)
	return buf.Bytes(), nil
}

// 同名（不区分大小写）时覆盖默认值，其余的按名字排序追加
func (e *Encoder) merge(override map[string]string) HeaderList {
	merged := make(HeaderList, 0, len(e.headers)+len(override))
	used := make(map[string]bool, len(override))
	for _, f := range e.headers {
		for name, value := range override {
			if strings.EqualFold(name, f.Name) {
				f.Value = value
				used[name] = true
			}
		}
		merged = append(merged, f)
	}

	rest := make([]string, 0, len(override))
	for name := range override {
		if !used[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		merged = append(merged, HeaderField{Name: name, Value: override[name]})
	}
	return merged
}
