package common

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

const contentDisposition = "content-disposition"

/*
multipart/form-data 中的一段
Header 保留原始大小写的键；Content-Disposition 单独解析到 Disposition
*/
type Part struct {
	Header      map[string]string
	Disposition map[string]string
	Content     []byte
}

func (p *Part) Name() string {
	return p.Disposition["name"]
}

func (p *Part) FileName() (string, bool) {
	name, ok := p.Disposition["filename"]
	return name, ok
}

/*
从 Content-Type 中取出 boundary 参数
multipart/form-data; boundary=XYZ
*/
func Boundary(contentType string) (string, error) {
	params := strings.Split(contentType, ";")
	for _, param := range params[1:] {
		key, value, found := strings.Cut(param, "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "boundary") {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if value == "" {
			break
		}
		return value, nil
	}
	return "", errors.Wrapf(ErrMissingBoundary, "%q", contentType)
}

/*
按 --boundary 切分请求体，去掉第一段（前导）和最后一段（结尾的 --）
每段内容原样保留，包括下一个分隔符前的 \r\n
*/
func ParseMultipartBody(body []byte, contentType string) ([]Part, error) {
	boundary, err := Boundary(contentType)
	if err != nil {
		return nil, err
	}
	segments := bytes.Split(body, []byte("--"+boundary))
	if len(segments) < 3 {
		return []Part{}, nil
	}
	segments = segments[1 : len(segments)-1]

	parts := make([]Part, 0, len(segments))
	for i, seg := range segments {
		part, err := parsePart(seg)
		if err != nil {
			return nil, errors.WithMessagef(err, "part %d", i)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func parsePart(seg []byte) (Part, error) {
	head, content, found := bytes.Cut(seg, HeaderEnd)
	if !found {
		return Part{}, errors.Wrap(ErrMalformedMultipartSegment, "no header delimiter")
	}
	// 第一行是 boundary 那一行剩下的部分
	lines := bytes.Split(head, CRLF)[1:]
	if len(lines) == 0 {
		return Part{}, errors.Wrap(ErrMalformedMultipartSegment, "no part headers")
	}

	part := Part{
		Header:  make(map[string]string, len(lines)),
		Content: content,
	}
	for _, line := range lines {
		name, value, found := bytes.Cut(line, []byte(": "))
		if !found {
			return Part{}, errors.Wrapf(ErrMalformedMultipartSegment, "header %q", line)
		}
		if strings.EqualFold(string(name), contentDisposition) {
			part.Disposition = parseDisposition(string(value))
			continue
		}
		part.Header[string(name)] = string(value)
	}
	return part, nil
}

// form-data; name="file"; filename="a.txt"
func parseDisposition(value string) map[string]string {
	d := make(map[string]string)
	for _, param := range strings.Split(value, "; ") {
		key, v, found := strings.Cut(param, "=")
		if !found {
			d[param] = param
			continue
		}
		d[key] = strings.Trim(v, `"`)
	}
	return d
}
