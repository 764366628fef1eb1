package common

import (
	"bytes"

	"github.com/pkg/errors"
)

type FormPair struct {
	Key   string
	Value string
}

// application/x-www-form-urlencoded 请求体，保持原始顺序
type Form []FormPair

/*
解析 a=1&b=2 形式的请求体
值保持原样，不做百分号解码；没有 = 的键值对是错误
*/
func ParseFormBody(body []byte) (Form, error) {
	pairs := bytes.Split(body, []byte{'&'})
	form := make(Form, 0, len(pairs))
	for _, pair := range pairs {
		key, value, found := bytes.Cut(pair, []byte{'='})
		if !found {
			return nil, errors.Wrapf(ErrMalformedFormPair, "%q", pair)
		}
		form = append(form, FormPair{Key: string(key), Value: string(value)})
	}
	return form, nil
}

// 重复的键后一个覆盖前一个
func (f Form) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, p := range f {
		m[p.Key] = p.Value
	}
	return m
}

func (f Form) Get(key string) (string, bool) {
	v, ok := "", false
	for _, p := range f {
		if p.Key == key {
			v, ok = p.Value, true
		}
	}
	return v, ok
}

// 每个键值对一行 key=value
func (f Form) Bytes() []byte {
	var buf bytes.Buffer
	for _, p := range f {
		buf.WriteString(p.Key)
		buf.WriteByte('=')
		buf.WriteString(p.Value)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
