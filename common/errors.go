package common

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// 错误类型
var (
	// 读写时对端提前关闭，或一次读写没有任何进展
	ErrTransportBroken = errors.New("socket connection broken")
	// 第一次读取中找不到 \r\n\r\n
	ErrFramingIncomplete = errors.New("header/body delimiter not found")

	ErrMalformedRequestLine      = errors.New("malformed request line")
	ErrMalformedHeaderLine       = errors.New("malformed header line")
	ErrMalformedFormPair         = errors.New("malformed form pair")
	ErrMissingBoundary           = errors.New("multipart boundary missing")
	ErrMalformedMultipartSegment = errors.New("malformed multipart segment")

	ErrMissingContentType = errors.New("POST without content-type")
	ErrEmptyTarget        = errors.New("POST with empty target")

	ErrUnknownStatus = errors.New("status code not in status table")
)

var parseErrors = []error{
	ErrMalformedRequestLine,
	ErrMalformedHeaderLine,
	ErrMalformedFormPair,
	ErrMissingBoundary,
	ErrMalformedMultipartSegment,
}

// IsParseError reports whether err comes from parsing a request or one of its bodies.
func IsParseError(err error) bool {
	for _, e := range parseErrors {
		if stderrors.Is(err, e) {
			return true
		}
	}
	return false
}
