package handlers

import (
	"path"
	"strings"

	"github.com/pkg/errors"

	"basicserver/common"
	"basicserver/server/storage"
)

const (
	formURLEncoded    = "application/x-www-form-urlencoded"
	multipartFormData = "multipart/form-data"
)

var (
	notFoundBody       = []byte("<h1>404 Not Found</h1>")
	tooLargeBody       = []byte("<h1>431 Request Header Fields Too Large</h1>")
	notImplementedBody = []byte("<h1>501 Not Implemented</h1>")
)

// Method is the closed set of request methods the router knows about.
type Method int

const (
	MethodUnrecognized Method = iota
	MethodGet
	MethodPost
)

// ParseMethod folds case; anything else is MethodUnrecognized.
func ParseMethod(s string) Method {
	switch strings.ToUpper(s) {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	}
	return MethodUnrecognized
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	}
	return "unrecognized"
}

// HandleFunc answers one parsed request. req is nil for the size-error handler.
type HandleFunc func(req *common.Request) (*common.Response, error)

type Handlers struct {
	store storage.Storage
	mime  MIMETable
	index string
}

func New(store storage.Storage, mime MIMETable, index string) *Handlers {
	if index == "" {
		index = "index.html"
	}
	return &Handlers{store: store, mime: mime, index: index}
}

// 去掉两端的 / 和查询串
func resourceName(target string) string {
	if i := strings.IndexByte(target, '?'); i != -1 {
		target = target[:i]
	}
	return strings.Trim(target, "/")
}

func (h *Handlers) Get(req *common.Request) (*common.Response, error) {
	name := resourceName(req.Target)
	if name == "" {
		name = h.index
	}
	if !h.store.Exists(name) {
		return common.NewResponse(common.StatusNotFound, notFoundBody), nil
	}
	body, err := h.store.ReadAll(name)
	if err != nil {
		return nil, err
	}
	return common.NewResponse(common.StatusOK, body).SetHeader("Content-Type", h.mime.Lookup(name)), nil
}

func (h *Handlers) Post(req *common.Request) (*common.Response, error) {
	contentType, ok := req.Headers.Get("content-type")
	if !ok {
		return nil, common.ErrMissingContentType
	}
	name := resourceName(req.Target)
	if name == "" {
		return nil, errors.Wrapf(common.ErrEmptyTarget, "%q", req.Target)
	}

	status := common.StatusOK
	switch mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])); {
	case mediaType == formURLEncoded:
		form, err := common.ParseFormBody(req.Body)
		if err != nil {
			return nil, err
		}
		if !h.store.Exists(name) {
			status = common.StatusCreated
		}
		if err := h.store.Append(name, form.Bytes()); err != nil {
			return nil, err
		}
	case strings.Contains(mediaType, multipartFormData):
		parts, err := common.ParseMultipartBody(req.Body, contentType)
		if err != nil {
			return nil, err
		}
		for i := range parts {
			filename, ok := parts[i].FileName()
			if !ok {
				continue
			}
			// 只取文件名，不允许带目录
			filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
			if filename == "" || filename == "." || filename == "/" {
				continue
			}
			if err := h.store.Append(filename, parts[i].Content); err != nil {
				return nil, err
			}
		}
	}
	// 响应体只有一个 \r\n
	return common.NewResponse(status, common.CRLF), nil
}

func (h *Handlers) TooLarge(*common.Request) (*common.Response, error) {
	return common.NewResponse(common.StatusRequestHeaderFieldsTooLarge, tooLargeBody), nil
}

func (h *Handlers) NotImplemented(*common.Request) (*common.Response, error) {
	return common.NewResponse(common.StatusNotImplemented, notImplementedBody), nil
}

/*
Router 按方法选择处理函数
未注册的方法 => NotImplemented；请求头过大时不看方法，直接 TooLarge
*/
type Router struct {
	routes         map[Method]HandleFunc
	tooLarge       HandleFunc
	notImplemented HandleFunc
}

func NewRouter(h *Handlers) *Router {
	return &Router{
		routes: map[Method]HandleFunc{
			MethodGet:  h.Get,
			MethodPost: h.Post,
		},
		tooLarge:       h.TooLarge,
		notImplemented: h.NotImplemented,
	}
}

func (r *Router) Route(method string, sizeError bool) HandleFunc {
	if sizeError {
		return r.tooLarge
	}
	if handler, ok := r.routes[ParseMethod(method)]; ok {
		return handler
	}
	return r.notImplemented
}

// Dispatch parses frame (unless it is a size error) and runs the chosen handler.
func (r *Router) Dispatch(frame *common.Frame) (*common.Response, error) {
	if frame.SizeError {
		return r.tooLarge(nil)
	}
	req, err := common.ParseRequest(frame.Data)
	if err != nil {
		return nil, err
	}
	return r.Route(req.Method, false)(req)
}
