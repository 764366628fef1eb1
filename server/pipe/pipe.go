package pipe

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"basicserver/common"
	"basicserver/common/number_pool"
	"basicserver/server/config"
	"basicserver/server/handlers"
)

/*
一个监听端口
每个连接只处理一次请求/响应，然后关闭
同时处理的连接数不超过 ConnLimit，默认 1，即一个连接处理完才接受下一个
*/
type Pipe struct {
	Number int // 编号
	conf   config.Pipe
	log    *logrus.Entry

	framer  *common.Framer
	router  *handlers.Router
	encoder *common.Encoder
	ids     *number_pool.NumberPool

	limit        int
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewPipe(number int, conf *config.Config, router *handlers.Router, encoder *common.Encoder, log logrus.FieldLogger) *Pipe {
	limit := conf.ConnLimit
	if limit <= 0 {
		limit = 1
	}
	return &Pipe{
		Number:       number,
		conf:         conf.Pipes[number-1],
		log:          log.WithField("pipe", number),
		framer:       common.NewFramer(conf.ChunkSize),
		router:       router,
		encoder:      encoder,
		ids:          number_pool.NewNumberPool(uint64(limit), 1),
		limit:        limit,
		readTimeout:  conf.ReadTimeout,
		writeTimeout: conf.WriteTimeout,
	}
}

// 监听，开启 tls 时用证书包一层
func (p *Pipe) Listen() (net.Listener, error) {
	l, err := net.Listen("tcp", p.conf.Address())
	if err != nil {
		return nil, errors.Wrapf(err, "pipe%d listen", p.Number)
	}
	if !p.conf.TLS {
		return l, nil
	}
	cert, err := tls.LoadX509KeyPair(p.conf.CertFile, p.conf.KeyFile)
	if err != nil {
		l.Close()
		return nil, errors.Wrapf(err, "pipe%d load certificate", p.Number)
	}
	return tls.NewListener(l, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

func (p *Pipe) Run(ctx context.Context) error {
	l, err := p.Listen()
	if err != nil {
		return err
	}
	return p.Serve(ctx, l)
}

/*
接受连接直到 ctx 结束或 Accept 出错
返回前等待正在处理的连接结束
*/
func (p *Pipe) Serve(ctx context.Context, l net.Listener) error {
	l = netutil.LimitListener(l, p.limit)
	p.log.Infof("listen %s (tls=%v) ...", l.Addr(), p.conf.TLS)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		l.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		c, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return errors.Wrapf(err, "pipe%d accept", p.Number)
		}
		// 编号只用于日志，取不到时用 0 照常处理
		id, ok := p.ids.Get()
		if !ok {
			p.log.Warnln("connection id pool exhausted, serving", c.RemoteAddr(), "as conn 0")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok {
				defer p.ids.Put(id)
			}
			p.handleConn(c, id)
		}()
	}
}

func (p *Pipe) handleConn(c net.Conn, id uint64) {
	log := p.log.WithFields(logrus.Fields{
		"conn":   id,
		"remote": c.RemoteAddr().String(),
	})
	defer func() {
		if err := c.Close(); err != nil {
			log.Debugln("close:", err)
		}
	}()
	log.Infoln("connected")

	if err := p.setDeadTime(c); err != nil {
		log.Errorln(err)
		return
	}
	status, err := p.Exchange(c, log)
	if err != nil {
		log.Errorln(err)
		return
	}
	log.Infoln("response", status)
}

/*
一次完整的请求/响应：分帧 => 解析/处理 => 序列化 => 写回
出错时不写任何响应，由调用方关闭连接
log 是这个连接的日志，带 conn/remote 字段
*/
func (p *Pipe) Exchange(rw io.ReadWriter, log logrus.FieldLogger) (int, error) {
	frame, err := p.framer.Frame(rw)
	if err != nil {
		return 0, err
	}
	log.Debugf("framed %d bytes (size error: %v)", len(frame.Data), frame.SizeError)

	resp, err := p.router.Dispatch(frame)
	if err != nil {
		return 0, err
	}
	out, err := p.encoder.Encode(resp)
	if err != nil {
		return 0, err
	}
	if err := common.WriteExact(rw, out); err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

func (p *Pipe) setDeadTime(c net.Conn) error {
	if p.readTimeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
			return errors.WithStack(err)
		}
	}
	if p.writeTimeout > 0 {
		if err := c.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
