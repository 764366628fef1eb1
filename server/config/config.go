package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"basicserver/common"
)

const DefaultFile = "./basicserver.ini"

// 一个监听端口
type Pipe struct {
	IP       string
	Port     string
	TLS      bool
	CertFile string
	KeyFile  string
}

func (p Pipe) Address() string {
	return net.JoinHostPort(p.IP, p.Port)
}

type Config struct {
	Root         string
	Index        string
	ChunkSize    int
	LogLevel     string
	ConnLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Headers common.HeaderList
	MIME    map[string]string // 扩展名 => MIME，覆盖内置表
	Pipes   []Pipe
}

func Default() *Config {
	return &Config{
		Root:      ".",
		Index:     "index.html",
		ChunkSize: common.DefaultChunkSize,
		LogLevel:  "info",
		ConnLimit: 1,
		Headers:   common.DefaultHeaders(),
		MIME:      map[string]string{},
		Pipes:     []Pipe{{IP: "127.0.0.1", Port: "8888"}},
	}
}

/**
 * 加载配置文件
 * @param		source interface{}		文件名或 []byte
 * @return		*Config, error
 * func Load(source interface{}) (*Config, error);
 */
func Load(source interface{}) (*Config, error) {
	cfg, err := ini.Load(source)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	conf := Default()

	serverIni := cfg.Section("server")
	conf.Root = serverIni.Key("root").MustString(conf.Root)
	conf.Index = serverIni.Key("index").MustString(conf.Index)
	conf.ChunkSize = serverIni.Key("chunk_size").MustInt(conf.ChunkSize)
	conf.LogLevel = serverIni.Key("log_level").MustString(conf.LogLevel)
	conf.ConnLimit = serverIni.Key("conn_limit").MustInt(conf.ConnLimit)
	conf.ReadTimeout = serverIni.Key("read_timeout").MustDuration(0)
	conf.WriteTimeout = serverIni.Key("write_timeout").MustDuration(0)
	if conf.ChunkSize <= 0 {
		return nil, errors.Errorf("chunk_size must be positive, got %d", conf.ChunkSize)
	}
	if conf.ConnLimit <= 0 {
		return nil, errors.Errorf("conn_limit must be positive, got %d", conf.ConnLimit)
	}

	if sec, err := cfg.GetSection("headers"); err == nil {
		conf.Headers = common.HeaderList{}
		for _, k := range sec.Keys() {
			conf.Headers = append(conf.Headers, common.HeaderField{Name: k.Name(), Value: k.String()})
		}
	}
	for _, k := range cfg.Section("mime").Keys() {
		conf.MIME[strings.ToLower(strings.TrimPrefix(k.Name(), "."))] = k.String()
	}

	var pipes []Pipe
	for i := 1; len(cfg.Section(fmt.Sprintf("pipe%d", i)).Keys()) != 0; i++ {
		pipeIni := cfg.Section(fmt.Sprintf("pipe%d", i))
		p := Pipe{
			IP:       pipeIni.Key("ip").MustString("127.0.0.1"),
			Port:     pipeIni.Key("port").String(),
			TLS:      pipeIni.Key("tls").MustBool(false),
			CertFile: pipeIni.Key("cert_file").String(),
			KeyFile:  pipeIni.Key("key_file").String(),
		}
		if p.Port == "" {
			return nil, errors.Errorf("pipe%d: port is required", i)
		}
		if p.TLS && (p.CertFile == "" || p.KeyFile == "") {
			return nil, errors.Errorf("pipe%d: tls needs cert_file and key_file", i)
		}
		pipes = append(pipes, p)
	}
	if len(pipes) != 0 {
		conf.Pipes = pipes
	}
	return conf, nil
}
