package config

import (
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"basicserver/common"
)

const sample = `
[server]
root = /srv/www
index = home.html
chunk_size = 1024
log_level = debug
conn_limit = 4
read_timeout = 5s

[headers]
Server = TestServer
Content-Type = text/plain
X-Frame-Options = DENY

[mime]
TXT = text/plain
svg = image/svg+xml

[pipe1]
port = 8888

[pipe2]
ip = 0.0.0.0
port = 8443
tls = true
cert_file = cert.pem
key_file = key.pem
`

func TestLoad(t *testing.T) {
	Convey("Load a full config", t, func() {
		conf, err := Load([]byte(sample))
		So(err, ShouldBeNil)
		So(conf.Root, ShouldEqual, "/srv/www")
		So(conf.Index, ShouldEqual, "home.html")
		So(conf.ChunkSize, ShouldEqual, 1024)
		So(conf.LogLevel, ShouldEqual, "debug")
		So(conf.ConnLimit, ShouldEqual, 4)
		So(conf.ReadTimeout, ShouldEqual, 5*time.Second)
		So(conf.WriteTimeout, ShouldEqual, time.Duration(0))

		So(conf.Headers, ShouldResemble, common.HeaderList{
			{Name: "Server", Value: "TestServer"},
			{Name: "Content-Type", Value: "text/plain"},
			{Name: "X-Frame-Options", Value: "DENY"},
		})
		So(conf.MIME, ShouldResemble, map[string]string{"txt": "text/plain", "svg": "image/svg+xml"})

		So(conf.Pipes, ShouldResemble, []Pipe{
			{IP: "127.0.0.1", Port: "8888"},
			{IP: "0.0.0.0", Port: "8443", TLS: true, CertFile: "cert.pem", KeyFile: "key.pem"},
		})
		So(conf.Pipes[1].Address(), ShouldEqual, "0.0.0.0:8443")
	})

	Convey("An empty config falls back to defaults", t, func() {
		conf, err := Load([]byte(""))
		So(err, ShouldBeNil)
		So(conf, ShouldResemble, Default())
		So(conf.Headers, ShouldResemble, common.DefaultHeaders())
		So(conf.Pipes[0].Address(), ShouldEqual, "127.0.0.1:8888")
	})

	Convey("Invalid configs are rejected", t, func() {
		_, err := Load([]byte("[server]\nchunk_size = 0\n"))
		So(err, ShouldNotBeNil)

		_, err = Load([]byte("[pipe1]\nip = 127.0.0.1\n"))
		So(err, ShouldNotBeNil)

		_, err = Load([]byte("[pipe1]\nport = 8443\ntls = true\n"))
		So(err, ShouldNotBeNil)

		_, err = Load("/does/not/exist.ini")
		So(err, ShouldNotBeNil)
	})

	Convey("The shipped config only enables the plain pipe", t, func() {
		file := filepath.Join("..", "..", filepath.Base(DefaultFile))
		conf, err := Load(file)
		So(err, ShouldBeNil)
		So(conf.Pipes, ShouldResemble, []Pipe{{IP: "127.0.0.1", Port: "8888"}})
	})
}
