package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

func New(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	if out != nil {
		log.SetOutput(out)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:            true,
		FullTimestamp:          true,
		TimestampFormat:        "2006-01-02 15:04:05",
		DisableLevelTruncation: true,
	})
	log.SetReportCaller(true)
	return log, nil
}

// 测试用，丢弃所有输出
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
