package common

import (
	"time"

	"github.com/sirupsen/logrus"
)

var restartWaitTime = time.Second

/**
* 支持panic重启的函数运行
* @param		log logrus.FieldLogger	日志
* @param		server func()			要执行的函数
* @return		nil
* func Run(log logrus.FieldLogger, server func());
 */
func Run(log logrus.FieldLogger, server func()) {
	for {
		if !safeCall(log, server) {
			return
		}
		time.Sleep(restartWaitTime)
	}
}

// 返回 server 是否 panic
func safeCall(log logrus.FieldLogger, server func()) (panicked bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Errorln("panic:", p)
			panicked = true
		}
	}()
	server()
	return false
}
