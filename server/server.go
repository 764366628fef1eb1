package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"basicserver/common"
	"basicserver/server/config"
	"basicserver/server/handlers"
	"basicserver/server/log"
	"basicserver/server/pipe"
	"basicserver/server/storage"
)

func main() {
	confFile := flag.String("c", config.DefaultFile, "config file")
	flag.Parse()

	conf, err := config.Load(*confFile)
	if err != nil {
		logrus.Fatal("Fail to read file: ", err)
	}
	logger, err := log.New(conf.LogLevel, os.Stdout)
	if err != nil {
		logrus.Fatal("log_level: ", err)
	}
	logger.Infoln("load", *confFile, "...")
	logger.Infoln("root:", conf.Root)
	logger.Infoln("chunk_size:", conf.ChunkSize)
	logger.Infoln("conn_limit:", conf.ConnLimit)

	store, err := storage.NewDir(conf.Root)
	if err != nil {
		logger.Fatal(err)
	}
	router := handlers.NewRouter(handlers.New(store, handlers.DefaultMIMETable().With(conf.MIME), conf.Index))
	encoder := common.NewEncoder(common.DefaultStatusTable(), conf.Headers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 启动 pipe组件
	var wg sync.WaitGroup
	for i := range conf.Pipes {
		p := pipe.NewPipe(i+1, conf, router, encoder, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			common.Run(logger.WithField("pipe", p.Number), func() {
				if err := p.Run(ctx); err != nil {
					logger.WithField("pipe", p.Number).Errorln(err)
				}
			})
		}()
	}
	wg.Wait()
	logger.Infoln("server stopped")
}
