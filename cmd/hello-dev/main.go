// Package main is the hello-dev entry point.
package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/OutragedMetro/manjaro-hello/cmd/hello-dev/devtool"
	"github.com/OutragedMetro/manjaro-hello/internal/consts"
	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	log "github.com/sirupsen/logrus"
)

func main() {
	i18n.InitI18nDomain(consts.TEXTDOMAIN)
	a := devtool.New()
	os.Exit(run(a))
}

type app interface {
	Run() error
	UsageError() bool
	Quit()
}

func run(a app) int {
	defer installSignalHandler(a)()

	log.SetFormatter(&log.TextFormatter{
		DisableQuote: true,
	})

	if err := a.Run(); err != nil {
		log.Error(err)

		if a.UsageError() {
			return 2
		}
		return 1
	}

	return 0
}

func installSignalHandler(a app) func() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			switch v, ok := <-c; v {
			case syscall.SIGINT, syscall.SIGTERM:
				a.Quit()
				return
			default:
				// channel was closed: we exited
				if !ok {
					return
				}
			}
		}
	}()

	return func() {
		signal.Stop(c)
		close(c)
		wg.Wait()
	}
}
