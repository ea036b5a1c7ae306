package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"coinrush-client/internal/devserver"
)

func main() {
	addr := flag.String("addr", ":5001", "listen address")
	debug := flag.Bool("debug", false, "log every request")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := devserver.New(log).Run(*addr); err != nil {
		log.Fatal(err)
	}
}
