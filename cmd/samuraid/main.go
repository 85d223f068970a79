package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	fx "github.com/robotalks/iosamurai/pkg/framework"
	"github.com/robotalks/iosamurai/pkg/l0/comm"
	"github.com/robotalks/iosamurai/pkg/l1/mqtt"
)

var interval = fx.DefaultInterval

func init() {
	comm.SetupFlags()
	mqtt.SetupFlags()
	flag.DurationVar(&interval, "interval", interval, "Update cycle interval.")
}

func main() {
	flag.Parse()

	session := comm.Default().MustNewSession()
	defer session.Close()

	loop := fx.NewLoop().Add(session)
	loop.Interval = interval
	if conf := mqtt.Default(); conf.Enabled() {
		loop.Add(conf.MustNewBridge(session))
	}
	loop.RunOrFail()
}
