package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	fx "github.com/robotalks/iosamurai/pkg/framework"
	"github.com/robotalks/iosamurai/pkg/sim"
)

func init() {
	sim.SetupFlags()
}

func main() {
	flag.Parse()

	conf := sim.Default()
	server, err := conf.NewServer()
	if err != nil {
		glog.Exitf("start device: %v", err)
	}
	glog.Infof("device listening on %s", server.Addr())

	loop := fx.NewLoop().Add(server)
	if conf.SweepStep != 0 {
		loop.AddController(fx.PrLvControl, &sim.Sweeper{Device: server.Device, Step: conf.SweepStep})
	}
	loop.RunOrFail()
}
