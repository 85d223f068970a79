package main

import (
	"github.com/robotalks/iosamurai/pkg/cli/sh"
	"github.com/robotalks/iosamurai/pkg/devconsole"
	"github.com/robotalks/iosamurai/pkg/l0/comm"
	"github.com/robotalks/iosamurai/pkg/l1/mqtt"

	_ "github.com/robotalks/iosamurai/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	comm.SetupFlags()
	devconsole.SetupFlags()
	mqtt.SetupFlags()
}

func main() {
	sh.Main()
}
