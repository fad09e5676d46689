package main

import (
	"github.com/robotalks/ramloader/pkg/cli/sh"
	"github.com/robotalks/ramloader/pkg/serial"
	"github.com/robotalks/ramloader/pkg/uploader"
)

func init() {
	serial.SetupFlags()
	uploader.SetupFlags()
}

func main() {
	sh.Main()
}
