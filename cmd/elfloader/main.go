package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/elfimage"
	"github.com/robotalks/ramloader/pkg/l0/comm"
	"github.com/robotalks/ramloader/pkg/report"
	"github.com/robotalks/ramloader/pkg/report/mqtt"
	"github.com/robotalks/ramloader/pkg/serial"
	"github.com/robotalks/ramloader/pkg/uploader"
)

func init() {
	serial.SetupFlags()
	uploader.SetupFlags()
	mqtt.SetupFlags()
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] IMAGE.elf\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func run(path string) error {
	segs, err := elfimage.LoadFile(path)
	if err != nil {
		return err
	}
	for n := range segs {
		if fill := segs[n].ZeroFill(); fill > 0 {
			glog.Warningf("segment %d (%v): %d zero-initialized bytes not transferred", n, &segs[n], fill)
		}
	}

	conf := serial.Default()
	stream, name, err := serial.Connect(conf)
	if err != nil {
		return err
	}
	defer stream.Close()
	glog.V(1).Infof("connected to %s", name)
	client := comm.NewClient(stream)
	client.ReadTimeout = stream.ReadTimeout()
	client.Timeout = conf.Timeout

	reporters := report.Mux{report.NewConsole(os.Stdout)}
	mr, q, err := mqtt.Default().NewReporter()
	if err != nil {
		glog.Warningf("progress events disabled: %v", err)
	} else if mr != nil {
		defer q.Close()
		reporters = append(reporters, mr)
	}

	u := uploader.Default().NewUploader(client)
	u.Reporter = reporters
	return u.Upload(context.Background(), segs)
}

func main() {
	flag.Parse()
	log.SetFlags(0)
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	err := run(flag.Arg(0))
	glog.Flush()
	if err != nil {
		log.Fatalln(err)
	}
}
