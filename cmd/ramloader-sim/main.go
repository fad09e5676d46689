package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/creack/pty"
	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/framework"
	"github.com/robotalks/ramloader/pkg/target"
	"github.com/robotalks/ramloader/pkg/target/sim"
)

var (
	window = target.DefaultWindow()
	dump   bool
	repeat bool
	listen string
)

func addrFlag(val *uint32) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return err
		}
		*val = uint32(v)
		return nil
	}
}

func init() {
	flag.Func("start", "First address of the RAM window (default 0x20020000).", addrFlag(&window.Start))
	flag.Func("end", "Last address of the RAM window (default 0x20040000).", addrFlag(&window.End))
	flag.BoolVar(&dump, "dump", dump, "Dump RAM after the program is booted.")
	flag.BoolVar(&repeat, "repeat", repeat, "Reset the board and wait for the next program after boot.")
	flag.StringVar(&listen, "listen", listen, "Serve boards over websocket at this address instead of a pty.")
}

func serve(ctx context.Context, ptmx *os.File) error {
	for {
		board := sim.NewBoard(ptmx, window)
		board.Core.OnBoot = onBoot
		err := board.Loader().Run(ctx)
		if !errors.Is(err, target.ErrHandedOff) {
			return err
		}
		if dump {
			board.RAM.Dump(os.Stdout)
		}
		if !repeat {
			return nil
		}
		glog.Info("board reset")
	}
}

func onBoot(sp, entry uint32) {
	fmt.Printf("boot sp=0x%08x entry=0x%08x\n", sp, entry)
}

// serveRemote serves a fresh board to each websocket client at /serial.
func serveRemote(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/serial", sim.WebsocketHandler(window, func(board *sim.Board, err error) {
		if errors.Is(err, target.ErrHandedOff) && dump {
			board.RAM.Dump(os.Stdout)
		} else if err != nil && !errors.Is(err, io.EOF) {
			glog.Warningf("board stopped: %v", err)
		}
	}))
	server := &http.Server{Addr: listen, Handler: mux}
	fmt.Printf("ws://%s/serial\n", listen)
	return framework.RunWithContextCloser(ctx, server, server.ListenAndServe)
}

func main() {
	flag.Parse()
	if window.End < window.Start {
		log.Fatalln("invalid window", window)
	}
	if listen != "" {
		runner := framework.NewRunner().HandleSignals()
		runner.Go(framework.NamedRun("server", framework.RunFunc(serveRemote)))
		if err := runner.Wait(); err != nil {
			log.Fatalln(err)
		}
		return
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		log.Fatalln(err)
	}
	// keep the tty open so the loader doesn't see EIO between hosts.
	defer tty.Close()
	fmt.Println(tty.Name())

	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("loader", framework.RunFunc(func(ctx context.Context) error {
		return framework.RunWithContextCloser(ctx, ptmx, func() error {
			return serve(ctx, ptmx)
		})
	})))
	if err := runner.Wait(); err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
}
