//go:build tinygo

package main

import (
	"context"

	"github.com/robotalks/ramloader/pkg/target"
	"github.com/robotalks/ramloader/pkg/target/cortexm"
)

func main() {
	target.LogToConsole()
	p, ok := cortexm.Take()
	if !ok {
		cortexm.Halt()
	}
	err := target.NewLoader(p, target.DefaultWindow()).Run(context.Background())
	println("loader halted:", err.Error())
	cortexm.Halt()
}
