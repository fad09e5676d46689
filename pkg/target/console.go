package target

import "flag"

// LogToConsole sends all log output to stderr. A target has no file
// system, and glog aborts when it cannot create its log files.
func LogToConsole() {
	if err := flag.Set("logtostderr", "true"); err != nil {
		panic(err)
	}
}
