package main

import (
	stdlog "log"

	"github.com/studyroomhq/studyroom-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		stdlog.Fatal(err)
	}
}
