// Package main is the entry point for the tubelink application.
package main

import (
	"github.com/samber/lo"
	"github.com/tubelink/tubelink/cmd"
	"github.com/tubelink/tubelink/config"
	"github.com/tubelink/tubelink/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
