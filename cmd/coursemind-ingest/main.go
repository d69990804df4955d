// Package main is the entry point for the CourseMind ingestion command.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/coursemind/cmd/coursemind-ingest/app"
)

func main() {
	app.NewApp().Run()
}
