// Package main is the entry point for the CourseMind question-answering
// service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/coursemind/cmd/coursemind/app"
)

func main() {
	app.NewApp().Run()
}
