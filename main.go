package main

import (
	"log"

	"github.com/hazuki-dev/yomiko/app"
)

func main() {
	a, err := app.NewApp()
	if err != nil {
		log.Fatalf("Fatal error during startup: %v", err)
	}
	a.Run()
}
