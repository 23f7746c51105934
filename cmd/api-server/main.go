package main

import (
	"github.com/fisker/fleetops-backend/internal/app"
)

func main() {
	application, err := app.Initialize("")
	if err != nil {
		panic(err)
	}

	app.StartServer(application)
}
