package main

import (
	"github.com/Dongwon38/print-agent/internal/app"
	"github.com/Dongwon38/print-agent/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
