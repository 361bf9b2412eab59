package main

import (
	"github.com/OrFisher/real-time-speech-processor/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
