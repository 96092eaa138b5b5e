package main

import (
	"github.com/seeme-ai/tutor-bridge/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
