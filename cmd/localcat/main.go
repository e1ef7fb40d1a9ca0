package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/MimeLyc/localcat/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		service.NewDefaultErrorHandler().Handle(err)
		os.Exit(1)
	}
}
