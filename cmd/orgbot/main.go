package main

import (
	"github.com/joho/godotenv"

	"orgbot/internal/cmd"
)

func main() {
	// Missing .env is fine; tokens usually come from the environment.
	_ = godotenv.Load()

	cmd.Execute()
}
