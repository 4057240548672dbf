package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/cinehub/booking-engine/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
