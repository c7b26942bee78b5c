package main

import (
	"log"

	"github.com/MrSnakeDoc/notice/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ notice failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ notice stopped with error: %v", err)
	}
}
