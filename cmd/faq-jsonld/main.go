package main

import (
	"flag"
	"log"
	"os"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/startup"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found -- config defaults will be used")
	}

	configPath := flag.String("config", os.Getenv("FAQJ_CONFIG"), "path to faqjsonld.yaml")
	flag.Parse()

	if err := startup.Initialize(*configPath); err != nil {
		log.Fatalf("Application startup failed: %v", err)
	}

	log.Println("Application has shut down gracefully.")
}
