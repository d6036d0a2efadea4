package main

import (
	"log"
	"os"

	"clinic-ai-service/internal/config"
	"clinic-ai-service/internal/di"
)

func main() {
	di.LoadEnv()

	broker := os.Getenv("KAFKA_BROKER")
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "notification_events"
		os.Setenv("KAFKA_TOPIC", topic)
	}
	if err := config.EnsureTopicExists(broker, topic); err != nil {
		log.Printf("Could not ensure kafka topic %s: %v", topic, err)
	}

	router, cleanup := di.Setup()
	defer cleanup()

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = ":8080"
	}
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to run HTTP server: %v", err)
	}
}
