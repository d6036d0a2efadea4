package utils

import (
	"log"

	"clinic-ai-service/internal/service"

	"github.com/robfig/cron/v3"
)

// StartScheduler runs the periodic appointment jobs: the sweep that
// marks past active appointments as missed every five minutes, and the
// daily reminder emission each morning.
func StartScheduler(appointments service.AppointmentService) *cron.Cron {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc("*/5 * * * *", appointments.MarkMissedSweep); err != nil {
		log.Fatalf("Failed to schedule missed sweep: %v", err)
	}
	if _, err := scheduler.AddFunc("0 8 * * *", appointments.SendDailyReminders); err != nil {
		log.Fatalf("Failed to schedule reminder job: %v", err)
	}

	scheduler.Start()
	return scheduler
}
