package app

import (
	"github.com/drivewise/drivewise-backend/internal/clients/gcp"
	"github.com/drivewise/drivewise-backend/internal/clients/redis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
)

type Clients struct {
	// Bucket is nil when GCS is not configured; file routes then reject
	// uploads at the service layer.
	Bucket gcp.BucketService
	// Bus is nil without REDIS_ADDR; notifications still persist, live
	// delivery is just disabled.
	Bus redis.NotificationBus
}

func wireClients(log *logger.Logger) Clients {
	log.Info("Wiring clients...")

	var clients Clients

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService; file storage disabled", "error", err)
	} else {
		clients.Bucket = bucket
	}

	bus, err := redis.NewNotificationBus(log)
	if err != nil {
		log.Warn("Could not init redis notification bus; live delivery disabled", "error", err)
	} else {
		clients.Bus = bus
	}

	return clients
}
