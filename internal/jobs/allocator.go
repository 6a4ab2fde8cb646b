// Package jobs hosts the background schedules of the server. Currently a
// single cron entry: the resource allocator sweep.
package jobs

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/dispatch"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Allocator is the slice of the dispatch service the sweep needs.
type Allocator interface {
	AssignResources(ctx context.Context) (*dispatch.AssignmentResult, error)
}

// StartAllocator schedules the allocation sweep on the given cron spec
// (six fields, seconds first) and returns the running scheduler. Each
// tick assigns at most one dispatch; a backlog drains over successive
// ticks, which keeps a single tick cheap and bounded.
func StartAllocator(spec string, allocator Allocator, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := allocator.AssignResources(ctx)
		if err != nil {
			log.Error("allocation sweep failed", zap.Error(err))
			return
		}
		if result.Assigned {
			log.Info("allocation sweep assigned a dispatch",
				zap.String("dispatchID", result.DispatchID),
				zap.String("driverID", result.DriverID),
				zap.String("vehicleID", result.VehicleID))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info("allocator job started", zap.String("spec", spec))
	return c, nil
}
