package main

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// rateLimitedComms is a synthetic collaborators.CommsSink standing in
// for the vehicle CAN bus. It follows nasa-jpl-golaborate/nkt's
// rate.NewLimiter(15, 15) + limiter.Wait pattern for throttling
// outbound traffic, but calls Allow rather than Wait: a bus
// transmitter must never block the caller, so a DTC report that loses
// the race is simply dropped and counted rather than queued.
type rateLimitedComms struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	sent    int
	dropped int
}

func newRateLimitedComms() *rateLimitedComms {
	return &rateLimitedComms{limiter: rate.NewLimiter(15, 15)}
}

func (c *rateLimitedComms) SendDTC(ctx context.Context, code uint16, confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.limiter.Allow() {
		c.dropped++
		return nil
	}
	c.sent++
	fmt.Printf("  [comms] DTC 0x%04X confirmed=%v\n", code, confirmed)
	return nil
}

func (c *rateLimitedComms) SendShutdownNotification() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Println("  [comms] shutdown notification sent")
	return nil
}
