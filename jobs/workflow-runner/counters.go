package main

import "time"

type DispatchCounter struct {
	startedAt time.Time
	Success   int
	Failed    int
	Cancelled int
	Duration  int64
}

func InitDispatchCounter() *DispatchCounter {
	return &DispatchCounter{
		startedAt: time.Now(),
	}
}

func (c *DispatchCounter) IncreaseCounter(success bool) {
	if success {
		c.Success++
	} else {
		c.Failed++
	}
}

func (c *DispatchCounter) IncreaseCancelled() {
	c.Cancelled++
}

func (c *DispatchCounter) Stop() {
	c.Duration = time.Since(c.startedAt).Milliseconds()
}
