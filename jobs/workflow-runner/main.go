package main

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	DEFAULT_POLL_INTERVAL       = 30 * time.Second
	DEFAULT_CLAIM_LOCK_DURATION = 60 * time.Minute

	DUE_OCCURRENCES_BATCH_SIZE = 10

	MAX_FAILED_ATTEMPTS_BEFORE_STOP = 100
)

func main() {
	slog.Info("Starting workflow runner")

	if conf.RunOnce {
		start := time.Now()
		runPass()
		slog.Info("Workflow runner completed", slog.String("duration", time.Since(start).String()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	runPass()
	for {
		select {
		case sig := <-sigChan:
			slog.Info("Shutting down workflow runner", slog.String("signal", sig.String()))
			return
		case <-ticker.C:
			runPass()
		}
	}
}

func runPass() {
	var wg sync.WaitGroup
	wg.Add(1)
	go handleDueOccurrences(&wg)
	wg.Wait()
}

func handleDueOccurrences(wg *sync.WaitGroup) {
	defer wg.Done()
	slog.Debug("Start handling due occurrences")

	for _, instanceID := range conf.InstanceIDs {
		counters := InitDispatchCounter()
		for {
			if counters.Failed > MAX_FAILED_ATTEMPTS_BEFORE_STOP {
				slog.Error("Too many failed attempts, stopping due occurrences for instance", slog.String("instanceID", instanceID))
				break
			}

			dueOccurrences, err := workflowDBService.GetDueOccurrences(
				instanceID,
				time.Now().Add(-claimLockDuration).Unix(),
				DUE_OCCURRENCES_BATCH_SIZE,
			)
			if err != nil {
				slog.Error("Failed to get due occurrences", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
				break
			}

			if len(dueOccurrences) == 0 {
				break
			}

			lastFetch := time.Now()

			for _, occurrence := range dueOccurrences {
				batchDuration := time.Since(lastFetch)
				if batchDuration >= claimLockDuration {
					slog.Warn("Last batch took too long, breaking", slog.String("duration", batchDuration.String()), slog.String("instanceID", instanceID))
					counters.IncreaseCounter(false)

					err = workflowDBService.ResetLastAttempt(instanceID, occurrence.ID.Hex())
					if err != nil {
						slog.Error("Failed to reset last attempt for occurrence", slog.String("error", err.Error()))
					}
					continue
				}

				fireOccurrence(instanceID, occurrence, counters)
			}
		}

		counters.Stop()
		slog.Info("Finished handling due occurrences for instance",
			slog.String("instanceID", instanceID),
			slog.Int64("duration", counters.Duration),
			slog.Int("success", counters.Success),
			slog.Int("failed", counters.Failed),
			slog.Int("cancelled", counters.Cancelled),
		)
	}
}
