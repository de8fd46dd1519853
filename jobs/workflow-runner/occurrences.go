package main

import (
	"log/slog"

	"github.com/clinicflow/clinicflow-backend/pkg/workflow/dispatch"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
)

func fireOccurrence(instanceID string, occurrence workflowTypes.WorkflowOccurrence, counters *DispatchCounter) {
	outcome, err := dispatcher.Fire(instanceID, occurrence)
	if err != nil {
		// infrastructure problem, release the claim so it is retried later
		counters.IncreaseCounter(false)
		slog.Error("Failed to fire occurrence", slog.String("instanceID", instanceID), slog.String("occurrenceID", occurrence.ID.Hex()), slog.String("error", err.Error()))

		err = workflowDBService.ResetLastAttempt(instanceID, occurrence.ID.Hex())
		if err != nil {
			slog.Error("Failed to reset last attempt for occurrence", slog.String("error", err.Error()))
		}
		return
	}

	switch outcome.Result {
	case dispatch.DISPATCH_RESULT_SENT, dispatch.DISPATCH_RESULT_ALREADY_SENT:
		err = workflowDBService.MarkOccurrenceFired(instanceID, occurrence.ID.Hex())
		if err != nil {
			slog.Error("Failed to mark occurrence as fired", slog.String("instanceID", instanceID), slog.String("occurrenceID", occurrence.ID.Hex()), slog.String("error", err.Error()))
		}
		counters.IncreaseCounter(true)
	case dispatch.DISPATCH_RESULT_CANCELLED:
		err = workflowDBService.MarkOccurrenceCancelled(instanceID, occurrence.ID.Hex(), outcome.Reason)
		if err != nil {
			slog.Error("Failed to mark occurrence as cancelled", slog.String("instanceID", instanceID), slog.String("occurrenceID", occurrence.ID.Hex()), slog.String("error", err.Error()))
		}
		slog.Info("Occurrence cancelled", slog.String("instanceID", instanceID), slog.String("occurrenceID", occurrence.ID.Hex()), slog.String("reason", outcome.Reason))
		counters.IncreaseCancelled()
	default:
		err = workflowDBService.MarkOccurrenceFailed(instanceID, occurrence.ID.Hex(), outcome.Reason)
		if err != nil {
			slog.Error("Failed to mark occurrence as failed", slog.String("instanceID", instanceID), slog.String("occurrenceID", occurrence.ID.Hex()), slog.String("error", err.Error()))
		}
		slog.Error("Failed to send workflow email", slog.String("instanceID", instanceID), slog.String("occurrenceID", occurrence.ID.Hex()), slog.String("reason", outcome.Reason))
		counters.IncreaseCounter(false)
	}
}
