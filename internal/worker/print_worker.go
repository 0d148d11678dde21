package worker

// print_worker.go
// Processes Z-report print jobs from QueueReportPrint.
// Sends the report to the ticket printer gateway and marks it printed.
// Implements exponential backoff (max 3 retries) before parking the job
// in the DLQ.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/infra"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
)

const printMaxAttempts = 3

// PrintWorker delivers Z-reports to the printer gateway. A nil printer
// client (no gateway configured) marks reports printed without delivery,
// which keeps single-terminal deployments working offline.
type PrintWorker struct {
	zreports repository.ZReportRepository
	printer  *infra.PrinterClient
	rdb      *redis.Client
}

func NewPrintWorker(zreports repository.ZReportRepository, printer *infra.PrinterClient, rdb *redis.Client) *PrintWorker {
	return &PrintWorker{zreports: zreports, printer: printer, rdb: rdb}
}

// Process handles a single print job:
//  1. Parse ReportPrintPayload from the job envelope
//  2. Fetch the Z-report from DB
//  3. Deliver to the printer gateway with exponential backoff
//  4. Mark the report printed
//
// Jobs that exhaust retries go to the DLQ; the report stays unprinted and
// can be re-dispatched via the reprint endpoint.
func (w *PrintWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReportPrintPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("print_worker: invalid payload")
		return
	}

	reportID, err := uuid.Parse(payload.ReportID)
	if err != nil {
		log.Error().Str("report_id", payload.ReportID).Msg("print_worker: invalid report_id")
		return
	}

	report, err := w.zreports.FindByID(ctx, reportID)
	if err != nil {
		log.Error().Err(err).Str("report_id", payload.ReportID).Msg("print_worker: report not found")
		return
	}

	if w.printer != nil {
		printErr := withRetry(ctx, printMaxAttempts, func(attempt int) error {
			if err := w.printer.PrintZReport(ctx, report); err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Int64("report_number", report.ReportNumber).
					Msg("print_worker: gateway attempt failed, retrying")
				return err
			}
			return nil
		})
		if printErr != nil {
			log.Error().Err(printErr).Int64("report_number", report.ReportNumber).Msg("print_worker: gateway failed after all retries")
			SendToDLQ(ctx, w.rdb, QueueReportPrint, "report_print", raw, printErr.Error(), printMaxAttempts)
			return
		}
	}

	if _, err := w.zreports.MarkPrinted(ctx, reportID, time.Now()); err != nil {
		log.Error().Err(err).Int64("report_number", report.ReportNumber).Msg("print_worker: failed to mark printed")
		return
	}
	log.Info().Int64("report_number", report.ReportNumber).Msg("print_worker: z-report printed")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
