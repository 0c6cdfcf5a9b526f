package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"crate/internal/albums"
	"crate/internal/logging"
	"crate/internal/reconcile"
	"crate/internal/resolver"
	"crate/internal/services"
)

const stage = "scan"

// Result describes what happened to one scanned barcode.
type Result struct {
	Outcome resolver.Outcome
	Action  reconcile.Action
	Record  albums.Record
	Path    string
}

// Summary counts the results of a batch.
type Summary struct {
	CorrelationID string
	Scanned       int
	New           int
	Created       int
	Duplicate     int
	NotFound      int
	Skipped       int
	Failed        int
	Errors        []string
	Duration      time.Duration
}

// Session resolves, reconciles and commits scanned barcodes.
type Session struct {
	resolver   *resolver.Resolver
	reconciler *reconcile.Reconciler
	sink       Sink
	logger     *slog.Logger
}

// NewSession wires a Session.
func NewSession(res *resolver.Resolver, rec *reconcile.Reconciler, sink Sink, logger *slog.Logger) *Session {
	if rec == nil {
		rec = reconcile.New(nil)
	}
	return &Session{
		resolver:   res,
		reconciler: rec,
		sink:       sink,
		logger:     logging.NewComponentLogger(logger, "scan"),
	}
}

// Process handles a single scanned barcode.
func (s *Session) Process(ctx context.Context, raw string, decider Decider) (Result, error) {
	if decider == nil {
		decider = AutoDecider{}
	}
	ctx = services.WithStage(ctx, stage)

	outcome, err := s.resolver.Resolve(ctx, raw)
	if err != nil {
		return Result{}, err
	}
	result := Result{Outcome: outcome}
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldBarcode, outcome.Barcode),
		logging.String("outcome", outcome.Kind.String()),
	)

	var manual *reconcile.Manual
	switch outcome.Kind {
	case resolver.KindDuplicate:
		result.Record, result.Action = s.reconciler.Reconcile(outcome, nil)
		match, ok := outcome.Record()
		if !ok {
			logger.Info("duplicate selection cancelled", logging.String(logging.FieldEventType, "scan_skipped"))
			return result, nil
		}
		result.Path = match.Path
		logger.Info("barcode already in collection",
			logging.String("summary", result.Record.Summary()),
			logging.String(logging.FieldEventType, "scan_duplicate"),
		)
		return result, nil
	case resolver.KindNew:
		draft, _ := s.reconciler.Reconcile(outcome, nil)
		keep, corrections, err := decider.ReviewNew(ctx, outcome, draft)
		if err != nil {
			return result, err
		}
		if !keep {
			result.Action = reconcile.ActionSkip
			logger.Info("candidate declined", logging.String(logging.FieldEventType, "scan_skipped"))
			return result, nil
		}
		manual = corrections
	default:
		if outcome.Reason != resolver.ReasonInvalidBarcode {
			manual, err = decider.ManualEntry(ctx, outcome)
			if err != nil {
				return result, err
			}
		}
	}

	result.Record, result.Action = s.reconciler.Reconcile(outcome, manual)
	if result.Action != reconcile.ActionCreate {
		logger.Info("barcode skipped",
			logging.String("reason", outcome.Reason),
			logging.String(logging.FieldEventType, "scan_skipped"),
		)
		return result, nil
	}

	path, err := s.sink.Commit(ctx, outcome, result.Record)
	if err != nil {
		return result, services.Wrap(services.ErrPersistence, stage, "commit record", result.Record.Summary(), err)
	}
	result.Path = path
	logger.Info("record created",
		logging.String("summary", result.Record.Summary()),
		logging.String("path", path),
		logging.String(logging.FieldEventType, "scan_created"),
	)
	return result, nil
}

// RunBatch processes every barcode, continuing past individual failures. The
// callback, when set, sees each result as it completes.
func (s *Session) RunBatch(ctx context.Context, barcodes []string, decider Decider, each func(string, Result, error)) Summary {
	summary := Summary{CorrelationID: uuid.NewString()}
	ctx = services.WithRequestID(ctx, summary.CorrelationID)
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()

	logger.Info("batch starting",
		logging.Int("barcodes", len(barcodes)),
		logging.String(logging.FieldEventType, "batch_started"),
	)
	for _, raw := range barcodes {
		if ctx.Err() != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("batch interrupted: %v", ctx.Err()))
			break
		}
		summary.Scanned++
		result, err := s.Process(ctx, raw, decider)
		if each != nil {
			each(raw, result, err)
		}
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", raw, services.Summary(err)))
			logging.WarnWithContext(logger, "barcode failed", "batch_item_failed",
				logging.String("raw", raw),
				logging.String("error_kind", services.Kind(err)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "barcode was not recorded; batch continues"),
			)
			continue
		}
		summary.add(result)
	}
	summary.Duration = time.Since(start)

	logger.Info("batch complete",
		logging.Int("scanned", summary.Scanned),
		logging.Int("created", summary.Created),
		logging.Int("duplicate", summary.Duplicate),
		logging.Int("not_found", summary.NotFound),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Duration),
		logging.String(logging.FieldEventType, "batch_completed"),
	)
	return summary
}

func (s *Summary) add(r Result) {
	switch r.Outcome.Kind {
	case resolver.KindDuplicate:
		s.Duplicate++
	case resolver.KindNew:
		s.New++
	default:
		s.NotFound++
	}
	switch r.Action {
	case reconcile.ActionCreate:
		s.Created++
	case reconcile.ActionSkip:
		s.Skipped++
	}
}

// ReadBarcodes reads one barcode per line, skipping blank lines and # comments.
func ReadBarcodes(r io.Reader) ([]string, error) {
	var codes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "read barcodes", "", err)
	}
	return codes, nil
}

// IsQuit reports whether interactive input asks to end the session.
func IsQuit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
