package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Status is the terminal state of a job run.
type Status string

const (
	StatusSuccess        Status = "SUCCESS"
	StatusPartialFailure Status = "PARTIAL_FAILURE"
	StatusFailed         Status = "FAILED"
	StatusAlreadyRunning Status = "ALREADY_RUNNING"
)

// StageResult is what a stage reports about its own records. Per-record
// failures a stage already isolated (error ledger diversions, skipped
// credentials) count as Errors without failing the stage.
type StageResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// Stage is one step of a job sequence.
type Stage struct {
	Name string
	Run  func(ctx context.Context) (StageResult, error)
}

// JobSpec declares a job type and its ordered stages. The type names the
// mutual-exclusion lock; two specs sharing a type never run concurrently.
type JobSpec struct {
	Type   string
	Stages []Stage
}

type StageReport struct {
	Name      string `json:"name"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
	Error     string `json:"error,omitempty"`
}

type Report struct {
	RunID       string        `json:"run_id"`
	Job         string        `json:"job"`
	Status      Status        `json:"status"`
	Stages      []StageReport `json:"stages"`
	FailedStage string        `json:"failed_stage,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Orchestrator sequences job stages under a per-job-type lock. A concurrent
// run of the same type aborts immediately with StatusAlreadyRunning; a stage
// failure halts the remaining sequence.
type Orchestrator struct {
	locks JobLock
}

func NewOrchestrator(locks JobLock) *Orchestrator {
	return &Orchestrator{locks: locks}
}

func (o *Orchestrator) Run(ctx context.Context, spec JobSpec) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Job:       spec.Type,
		StartedAt: time.Now().UTC(),
	}

	guard, ok, err := o.locks.TryAcquire(ctx, spec.Type)
	if err != nil {
		return nil, err
	}
	if !ok {
		report.Status = StatusAlreadyRunning
		report.FinishedAt = time.Now().UTC()
		log.Info().Str("job", spec.Type).Msg("job already running, aborting")
		return report, nil
	}
	defer func() {
		if err := guard.Release(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Str("job", spec.Type).Msg("lock release failed")
		}
	}()

	report.Status = StatusSuccess
	for _, stage := range spec.Stages {
		result, err := stage.Run(ctx)
		sr := StageReport{Name: stage.Name, Processed: result.Processed, Errors: result.Errors}
		if err != nil {
			sr.Error = err.Error()
			report.Stages = append(report.Stages, sr)
			report.FailedStage = stage.Name
			report.Status = StatusFailed
			log.Error().Err(err).
				Str("job", spec.Type).
				Str("stage", stage.Name).
				Int("processed", result.Processed).
				Msg("stage failed, halting job")
			break
		}
		report.Stages = append(report.Stages, sr)
		if result.Errors > 0 && report.Status == StatusSuccess {
			report.Status = StatusPartialFailure
		}
		log.Info().
			Str("job", spec.Type).
			Str("stage", stage.Name).
			Int("processed", result.Processed).
			Int("errors", result.Errors).
			Msg("stage finished")
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}
