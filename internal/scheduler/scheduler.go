package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/seolyze/imageaudit/internal/entities"
	"github.com/seolyze/imageaudit/internal/jobstore"
)

// Converter turns one image record into a conversion result. It must absorb
// per-item failures itself; anything escaping it is a scheduler-level
// failure and fails the whole job.
type Converter interface {
	Convert(ctx context.Context, rec entities.ImageRecord, opts entities.ConversionOptions) entities.ConversionResult
}

// Scheduler runs conversion jobs in the background. Each job's images are
// processed in fixed-size batches: items within a batch run concurrently,
// and the batch barrier guarantees batch k finishes before batch k+1 starts
// and before the job's counters reflect batch k.
type Scheduler struct {
	jobs      jobstore.Store
	conv      Converter
	batchSize int

	// global caps in-flight conversions across all jobs; nil means each
	// job's batch size is the only limiter.
	global *semaphore.Weighted
}

func New(jobs jobstore.Store, conv Converter, batchSize, globalConcurrency int) *Scheduler {
	s := &Scheduler{
		jobs:      jobs,
		conv:      conv,
		batchSize: batchSize,
	}
	if s.batchSize <= 0 {
		s.batchSize = 3
	}
	if globalConcurrency > 0 {
		s.global = semaphore.NewWeighted(int64(globalConcurrency))
	}
	return s
}

// Submit creates the job record and schedules its background run. It returns
// the job id immediately; submission never blocks on conversion work.
func (s *Scheduler) Submit(images []entities.ImageRecord, opts entities.ConversionOptions) string {
	id := uuid.NewString()

	s.jobs.Create(entities.Job{
		ID:         id,
		Status:     entities.JobPending,
		TotalCount: len(images),
		Results:    []entities.ConversionResult{},
	})

	go s.run(id, images, opts.WithDefaults())

	return id
}

func (s *Scheduler) run(id string, images []entities.ImageRecord, opts entities.ConversionOptions) {
	// The submitter never awaits this goroutine, so nothing may escape it
	// unobserved: any error or panic is captured into the job record.
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("conversion run aborted: %v", r)
			log.Printf("[scheduler] job %s: %s", id, msg)
			sentry.CaptureMessage(msg)
			_ = s.jobs.Update(id, func(j *entities.Job) {
				j.Status = entities.JobFailed
				j.Error = &msg
			})
		}
	}()

	ctx := context.Background()

	_ = s.jobs.Update(id, func(j *entities.Job) {
		j.Status = entities.JobProcessing
	})

	for start := 0; start < len(images); start += s.batchSize {
		end := min(start+s.batchSize, len(images))
		batch := images[start:end]

		results := make([]entities.ConversionResult, len(batch))
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			escaped error
		)
		for i, rec := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// The converter absorbs item failures itself; a panic
				// escaping it is a scheduler-level failure and must not
				// take the process down with it.
				defer func() {
					if r := recover(); r != nil {
						mu.Lock()
						if escaped == nil {
							escaped = fmt.Errorf("convert %s: %v", rec.Reference, r)
						}
						mu.Unlock()
					}
				}()
				if s.global != nil {
					if err := s.global.Acquire(ctx, 1); err != nil {
						results[i] = unconverted(rec)
						return
					}
					defer s.global.Release(1)
				}
				results[i] = s.conv.Convert(ctx, rec, opts)
			}()
		}
		wg.Wait()

		if escaped != nil {
			msg := escaped.Error()
			log.Printf("[scheduler] job %s failed: %s", id, msg)
			sentry.CaptureException(escaped)
			_ = s.jobs.Update(id, func(j *entities.Job) {
				j.Status = entities.JobFailed
				j.Error = &msg
			})
			return
		}

		_ = s.jobs.Update(id, func(j *entities.Job) {
			j.Results = append(j.Results, results...)
			j.CompletedCount = len(j.Results)
		})
	}

	_ = s.jobs.Update(id, func(j *entities.Job) {
		j.Status = entities.JobCompleted
	})

	log.Printf("[scheduler] job %s: completed %d image(s)", id, len(images))
}

func unconverted(rec entities.ImageRecord) entities.ConversionResult {
	return entities.ConversionResult{
		ImageRecord:        rec,
		OptimizedReference: rec.Reference,
		OptimizedSizeKB:    rec.SizeKB,
	}
}
