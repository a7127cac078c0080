// Package cron runs periodic maintenance jobs under a cluster-wide Redis lock
// so only one worker instance executes a cycle at a time.
package cron

import (
	"context"
	"fmt"
)

// Job is one unit of periodic maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Jobs is an ordered set of jobs with unique names.
type Jobs struct {
	jobs  []Job
	names map[string]struct{}
}

// NewJobs builds a job set, skipping nil entries. Duplicate names are an error.
func NewJobs(jobs ...Job) (*Jobs, error) {
	set := &Jobs{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := set.Add(job); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add appends a job.
func (s *Jobs) Add(job Job) error {
	if job == nil {
		return nil
	}
	if _, dup := s.names[job.Name()]; dup {
		return fmt.Errorf("duplicate cron job %q", job.Name())
	}
	s.names[job.Name()] = struct{}{}
	s.jobs = append(s.jobs, job)
	return nil
}

// List returns a copy of the jobs in registration order.
func (s *Jobs) List() []Job {
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}
