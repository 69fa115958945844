package runtime

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// Scheduler triggers workflow runs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	service *Service

	entries map[cron.EntryID]string
	mu      sync.Mutex
}

// NewScheduler creates a scheduler driving runs through the given service.
func NewScheduler(service *Service) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		service: service,
		entries: make(map[cron.EntryID]string),
	}
}

// Schedule registers a workflow to run on the given cron expression
// (standard 5-field format). Each firing is an independent execution.
func (s *Scheduler) Schedule(spec string, workflowName string, graph *flow.Graph, input map[string]interface{}) (cron.EntryID, error) {
	if err := graph.Validate(); err != nil {
		return 0, err
	}

	id, err := s.cron.AddFunc(spec, func() {
		if _, err := s.service.Execute(graph, workflowName, input); err != nil {
			log.Printf("scheduled run of %q failed to start: %v", workflowName, err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	s.mu.Lock()
	s.entries[id] = workflowName
	s.mu.Unlock()
	return id, nil
}

// Unschedule removes a scheduled workflow.
func (s *Scheduler) Unschedule(id cron.EntryID) {
	s.cron.Remove(id)

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for in-flight firings to hand off.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
