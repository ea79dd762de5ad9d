package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"taskctl/internal/domain/plan"
	jsonx "taskctl/internal/shared/json"
)

// Metadata is the per-project sidecar record alongside the full Task.
type Metadata struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Status    plan.Status `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Progress  float64   `json:"progress"`
}

// Store persists one Task per project under baseDir/projects/<project_id>/.
// Each project has its own advisory lock so writers to different
// projects never contend.
type Store struct {
	baseDir string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// New constructs a Store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
		now:     time.Now,
	}
}

func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.baseDir, "projects", projectID)
}

func (s *Store) metadataPath(projectID string) string {
	return filepath.Join(s.projectDir(projectID), "metadata.json")
}

func (s *Store) taskPath(projectID string) string {
	return filepath.Join(s.projectDir(projectID), "project.json")
}

func (s *Store) stagePath(projectID, stageID string) string {
	return filepath.Join(s.projectDir(projectID), "network_plan", stageID+".json")
}

func (s *Store) lockFor(projectID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[projectID] = l
	}
	return l
}

// CreateProject creates the on-disk folder structure for projectID,
// failing if it already exists.
func (s *Store) CreateProject(ctx context.Context, projectID, query string) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(s.projectDir(projectID)); err == nil {
		return Metadata{}, plan.ValidationError("project " + projectID + " already exists")
	}

	now := s.now()
	meta := Metadata{
		ID:        projectID,
		Query:     query,
		Status:    plan.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.writeMetadataLocked(projectID, meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// SaveTask atomically writes the full Task and refreshes the metadata
// sidecar's status/updated_at/progress.
func (s *Store) SaveTask(ctx context.Context, projectID string, task *plan.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	data, err := marshalIndent(task)
	if err != nil {
		return fmt.Errorf("store: encode task: %w", err)
	}
	if err := atomicWrite(s.taskPath(projectID), data, 0o600); err != nil {
		return fmt.Errorf("store: write task: %w", err)
	}

	meta, err := s.readMetadataLocked(projectID)
	if err != nil {
		return err
	}
	meta.Status = task.State
	meta.UpdatedAt = s.now()
	meta.Progress = progressOf(task)
	return s.writeMetadataLocked(projectID, meta)
}

// LoadTask loads the full Task for projectID, or nil if no task has been
// saved yet.
func (s *Store) LoadTask(ctx context.Context, projectID string) (*plan.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	data, err := readFileOrEmpty(s.taskPath(projectID))
	if err != nil {
		return nil, fmt.Errorf("store: read task: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var task plan.Task
	if err := jsonx.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("store: decode task: %w", err)
	}
	return &task, nil
}

// ListProjects returns every project's metadata, sorted by created_at
// descending.
func (s *Store) ListProjects(ctx context.Context) ([]Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := filepath.Join(s.baseDir, "projects")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list projects: %w", err)
	}

	out := make([]Metadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.readMetadata(e.Name())
		if err != nil {
			continue
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteProject removes the entire project tree.
func (s *Store) DeleteProject(ctx context.Context, projectID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	dir := s.projectDir(projectID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("store: delete project: %w", err)
	}
	return true, nil
}

// SaveStage writes one Stage to network_plan/<stage_id>.json, a per-stage
// split that keeps large plans off the hot path of a full Task save.
func (s *Store) SaveStage(ctx context.Context, projectID string, stage *plan.Stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	data, err := marshalIndent(stage)
	if err != nil {
		return fmt.Errorf("store: encode stage: %w", err)
	}
	if err := atomicWrite(s.stagePath(projectID, stage.ID), data, 0o600); err != nil {
		return fmt.Errorf("store: write stage: %w", err)
	}
	return nil
}

func (s *Store) readMetadataLocked(projectID string) (Metadata, error) {
	return s.readMetadata(projectID)
}

func (s *Store) readMetadata(projectID string) (Metadata, error) {
	data, err := readFileOrEmpty(s.metadataPath(projectID))
	if err != nil {
		return Metadata{}, fmt.Errorf("store: read metadata: %w", err)
	}
	if len(data) == 0 {
		return Metadata{}, plan.NotFoundError("project " + projectID)
	}
	var meta Metadata
	if err := jsonx.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("store: decode metadata: %w", err)
	}
	return meta, nil
}

func (s *Store) writeMetadataLocked(projectID string, meta Metadata) error {
	data, err := marshalIndent(meta)
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}
	if err := atomicWrite(s.metadataPath(projectID), data, 0o600); err != nil {
		return fmt.Errorf("store: write metadata: %w", err)
	}
	return nil
}

func progressOf(task *plan.Task) float64 {
	if task.NetworkPlan == nil {
		return 0
	}
	total, done := 0, 0
	for _, stg := range task.NetworkPlan.Stages {
		for _, w := range stg.WorkPackages {
			for _, et := range w.Tasks {
				for _, st := range et.Subtasks {
					total++
					if st.Status == plan.SubtaskCompleted {
						done++
					}
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}
