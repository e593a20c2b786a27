package projects

import "context"

// RepositoryPort abstracts project persistence.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Project, int, error)
	Get(ctx context.Context, id int64) (Project, error)
	Create(ctx context.Context, p Project) (Project, error)
	Update(ctx context.Context, p Project) (Project, error)
}

// Service holds project business logic.
type Service struct {
	repo RepositoryPort
}

// NewService constructs Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns projects plus the total match count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Project, int, error) {
	return s.repo.List(ctx, filters)
}

// Get loads one project.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a project. Status defaults to PLANNED.
func (s *Service) Create(ctx context.Context, req CreateProjectRequest) (Project, error) {
	status := Status(req.Status)
	if req.Status == "" {
		status = StatusPlanned
	}
	if !ValidStatus(status) {
		return Project{}, ErrInvalidStatus
	}
	return s.repo.Create(ctx, Project{
		Code:      req.Code,
		Name:      req.Name,
		Client:    req.Client,
		Location:  req.Location,
		Status:    status,
		Budget:    req.Budget,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
}

// Update edits a project. Code is immutable.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProjectRequest) (Project, error) {
	status := Status(req.Status)
	if !ValidStatus(status) {
		return Project{}, ErrInvalidStatus
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	current.Name = req.Name
	current.Client = req.Client
	current.Location = req.Location
	current.Status = status
	current.Budget = req.Budget
	current.StartDate = req.StartDate
	current.EndDate = req.EndDate
	return s.repo.Update(ctx, current)
}
