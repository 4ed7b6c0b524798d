// Package registry keeps the history of generated servers.
package registry

import (
	"fmt"

	"github.com/karthikpt1/mcpforge/internal/parser"
	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// Service provides business logic for the generation registry.
type Service struct {
	repo *Repository
}

// NewService creates a new Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// RecordGeneration stores the outcome of one generation run. Re-generating
// from a byte-identical description updates the existing record instead of
// growing the history.
func (s *Service) RecordGeneration(res *parser.Result, source []byte, code string) (*Server, error) {
	record := &Server{
		APIName:    res.APIName,
		Flavor:     string(res.Flavor),
		ToolCount:  len(res.Tools),
		SourceHash: HashSource(source),
		EnvVars:    tool.EnvVars(res.Tools),
		Code:       code,
	}

	existing, err := s.repo.GetBySourceHash(record.SourceHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		record.ID = existing.ID
		record.Slug = existing.Slug
		record.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(record); err != nil {
			return nil, fmt.Errorf("failed to update server record: %w", err)
		}
		return record, nil
	}

	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}
	return record, nil
}

// GetServer retrieves a server record by ID or slug.
func (s *Service) GetServer(idOrSlug string) (*Server, error) {
	record, err := s.repo.GetByID(idOrSlug)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}
	return s.repo.GetBySlug(idOrSlug)
}

// DeleteServer removes a server record.
func (s *Service) DeleteServer(id string) error {
	return s.repo.Delete(id)
}

// ListServers retrieves a paginated list of server records.
func (s *Service) ListServers(page, pageSize int) ([]*Server, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(offset, pageSize)
}
