package registry

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Server is one stored generation record: the rendered server source plus
// the metadata needed to rebuild every deployment artifact.
type Server struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	APIName    string    `json:"api_name"`
	Flavor     string    `json:"flavor"`
	ToolCount  int       `json:"tool_count"`
	SourceHash string    `json:"source_hash"`
	EnvVars    []string  `json:"env_vars,omitempty"`
	Code       string    `json:"code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository handles database operations for generated servers.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new server record.
func (r *Repository) Create(s *Server) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Slug == "" {
		s.Slug = r.generateSlug(s.APIName)
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.Exec(`
		INSERT INTO servers (id, slug, api_name, flavor, tool_count, source_hash, env_vars, code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Slug, s.APIName, s.Flavor, s.ToolCount, s.SourceHash, joinEnvVars(s.EnvVars), s.Code, s.CreatedAt, s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create server record: %w", err)
	}
	return nil
}

// Update replaces the generation payload of an existing record.
func (r *Repository) Update(s *Server) error {
	s.UpdatedAt = time.Now()

	_, err := r.db.Exec(`
		UPDATE servers SET api_name = ?, flavor = ?, tool_count = ?, source_hash = ?, env_vars = ?, code = ?, updated_at = ?
		WHERE id = ?
	`, s.APIName, s.Flavor, s.ToolCount, s.SourceHash, joinEnvVars(s.EnvVars), s.Code, s.UpdatedAt, s.ID)

	if err != nil {
		return fmt.Errorf("failed to update server record: %w", err)
	}
	return nil
}

// GetByID retrieves a server record by ID.
func (r *Repository) GetByID(id string) (*Server, error) {
	return r.getWhere("id = ?", id)
}

// GetBySlug retrieves a server record by slug.
func (r *Repository) GetBySlug(slug string) (*Server, error) {
	return r.getWhere("slug = ?", slug)
}

// GetBySourceHash retrieves the record generated from a source description
// with the given content hash.
func (r *Repository) GetBySourceHash(hash string) (*Server, error) {
	return r.getWhere("source_hash = ?", hash)
}

func (r *Repository) getWhere(cond string, arg any) (*Server, error) {
	s := &Server{}
	var envVars string
	err := r.db.QueryRow(`
		SELECT id, slug, api_name, flavor, tool_count, source_hash, env_vars, code, created_at, updated_at
		FROM servers WHERE `+cond,
		arg).Scan(&s.ID, &s.Slug, &s.APIName, &s.Flavor, &s.ToolCount, &s.SourceHash, &envVars, &s.Code, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server record: %w", err)
	}

	s.EnvVars = splitEnvVars(envVars)
	return s, nil
}

// Delete removes a server record by ID.
func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM servers WHERE id = ?", id)
	return err
}

// List retrieves server records with pagination, newest first. The returned
// records carry metadata only; Code is left empty.
func (r *Repository) List(offset, limit int) ([]*Server, int, error) {
	var total int
	err := r.db.QueryRow("SELECT COUNT(*) FROM servers").Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count server records: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT id, slug, api_name, flavor, tool_count, source_hash, env_vars, created_at, updated_at
		FROM servers ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list server records: %w", err)
	}
	defer rows.Close()

	var servers []*Server
	for rows.Next() {
		s := &Server{}
		var envVars string
		err := rows.Scan(&s.ID, &s.Slug, &s.APIName, &s.Flavor, &s.ToolCount, &s.SourceHash, &envVars, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan server record: %w", err)
		}
		s.EnvVars = splitEnvVars(envVars)
		servers = append(servers, s)
	}

	return servers, total, nil
}

func (r *Repository) generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if slug == "" {
		slug = uuid.New().String()[:8]
	}

	// Suffix until unique.
	baseSlug := slug
	counter := 1
	for {
		var count int
		r.db.QueryRow("SELECT COUNT(*) FROM servers WHERE slug = ?", slug).Scan(&count)
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", baseSlug, counter)
		counter++
	}

	return slug
}

// HashSource returns the canonical content hash of a source description.
func HashSource(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func joinEnvVars(vars []string) string {
	return strings.Join(vars, ",")
}

func splitEnvVars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
