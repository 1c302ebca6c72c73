package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/towerhq/boardroom/internal/advisor"
)

// Registry owns the advisor panel and the on-disk persona workspace that
// instruction templates are assembled from. The panel itself is read-only;
// the workspace files let an operator reshape a persona without rebuilding.
//
// Layout under basePath:
//
//	<roleID>/PERSONA.md   role identity and output contract
//	global/FOUNDER.md     who the panel is advising
//	global/COMPANY.md     what they are building
type Registry struct {
	panel    []advisor.Role
	byID     map[string]advisor.Role
	basePath string
}

func New(panel []advisor.Role, basePath string) *Registry {
	byID := make(map[string]advisor.Role, len(panel))
	for _, r := range panel {
		byID[r.ID] = r
	}
	return &Registry{
		panel:    panel,
		byID:     byID,
		basePath: basePath,
	}
}

// Sync ensures the workspace directories exist and seeds each advisor's
// PERSONA.md with its built-in template on first run.
func (r *Registry) Sync() error {
	for _, role := range r.panel {
		dir := filepath.Join(r.basePath, role.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create advisor dir %s: %w", role.ID, err)
		}

		personaMD := filepath.Join(dir, "PERSONA.md")
		if _, err := os.Stat(personaMD); os.IsNotExist(err) {
			if err := os.WriteFile(personaMD, []byte(role.Prompt+"\n"), 0o644); err != nil {
				return fmt.Errorf("seed PERSONA.md for %s: %w", role.ID, err)
			}
		}
	}

	return r.ensureGlobalDirectory()
}

// Panel returns the advisors in execution order.
func (r *Registry) Panel() []advisor.Role {
	return r.panel
}

func (r *Registry) Get(id string) (advisor.Role, bool) {
	role, ok := r.byID[id]
	return role, ok
}

// InstructionTemplate assembles the system prompt for one advisor: the
// persona file (falling back to the built-in template), plus founder and
// company context when those workspace files carry content. The engine
// treats the result as an opaque string.
func (r *Registry) InstructionTemplate(id string) (string, error) {
	role, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("unknown advisor: %s", id)
	}

	sections := []string{}

	persona, err := r.readWorkspaceFile(filepath.Join(id, "PERSONA.md"))
	if err != nil {
		return "", err
	}
	if persona == "" {
		persona = role.Prompt
	}
	sections = append(sections, persona)

	founder, err := r.readWorkspaceFile(filepath.Join("global", "FOUNDER.md"))
	if err != nil {
		return "", err
	}
	if founder != "" {
		sections = append(sections, "# Founder Context\n"+founder)
	}

	company, err := r.readWorkspaceFile(filepath.Join("global", "COMPANY.md"))
	if err != nil {
		return "", err
	}
	if company != "" {
		sections = append(sections, "# Company Context\n"+company)
	}

	return strings.Join(sections, "\n\n---\n\n"), nil
}

// GetPersona returns the raw PERSONA.md contents for an advisor.
func (r *Registry) GetPersona(id string) (string, error) {
	if _, ok := r.byID[id]; !ok {
		return "", fmt.Errorf("unknown advisor: %s", id)
	}
	return r.readWorkspaceFile(filepath.Join(id, "PERSONA.md"))
}

// SavePersona replaces an advisor's PERSONA.md.
func (r *Registry) SavePersona(id, content string) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("unknown advisor: %s", id)
	}
	path := filepath.Join(r.basePath, id, "PERSONA.md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create advisor dir: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (r *Registry) readWorkspaceFile(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.basePath, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return strings.TrimSpace(string(data)), nil
}

const founderMDTemplate = `# Founder

## Name
(Your name)

## Background
(What you have built before)

## Stage
(Idea, prototype, revenue)
`

const companyMDTemplate = `# Company

## What we are building
(One paragraph)

## Target customer
(Who pays for this)
`

func (r *Registry) ensureGlobalDirectory() error {
	dir := filepath.Join(r.basePath, "global")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create global dir: %w", err)
	}

	seeds := map[string]string{
		"FOUNDER.md": founderMDTemplate,
		"COMPANY.md": companyMDTemplate,
	}
	for name, content := range seeds {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
		}
	}
	return nil
}
