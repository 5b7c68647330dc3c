package templates

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conclave-dao/conclave/core"
)

// AgentTemplate defines a reusable agent personality.
type AgentTemplate struct {
	Name        string   `json:"name"`
	Traits      []string `json:"traits"`
	Style       string   `json:"style"`
	RiskProfile string   `json:"riskProfile"`
	Description string   `json:"description"`
}

// TemplateRegistry manages agent templates on disk.
type TemplateRegistry struct {
	templatesDir string
}

func NewTemplateRegistry() *TemplateRegistry {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	templatesDir := filepath.Join(homeDir, ".conclave", "templates")
	os.MkdirAll(templatesDir, 0755)

	return &TemplateRegistry{
		templatesDir: templatesDir,
	}
}

// SaveTemplate saves a template to the filesystem
func (r *TemplateRegistry) SaveTemplate(name string, template *AgentTemplate) error {
	templatePath := filepath.Join(r.templatesDir, name+".json")
	templateData, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(templatePath, templateData, 0644)
}

// GetTemplate loads a template, falling back to the built-in defaults.
func (r *TemplateRegistry) GetTemplate(name string) (*AgentTemplate, error) {
	templatePath := filepath.Join(r.templatesDir, name+".json")
	templateData, err := os.ReadFile(templatePath)
	if err != nil {
		if t, ok := DefaultTemplates()[name]; ok {
			return t, nil
		}
		return nil, err
	}

	var template AgentTemplate
	if err := json.Unmarshal(templateData, &template); err != nil {
		return nil, err
	}

	return &template, nil
}

// ListTemplates returns all available template names, defaults included.
func (r *TemplateRegistry) ListTemplates() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for name := range DefaultTemplates() {
		seen[name] = true
		names = append(names, name)
	}

	files, err := os.ReadDir(r.templatesDir)
	if err != nil {
		return names, nil
	}
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		name := file.Name()[:len(file.Name())-5]
		if !seen[name] {
			names = append(names, name)
		}
	}

	return names, nil
}

// ToAgentStruct converts a template to the core.Agent struct
func (t *AgentTemplate) ToAgentStruct() core.Agent {
	return core.Agent{
		Name:        t.Name,
		Traits:      t.Traits,
		Style:       t.Style,
		RiskProfile: t.RiskProfile,
	}
}
