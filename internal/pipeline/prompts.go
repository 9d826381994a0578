package pipeline

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

const sharedTemplates = `
{{define "brief"}}Outcome: {{.Title}}
{{if .Description}}Description: {{.Description}}
{{end}}{{if .SuccessCriteria}}Success criteria: {{.SuccessCriteria}}
{{end}}Budget: {{.Amount}} AUD
{{end}}
{{define "prior"}}{{range .Prior}}
## {{.Role}} output
{{.Text}}
{{end}}{{end}}`

type Prompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type catalogFile struct {
	Stages map[Role]Prompt `yaml:"stages"`
}

// Catalog holds the parsed prompt set, one entry per stage.
type Catalog struct {
	prompts map[Role]Prompt
	users   map[Role]*template.Template
}

// LoadCatalog parses a YAML prompt catalog. Every stage must be present.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	c := &Catalog{prompts: map[Role]Prompt{}, users: map[Role]*template.Template{}}
	for _, st := range Stages {
		p, ok := f.Stages[st.Role]
		if !ok || strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt catalog: no prompt for stage %s", st.Role)
		}
		tmpl, err := template.New(string(st.Role)).Option("missingkey=error").Parse(sharedTemplates + p.User)
		if err != nil {
			return nil, fmt.Errorf("prompt catalog: stage %s: %w", st.Role, err)
		}
		c.prompts[st.Role] = p
		c.users[st.Role] = tmpl
	}
	return c, nil
}

// DefaultCatalog returns the embedded prompt set.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultPrompts)
}

type priorOutput struct {
	Role Role
	Text string
}

type promptData struct {
	Title           string
	Description     string
	SuccessCriteria string
	Amount          string
	DeploymentURL   string
	Prior           []priorOutput
}

// Render returns the system and user prompt for stage.
func (c *Catalog) Render(stage Stage, sc StageContext) (string, string, error) {
	tmpl, ok := c.users[stage.Role]
	if !ok {
		return "", "", fmt.Errorf("no prompt for stage %s", stage.Role)
	}
	o := sc.Outcome
	data := promptData{
		Title:         o.Title,
		Amount:        strconv.FormatFloat(float64(o.AmountCents)/100, 'f', 2, 64),
		DeploymentURL: DeploymentURL(o.ID.String()),
	}
	if o.Description != nil {
		data.Description = *o.Description
	}
	if o.SuccessCriteria != nil {
		data.SuccessCriteria = *o.SuccessCriteria
	}
	for _, r := range sc.Prior {
		data.Prior = append(data.Prior, priorOutput{Role: r.Stage.Role, Text: r.Output.Text})
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render prompt %s: %w", stage.Role, err)
	}
	return strings.TrimSpace(c.prompts[stage.Role].System), strings.TrimSpace(sb.String()), nil
}
