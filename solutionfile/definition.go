// Package solutionfile loads and saves declarative YAML solution
// files and builds runnable solutions from them against a tool
// registry.
package solutionfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inspect-labs/inspectflow"
)

// Definition is the serializable representation of a solution: its
// procedures, their tool instances with parameters, and the
// connections between them.
type Definition struct {
	Name       string            `yaml:"name"`
	Version    string            `yaml:"version,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
	IntervalMS int               `yaml:"interval_ms,omitempty"`
	Procedures []ProcedureDef    `yaml:"procedures"`
}

// ProcedureDef is one pipeline within a Definition.
type ProcedureDef struct {
	Name        string          `yaml:"name"`
	Enabled     *bool           `yaml:"enabled,omitempty"`
	Tools       []ToolDef       `yaml:"tools"`
	Connections []ConnectionDef `yaml:"connections,omitempty"`
}

// ToolDef declares one tool instance: which catalog kind to create
// and the parameter values to apply.
type ToolDef struct {
	Name     string         `yaml:"name"`
	Category string         `yaml:"category"`
	Kind     string         `yaml:"kind"`
	Enabled  *bool          `yaml:"enabled,omitempty"`
	Params   map[string]any `yaml:"params,omitempty"`
}

// ConnectionDef wires one output port to one input port. Ports
// default to the conventional "output" and "input" names.
type ConnectionDef struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	FromPort string `yaml:"from_port,omitempty"`
	ToPort   string `yaml:"to_port,omitempty"`
}

// Parse decodes a YAML solution definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse solution file: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a solution file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read solution file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Save writes the definition as YAML, creating parent directories as
// needed.
func Save(def *Definition, path string) error {
	if err := def.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode solution file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write solution file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write solution file: %w", err)
	}
	return nil
}

// Validate checks structural integrity: non-empty names, unique tool
// and procedure names, and connections that reference declared tools.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("solution has no name")
	}
	if len(d.Procedures) == 0 {
		return fmt.Errorf("solution %q has no procedures", d.Name)
	}
	if d.IntervalMS < 0 {
		return fmt.Errorf("solution %q: negative interval_ms", d.Name)
	}

	procNames := make(map[string]bool, len(d.Procedures))
	for _, p := range d.Procedures {
		if p.Name == "" {
			return fmt.Errorf("solution %q has a procedure with no name", d.Name)
		}
		if procNames[p.Name] {
			return fmt.Errorf("duplicate procedure %q", p.Name)
		}
		procNames[p.Name] = true

		if len(p.Tools) == 0 {
			return fmt.Errorf("procedure %q has no tools", p.Name)
		}
		toolNames := make(map[string]bool, len(p.Tools))
		for _, t := range p.Tools {
			if t.Name == "" {
				return fmt.Errorf("procedure %q has a tool with no name", p.Name)
			}
			if t.Category == "" || t.Kind == "" {
				return fmt.Errorf("tool %q needs category and kind", t.Name)
			}
			if toolNames[t.Name] {
				return fmt.Errorf("procedure %q: duplicate tool %q", p.Name, t.Name)
			}
			toolNames[t.Name] = true
		}
		for _, c := range p.Connections {
			if !toolNames[c.From] {
				return fmt.Errorf("procedure %q: connection from unknown tool %q", p.Name, c.From)
			}
			if !toolNames[c.To] {
				return fmt.Errorf("procedure %q: connection to unknown tool %q", p.Name, c.To)
			}
		}
	}
	return nil
}

// Build instantiates the definition against the registry: every tool
// is created from its catalog spec, parameters are applied through
// the normal correction path, and connections are wired port to port.
func Build(def *Definition, reg *inspectflow.Registry) (*inspectflow.Solution, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	sol := inspectflow.NewSolution(def.Name)
	if def.IntervalMS > 0 {
		sol.SetRunInterval(time.Duration(def.IntervalMS) * time.Millisecond)
	}

	for _, pd := range def.Procedures {
		proc := inspectflow.NewProcedure(pd.Name)
		if pd.Enabled != nil {
			proc.SetEnabled(*pd.Enabled)
		}

		for _, td := range pd.Tools {
			tool, err := reg.Create(inspectflow.Category(td.Category), td.Kind, td.Name)
			if err != nil {
				return nil, fmt.Errorf("procedure %q, tool %q: %w", pd.Name, td.Name, err)
			}
			if td.Enabled != nil {
				tool.SetEnabled(*td.Enabled)
			}
			for key, value := range td.Params {
				tool.Params().Set(key, value)
			}
			if err := proc.AddTool(tool); err != nil {
				return nil, fmt.Errorf("procedure %q: %w", pd.Name, err)
			}
		}

		for _, cd := range pd.Connections {
			fromPort := cd.FromPort
			if fromPort == "" {
				fromPort = inspectflow.DefaultOutputPort
			}
			toPort := cd.ToPort
			if toPort == "" {
				toPort = inspectflow.DefaultInputPort
			}
			if err := proc.ConnectPorts(cd.From, cd.To, fromPort, toPort); err != nil {
				return nil, fmt.Errorf("procedure %q, %s -> %s: %w", pd.Name, cd.From, cd.To, err)
			}
		}

		if err := sol.AddProcedure(proc); err != nil {
			return nil, err
		}
	}
	return sol, nil
}

// Describe snapshots a live solution back into a definition, with
// tool parameters at their current corrected values.
func Describe(sol *inspectflow.Solution) *Definition {
	def := &Definition{
		Name:       sol.Name(),
		IntervalMS: int(sol.RunInterval() / time.Millisecond),
	}
	for _, proc := range sol.Procedures() {
		enabled := proc.Enabled()
		pd := ProcedureDef{Name: proc.Name(), Enabled: &enabled}
		for _, tool := range proc.Tools() {
			te := tool.Enabled()
			pd.Tools = append(pd.Tools, ToolDef{
				Name:     tool.Name(),
				Category: tool.Category().String(),
				Kind:     tool.Kind(),
				Enabled:  &te,
				Params:   tool.Params().Snapshot(),
			})
		}
		for _, c := range proc.Connections() {
			pd.Connections = append(pd.Connections, ConnectionDef{
				From:     c.FromTool,
				To:       c.ToTool,
				FromPort: c.FromPort,
				ToPort:   c.ToPort,
			})
		}
		def.Procedures = append(def.Procedures, pd)
	}
	return def
}
