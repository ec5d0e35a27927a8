package model

// PhaseDef names a single step within a pipeline and the workflow
// file(s) the Executor concatenates to build that step's prompt.
type PhaseDef struct {
	Name          string    `yaml:"name"`
	Pool          PhasePool `yaml:"pool"`
	WorkflowFiles []string  `yaml:"workflow_files"`
	TimeoutSec    int       `yaml:"timeout_seconds,omitempty"`
}

// PipelineConfig is a named ordered list of phase definitions.
type PipelineConfig struct {
	Name   string     `yaml:"name"`
	Phases []PhaseDef `yaml:"phases"`
}

// PhaseIndex returns the index of the named phase, or -1.
func (p *PipelineConfig) PhaseIndex(name string) int {
	for i, ph := range p.Phases {
		if ph.Name == name {
			return i
		}
	}
	return -1
}

// NextPhase returns the phase after the named phase, and whether one
// exists (false at the end of the pipeline).
func (p *PipelineConfig) NextPhase(name string) (PhaseDef, bool) {
	idx := p.PhaseIndex(name)
	if idx < 0 || idx+1 >= len(p.Phases) {
		return PhaseDef{}, false
	}
	return p.Phases[idx+1], true
}

// Guardrails bounds iteration and per-phase execution time.
type Guardrails struct {
	MaxIterations        int `yaml:"max_iterations,omitempty"`
	CircuitBreakerThresh int `yaml:"circuit_breaker_threshold,omitempty"`
	PhaseRetryLimit      int `yaml:"phase_retry_limit,omitempty"`
}

// AgentBackend selects which runner.Runner implementation the Executor uses.
type AgentBackend string

const (
	AgentBackendSubprocess AgentBackend = "subprocess"
	AgentBackendAnthropic  AgentBackend = "anthropic-api"
)

// OrchestrateConfig is project-wide orchestrator configuration.
type OrchestrateConfig struct {
	ProjectName  string                    `yaml:"project_name"`
	MaxWIP       int                       `yaml:"max_wip"`
	AgentBackend AgentBackend              `yaml:"agent_backend,omitempty"`
	AgentBinary  string                    `yaml:"agent_binary,omitempty"`
	Guardrails   Guardrails                `yaml:"guardrails,omitempty"`
	Pipelines    map[string]PipelineConfig `yaml:"pipelines"`
	IDPrefix     string                    `yaml:"id_prefix"`
}

// Pipeline looks up the named pipeline config.
func (c *OrchestrateConfig) Pipeline(name string) (PipelineConfig, bool) {
	p, ok := c.Pipelines[name]
	return p, ok
}

// ApplyDefaults fills zero-valued optional fields with their defaults.
// Mirrors the teacher's per-field "absent key -> default" validation step.
func (c *OrchestrateConfig) ApplyDefaults() {
	if c.MaxWIP <= 0 {
		c.MaxWIP = 3
	}
	if c.AgentBackend == "" {
		c.AgentBackend = AgentBackendSubprocess
	}
	if c.AgentBinary == "" {
		c.AgentBinary = "claude"
	}
	if c.Guardrails.MaxIterations <= 0 {
		c.Guardrails.MaxIterations = 0 // 0 means unbounded
	}
	if c.Guardrails.CircuitBreakerThresh <= 0 {
		c.Guardrails.CircuitBreakerThresh = 5
	}
	if c.Guardrails.PhaseRetryLimit <= 0 {
		c.Guardrails.PhaseRetryLimit = 1
	}
	if c.IDPrefix == "" {
		c.IDPrefix = "WRK"
	}
}
