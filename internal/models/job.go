package models

import "time"

// JobDescriptor is the job submission shape crossing the external
// API/engine boundary, per spec.md §6.
type JobDescriptor struct {
	JobID      string                       `json:"job_id"`
	Target     []string                     `json:"target" validate:"required,min=1"`
	TargetType TargetType                   `json:"target_type" validate:"required"`
	Tools      []StageName                  `json:"tools" validate:"required,min=1"`
	Params     map[StageName]StageOptions   `json:"params"`
	Initiator  string                       `json:"initiator" validate:"required"`
	Exclude    []string                     `json:"exclude"`
	AbortOnErr bool                         `json:"abort_on_error"`
}

// StageOptions is the per-run override record a caller may attach to a
// stage under JobDescriptor.Params, consumed by the Configuration Merger.
type StageOptions struct {
	Mode             ScanMode `json:"mode,omitempty"`
	Wordlist         string   `json:"wordlist,omitempty"`
	TemplatesDir     string   `json:"templates_dir,omitempty"`
	RateLimit        int      `json:"rate_limit,omitempty"`
	Timeout          string   `json:"timeout,omitempty"` // duration string, e.g. "30s"
	ExtraArgv        []string `json:"extra_argv,omitempty"`
}

// JobRecord is the persisted job document, per spec.md §3 and §6.
// Its terminal Status is written exactly once and never mutated after.
type JobRecord struct {
	JobID     string                    `json:"job_id"`
	Initiator string                    `json:"initiator"`
	Targets   []string                  `json:"targets"`
	Exclude   []string                  `json:"exclude"`
	Timestamp time.Time                 `json:"timestamp"`
	Status    Status                    `json:"status"`
	Results   map[StageName]ToolResult  `json:"results,omitempty"`
	ErrorMsg  string                    `json:"error,omitempty"`
}

// AppendResult idempotently records a stage's ToolResult by stage name,
// matching the Result Store Gateway's duplicate-append tolerance (§4.8).
func (j *JobRecord) AppendResult(stage StageName, result ToolResult) {
	if j.Results == nil {
		j.Results = make(map[StageName]ToolResult)
	}
	j.Results[stage] = result
}

// ResultCount returns the aggregate number of parsed records across all
// recorded stages, matching JobRecord's "aggregate result count" field.
func (j *JobRecord) ResultCount() int {
	n := 0
	for _, r := range j.Results {
		n += len(r.Parsed)
	}
	return n
}
