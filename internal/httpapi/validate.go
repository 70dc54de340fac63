package httpapi

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// submitJobRequest is the wire shape accepted by POST /jobs. It is
// decoded separately from models.JobDescriptor so JobID (server
// assigned) is never settable by the caller.
type submitJobRequest struct {
	Target     []string                         `json:"target" validate:"required,min=1"`
	TargetType string                           `json:"target_type" validate:"required"`
	Tools      []string                         `json:"tools" validate:"required,min=1"`
	Params     map[string]rawStageOptions       `json:"params"`
	Initiator  string                           `json:"initiator" validate:"required"`
	Exclude    []string                         `json:"exclude"`
	AbortOnErr bool                             `json:"abort_on_error"`
}

type rawStageOptions struct {
	Mode         string   `json:"mode"`
	Wordlist     string   `json:"wordlist"`
	TemplatesDir string   `json:"templates_dir"`
	RateLimit    int      `json:"rate_limit"`
	Timeout      string   `json:"timeout"`
	ExtraArgv    []string `json:"extra_argv"`
}
