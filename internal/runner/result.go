package runner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orcd/orcd/internal/model"
)

// ParsePhaseResult reads and decodes the PhaseResult JSON document an
// agent wrote to path. The raw file is left on disk regardless of
// outcome — on a parse failure the Executor surfaces it as a Failed
// result and callers inspect the retained file to diagnose the agent's
// malformed output.
func ParsePhaseResult(path string) (*model.PhaseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phase result at %s: %w", path, err)
	}
	var res model.PhaseResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing phase result at %s: %w", path, err)
	}
	if res.ResultCode == "" {
		return nil, fmt.Errorf("phase result at %s: missing result_code", path)
	}
	return &res, nil
}
