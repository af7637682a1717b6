// Package planner takes a declared matrix and produces the concrete case
// sequence the supervisor will run: architecture-filtered, flakiness-split,
// deterministically ordered, and optionally sharded by position.
package planner

import (
	"fmt"
	"runtime"
	"sort"

	"matrixrunner/internal/matrix"
	"matrixrunner/pkg/logging"
)

// ShardParams requests a stateless partition of the plan by position. Both
// fields must be set together, or neither.
type ShardParams struct {
	TotalShards int
	ShardIndex  int
}

// ExecutionPlan is the planner's output. The supervisor consumes Cases
// verbatim; it does not re-filter or re-sort.
type ExecutionPlan struct {
	Cases             []matrix.Case
	FilteredArchCount int
	FlakyCount        int
	Sharded           bool
}

// Plan applies the architecture filter, flakiness split, deterministic
// ordering, and optional sharding to m.Cases. shard is nil when no sharding
// was requested.
func Plan(m matrix.Matrix, shard *ShardParams) (ExecutionPlan, error) {
	hostArch := runtime.GOARCH
	hostOS := runtime.GOOS

	var kept, filteredOut []matrix.Case
	for _, c := range m.Cases {
		if c.MatchesArch(hostArch) {
			kept = append(kept, c)
		} else {
			filteredOut = append(filteredOut, c)
		}
	}

	var safe, flaky []matrix.Case
	for _, c := range kept {
		if c.IsFlaky(hostOS) {
			flaky = append(flaky, c)
		} else {
			safe = append(safe, c)
		}
	}

	sort.SliceStable(safe, func(i, j int) bool { return safe[i].Name < safe[j].Name })

	combined := make([]matrix.Case, 0, len(safe)+len(flaky))
	combined = append(combined, safe...)
	combined = append(combined, flaky...)

	cases, sharded, err := applyShard(combined, shard)
	if err != nil {
		return ExecutionPlan{}, err
	}

	logging.Info("planner", "planned %d case(s): %d filtered by arch, %d flaky, sharded=%v",
		len(cases), len(filteredOut), len(flaky), sharded)

	return ExecutionPlan{
		Cases:             cases,
		FilteredArchCount: len(filteredOut),
		FlakyCount:        len(flaky),
		Sharded:           sharded,
	}, nil
}

func applyShard(cases []matrix.Case, shard *ShardParams) ([]matrix.Case, bool, error) {
	if shard == nil {
		return cases, false, nil
	}
	if shard.TotalShards <= 0 {
		return nil, false, fmt.Errorf("planner: total shards must be positive, got %d", shard.TotalShards)
	}
	if shard.ShardIndex < 0 || shard.ShardIndex >= shard.TotalShards {
		return nil, false, fmt.Errorf("planner: shard index %d must be in [0, %d)", shard.ShardIndex, shard.TotalShards)
	}

	var out []matrix.Case
	for i, c := range cases {
		if i%shard.TotalShards == shard.ShardIndex {
			out = append(out, c)
		}
	}
	return out, true, nil
}
