package namespace

import "fmt"

// ShardLayout is the static routing discipline over worker subdirectories.
// Count is the number of shards; AllowLegacyAlias controls whether the
// historical single-node paths ("worker/worker-1/telemetry") still
// resolve or are rejected to force migration onto the sharded paths.
type ShardLayout struct {
	Count            int
	AllowLegacyAlias bool
}

// DefaultShardLayout is the generated manifest's default: four shards,
// legacy aliasing off, forcing callers onto sharded paths.
var DefaultShardLayout = ShardLayout{Count: 4, AllowLegacyAlias: false}

// ShardPaths returns the canonical per-shard paths for a given leaf
// suffix, e.g. "worker/shard-0/telemetry" .. "worker/shard-3/telemetry".
func (l ShardLayout) ShardPaths(suffix string) []string {
	paths := make([]string, l.Count)
	for i := 0; i < l.Count; i++ {
		paths[i] = fmt.Sprintf("worker/shard-%d/%s", i, suffix)
	}
	return paths
}

// LegacyAliasPaths returns the historical 1-indexed single-node aliases
// for the same shard count and suffix.
func (l ShardLayout) LegacyAliasPaths(suffix string) []string {
	paths := make([]string, l.Count)
	for i := 0; i < l.Count; i++ {
		paths[i] = fmt.Sprintf("worker/worker-%d/%s", i+1, suffix)
	}
	return paths
}
