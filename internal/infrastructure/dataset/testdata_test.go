package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureTurns = `{"dataset": "MWOZ", "conv_id": 1, "turn_id": 1, "speaker": "USER", "text": "I need a refund", "satisfaction_score": 2.0, "low_satisfaction": true, "issues": ["REFUND"], "severity": "HIGH", "topic_id": 3, "topic_label": "Refunds"}
{"dataset": "MWOZ", "conv_id": 1, "turn_id": 2, "speaker": "SYSTEM", "text": "Sure", "satisfaction_score": NaN, "low_satisfaction": false, "issues": [], "severity": null, "topic_id": NaN, "topic_label": null}

{"dataset": "MWOZ", "conv_id": 2, "turn_id": 1, "speaker": "USER", "text": "NaN is not a number", "satisfaction_score": 4.5, "low_satisfaction": false, "issues": [], "severity": "NONE", "topic_id": 4.0, "topic_label": "Topic 4: Movies"}
`

const fixtureTopics = `[
  {"topic_id": 3, "topic_label": "Refunds", "example_reason": "refund denied", "n_examples": 12, "n_user_turns": 30, "avg_satisfaction": 2.1, "low_satisfaction_rate": 0.6, "top_issues": ["REFUND"]},
  {"topic_id": 4.0, "topic_label": "Movies", "example_reason": "no showtimes", "n_examples": 5, "n_user_turns": 9, "avg_satisfaction": NaN, "low_satisfaction_rate": 0.2, "top_issues": []}
]`

const fixtureRepairs = `[
  {"topic_id": 3, "root_cause": "policy gap", "suggested_prompt_changes": "Quote the refund policy", "system_prompt_snippet": "You may offer store credit.", "guardrail_rules": ["never promise cash refunds"]}
]`

const fixtureSandboxCases = `[
  {"name": "happy path", "description": "a resolved order question", "turns": [{"speaker": "USER", "text": "thanks, great help"}]}
]`

// writeFixtureDir 写出测试数据目录，withCases 控制是否包含沙盒示例文件
func writeFixtureDir(t *testing.T, withCases bool) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		TurnsFile:   fixtureTurns,
		TopicsFile:  fixtureTopics,
		RepairsFile: fixtureRepairs,
	}
	if withCases {
		files[SandboxCasesFile] = fixtureSandboxCases
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}
