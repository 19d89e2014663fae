package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/retailmind/backend/internal/domain/dialogue"
	applog "github.com/retailmind/backend/internal/infrastructure/log"
	_ "modernc.org/sqlite"
)

// snapshotSchema 快照库表结构；issues 等列表字段以 JSON 文本存储
const snapshotSchema = `
CREATE TABLE IF NOT EXISTS turns (
	dataset TEXT,
	conv_id INTEGER NOT NULL,
	turn_id INTEGER NOT NULL,
	speaker TEXT,
	text TEXT,
	satisfaction_score REAL,
	low_satisfaction INTEGER NOT NULL DEFAULT 0,
	issues TEXT,
	severity TEXT,
	reason TEXT,
	topic_id INTEGER,
	topic_label TEXT,
	satisfaction_source TEXT
);
CREATE INDEX IF NOT EXISTS idx_turns_conv ON turns(conv_id, turn_id);
CREATE INDEX IF NOT EXISTS idx_turns_topic ON turns(topic_id);

CREATE TABLE IF NOT EXISTS topics (
	topic_id INTEGER PRIMARY KEY,
	topic_label TEXT,
	example_reason TEXT,
	n_examples INTEGER,
	n_user_turns INTEGER,
	avg_satisfaction REAL,
	low_satisfaction_rate REAL,
	top_issues TEXT
);

CREATE TABLE IF NOT EXISTS repairs (
	topic_id INTEGER,
	root_cause TEXT,
	suggested_prompt_changes TEXT,
	system_prompt_snippet TEXT,
	guardrail_rules TEXT
);`

// SQLiteLoader 从只读 SQLite 快照加载数据集
type SQLiteLoader struct {
	path   string
	logger *slog.Logger
}

// NewSQLiteLoader 创建 SQLite 快照加载器
func NewSQLiteLoader(path string) *SQLiteLoader {
	return &SQLiteLoader{
		path:   path,
		logger: applog.NewModuleLogger("dataset", "sqlite_loader"),
	}
}

// Source 数据来源描述
func (l *SQLiteLoader) Source() string {
	return "sqlite:" + l.path
}

// Load 读取快照中的三张表；快照不包含沙盒示例
func (l *SQLiteLoader) Load(ctx context.Context) (*dialogue.Dataset, error) {
	if _, err := os.Stat(l.path); err != nil {
		return nil, fmt.Errorf("snapshot database not accessible: %w", err)
	}

	// 使用 mode=ro 确保只读
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", l.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	turns, err := queryTurns(ctx, db)
	if err != nil {
		return nil, err
	}
	topics, err := queryTopics(ctx, db)
	if err != nil {
		return nil, err
	}
	repairs, err := queryRepairs(ctx, db)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Snapshot database loaded",
		"path", l.path,
		"turns", len(turns),
		"topics", len(topics),
		"repairs", len(repairs),
	)

	return &dialogue.Dataset{
		Source:       l.Source(),
		LoadedAt:     time.Now(),
		Turns:        turns,
		Topics:       topics,
		Repairs:      repairs,
		SandboxCases: []dialogue.SandboxCase{},
	}, nil
}

func queryTurns(ctx context.Context, db *sql.DB) ([]dialogue.Turn, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT dataset, conv_id, turn_id, speaker, text, satisfaction_score,
		       low_satisfaction, issues, severity, reason, topic_id, topic_label,
		       satisfaction_source
		FROM turns
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []dialogue.Turn
	for rows.Next() {
		var (
			ds, speaker, text, issues, severity sql.NullString
			reason, topicLabel, source          sql.NullString
			convID, turnID                      int64
			score                               sql.NullFloat64
			lowSat                              int64
			topicID                             sql.NullInt64
		)
		if err := rows.Scan(&ds, &convID, &turnID, &speaker, &text, &score,
			&lowSat, &issues, &severity, &reason, &topicID, &topicLabel, &source); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}

		// 通过统一入口规范化，缺失值与文件加载保持一致
		rec := map[string]any{
			"conv_id":          float64(convID),
			"turn_id":          float64(turnID),
			"low_satisfaction": lowSat != 0,
			"issues":           decodeList(issues),
		}
		putString(rec, "dataset", ds)
		putString(rec, "speaker", speaker)
		putString(rec, "text", text)
		putString(rec, "severity", severity)
		putString(rec, "reason", reason)
		putString(rec, "topic_label", topicLabel)
		putString(rec, "satisfaction_source", source)
		if score.Valid {
			rec["satisfaction_score"] = score.Float64
		}
		if topicID.Valid {
			rec["topic_id"] = float64(topicID.Int64)
		}
		turns = append(turns, dialogue.TurnFromRecord(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return turns, nil
}

func queryTopics(ctx context.Context, db *sql.DB) ([]dialogue.Topic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT topic_id, topic_label, example_reason, n_examples, n_user_turns,
		       avg_satisfaction, low_satisfaction_rate, top_issues
		FROM topics
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []dialogue.Topic
	for rows.Next() {
		var (
			topic              dialogue.Topic
			label, reason, top sql.NullString
			nExamples, nUser   sql.NullInt64
			avgSat, lowRate    sql.NullFloat64
		)
		if err := rows.Scan(&topic.TopicID, &label, &reason, &nExamples, &nUser,
			&avgSat, &lowRate, &top); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topic.TopicLabel = label.String
		topic.ExampleReason = reason.String
		topic.NExamples = int(nExamples.Int64)
		topic.NUserTurns = int(nUser.Int64)
		topic.AvgSatisfaction = avgSat.Float64
		topic.LowSatisfactionRate = lowRate.Float64
		topic.TopIssues = dialogue.StringsValue(decodeList(top))
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}
	return topics, nil
}

func queryRepairs(ctx context.Context, db *sql.DB) ([]dialogue.Repair, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT topic_id, root_cause, suggested_prompt_changes, system_prompt_snippet, guardrail_rules
		FROM repairs
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query repairs: %w", err)
	}
	defer rows.Close()

	var repairs []dialogue.Repair
	for rows.Next() {
		var (
			topicID                            int64
			rootCause, changes, snippet, rules sql.NullString
		)
		if err := rows.Scan(&topicID, &rootCause, &changes, &snippet, &rules); err != nil {
			return nil, fmt.Errorf("failed to scan repair: %w", err)
		}
		repairs = append(repairs, dialogue.RepairFromRecord(map[string]any{
			"topic_id":                 float64(topicID),
			"root_cause":               rootCause.String,
			"suggested_prompt_changes": decodeListOrString(changes),
			"system_prompt_snippet":    snippet.String,
			"guardrail_rules":          decodeListOrString(rules),
		}))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repairs: %w", err)
	}
	return repairs, nil
}

func putString(rec map[string]any, key string, v sql.NullString) {
	if v.Valid {
		rec[key] = v.String
	}
}

// decodeList 解析 JSON 数组文本，无法解析时返回 nil
func decodeList(v sql.NullString) any {
	if !v.Valid || v.String == "" {
		return nil
	}
	var list []any
	if err := json.Unmarshal([]byte(v.String), &list); err != nil {
		return nil
	}
	return list
}

// decodeListOrString 修复方案字段既可能是 JSON 数组也可能是普通文本
func decodeListOrString(v sql.NullString) any {
	if list := decodeList(v); list != nil {
		return list
	}
	if !v.Valid {
		return nil
	}
	return v.String
}

// WriteSnapshot 将数据集写入新的 SQLite 快照文件（已存在则覆盖）
func WriteSnapshot(ctx context.Context, path string, ds *dialogue.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old snapshot: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range ds.Turns {
		issues, _ := json.Marshal(t.Issues)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turns (dataset, conv_id, turn_id, speaker, text, satisfaction_score,
				low_satisfaction, issues, severity, reason, topic_id, topic_label, satisfaction_source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullString(t.Dataset), t.ConvID, t.TurnID, string(t.Speaker), t.Text, t.SatisfactionScore,
			boolInt(t.LowSatisfaction), string(issues), nullString(t.Severity), nullString(t.Reason),
			topicValue(t), nullString(t.TopicLabel), nullString(t.SatisfactionSource),
		); err != nil {
			return fmt.Errorf("failed to insert turn %d/%d: %w", t.ConvID, t.TurnID, err)
		}
	}

	for _, topic := range ds.Topics {
		top, _ := json.Marshal(topic.TopIssues)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO topics (topic_id, topic_label, example_reason, n_examples, n_user_turns,
				avg_satisfaction, low_satisfaction_rate, top_issues)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			topic.TopicID, topic.TopicLabel, topic.ExampleReason, topic.NExamples, topic.NUserTurns,
			topic.AvgSatisfaction, topic.LowSatisfactionRate, string(top),
		); err != nil {
			return fmt.Errorf("failed to insert topic %d: %w", topic.TopicID, err)
		}
	}

	for _, r := range ds.Repairs {
		changes, _ := json.Marshal([]string(r.SuggestedPromptChanges))
		rules, _ := json.Marshal([]string(r.GuardrailRules))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO repairs (topic_id, root_cause, suggested_prompt_changes, system_prompt_snippet, guardrail_rules)
			VALUES (?, ?, ?, ?, ?)`,
			r.TopicID, r.RootCause, string(changes), r.SystemPromptSnippet, string(rules),
		); err != nil {
			return fmt.Errorf("failed to insert repair for topic %d: %w", r.TopicID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// topicValue 缺失的 topic_id 写为 NULL，重新加载后仍保持缺失
func topicValue(t dialogue.Turn) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(t.TopicID), Valid: !t.TopicMissing}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
