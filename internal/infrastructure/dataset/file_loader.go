package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/retailmind/backend/internal/domain/dialogue"
	applog "github.com/retailmind/backend/internal/infrastructure/log"
	"golang.org/x/sync/errgroup"
)

// FileLoader 从数据目录读取 JSONL/JSON 文件
type FileLoader struct {
	dir    string
	logger *slog.Logger
}

// NewFileLoader 创建文件加载器
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{
		dir:    dir,
		logger: applog.NewModuleLogger("dataset", "file_loader"),
	}
}

// Source 数据来源描述
func (l *FileLoader) Source() string {
	return "dir:" + l.dir
}

// Dir 数据目录
func (l *FileLoader) Dir() string {
	return l.dir
}

// Load 并行读取四个数据文件，沙盒示例文件缺失时视为空
func (l *FileLoader) Load(ctx context.Context) (*dialogue.Dataset, error) {
	start := time.Now()

	var (
		turns   []dialogue.Turn
		topics  []dialogue.Topic
		repairs []dialogue.Repair
		cases   []dialogue.SandboxCase
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		turns, err = l.loadTurns(ctx)
		return err
	})
	g.Go(func() error {
		records, err := l.loadRecords(TopicsFile)
		if err != nil {
			return err
		}
		topics = make([]dialogue.Topic, 0, len(records))
		for _, rec := range records {
			topics = append(topics, dialogue.TopicFromRecord(rec))
		}
		return nil
	})
	g.Go(func() error {
		records, err := l.loadRecords(RepairsFile)
		if err != nil {
			return err
		}
		repairs = make([]dialogue.Repair, 0, len(records))
		for _, rec := range records {
			repairs = append(repairs, dialogue.RepairFromRecord(rec))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cases, err = l.loadSandboxCases()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("Dataset files loaded",
		"dir", l.dir,
		"turns", len(turns),
		"topics", len(topics),
		"repairs", len(repairs),
		"sandbox_cases", len(cases),
		"duration", time.Since(start),
	)

	return &dialogue.Dataset{
		Source:       l.Source(),
		LoadedAt:     time.Now(),
		Turns:        turns,
		Topics:       topics,
		Repairs:      repairs,
		SandboxCases: cases,
	}, nil
}

// loadTurns 逐行读取轮次 JSONL，空行跳过
func (l *FileLoader) loadTurns(ctx context.Context) ([]dialogue.Turn, error) {
	path := filepath.Join(l.dir, TurnsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open turns file: %w", err)
	}
	defer f.Close()

	return readTurns(ctx, f, path)
}

func readTurns(ctx context.Context, r io.Reader, name string) ([]dialogue.Turn, error) {
	reader := bufio.NewReader(r)
	turns := make([]dialogue.Turn, 0, 1024)
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var rec map[string]any
			if jsonErr := json.Unmarshal(sanitizeJSON(line), &rec); jsonErr != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, lineNo, jsonErr)
			}
			turns = append(turns, dialogue.TurnFromRecord(rec))
		}
		if errors.Is(err, io.EOF) {
			return turns, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if lineNo%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
}

// loadRecords 读取 JSON 数组文件
func (l *FileLoader) loadRecords(name string) ([]map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(sanitizeJSON(data), &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return records, nil
}

func (l *FileLoader) loadSandboxCases() ([]dialogue.SandboxCase, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, SandboxCasesFile))
	if os.IsNotExist(err) {
		return []dialogue.SandboxCase{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SandboxCasesFile, err)
	}

	var cases []dialogue.SandboxCase
	if err := json.Unmarshal(sanitizeJSON(data), &cases); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SandboxCasesFile, err)
	}
	return cases, nil
}
