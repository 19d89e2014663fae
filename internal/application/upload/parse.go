// Package upload 实现上传实验室用例：解析上传的会话、打分分析并追加到当前数据集
package upload

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"golang.org/x/text/encoding/charmap"
)

// DecodeUploadText 将上传内容转换为 UTF-8
// 非法 UTF-8 按 Latin-1 解码，Latin-1 覆盖全部单字节取值因此不会失败
func DecodeUploadText(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// ParseUploadPayload 解析 JSON 数组或 JSONL 格式的上传内容
// 整体不是合法 JSON 时逐行解析，任意非空行解析失败返回 ErrInvalidUploadPayload；
// 只保留包含 text 字段的对象，一个都没有时返回 ErrEmptyUpload
func ParseUploadPayload(payload []byte) ([]map[string]any, error) {
	payload = bytes.TrimPrefix(DecodeUploadText(payload), []byte("\xef\xbb\xbf"))

	var items []any
	var whole any
	if err := json.Unmarshal(payload, &whole); err == nil {
		if list, ok := whole.([]any); ok {
			items = list
		} else {
			items = []any{whole}
		}
	} else {
		lines, err := parseJSONLines(payload)
		if err != nil {
			return nil, err
		}
		items = lines
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, hasText := rec["text"]; !hasText {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, dialogue.ErrEmptyUpload
	}
	return records, nil
}

// parseJSONLines 逐行解析 JSONL，空行跳过
func parseJSONLines(payload []byte) ([]any, error) {
	var items []any
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), len(payload)+1)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item any
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", dialogue.ErrInvalidUploadPayload, lineNo, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", dialogue.ErrInvalidUploadPayload, err)
	}
	if len(items) == 0 {
		return nil, dialogue.ErrInvalidUploadPayload
	}
	return items, nil
}
