package dialogue

import "time"

// Dataset 一个不可变的数据集快照
// 发布后不得修改；追加数据总是生成新版本
type Dataset struct {
	Version      int64         `json:"version"`
	Source       string        `json:"source"`
	LoadedAt     time.Time     `json:"loaded_at"`
	Turns        []Turn        `json:"-"`
	Topics       []Topic       `json:"-"`
	Repairs      []Repair      `json:"-"`
	SandboxCases []SandboxCase `json:"-"`
}

// WithAppendedTurns 返回追加了新轮次的新快照（版本号 +1）
// 主题、修复方案等表与旧快照共享，仅轮次表被复制
func (d *Dataset) WithAppendedTurns(turns []Turn) *Dataset {
	merged := make([]Turn, 0, len(d.Turns)+len(turns))
	merged = append(merged, d.Turns...)
	merged = append(merged, turns...)

	return &Dataset{
		Version:      d.Version + 1,
		Source:       d.Source,
		LoadedAt:     time.Now(),
		Turns:        merged,
		Topics:       d.Topics,
		Repairs:      d.Repairs,
		SandboxCases: d.SandboxCases,
	}
}

// UploadedTurns 返回会话内上传的轮次（dataset 为 UPLOAD）
func (d *Dataset) UploadedTurns() []Turn {
	out := make([]Turn, 0)
	for _, t := range d.Turns {
		if t.Dataset == UploadDataset {
			out = append(out, t)
		}
	}
	return out
}

// WithCarriedTurns 把上一快照的轮次接到当前轮次之后，返回新的轮次表
// 与当前轮次冲突的会话 ID 按首次出现顺序重新编号为最大值 + 1；
// 第二个返回值记录 旧 ID -> 新 ID
func (d *Dataset) WithCarriedTurns(carried []Turn) ([]Turn, map[int]int) {
	merged := make([]Turn, 0, len(d.Turns)+len(carried))
	merged = append(merged, d.Turns...)
	renumbered := make(map[int]int)
	if len(carried) == 0 {
		return merged, renumbered
	}

	taken := make(map[int]struct{}, len(d.Turns))
	for _, t := range d.Turns {
		taken[t.ConvID] = struct{}{}
	}
	next := d.NextConvID()
	for _, t := range carried {
		if t.ConvID >= next {
			next = t.ConvID + 1
		}
	}

	assigned := make(map[int]int)
	for _, t := range carried {
		id, ok := assigned[t.ConvID]
		if !ok {
			id = t.ConvID
			if _, clash := taken[id]; clash {
				id = next
				next++
				renumbered[t.ConvID] = id
			}
			assigned[t.ConvID] = id
		}
		t.ConvID = id
		merged = append(merged, t)
	}
	return merged, renumbered
}

// TopicByID 根据 ID 查找主题
func (d *Dataset) TopicByID(topicID int) (Topic, bool) {
	for _, t := range d.Topics {
		if t.TopicID == topicID {
			return t, true
		}
	}
	return Topic{}, false
}

// RepairByTopic 查找主题对应的修复方案
func (d *Dataset) RepairByTopic(topicID int) (Repair, bool) {
	for _, r := range d.Repairs {
		if r.TopicID == topicID {
			return r, true
		}
	}
	return Repair{}, false
}

// NextConvID 返回下一个可用的会话 ID（当前最大值 + 1）
func (d *Dataset) NextConvID() int {
	if len(d.Turns) == 0 {
		return 1
	}
	maxID := d.Turns[0].ConvID
	for _, t := range d.Turns[1:] {
		if t.ConvID > maxID {
			maxID = t.ConvID
		}
	}
	return maxID + 1
}

// ConversationCount 不同会话数量
func (d *Dataset) ConversationCount() int {
	seen := make(map[int]struct{})
	for _, t := range d.Turns {
		seen[t.ConvID] = struct{}{}
	}
	return len(seen)
}

// Summary 快照摘要信息
type Summary struct {
	Version       int64     `json:"version"`
	Source        string    `json:"source"`
	LoadedAt      time.Time `json:"loaded_at"`
	Turns         int       `json:"turns"`
	Conversations int       `json:"conversations"`
	Topics        int       `json:"topics"`
	Repairs       int       `json:"repairs"`
	SandboxCases  int       `json:"sandbox_cases"`
}

// Summarize 生成快照摘要
func (d *Dataset) Summarize() Summary {
	return Summary{
		Version:       d.Version,
		Source:        d.Source,
		LoadedAt:      d.LoadedAt,
		Turns:         len(d.Turns),
		Conversations: d.ConversationCount(),
		Topics:        len(d.Topics),
		Repairs:       len(d.Repairs),
		SandboxCases:  len(d.SandboxCases),
	}
}
