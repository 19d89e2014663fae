package dashboard

import (
	"sort"

	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
)

// What works well 页面的规模参数
const (
	whatWorksConversations = 50
	whatWorksTopics        = 5
	whatWorksExamples      = 5
)

// SuccessTopics 成功主题排行
func (s *Service) SuccessTopics(topN int, detailed bool) (*SuccessTopicsDTO, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}

	if detailed {
		return &SuccessTopicsDTO{
			Detailed: true,
			Details:  analytics.GetTopSuccessTopicsDetailed(ds.Turns, ds.Topics, topN),
		}, nil
	}
	return &SuccessTopicsDTO{
		Topics: analytics.GetSuccessTopics(ds.Turns, topN),
	}, nil
}

// TopConversations 全表满意度最高的会话
func (s *Service) TopConversations(limit int) ([]analytics.RankedConversation, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	return analytics.GetTopConversations(ds.Turns, limit), nil
}

// WhyItWorks 从前 limit 个高分会话提炼成功模式
func (s *Service) WhyItWorks(limit int) (*analytics.WhyItWorks, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	convs := analytics.GetTopConversations(ds.Turns, limit)
	patterns := analytics.GetWhyItWorksPatterns(convs, ds.Turns)
	return &patterns, nil
}

// WhatWorks 组装 "What works well" 页面：高表现主题、成功模式、示例会话与结论
func (s *Service) WhatWorks() (*WhatWorksDTO, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}

	convs := analytics.GetTopConversations(ds.Turns, whatWorksConversations)

	failureLabels := make([]string, 0, len(ds.Topics))
	for _, t := range ds.Topics {
		failureLabels = append(failureLabels, t.TopicLabel)
	}
	labeler := analytics.NewPositiveLabeler(failureLabels)

	performing := analytics.GetTopPerformingTopicsFromConversations(convs, whatWorksTopics)
	topTopics := make([]PerformingTopicDTO, 0, len(performing))
	for _, p := range performing {
		topTopics = append(topTopics, PerformingTopicDTO{
			PerformingTopic: p,
			DisplayLabel:    labeler.Label(p.TopicLabel),
		})
	}

	return &WhatWorksDTO{
		TopTopics: topTopics,
		Patterns:  analytics.GetWhyItWorksPatterns(convs, ds.Turns),
		Examples:  exampleConversations(convs),
		Takeaways: takeaways(convs, performing),
	}, nil
}

// exampleConversations 按平均满意度取前几个会话作为示例
func exampleConversations(convs []analytics.RankedConversation) []ConversationExampleDTO {
	ordered := make([]analytics.RankedConversation, len(convs))
	copy(ordered, convs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MeanSatisfaction > ordered[j].MeanSatisfaction
	})
	if len(ordered) > whatWorksExamples {
		ordered = ordered[:whatWorksExamples]
	}

	out := make([]ConversationExampleDTO, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, ConversationExampleDTO{
			RankedConversation: c,
			DisplayLabel:       analytics.PositiveLabel(c.TopicLabel),
			Highlights:         analytics.ConversationHighlights(c),
		})
	}
	return out
}

func takeaways(convs []analytics.RankedConversation, performing []analytics.PerformingTopic) *TakeawaysDTO {
	if len(convs) == 0 {
		return nil
	}

	var sat, turns float64
	for _, c := range convs {
		sat += c.MeanSatisfaction
		turns += float64(c.TurnCount)
	}
	out := &TakeawaysDTO{
		ConversationCount:   len(convs),
		AvgSatisfaction:     sat / float64(len(convs)),
		AvgTurns:            turns / float64(len(convs)),
		MostSuccessfulTopic: "N/A",
	}
	if len(performing) > 0 {
		out.MostSuccessfulTopic = performing[0].TopicLabel
	}
	return out
}

// Conversation 单个会话的全部轮次及推断主题
func (s *Service) Conversation(convID int) (*ConversationDTO, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}

	turns := analytics.ConversationTurns(ds.Turns, convID)
	if len(turns) == 0 {
		return nil, dialogue.ErrConversationNotFound
	}
	return &ConversationDTO{
		ConvID: convID,
		Theme:  analytics.InferConversationTheme(turns),
		Turns:  turns,
	}, nil
}

// InferTheme 对任意文本推断主题
func (s *Service) InferTheme(text string, turnCount int) string {
	return analytics.InferThemeFromText(text, turnCount)
}

// SandboxCases 上传实验室的预置示例
func (s *Service) SandboxCases() ([]dialogue.SandboxCase, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	if ds.SandboxCases == nil {
		return []dialogue.SandboxCase{}, nil
	}
	return ds.SandboxCases, nil
}
