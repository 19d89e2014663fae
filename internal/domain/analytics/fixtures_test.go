package analytics

import "github.com/retailmind/backend/internal/domain/dialogue"

func score(v float64) *float64 {
	return &v
}

func userTurn(convID, turnID, topicID int, s float64, low bool, issues ...string) dialogue.Turn {
	if issues == nil {
		issues = []string{}
	}
	return dialogue.Turn{
		ConvID:            convID,
		TurnID:            turnID,
		Speaker:           dialogue.SpeakerUser,
		SatisfactionScore: score(s),
		LowSatisfaction:   low,
		Issues:            issues,
		TopicID:           topicID,
	}
}

func systemTurn(convID, turnID, topicID int) dialogue.Turn {
	return dialogue.Turn{
		ConvID:  convID,
		TurnID:  turnID,
		Speaker: dialogue.SpeakerSystem,
		Issues:  []string{},
		TopicID: topicID,
	}
}

func withText(t dialogue.Turn, text string) dialogue.Turn {
	t.Text = text
	return t
}

func withLabel(t dialogue.Turn, label string) dialogue.Turn {
	t.TopicLabel = label
	return t
}

func withSeverity(t dialogue.Turn, severity string) dialogue.Turn {
	t.Severity = severity
	return t
}
