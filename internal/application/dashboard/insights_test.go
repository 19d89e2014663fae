package dashboard

import (
	"testing"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SuccessTopics(t *testing.T) {
	svc, _ := loadedService(t)

	plain, err := svc.SuccessTopics(5, false)
	require.NoError(t, err)
	assert.False(t, plain.Detailed)
	require.Len(t, plain.Topics, 2)
	assert.Equal(t, 2, plain.Topics[0].TopicID)
	assert.Nil(t, plain.Details)

	detailed, err := svc.SuccessTopics(5, true)
	require.NoError(t, err)
	assert.True(t, detailed.Detailed)
	require.Len(t, detailed.Details, 2)
	assert.Nil(t, detailed.Topics)
}

func TestService_TopConversations(t *testing.T) {
	svc, _ := loadedService(t)

	convs, err := svc.TopConversations(2)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, 2, convs[0].ConvID)
	assert.Equal(t, "Orders & Payments", convs[0].TopicLabel)
}

func TestService_WhatWorks(t *testing.T) {
	svc, _ := loadedService(t)

	dto, err := svc.WhatWorks()
	require.NoError(t, err)

	require.NotEmpty(t, dto.TopTopics)
	assert.Equal(t, "Checkout Success Stories", dto.TopTopics[0].DisplayLabel)
	require.Len(t, dto.Examples, 3)
	assert.Equal(t, 2, dto.Examples[0].ConvID)
	assert.Equal(t, "Efficient exchange • No issues • High satisfaction", dto.Examples[0].Highlights)
	require.NotNil(t, dto.Takeaways)
	assert.Equal(t, 3, dto.Takeaways.ConversationCount)
	assert.Equal(t, dto.TopTopics[0].TopicLabel, dto.Takeaways.MostSuccessfulTopic)
	assert.NotEmpty(t, dto.Patterns.Patterns)
}

func TestService_WhatWorksEmptyDataset(t *testing.T) {
	svc, store, _, _ := newTestService(t, 0)
	store.Replace(&dialogue.Dataset{Source: "empty"})

	dto, err := svc.WhatWorks()
	require.NoError(t, err)
	assert.Empty(t, dto.TopTopics)
	assert.Empty(t, dto.Examples)
	assert.Nil(t, dto.Takeaways)
	assert.Empty(t, dto.Patterns.Patterns)
}

func TestService_Conversation(t *testing.T) {
	svc, _ := loadedService(t)

	conv, err := svc.Conversation(1)
	require.NoError(t, err)
	assert.Len(t, conv.Turns, 3)
	assert.Equal(t, "Movie Recommendations & Reviews", conv.Theme)

	_, err = svc.Conversation(404)
	assert.ErrorIs(t, err, dialogue.ErrConversationNotFound)
}

func TestService_SandboxCasesNeverNil(t *testing.T) {
	svc, _ := loadedService(t)

	cases, err := svc.SandboxCases()
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}
