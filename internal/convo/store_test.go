package convo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratumhq/stratum/internal/storage"
)

func TestCreateConversation_RequiresResID(t *testing.T) {
	s := New(nil, nil)

	_, err := s.CreateConversation(context.Background(), CreateConversationParams{})
	assert.ErrorIs(t, err, storage.ErrSchemaViolation)
}

func TestAppendTurn_RequiresResID(t *testing.T) {
	s := New(nil, nil)

	_, err := s.AppendTurn(context.Background(), AppendTurnParams{ConversationID: 1})
	assert.ErrorIs(t, err, storage.ErrSchemaViolation)
}
