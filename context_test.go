package occhat_test

import (
	"testing"

	"github.com/jsdzhang/occhat"
	"github.com/stretchr/testify/assert"
)

func TestChatContext_Valid(t *testing.T) {
	t.Parallel()

	assert.False(t, occhat.ChatContext{}.Valid())
	assert.False(t, occhat.ChatContext{Token: "tok"}.Valid())
	assert.True(t, occhat.ChatContext{ConversationID: "c1"}.Valid())
	assert.True(t, occhat.ChatContext{CorpusID: "42"}.Valid())
	assert.True(t, occhat.ChatContext{DocumentID: "7"}.Valid())
	assert.True(t, occhat.ChatContext{AgentID: "a1"}.Valid())
}
