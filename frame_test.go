package occhat_test

import (
	"encoding/json"
	"testing"

	"github.com/jsdzhang/occhat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	t.Parallel()

	t.Run("malformed JSON errors", func(t *testing.T) {
		t.Parallel()
		_, _, err := occhat.DecodeFrame([]byte("not json{"))
		assert.Error(t, err)
	})

	t.Run("start frame", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_START","content":"Hel","data":{"message_id":"m1"}}`
		frame, upd, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, upd)
		assert.Equal(t, occhat.StartFrame{MessageID: "m1", Content: "Hel"}, frame)
	})

	t.Run("content frame", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_CONTENT","content":"lo","data":{"message_id":"m1"}}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, occhat.ContentFrame{MessageID: "m1", Content: "lo"}, frame)
	})

	t.Run("content frame without data", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_CONTENT","content":"lo"}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, occhat.ContentFrame{Content: "lo"}, frame)
	})

	t.Run("thought frame carries tool fields", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_THOUGHT","content":"searching","data":{"message_id":"m1","tool_name":"search","args":{"q":"term"}}}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		tf, ok := frame.(occhat.ThoughtFrame)
		require.True(t, ok)
		assert.Equal(t, "searching", tf.Text)
		assert.Equal(t, "search", tf.Tool)
		assert.JSONEq(t, `{"q":"term"}`, string(tf.Args))
	})

	t.Run("sources frame", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_SOURCES","content":"","data":{"message_id":"m1","sources":[{"annotation_id":"a1","page":3,"label":"Term","label_id":"l1","rawText":"the term"}]}}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		sf, ok := frame.(occhat.SourcesFrame)
		require.True(t, ok)
		require.Len(t, sf.Sources, 1)
		assert.Equal(t, "a1", sf.Sources[0].AnnotationID)
		assert.Equal(t, 3, sf.Sources[0].Page)
		assert.Equal(t, "the term", sf.Sources[0].RawText)
	})

	t.Run("approval needed frame", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_APPROVAL_NEEDED","content":"","data":{"message_id":"m1","pending_tool_call":{"name":"search","arguments":{"q":"x"},"tool_call_id":"t1"}}}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		af, ok := frame.(occhat.ApprovalNeededFrame)
		require.True(t, ok)
		assert.Equal(t, "m1", af.MessageID)
		require.NotNil(t, af.ToolCall)
		assert.Equal(t, "search", af.ToolCall.Name)
		assert.Equal(t, "t1", af.ToolCall.ToolCallID)
	})

	t.Run("finish frame with timeline and sources", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_FINISH","content":"Hello","data":{"message_id":"m1","sources":[{"annotation_id":"a1"}],"timeline":[{"type":"tool_call","tool":"search","args":{"q":"x"}},{"type":"mystery","text":"hm"}]}}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		ff, ok := frame.(occhat.FinishFrame)
		require.True(t, ok)
		assert.Equal(t, "Hello", ff.Content)
		require.Len(t, ff.Timeline, 2)
		assert.Equal(t, occhat.TimelineToolCall, ff.Timeline[0].Kind)
		// Unknown timeline kinds degrade to plain thoughts.
		assert.Equal(t, occhat.TimelineThought, ff.Timeline[1].Kind)
	})

	t.Run("error frame prefers data.error over content", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_ERROR","content":"fallback","data":{"message_id":"m1","error":"agent crashed"}}`
		frame, _, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, occhat.ErrorFrame{MessageID: "m1", Text: "agent crashed"}, frame)

		raw = `{"type":"ASYNC_ERROR","content":"fallback","data":{"message_id":"m1"}}`
		frame, _, err = occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, occhat.ErrorFrame{MessageID: "m1", Text: "fallback"}, frame)
	})

	t.Run("connection control frames", func(t *testing.T) {
		t.Parallel()
		frame, _, err := occhat.DecodeFrame([]byte(`{"type":"CONNECTED","content":"ready"}`))
		require.NoError(t, err)
		assert.Equal(t, occhat.ConnectedFrame{Content: "ready"}, frame)

		frame, _, err = occhat.DecodeFrame([]byte(`{"type":"pong"}`))
		require.NoError(t, err)
		assert.Equal(t, occhat.PongFrame{}, frame)

		frame, _, err = occhat.DecodeFrame([]byte(`{"type":"heartbeat_ack"}`))
		require.NoError(t, err)
		assert.Equal(t, occhat.PongFrame{}, frame)
	})

	t.Run("unknown type is preserved, not rejected", func(t *testing.T) {
		t.Parallel()
		frame, _, err := occhat.DecodeFrame([]byte(`{"type":"ASYNC_FUTURE","content":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, occhat.UnknownFrame{Type: "ASYNC_FUTURE"}, frame)
	})

	t.Run("approval decision rides alongside any type", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_CONTENT","content":"go on","data":{"message_id":"m1","approval_decision":"approved"}}`
		frame, upd, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		require.NotNil(t, upd)
		assert.Equal(t, "m1", upd.MessageID)
		assert.Equal(t, occhat.ApprovalApproved, upd.Status)
		assert.Equal(t, occhat.ContentFrame{MessageID: "m1", Content: "go on"}, frame)
	})

	t.Run("approval decision without a message ID is ignored", func(t *testing.T) {
		t.Parallel()
		raw := `{"type":"ASYNC_CONTENT","content":"x","data":{"approval_decision":"approved"}}`
		_, upd, err := occhat.DecodeFrame([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, upd)
	})
}

func TestOutboundFrames(t *testing.T) {
	t.Parallel()

	t.Run("query frame wire shape", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(occhat.QueryFrame{Query: "summarize section 2"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"query":"summarize section 2"}`, string(data))
	})

	t.Run("approval decision wire shape", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(occhat.ApprovalDecisionFrame{ApprovalDecision: true, LLMMessageID: "m1"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"approval_decision":true,"llm_message_id":"m1"}`, string(data))
	})

	t.Run("ping wire shape", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(occhat.NewPingFrame())
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"ping"}`, string(data))
	})
}
