package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/opswatch/observe"
)

func TestNew_EmptyTopic(t *testing.T) {
	n, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = New(Config{Topic: "   "})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNew_SelectsByScheme(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  any
	}{
		{name: "http", topic: "http://localhost:8080/hook", want: &Webhook{}},
		{name: "https", topic: "https://hooks.example.com/x", want: &Webhook{}},
		{name: "redis", topic: "redis://localhost:6379/0#alerts", want: &RedisPublisher{}},
		{name: "log", topic: "log:", want: &LogNotifier{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(Config{Topic: tt.topic})
			require.NoError(t, err)
			assert.IsType(t, tt.want, n)
		})
	}
}

func TestNew_Unsupported(t *testing.T) {
	for _, topic := range []string{
		"arn:aws:sns:us-east-1:123456789012:alerts",
		"ftp://example.com/x",
	} {
		_, err := New(Config{Topic: topic})
		assert.ErrorIs(t, err, ErrUnsupportedTopic, topic)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(observe.NewLoggerWithWriter("info", &buf))

	err := n.Publish(context.Background(), "DevOps Health Check Alert", "- DynamoDB: Table status: SCALING\n")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"subject":"DevOps Health Check Alert"`)
	assert.Contains(t, out, "DynamoDB: Table status: SCALING")
}

func TestNewLogNotifier_NilLogger(t *testing.T) {
	assert.NoError(t, NewLogNotifier(nil).Publish(context.Background(), "s", "m"))
}
