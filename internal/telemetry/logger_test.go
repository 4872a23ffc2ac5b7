package telemetry

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestOutputSplitter_Write(t *testing.T) {
	splitter := &outputSplitter{}

	tests := []struct {
		name string
		line []byte
	}{
		{name: "JSONError", line: []byte(`{"level":"error","msg":"lock acquisition failed"}`)},
		{name: "TextInfo", line: []byte(`time="2026-07-31T00:00:00Z" level=info msg="job started"`)},
		{name: "Empty", line: []byte(``)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := splitter.Write(tt.line)
			assert.NoError(t, err)
			assert.Equal(t, len(tt.line), n)
		})
	}
}

func TestNewLogger_LevelAndFormat(t *testing.T) {
	logger := NewLogger(Config{Level: LevelDebug, Format: FormatText, ServiceName: "digitaltwins-test"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestNewLogger_DefaultsToJSONInfo(t *testing.T) {
	logger := NewLogger(Config{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestWithLoggerAndFromContext(t *testing.T) {
	base := NewLogger(DefaultConfig())
	entry := base.WithField("job_id", "job-123")
	ctx := WithLogger(context.Background(), entry)

	recovered := FromContext(ctx, base)
	assert.Equal(t, "job-123", recovered.Data["job_id"])
}

func TestFromContext_FallsBackToBase(t *testing.T) {
	base := NewLogger(DefaultConfig())
	entry := FromContext(context.Background(), base)
	assert.NotNil(t, entry)
	assert.Empty(t, entry.Data)
}

func TestJobFieldsAndRequestFields(t *testing.T) {
	jf := JobFields("job-1", "factory-graph", "import")
	assert.Equal(t, "job-1", jf["job_id"])
	assert.Equal(t, "factory-graph", jf["graph"])
	assert.Equal(t, "import", jf["type"])

	rf := RequestFields("req-1", "factory-graph", "query.execute")
	assert.Equal(t, "req-1", rf["request_id"])
	assert.Equal(t, "query.execute", rf["operation"])
}
