package snapshot_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/snapshot"
)

const yamlDoc = `
tasks:
  - id: t1
    title: Read paper
    category: Study
    priority: high
    completed: true
    createdAt: 2024-01-01T09:00:00Z
    completedAt: "2024-01-02 14:30:00"
    deadline: 2024-01-05
  - id: t2
    title: Broken dates
    createdAt: sometime
    deadline: soon
habits:
  - id: h1
    name: Run
    targetFrequency: 3
    completions: [2024-01-01, 2024-01-02, 2024-01-02]
`

const jsonDoc = `{
  "tasks": [
    {"id": "t1", "title": "Read paper", "priority": "low", "completed": false,
     "createdAt": "2024-01-01T09:00:00+01:00", "deadline": "2024-02-01"}
  ]
}`

func TestDecode_YAML(t *testing.T) {
	snap, err := snapshot.Decode([]byte(yamlDoc), snapshot.FormatYAML)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)
	require.Len(t, snap.Habits, 1)

	t1 := snap.Tasks[0]
	assert.Equal(t, domain.PriorityHigh, t1.Priority)
	require.NotNil(t, t1.CompletedAt)
	assert.True(t, t1.CompletedAt.IsValid())
	require.NotNil(t, t1.Deadline)
	assert.Equal(t, clock.NewDate(2024, 1, 5), *t1.Deadline)

	t2 := snap.Tasks[1]
	assert.False(t, t2.CreatedAt.IsValid())
	require.NotNil(t, t2.Deadline)
	assert.False(t, t2.Deadline.IsValid())

	assert.Len(t, snap.Habits[0].CompletionSet(), 2)
}

func TestDecode_SniffsJSON(t *testing.T) {
	snap, err := snapshot.Decode([]byte(jsonDoc), "")
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, clock.NewDate(2024, 2, 1), *snap.Tasks[0].Deadline)
	assert.NotNil(t, snap.Habits)
}

func TestDecode_Broken(t *testing.T) {
	_, err := snapshot.Decode([]byte(`{"tasks": [`), snapshot.FormatJSON)
	assert.Error(t, err)

	_, err = snapshot.Decode([]byte("tasks: [unclosed"), snapshot.FormatYAML)
	assert.Error(t, err)
}

func TestDecode_NonStringTimestampsDegrade(t *testing.T) {
	snap, err := snapshot.Decode([]byte(`{
		"tasks": [
			{"id": "t1", "title": "Epoch", "completed": true, "createdAt": 1704100000, "completedAt": 1704103600, "deadline": 0},
			{"id": "t2", "title": "Fine", "createdAt": "2024-01-01T09:00:00Z"}
		]
	}`), snapshot.FormatJSON)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)

	epoch := snap.Tasks[0]
	assert.True(t, epoch.Completed)
	assert.False(t, epoch.CreatedAt.IsValid())
	_, ok := epoch.CompletionInstant()
	assert.False(t, ok)
	_, ok = epoch.DeadlineDate()
	assert.False(t, ok)
	assert.True(t, snap.Tasks[1].CreatedAt.IsValid())
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	snap, err := snapshot.Load(path)
	require.NoError(t, err)
	assert.Len(t, snap.Tasks, 2)

	_, err = snapshot.Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	snap, err := snapshot.Read(strings.NewReader(jsonDoc))
	require.NoError(t, err)
	assert.Len(t, snap.Tasks, 1)
}

func TestEncode_RoundTripsThroughYAML(t *testing.T) {
	in, err := snapshot.Decode([]byte(yamlDoc), snapshot.FormatYAML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Encode(&buf, in, snapshot.FormatYAML))

	out, err := snapshot.Decode(buf.Bytes(), snapshot.FormatYAML)
	require.NoError(t, err)
	require.Len(t, out.Tasks, 2)
	assert.Equal(t, in.Tasks[0].CompletedAt.String(), out.Tasks[0].CompletedAt.String())
	assert.Equal(t, "sometime", out.Tasks[1].CreatedAt.String())
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, snapshot.FormatJSON, snapshot.FormatFor("a.JSON"))
	assert.Equal(t, snapshot.FormatYAML, snapshot.FormatFor("a.yaml"))
	assert.Equal(t, snapshot.Format(""), snapshot.FormatFor("a.txt"))
}
