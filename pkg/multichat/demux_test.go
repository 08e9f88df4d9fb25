package multichat

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/multichat/pkg/protocol"
)

var testModels = []protocol.CatalogModel{
	{ID: "a", Name: "Model A", Provider: "groq", ModelID: "model-a"},
	{ID: "b", Name: "Model B", Provider: "cerebras", ModelID: "model-b"},
	{ID: "c", Provider: "groq", ModelID: "model-c"},
}

func encodeFrames(t *testing.T, frames ...protocol.Frame) []byte {
	t.Helper()
	var out []byte
	for _, f := range frames {
		data, err := protocol.Encode(f)
		require.NoError(t, err)
		out = append(out, data...)
	}
	return out
}

func sessionStream(t *testing.T) []byte {
	t.Helper()
	stream := encodeFrames(t,
		protocol.ContentFrame("a", "Hel"),
		protocol.ContentFrame("b", "Bon"),
		protocol.ContentFrame("a", "lo ✓"),
		protocol.ErrorFrame("c", "groq error: Too Many Requests"),
		protocol.ContentFrame("b", "jour"),
		protocol.DoneFrame("a"),
		protocol.ContentFrame("zzz", "unknown model"),
		protocol.DoneFrame("b"),
	)
	stream = append(stream, []byte("data: {not json}\n\n: comment\n\ndata: [DONE]\n\n")...)
	return append(stream, encodeFrames(t, protocol.CompleteFrame())...)
}

func TestDemultiplexer_SplitInvariance(t *testing.T) {
	stream := sessionStream(t)

	whole := NewDemultiplexer(testModels, nil)
	_, err := whole.Write(stream)
	require.NoError(t, err)
	whole.Finish()
	expected := whole.Snapshot()

	assert.False(t, expected.Loading)
	assert.Equal(t, []ModelState{
		{ID: "a", Name: "Model A", Text: "Hello ✓", Done: true},
		{ID: "b", Name: "Model B", Text: "Bonjour", Done: true},
		{ID: "c", Name: "c", Error: "groq error: Too Many Requests"},
	}, expected.Models)

	for _, size := range []int{1, 2, 3, 5, 7, 13, 64} {
		d := NewDemultiplexer(testModels, nil)
		for i := 0; i < len(stream); i += size {
			_, err := d.Write(stream[i:min(i+size, len(stream))])
			require.NoError(t, err)
		}
		d.Finish()
		assert.Equal(t, expected, d.Snapshot(), "chunk size %d", size)
	}
}

func TestDemultiplexer_Status(t *testing.T) {
	d := NewDemultiplexer(testModels, nil)
	snap := d.Snapshot()
	require.True(t, snap.Loading)
	for _, m := range snap.Models {
		assert.Equal(t, StatusPending, m.Status())
	}

	d.Apply(protocol.ContentFrame("a", "x"))
	d.Apply(protocol.DoneFrame("b"))
	d.Apply(protocol.ErrorFrame("c", "boom"))

	snap = d.Snapshot()
	a, _ := snap.Model("a")
	b, _ := snap.Model("b")
	c, _ := snap.Model("c")
	assert.Equal(t, StatusStreaming, a.Status())
	assert.Equal(t, StatusDone, b.Status())
	assert.Equal(t, StatusError, c.Status())
	assert.True(t, snap.Loading)

	assert.True(t, d.Apply(protocol.CompleteFrame()))
	assert.False(t, d.Snapshot().Loading)
}

func TestDemultiplexer_IgnoresFramesAfterTerminal(t *testing.T) {
	d := NewDemultiplexer(testModels, nil)

	require.True(t, d.Apply(protocol.DoneFrame("a")))
	assert.False(t, d.Apply(protocol.ContentFrame("a", "late")))
	assert.False(t, d.Apply(protocol.ErrorFrame("a", "late")))
	assert.False(t, d.Apply(protocol.DoneFrame("a")))

	require.True(t, d.Apply(protocol.ErrorFrame("b", "first")))
	assert.False(t, d.Apply(protocol.ErrorFrame("b", "second")))

	assert.False(t, d.Apply(protocol.ContentFrame("unknown", "x")))
	assert.False(t, d.Apply(protocol.Frame{ModelID: "a"}), "invalid shape")

	snap := d.Snapshot()
	a, _ := snap.Model("a")
	b, _ := snap.Model("b")
	assert.Empty(t, a.Text)
	assert.True(t, a.Done)
	assert.Equal(t, "first", b.Error)
}

func TestDemultiplexer_DeduplicatesModels(t *testing.T) {
	d := NewDemultiplexer([]protocol.CatalogModel{
		{ID: "a", Name: "First"},
		{ID: "a", Name: "Second"},
		{ID: "b"},
	}, nil)

	snap := d.Snapshot()
	require.Len(t, snap.Models, 2)
	assert.Equal(t, "First", snap.Models[0].Name)
	assert.Equal(t, "b", snap.Models[1].Name)
}

func TestDemultiplexer_CancelFreezesState(t *testing.T) {
	var updates int
	d := NewDemultiplexer(testModels, func(Snapshot) { updates++ })

	_, err := d.Write(encodeFrames(t, protocol.ContentFrame("a", "partial")))
	require.NoError(t, err)
	require.Equal(t, 1, updates)

	d.Cancel()
	_, err = d.Write(encodeFrames(t, protocol.ContentFrame("a", " more"), protocol.CompleteFrame()))
	require.NoError(t, err)
	d.Fail(errors.New("ignored"))
	d.Finish()

	snap := d.Snapshot()
	assert.Equal(t, 1, updates)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Failed)
	a, _ := snap.Model("a")
	assert.Equal(t, "partial", a.Text)
}

func TestDemultiplexer_StopDiscardsPartialLine(t *testing.T) {
	stops := map[string]func(d *Demultiplexer){
		"cancel": func(d *Demultiplexer) { d.Cancel() },
		"fail":   func(d *Demultiplexer) { d.Fail(errors.New("broken stream")) },
		"finish": func(d *Demultiplexer) { d.Finish() },
	}
	for name, stop := range stops {
		t.Run(name, func(t *testing.T) {
			d := NewDemultiplexer(testModels, nil)
			_, err := d.Write([]byte(`data: {"modelId":"a","content":"half`))
			require.NoError(t, err)
			require.Positive(t, d.lines.Pending())

			stop(d)

			assert.Zero(t, d.lines.Pending())
		})
	}
}

func TestDemultiplexer_FailReplacesState(t *testing.T) {
	var last Snapshot
	d := NewDemultiplexer(testModels, func(s Snapshot) { last = s })
	d.Apply(protocol.ContentFrame("a", "partial"))

	d.Fail(errors.New("connection refused"))

	assert.True(t, last.Failed)
	assert.False(t, last.Loading)
	assert.Equal(t, []ModelState{{
		ID:    FailureName,
		Name:  FailureName,
		Text:  FailureMessage,
		Error: "connection refused",
	}}, last.Models)
	assert.False(t, d.Apply(protocol.ContentFrame("a", "late")))
}

func TestDemultiplexer_LineTooLong(t *testing.T) {
	d := NewDemultiplexer(testModels, nil)

	_, err := d.Write([]byte("data: " + strings.Repeat("x", maxFrameLine+1)))

	require.Error(t, err)
}

func TestDemultiplexer_FinishWithoutComplete(t *testing.T) {
	d := NewDemultiplexer(testModels, nil)
	_, err := d.Write(encodeFrames(t, protocol.ContentFrame("a", "x")))
	require.NoError(t, err)
	_, err = d.Write([]byte(`data: {"modelId":"a","content":"trailing partial`))
	require.NoError(t, err)

	d.Finish()

	snap := d.Snapshot()
	assert.False(t, snap.Loading)
	a, _ := snap.Model("a")
	assert.Equal(t, "x", a.Text)
}
