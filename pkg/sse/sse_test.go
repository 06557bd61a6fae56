package sse

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"plant-doctor-be/pkg/advisory"
	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/plantid"
	"plant-doctor-be/pkg/treatment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []diagnosis.Event {
	plant := plantid.PlantCandidate{CommonName: "Cà chua", ScientificName: "Solanum lycopersicum", Confidence: 0.92}
	spot := plantid.DiseaseFinding{Name: "Đốm lá", Confidence: 0.81, Description: "Vết đốm nâu"}
	chem := []treatment.ChemicalItem{{Name: "Anvil 5SC", Dosage: "20ml/16L"}}
	cult := []treatment.CulturalItem{{Name: "Tỉa lá gốc", Priority: treatment.PriorityHigh}}
	text := advisory.Text{Markdown: "Phun **Anvil 5SC**", Severity: advisory.SeveritySevere, Items: []string{"Anvil 5SC"}}

	result := diagnosis.ConsolidatedResult{
		SessionID:   "5f0c8e0e-3b7a-4d53-9a43-2f7c3f0b1a11",
		ImageURL:    "https://example.com/leaf.jpg",
		Plant:       &plant,
		Diseases:    []plantid.DiseaseFinding{spot},
		Advisory:    text,
		Severity:    advisory.SeveritySevere,
		StartedAt:   time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 5, 1, 8, 0, 4, 0, time.UTC),
	}
	result.Treatments.AddChemical("Đốm lá", chem)
	result.Treatments.AddCultural("Đốm lá", cult)

	payloads := []struct {
		t diagnosis.EventType
		p diagnosis.Payload
	}{
		{diagnosis.EventConnected, diagnosis.MessagePayload{Message: "Đã nhận ảnh"}},
		{diagnosis.EventPlantIdentified, diagnosis.PlantIdentifiedPayload{Plant: plant, Message: "Cà chua"}},
		{diagnosis.EventDiseaseFound, diagnosis.DiseaseFoundPayload{Disease: &spot, Message: "Đốm lá"}},
		{diagnosis.EventTreatmentsChemical, diagnosis.ChemicalTreatmentsPayload{Disease: "Đốm lá", Treatments: chem}},
		{diagnosis.EventTreatmentsBiological, diagnosis.BiologicalTreatmentsPayload{Disease: "Đốm lá", Treatments: []treatment.BiologicalItem{}}},
		{diagnosis.EventTreatmentsCultural, diagnosis.CulturalTreatmentsPayload{Disease: "Đốm lá", Treatments: cult}},
		{diagnosis.EventCare, diagnosis.CarePayload{Care: diagnosis.Care{Advisory: text, Practices: cult}}},
		{diagnosis.EventComplete, diagnosis.CompletePayload{Result: result}},
	}
	events := make([]diagnosis.Event, len(payloads))
	for i, p := range payloads {
		events[i] = diagnosis.Event{Type: p.t, Payload: p.p, Seq: i + 1}
	}
	return events
}

func fullStream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf), nil)
	for i, ev := range sampleEvents() {
		require.NoError(t, w.Send(ev))
		if i == 2 {
			require.NoError(t, w.Ping())
		}
	}
	require.NoError(t, w.Done())
	return buf.Bytes()
}

func TestEncode(t *testing.T) {
	frame, err := Encode(diagnosis.Event{
		Type:    diagnosis.EventError,
		Payload: diagnosis.ErrorPayload{Error: "unidentified"},
		Seq:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "id: 3\nevent: error\ndata: {\"error\":\"unidentified\"}\n\n", string(frame))
	assert.Equal(t, "data: [DONE]\n\n", string(Done()))
	assert.Equal(t, ": ping\n\n", string(Comment("ping")))
}

func TestWriterSentinelIsLast(t *testing.T) {
	stream := fullStream(t)
	require.True(t, bytes.HasSuffix(stream, []byte("\n\ndata: [DONE]\n\n")))
	assert.Equal(t, 1, bytes.Count(stream, []byte("[DONE]")))

	body := bytes.TrimSuffix(stream, Done())
	last := bytes.LastIndex(body, []byte("event: "))
	require.GreaterOrEqual(t, last, 0)
	assert.True(t, bytes.HasPrefix(body[last:], []byte("event: complete\n")))
	assert.Equal(t, 1, bytes.Count(stream, []byte("event: complete\n")))
}

func TestWriterRejectsFramesAfterDone(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf), nil)
	require.NoError(t, w.Done())

	err := w.Send(diagnosis.Event{Type: diagnosis.EventError, Payload: diagnosis.ErrorPayload{Error: "late"}, Seq: 1})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Ping(), ErrClosed)
	assert.Equal(t, "data: [DONE]\n\n", buf.String())
}

type brokenConn struct{}

func (brokenConn) Write(p []byte) (int, error) { return 0, errors.New("connection reset by peer") }
func (brokenConn) Flush() error                { return nil }

func TestWriterReportsDisconnectOnce(t *testing.T) {
	var gone atomic.Int32
	w := NewWriter(brokenConn{}, func() { gone.Add(1) })

	err := w.Send(sampleEvents()[0])
	require.Error(t, err)
	assert.Error(t, w.Ping())
	assert.Error(t, w.Done())
	assert.Equal(t, int32(1), gone.Load())
	assert.EqualError(t, w.Err(), "connection reset by peer")
}

func TestHeartbeatStopsOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWriter(brokenConn{}, cancel)
	done := make(chan struct{})
	go func() {
		w.Heartbeat(context.Background(), 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat kept running after a failed ping")
	}
	assert.Error(t, ctx.Err())
}

func TestHeartbeatWritesPings(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	w := NewWriter(bw, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	w.Heartbeat(ctx, 10*time.Millisecond)

	require.NoError(t, w.Done())
	assert.Contains(t, buf.String(), ": ping\n\n")

	r := NewReducer()
	events, err := r.Feed(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.True(t, r.State().Done)
}

func TestReducerWholeStream(t *testing.T) {
	r := NewReducer()
	events, err := r.Feed(fullStream(t))
	require.NoError(t, err)
	require.Len(t, events, len(sampleEvents()))

	s := r.State()
	assert.True(t, s.Connected)
	assert.True(t, s.Done)
	assert.Zero(t, s.Gaps)
	assert.Equal(t, 8, s.LastSeq)
	require.NotNil(t, s.Plant)
	assert.Equal(t, "Cà chua", s.Plant.CommonName)
	assert.Len(t, s.Diseases, 1)
	assert.Equal(t, "Anvil 5SC", s.Treatments.Chemical["Đốm lá"][0].Name)
	require.NotNil(t, s.Care)
	assert.Equal(t, advisory.SeveritySevere, s.Care.Advisory.Severity)
	require.NotNil(t, s.Result)
	assert.Equal(t, "https://example.com/leaf.jpg", s.Result.ImageURL)
}

func TestReducerFragmentationIsIdempotent(t *testing.T) {
	stream := fullStream(t)

	whole := NewReducer()
	_, err := whole.Feed(stream)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		r := NewReducer()
		var seen int
		for rest := stream; len(rest) > 0; {
			n := 1 + rng.Intn(40)
			if n > len(rest) {
				n = len(rest)
			}
			events, err := r.Feed(rest[:n])
			require.NoError(t, err)
			seen += len(events)
			rest = rest[n:]
		}
		assert.Equal(t, len(sampleEvents()), seen)
		assert.Equal(t, whole.State(), r.State(), "round %d", round)
	}

	byteWise := NewReducer()
	for i := range stream {
		_, err := byteWise.Feed(stream[i : i+1])
		require.NoError(t, err)
	}
	assert.Equal(t, whole.State(), byteWise.State())
}

func TestReducerIgnoresUnknownAndComments(t *testing.T) {
	stream := ": hello\r\n\r\n" +
		"id: 1\r\nevent: connected\r\ndata: {\"message\":\"ok\"}\r\n\r\n" +
		"id: 2\nevent: weather_report\ndata: not even json\n\n" +
		"id: 4\nevent: error\ndata: {\"error\":\"unidentified\"}\n\n" +
		"data: [DONE]\n\n" +
		"id: 5\nevent: connected\ndata: {\"message\":\"after the end\"}\n\n"

	r := NewReducer()
	events, err := r.Feed([]byte(stream))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, diagnosis.EventConnected, events[0].Type)
	assert.Equal(t, diagnosis.EventError, events[1].Type)

	s := r.State()
	assert.Equal(t, "unidentified", s.Error)
	assert.Equal(t, "ok", s.Progress)
	assert.True(t, s.Done)
	assert.Equal(t, 1, s.Gaps)
	assert.Equal(t, 4, s.LastSeq)
}

func TestReducerReportsMalformedKnownFrame(t *testing.T) {
	r := NewReducer()
	events, err := r.Feed([]byte("event: plant_identified\ndata: {broken\n\nevent: connected\ndata: {\"message\":\"hi\"}\n\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode plant_identified frame")
	require.Len(t, events, 1)
	assert.Nil(t, r.State().Plant)
}

func TestReducerKeepsPlantAndAppendsTreatments(t *testing.T) {
	r := NewReducer()
	_, err := r.Feed([]byte(
		"event: plant_identified\ndata: {\"plant\":{\"commonName\":\"Lúa\",\"confidence\":0.9}}\n\n" +
			"event: treatments_cultural\ndata: {\"disease\":\"Đạo ôn\",\"treatments\":[{\"name\":\"Rút nước\"}]}\n\n" +
			"event: treatments_cultural\ndata: {\"disease\":\"Đạo ôn\",\"treatments\":[{\"name\":\"Bón cân đối\"}]}\n\n" +
			"event: complete\ndata: {\"result\":{\"sessionId\":\"s\"}}\n\n",
	))
	require.NoError(t, err)

	s := r.State()
	require.NotNil(t, s.Plant)
	assert.Equal(t, "Lúa", s.Plant.CommonName)
	require.Len(t, s.Treatments.Cultural["Đạo ôn"], 2)
	assert.Equal(t, "Bón cân đối", s.Treatments.Cultural["Đạo ôn"][1].Name)
}
