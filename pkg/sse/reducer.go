package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/plantid"
)

var ErrUnknownEvent = errors.New("sse: unknown event type")

// State is the cumulative view of a stream. It only grows: a plant once set is
// never cleared and treatments are appended per disease.
type State struct {
	Connected  bool
	Progress   string
	Plant      *plantid.PlantCandidate
	Diseases   []plantid.DiseaseFinding
	Treatments diagnosis.Treatments
	Care       *diagnosis.Care
	Result     *diagnosis.ConsolidatedResult
	Error      string
	Done       bool

	LastSeq int
	// Gaps counts frames whose id did not follow the previous one.
	Gaps int
}

// Decode parses the data of a frame of type t.
func Decode(t diagnosis.EventType, data []byte) (diagnosis.Payload, error) {
	switch t {
	case diagnosis.EventConnected, diagnosis.EventPlantID, diagnosis.EventProcessing:
		return decodeInto[diagnosis.MessagePayload](data)
	case diagnosis.EventPlantIdentified:
		return decodeInto[diagnosis.PlantIdentifiedPayload](data)
	case diagnosis.EventDiseaseFound:
		return decodeInto[diagnosis.DiseaseFoundPayload](data)
	case diagnosis.EventTreatmentsChemical:
		return decodeInto[diagnosis.ChemicalTreatmentsPayload](data)
	case diagnosis.EventTreatmentsBiological:
		return decodeInto[diagnosis.BiologicalTreatmentsPayload](data)
	case diagnosis.EventTreatmentsCultural:
		return decodeInto[diagnosis.CulturalTreatmentsPayload](data)
	case diagnosis.EventCare:
		return decodeInto[diagnosis.CarePayload](data)
	case diagnosis.EventComplete:
		return decodeInto[diagnosis.CompletePayload](data)
	case diagnosis.EventError:
		return decodeInto[diagnosis.ErrorPayload](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
}

func decodeInto[P diagnosis.Payload](data []byte) (diagnosis.Payload, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

type frame struct {
	id    string
	event string
	data  []string
}

// Reducer folds a byte stream of frames into State. Chunks may split frames
// anywhere; incomplete trailing data is kept until the next Feed.
type Reducer struct {
	pending []byte
	cur     frame
	state   State
}

func NewReducer() *Reducer {
	return &Reducer{}
}

func (r *Reducer) State() State {
	return r.state
}

// Feed consumes chunk and returns the events completed by it. Comments and
// frames of unknown type are skipped. A known frame with undecodable data is
// skipped too and reported in the returned error once the chunk is consumed.
func (r *Reducer) Feed(chunk []byte) ([]diagnosis.Event, error) {
	r.pending = append(r.pending, chunk...)

	var (
		events []diagnosis.Event
		errs   []error
	)
	for {
		i := bytes.IndexByte(r.pending, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(r.pending[:i]), "\r")
		r.pending = r.pending[i+1:]

		if line != "" {
			r.field(line)
			continue
		}
		ev, ok, err := r.dispatch()
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			events = append(events, ev)
		}
	}
	if len(r.pending) == 0 {
		r.pending = nil
	}
	return events, errors.Join(errs...)
}

func (r *Reducer) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch name {
	case "id":
		r.cur.id = value
	case "event":
		r.cur.event = strings.TrimSpace(value)
	case "data":
		r.cur.data = append(r.cur.data, value)
	}
}

func (r *Reducer) dispatch() (diagnosis.Event, bool, error) {
	f := r.cur
	r.cur = frame{}

	if len(f.data) == 0 || r.state.Done {
		return diagnosis.Event{}, false, nil
	}
	data := strings.Join(f.data, "\n")
	if f.event == "" && strings.TrimSpace(data) == DoneData {
		r.state.Done = true
		return diagnosis.Event{}, false, nil
	}

	payload, err := Decode(diagnosis.EventType(f.event), []byte(data))
	if errors.Is(err, ErrUnknownEvent) {
		return diagnosis.Event{}, false, nil
	}
	if err != nil {
		return diagnosis.Event{}, false, fmt.Errorf("decode %s frame: %w", f.event, err)
	}

	ev := diagnosis.Event{Type: diagnosis.EventType(f.event), Payload: payload}
	if seq, err := strconv.Atoi(f.id); err == nil {
		ev.Seq = seq
		if r.state.LastSeq > 0 && seq != r.state.LastSeq+1 {
			r.state.Gaps++
		}
		r.state.LastSeq = seq
	}
	r.apply(ev)
	return ev, true, nil
}

func (r *Reducer) apply(ev diagnosis.Event) {
	s := &r.state
	switch p := ev.Payload.(type) {
	case diagnosis.MessagePayload:
		if ev.Type == diagnosis.EventConnected {
			s.Connected = true
		}
		s.Progress = p.Message
	case diagnosis.PlantIdentifiedPayload:
		plant := p.Plant
		s.Plant = &plant
		s.Progress = p.Message
	case diagnosis.DiseaseFoundPayload:
		s.Progress = p.Message
		if p.Disease != nil && !hasDisease(s.Diseases, p.Disease.Name) {
			s.Diseases = append(s.Diseases, *p.Disease)
		}
	case diagnosis.ChemicalTreatmentsPayload:
		s.Treatments.AddChemical(p.Disease, p.Treatments)
		s.Progress = p.Message
	case diagnosis.BiologicalTreatmentsPayload:
		s.Treatments.AddBiological(p.Disease, p.Treatments)
		s.Progress = p.Message
	case diagnosis.CulturalTreatmentsPayload:
		s.Treatments.AddCultural(p.Disease, p.Treatments)
		s.Progress = p.Message
	case diagnosis.CarePayload:
		care := p.Care
		s.Care = &care
		s.Progress = p.Message
	case diagnosis.CompletePayload:
		result := p.Result
		s.Result = &result
		if s.Plant == nil && result.Plant != nil {
			s.Plant = result.Plant
		}
	case diagnosis.ErrorPayload:
		s.Error = p.Error
	}
}

func hasDisease(list []plantid.DiseaseFinding, name string) bool {
	for _, d := range list {
		if d.Name == name {
			return true
		}
	}
	return false
}
