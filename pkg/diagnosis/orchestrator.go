package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plant-doctor-be/internal/pkg/logger"
	"plant-doctor-be/pkg/advisory"
	"plant-doctor-be/pkg/plantid"
	"plant-doctor-be/pkg/treatment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "DIAGNOSIS"

// Sink receives events in order. A Send error means the receiver is gone.
type Sink interface {
	Send(ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) error

func (f SinkFunc) Send(ev Event) error { return f(ev) }

type TreatmentLookup interface {
	Lookup(ctx context.Context, disease, plant string) (treatment.Set, treatment.LegErrors)
	LookupCultural(ctx context.Context, plant string) ([]treatment.CulturalItem, error)
}

type AdvisorySynthesizer interface {
	Synthesize(ctx context.Context, req advisory.Request) (advisory.Text, error)
}

type Config struct {
	// RequestTimeout bounds a whole run, IdentifyTimeout only the
	// identification call. IdentifyTimeout should be the shorter one.
	RequestTimeout       time.Duration
	IdentifyTimeout      time.Duration
	MinDiseaseConfidence float64
	MaxDiseases          int
	// EmitProgress enables processing, plant_id and scanning notices.
	EmitProgress bool
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:       2 * time.Minute,
		IdentifyTimeout:      30 * time.Second,
		MinDiseaseConfidence: 0.2,
		MaxDiseases:          3,
		EmitProgress:         true,
	}
}

type Orchestrator struct {
	identifier  plantid.Identifier
	treatments  TreatmentLookup
	synthesizer AdvisorySynthesizer
	cfg         Config
	logger      logger.ILogger
	metrics     Metrics
	tracer      trace.Tracer
}

func NewOrchestrator(
	identifier plantid.Identifier,
	treatments TreatmentLookup,
	synthesizer AdvisorySynthesizer,
	cfg Config,
	logger logger.ILogger,
	metrics Metrics,
) *Orchestrator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Orchestrator{
		identifier:  identifier,
		treatments:  treatments,
		synthesizer: synthesizer,
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("diagnosis"),
	}
}

// Run drives one diagnosis and sends every milestone to sink. It returns the
// consolidated result on success. Validation and identification failures are
// sent as an error event and returned; a failing sink stops the run with
// ErrClientGone and nothing more is sent. Run never sends the stream sentinel.
func (o *Orchestrator) Run(ctx context.Context, imageRef string, sink Sink) (*ConsolidatedResult, error) {
	r := &run{
		o:       o,
		session: NewSession(imageRef),
		sink:    sink,
		client:  ctx,
	}

	runCtx := ctx
	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}
	runCtx, span := o.tracer.Start(runCtx, "diagnosis.run",
		trace.WithAttributes(attribute.String("diagnosis.session_id", r.session.ID.String())))
	defer span.End()

	result, err := r.execute(runCtx)

	outcome := OutcomeComplete
	switch {
	case errors.Is(err, ErrClientGone):
		outcome = OutcomeClientGone
	case err != nil:
		outcome = OutcomeError
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.metrics.SessionFinished(outcome, time.Since(r.session.StartedAt))
	o.logger.Info(logModule, "Diagnosis finished", map[string]interface{}{
		"session": r.session.ID.String(),
		"outcome": string(outcome),
		"stage":   r.session.Stage.String(),
	})
	return result, err
}

// run is the per-request state. Nothing in it is shared between sessions.
type run struct {
	o       *Orchestrator
	session *Session
	sink    Sink
	client  context.Context
	seq     int

	stageStarted time.Time
	stageSpan    trace.Span
}

func (r *run) details(kv ...interface{}) map[string]interface{} {
	d := map[string]interface{}{"session": r.session.ID.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		d[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return d
}

// enter closes the current stage and starts the next one.
func (r *run) enter(ctx context.Context, next Stage) (context.Context, error) {
	r.leave()
	if err := r.session.Advance(next); err != nil {
		return ctx, err
	}
	r.o.logger.Debug(logModule, "Stage advanced", r.details("stage", next.String()))
	r.stageStarted = time.Now()
	ctx, r.stageSpan = r.o.tracer.Start(ctx, "diagnosis."+next.String())
	return ctx, nil
}

func (r *run) leave() {
	if r.stageSpan == nil {
		return
	}
	r.stageSpan.End()
	r.o.metrics.ObserveStage(r.session.Stage, time.Since(r.stageStarted))
	r.stageSpan = nil
}

func (r *run) emit(t EventType, p Payload) error {
	if r.client.Err() != nil {
		return ErrClientGone
	}
	r.seq++
	if err := r.sink.Send(Event{Type: t, Payload: p, Seq: r.seq}); err != nil {
		return fmt.Errorf("%w: %v", ErrClientGone, err)
	}
	return nil
}

func (r *run) progress(t EventType, p Payload) error {
	if !r.o.cfg.EmitProgress {
		return nil
	}
	return r.emit(t, p)
}

// fail sends the terminal error event for a hard failure.
func (r *run) fail(cause error, message string) error {
	r.leave()
	_ = r.session.Advance(StageError)
	r.o.logger.Warn(logModule, "Diagnosis failed", r.details("error", cause.Error()))
	if err := r.emit(EventError, ErrorPayload{Error: message}); err != nil {
		return err
	}
	return cause
}

func (r *run) execute(ctx context.Context) (*ConsolidatedResult, error) {
	defer r.leave()

	// Validating
	if _, err := r.enter(ctx, StageValidating); err != nil {
		return nil, err
	}
	if err := ValidateImageRef(r.session.ImageRef); err != nil {
		return nil, r.fail(err, ErrInvalidImage.Error())
	}
	if err := r.emit(EventConnected, MessagePayload{Message: "Đã nhận ảnh, bắt đầu chẩn đoán"}); err != nil {
		return nil, err
	}

	// Identifying
	stageCtx, err := r.enter(ctx, StageIdentifying)
	if err != nil {
		return nil, err
	}
	if err := r.progress(EventProcessing, MessagePayload{Message: "Đang xử lý ảnh"}); err != nil {
		return nil, err
	}
	if err := r.progress(EventPlantID, MessagePayload{Message: "Đang nhận dạng cây trồng"}); err != nil {
		return nil, err
	}
	ident, err := r.identify(stageCtx)
	if err != nil {
		return nil, err
	}
	plant := *ident.Plant
	if err := r.emit(EventPlantIdentified, PlantIdentifiedPayload{
		Plant:   plant,
		Message: fmt.Sprintf("Đã nhận dạng: %s (%d%%)", plant.CommonName, percent(plant.Confidence)),
	}); err != nil {
		return nil, err
	}

	result := &ConsolidatedResult{
		SessionID: r.session.ID.String(),
		ImageURL:  r.session.ImageRef,
		Plant:     &plant,
		StartedAt: r.session.StartedAt,
	}

	// DiseaseScan
	if _, err := r.enter(ctx, StageDiseaseScan); err != nil {
		return nil, err
	}
	if err := r.progress(EventDiseaseFound, DiseaseFoundPayload{Message: "Đang kiểm tra dấu hiệu bệnh"}); err != nil {
		return nil, err
	}
	findings := ScanDiseases(ident.Diseases, r.o.cfg.MinDiseaseConfidence, r.o.cfg.MaxDiseases)
	for i := range findings {
		f := findings[i]
		if err := r.emit(EventDiseaseFound, DiseaseFoundPayload{
			Disease: &f,
			Message: fmt.Sprintf("Phát hiện bệnh: %s (%d%%)", f.Name, percent(f.Confidence)),
		}); err != nil {
			return nil, err
		}
	}
	result.Diseases = findings
	result.Healthy = len(findings) == 0

	// TreatmentLookup
	stageCtx, err = r.enter(ctx, StageTreatmentLookup)
	if err != nil {
		return nil, err
	}
	var req advisory.Request
	var practices []treatment.CulturalItem
	if result.Healthy {
		practices = r.lookupGeneral(stageCtx, plant.CommonName)
		result.Treatments.AddCultural(GeneralKey, practices)
		req = advisory.Request{Confidence: plant.Confidence, Plant: plant.CommonName, Set: treatment.Set{Cultural: practices}}
	} else {
		for i, f := range findings {
			set, err := r.lookupDisease(stageCtx, f.Name, plant.CommonName, &result.Treatments)
			if err != nil {
				return nil, err
			}
			// findings are sorted, the first one dominates the advisory
			if i == 0 {
				practices = set.Cultural
				req = advisory.Request{Disease: f.Name, Confidence: f.Confidence, Plant: plant.CommonName, Set: set}
			}
		}
	}

	// Advisory
	stageCtx, err = r.enter(ctx, StageAdvisory)
	if err != nil {
		return nil, err
	}
	text := r.synthesize(stageCtx, req)
	result.Advisory = text
	result.Severity = text.Severity
	if err := r.emit(EventCare, CarePayload{
		Care:    Care{Advisory: text, Practices: practices},
		Message: "Hướng dẫn chăm sóc",
	}); err != nil {
		return nil, err
	}

	// Finalizing
	if _, err := r.enter(ctx, StageFinalizing); err != nil {
		return nil, err
	}
	result.CompletedAt = time.Now()
	if err := r.emit(EventComplete, CompletePayload{Result: *result}); err != nil {
		return nil, err
	}
	r.leave()
	if err := r.session.Advance(StageComplete); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *run) identify(ctx context.Context) (*plantid.Identification, error) {
	if r.o.cfg.IdentifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.o.cfg.IdentifyTimeout)
		defer cancel()
	}

	ident, err := r.o.identifier.Identify(ctx, r.session.ImageRef)
	if r.client.Err() != nil {
		return nil, ErrClientGone
	}
	if err != nil {
		message := ErrIdentification.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = "identification timed out"
		}
		return nil, r.fail(fmt.Errorf("%w: %v", ErrIdentification, err), message)
	}
	if ident == nil || ident.Plant == nil {
		return nil, r.fail(ErrUnidentified, ErrUnidentified.Error())
	}
	return ident, nil
}

func (r *run) lookupGeneral(ctx context.Context, plant string) []treatment.CulturalItem {
	practices, err := r.o.treatments.LookupCultural(ctx, plant)
	if err != nil {
		r.o.metrics.LegDegraded("cultural")
		r.o.logger.Warn(logModule, "Cultural lookup degraded", r.details("plant", plant, "error", err.Error()))
		return nil
	}
	return practices
}

// lookupDisease runs the three legs for one disease and emits them in fixed
// order whatever order they completed in.
func (r *run) lookupDisease(ctx context.Context, disease, plant string, into *Treatments) (treatment.Set, error) {
	set, legErrs := r.o.treatments.Lookup(ctx, disease, plant)
	for _, leg := range []struct {
		category string
		err      error
	}{
		{"chemical", legErrs.Chemical},
		{"biological", legErrs.Biological},
		{"cultural", legErrs.Cultural},
	} {
		if leg.err != nil {
			r.o.metrics.LegDegraded(leg.category)
			r.o.logger.Warn(logModule, "Treatment leg degraded", r.details("disease", disease, "category", leg.category, "error", leg.err.Error()))
		}
	}

	if legErrs.Chemical == nil {
		into.AddChemical(disease, set.Chemical)
	}
	if legErrs.Biological == nil {
		into.AddBiological(disease, set.Biological)
	}
	if legErrs.Cultural == nil {
		into.AddCultural(disease, set.Cultural)
	}

	if err := r.emit(EventTreatmentsChemical, ChemicalTreatmentsPayload{
		Disease:    disease,
		Treatments: nonNil(set.Chemical),
		Message:    fmt.Sprintf("Tìm thấy %d thuốc hóa học cho %s", len(set.Chemical), disease),
	}); err != nil {
		return set, err
	}
	if err := r.emit(EventTreatmentsBiological, BiologicalTreatmentsPayload{
		Disease:    disease,
		Treatments: nonNil(set.Biological),
		Message:    fmt.Sprintf("Tìm thấy %d biện pháp sinh học cho %s", len(set.Biological), disease),
	}); err != nil {
		return set, err
	}
	if err := r.emit(EventTreatmentsCultural, CulturalTreatmentsPayload{
		Disease:    disease,
		Treatments: nonNil(set.Cultural),
		Message:    fmt.Sprintf("Tìm thấy %d biện pháp canh tác", len(set.Cultural)),
	}); err != nil {
		return set, err
	}
	return set, nil
}

func (r *run) synthesize(ctx context.Context, req advisory.Request) advisory.Text {
	if r.o.synthesizer != nil {
		text, err := r.o.synthesizer.Synthesize(ctx, req)
		if err == nil {
			return text
		}
		r.o.logger.Warn(logModule, "Advisory fallback", r.details("error", err.Error()))
	}
	r.o.metrics.AdvisoryFallback()
	return advisory.Fallback(req)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func percent(confidence float64) int {
	return int(confidence*100 + 0.5)
}
