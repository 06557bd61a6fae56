package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"plant-doctor-be/internal/dto"
	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/model"
	"plant-doctor-be/internal/pkg/logger"
	"plant-doctor-be/internal/repository/memory"
	"plant-doctor-be/internal/repository/specification"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/pkg/advisory"
	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/events"
	"plant-doctor-be/pkg/llm"
	"plant-doctor-be/pkg/plantid"
	"plant-doctor-be/pkg/treatment"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.ChemicalProduct{},
		&model.BiologicalMethod{},
		&model.CulturalPractice{},
		&model.DiagnosisRecord{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return unitofwork.NewRepositoryFactory(db)
}

func seedKnowledge(t *testing.T, f unitofwork.RepositoryFactory) {
	t.Helper()
	ctx := context.Background()
	uow := f.NewUnitOfWork(ctx)

	chemicals := []*entity.ChemicalProduct{
		{Name: "Anvil 5SC", TargetDiseases: []string{"Đốm lá", "Thán thư"}, TargetPlants: []string{"Cà chua"}, Dosage: "20ml/16L", PreHarvestDays: 7, IsVerified: true},
		{Name: "Ridomil Gold", TargetDiseases: []string{"Thối rễ"}, Dosage: "50g/16L", IsVerified: true},
		{Name: "Chưa duyệt", TargetDiseases: []string{"Khảm lá"}, IsVerified: false},
	}
	for _, c := range chemicals {
		require.NoError(t, uow.ChemicalProductRepository().Create(ctx, c))
	}

	biologicals := []*entity.BiologicalMethod{
		{Name: "Trichoderma", Agent: "Trichoderma spp.", TargetDiseases: []string{"Thối rễ", "Đốm lá"}, Effectiveness: "Cao", Timeframe: "7-10 ngày", IsVerified: true},
	}
	for _, b := range biologicals {
		require.NoError(t, uow.BiologicalMethodRepository().Create(ctx, b))
	}

	practices := []*entity.CulturalPractice{
		{Title: "Luân canh", Priority: treatment.PriorityMedium, IsVerified: true},
		{Title: "Tỉa lá gốc", PlantName: "Cà chua", Priority: treatment.PriorityHigh, IsVerified: true},
	}
	for _, p := range practices {
		require.NoError(t, uow.CulturalPracticeRepository().Create(ctx, p))
	}
}

func TestKnowledgeService_SuggestDiseases(t *testing.T) {
	f := newFactory(t)
	seedKnowledge(t, f)
	svc := NewKnowledgeService(f, treatment.NewAggregator(NewKnowledgeStore(f)), memory.NewNameCache(time.Minute))
	ctx := context.Background()

	res, err := svc.SuggestDiseases(ctx, "dom")
	require.NoError(t, err)
	require.NotEmpty(t, res.Diseases)
	assert.Equal(t, "Đốm lá", res.Diseases[0])

	res, err = svc.SuggestDiseases(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Đốm lá", "Thán thư", "Thối rễ"}, res.Diseases, "unverified names are never suggested")

	// names are cached, so a new entry shows up only after expiry
	uow := f.NewUnitOfWork(ctx)
	require.NoError(t, uow.ChemicalProductRepository().Create(ctx, &entity.ChemicalProduct{Name: "Kasumin", TargetDiseases: []string{"Đạo ôn"}, IsVerified: true}))
	res, err = svc.SuggestDiseases(ctx, "dao on")
	require.NoError(t, err)
	assert.Empty(t, res.Diseases)
}

func TestKnowledgeService_LookupTreatments(t *testing.T) {
	f := newFactory(t)
	seedKnowledge(t, f)
	svc := NewKnowledgeService(f, treatment.NewAggregator(NewKnowledgeStore(f)), memory.NewNameCache(time.Minute))

	res, err := svc.LookupTreatments(context.Background(), &dto.TreatmentLookupRequest{Disease: "Đốm lá", Plant: "Cà chua"})
	require.NoError(t, err)

	require.Len(t, res.Treatments.Chemical, 1)
	assert.Equal(t, "Anvil 5SC", res.Treatments.Chemical[0].Name)
	require.Len(t, res.Treatments.Biological, 1)
	assert.Equal(t, "Trichoderma", res.Treatments.Biological[0].Name)
	require.Len(t, res.Treatments.Cultural, 2)
	assert.Equal(t, "Tỉa lá gốc", res.Treatments.Cultural[0].Name, "high priority first")

	res, err = svc.LookupTreatments(context.Background(), &dto.TreatmentLookupRequest{Plant: "Lúa"})
	require.NoError(t, err)
	assert.Empty(t, res.Treatments.Chemical)
	assert.Empty(t, res.Treatments.Biological)
	require.Len(t, res.Treatments.Cultural, 1)
	assert.Equal(t, "Luân canh", res.Treatments.Cultural[0].Name)
}

func TestItemCatalog_VerifiedNames(t *testing.T) {
	f := newFactory(t)
	seedKnowledge(t, f)
	catalog := NewItemCatalog(f, memory.NewNameCache(time.Minute))
	ctx := context.Background()

	names, err := catalog.ItemNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anvil 5SC", "Ridomil Gold", "Trichoderma"}, names)

	uow := f.NewUnitOfWork(ctx)
	require.NoError(t, uow.ChemicalProductRepository().Create(ctx, &entity.ChemicalProduct{Name: "Kasumin", TargetDiseases: []string{"Đạo ôn"}, IsVerified: true}))
	names, err = catalog.ItemNames(ctx)
	require.NoError(t, err)
	assert.NotContains(t, names, "Kasumin", "served from cache")
}

func TestItemCatalog_RejectsUnmarkedUnretrievedProduct(t *testing.T) {
	f := newFactory(t)
	seedKnowledge(t, f)
	provider := &replyLLM{reply: "Phun [[Anvil 5SC]] ngay, sau đó dùng thuốc Ridomil Gold mỗi tuần."}
	synth := advisory.NewSynthesizer(provider, time.Second, advisory.WithCatalog(NewItemCatalog(f, memory.NewNameCache(time.Minute))))

	set := treatment.Set{Chemical: []treatment.ChemicalItem{{Name: "Anvil 5SC"}}}
	_, err := synth.Synthesize(context.Background(), advisory.Request{Disease: "Đốm lá", Confidence: 0.9, Plant: "Cà chua", Set: set})
	assert.ErrorIs(t, err, advisory.ErrUngrounded)
}

type replyLLM struct {
	reply string
}

func (r *replyLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return r.reply, nil
}

func (r *replyLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return r.reply, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingEvents) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func sampleResult() diagnosis.ConsolidatedResult {
	return diagnosis.ConsolidatedResult{
		SessionID: uuid.NewString(),
		ImageURL:  "https://example.com/leaf.jpg",
		Plant:     plantid.NewCandidate("Cà chua", "Solanum lycopersicum", 0.92),
		Diseases:  []plantid.DiseaseFinding{plantid.NewFinding("Đốm lá", 0.7, "")},
		Severity:  advisory.SeveritySevere,
		StartedAt: time.Now(),
	}
}

func newConsumer(t *testing.T, f unitofwork.RepositoryFactory, ev EventPublisher) (*consumerService, *gochannel.GoChannel) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	cs := NewConsumerService(pubSub, "DIAGNOSIS_RESULT", f, ev, logger.NewNopLogger()).(*consumerService)
	return cs, pubSub
}

func TestConsumerService_StoresOnce(t *testing.T) {
	f := newFactory(t)
	bus := &recordingEvents{}
	cs, _ := newConsumer(t, f, bus)
	ctx := context.Background()

	userID := uuid.New()
	result := sampleResult()
	payload, err := json.Marshal(dto.PublishDiagnosisResultMessage{UserId: &userID, Result: result})
	require.NoError(t, err)

	require.NoError(t, cs.store(ctx, payload))
	require.NoError(t, cs.store(ctx, payload), "redelivery is harmless")

	uow := f.NewUnitOfWork(ctx)
	records, err := uow.DiagnosisRecordRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cà chua", records[0].PlantName)
	assert.Equal(t, []string{"Đốm lá"}, records[0].DiseaseNames)
	assert.Equal(t, "severe", records[0].Severity)

	var stored diagnosis.ConsolidatedResult
	require.NoError(t, json.Unmarshal(records[0].Result, &stored))
	assert.Equal(t, result.SessionID, stored.SessionID)

	require.Equal(t, 1, bus.count())
	assert.Equal(t, events.DiagnosisCompleted, bus.events[0].EventType())
	assert.Equal(t, userID.String(), bus.events[0].Payload()["user_id"])
}

func TestConsumerService_Malformed(t *testing.T) {
	cs, _ := newConsumer(t, newFactory(t), nil)

	err := cs.store(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, errMalformedResult)

	payload, _ := json.Marshal(dto.PublishDiagnosisResultMessage{Result: diagnosis.ConsolidatedResult{SessionID: "nope"}})
	err = cs.store(context.Background(), payload)
	assert.ErrorIs(t, err, errMalformedResult)
}

func TestConsumerService_EventFailureKeepsRecord(t *testing.T) {
	f := newFactory(t)
	cs, _ := newConsumer(t, f, &recordingEvents{err: errors.New("nats down")})

	result := sampleResult()
	payload, _ := json.Marshal(dto.PublishDiagnosisResultMessage{Result: result})
	require.NoError(t, cs.store(context.Background(), payload))

	uow := f.NewUnitOfWork(context.Background())
	n, err := uow.DiagnosisRecordRepository().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPublishConsumeRoundTrip(t *testing.T) {
	f := newFactory(t)
	bus := &recordingEvents{}
	cs, pubSub := newConsumer(t, f, bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, cs.Consume(ctx))
	pub := NewPublisherService("DIAGNOSIS_RESULT", pubSub)
	require.NoError(t, pub.SendMessage(ctx, dto.PublishDiagnosisResultMessage{Result: sampleResult()}))

	assert.Eventually(t, func() bool { return bus.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

type fakeRunner struct {
	result *diagnosis.ConsolidatedResult
	err    error
}

func (r fakeRunner) Run(context.Context, string, diagnosis.Sink) (*diagnosis.ConsolidatedResult, error) {
	return r.result, r.err
}

type recordingPublisher struct {
	messages []interface{}
	ctxErr   error
}

func (p *recordingPublisher) SendMessage(ctx context.Context, payload interface{}) error {
	p.ctxErr = ctx.Err()
	p.messages = append(p.messages, payload)
	return nil
}

func TestDiagnosisService_Stream(t *testing.T) {
	result := sampleResult()
	userID := uuid.New()

	t.Run("completed result is handed off even after the client left", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := NewDiagnosisService(fakeRunner{result: &result}, pub, logger.NewNopLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, svc.Stream(ctx, &userID, result.ImageURL, diagnosis.SinkFunc(func(diagnosis.Event) error { return nil })))
		require.Len(t, pub.messages, 1)
		assert.NoError(t, pub.ctxErr)
		msg := pub.messages[0].(dto.PublishDiagnosisResultMessage)
		assert.Equal(t, &userID, msg.UserId)
		assert.Equal(t, result.SessionID, msg.Result.SessionID)
	})

	t.Run("failed run publishes nothing", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := NewDiagnosisService(fakeRunner{err: diagnosis.ErrUnidentified}, pub, logger.NewNopLogger())

		err := svc.Stream(context.Background(), nil, "https://example.com/rock.jpg", diagnosis.SinkFunc(func(diagnosis.Event) error { return nil }))
		assert.ErrorIs(t, err, diagnosis.ErrUnidentified)
		assert.Empty(t, pub.messages)
	})
}

func TestHistoryService(t *testing.T) {
	f := newFactory(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	uow := f.NewUnitOfWork(ctx)
	var ownedIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		r := &entity.DiagnosisRecord{UserId: &owner, SessionId: uuid.New(), ImageUrl: "https://example.com/a.jpg", PlantName: "Lúa", Result: []byte(`{"healthy":true}`), Healthy: true}
		require.NoError(t, uow.DiagnosisRecordRepository().Create(ctx, r))
		ownedIDs = append(ownedIDs, r.Id)
	}
	foreign := &entity.DiagnosisRecord{UserId: &other, SessionId: uuid.New(), ImageUrl: "https://example.com/b.jpg", Result: []byte(`{}`)}
	require.NoError(t, uow.DiagnosisRecordRepository().Create(ctx, foreign))

	svc := NewHistoryService(f)

	page, err := svc.List(ctx, owner, &dto.DiagnosisHistoryRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, []string{}, page.Items[0].DiseaseNames)

	page, err = svc.List(ctx, owner, &dto.DiagnosisHistoryRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	detail, err := svc.Show(ctx, owner, ownedIDs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"healthy":true}`, string(detail.Result))

	_, err = svc.Show(ctx, owner, foreign.Id)
	assert.ErrorIs(t, err, ErrDiagnosisNotFound)
}
