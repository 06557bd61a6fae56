package implementation

import (
	"context"
	"testing"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/model"
	"plant-doctor-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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
	return db
}

func TestChemicalProductRepository_KeywordMatch(t *testing.T) {
	ctx := context.Background()
	repo := NewChemicalProductRepository(newTestDB(t))

	seed := []*entity.ChemicalProduct{
		{Name: "Anvil 5SC", TargetDiseases: []string{"Đốm lá", "Thán thư"}, TargetPlants: []string{"Cà chua"}, Dosage: "20ml/16L", IsVerified: true},
		{Name: "Ridomil Gold", TargetDiseases: []string{"Thối rễ"}, Dosage: "50g/16L", IsVerified: true},
		{Name: "Unreviewed", TargetDiseases: []string{"Đốm lá"}, IsVerified: false},
	}
	for _, p := range seed {
		require.NoError(t, repo.Create(ctx, p))
		assert.NotEqual(t, uuid.Nil, p.Id)
	}

	found, err := repo.FindAll(ctx,
		specification.Verified{},
		specification.KeywordMatch{Columns: []string{"target_diseases"}, Terms: []string{"đốm lá"}},
	)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Anvil 5SC", found[0].Name)
	assert.Equal(t, []string{"Đốm lá", "Thán thư"}, found[0].TargetDiseases)

	// Diacritic-free input still reaches the normalized search column.
	found, err = repo.FindAll(ctx,
		specification.Verified{},
		specification.KeywordMatch{Columns: []string{"target_diseases"}, Terms: []string{"thoi re"}},
	)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ridomil Gold", found[0].Name)

	found, err = repo.FindAll(ctx,
		specification.Verified{},
		specification.KeywordMatch{Columns: []string{"target_diseases"}, Terms: []string{"gỉ sắt"}},
	)
	require.NoError(t, err)
	assert.Empty(t, found)

	count, err := repo.Count(ctx, specification.Verified{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	names, err := repo.DistinctTargetDiseases(ctx, specification.Verified{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Đốm lá", "Thán thư", "Thối rễ"}, names)

	names, err = repo.DistinctNames(ctx, specification.Verified{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anvil 5SC", "Ridomil Gold"}, names)
}

func TestBiologicalMethodRepository_VerifiedOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewBiologicalMethodRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &entity.BiologicalMethod{
		Name: "Trichoderma", Agent: "Trichoderma harzianum", TargetDiseases: []string{"Thối rễ"},
		Effectiveness: "Cao", Timeframe: "7-10 ngày", IsVerified: true,
	}))
	require.NoError(t, repo.Create(ctx, &entity.BiologicalMethod{
		Name: "Draft", TargetDiseases: []string{"Thối rễ"},
	}))

	found, err := repo.FindAll(ctx,
		specification.Verified{},
		specification.KeywordMatch{Columns: []string{"target_diseases"}, Terms: []string{"Thối rễ"}},
	)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Trichoderma", found[0].Name)
	assert.Equal(t, "7-10 ngày", found[0].Timeframe)

	names, err := repo.DistinctNames(ctx, specification.Verified{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Trichoderma"}, names)
}

func TestCulturalPracticeRepository_ForPlant(t *testing.T) {
	ctx := context.Background()
	repo := NewCulturalPracticeRepository(newTestDB(t))

	for _, p := range []*entity.CulturalPractice{
		{Title: "Tưới nước buổi sáng", Priority: "Medium", IsVerified: true},
		{Title: "Tỉa lá gốc", PlantName: "Cà chua", Priority: "High", IsVerified: true},
		{Title: "Rút nước ruộng", PlantName: "Lúa", Priority: "High", IsVerified: true},
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	found, err := repo.FindAll(ctx, specification.Verified{}, specification.ForPlant{Plant: "Cà chua"})
	require.NoError(t, err)
	titles := make([]string, 0, len(found))
	for _, p := range found {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"Tưới nước buổi sáng", "Tỉa lá gốc"}, titles)

	found, err = repo.FindAll(ctx, specification.Verified{}, specification.ForPlant{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Tưới nước buổi sáng", found[0].Title)
}

func TestCulturalPracticeRepository_ByPriorityBeforeLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewCulturalPracticeRepository(newTestDB(t))

	for _, p := range []*entity.CulturalPractice{
		{Title: "Bón vôi", Priority: "Low", IsVerified: true},
		{Title: "Dọn cỏ", Priority: "Low", IsVerified: true},
		{Title: "Che nắng", Priority: "Medium", IsVerified: true},
		{Title: "Tiêu hủy lá bệnh", Priority: "High", IsVerified: true},
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	found, err := repo.FindAll(ctx,
		specification.Verified{},
		specification.ForPlant{},
		specification.ByPriority{},
		specification.Limit{N: 2},
	)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Tiêu hủy lá bệnh", found[0].Title)
	assert.Equal(t, "Che nắng", found[1].Title)
}

func TestDiagnosisRecordRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDiagnosisRecordRepository(newTestDB(t))

	userId := uuid.New()
	sessionId := uuid.New()
	record := &entity.DiagnosisRecord{
		UserId:       &userId,
		SessionId:    sessionId,
		ImageUrl:     "https://example.com/leaf.jpg",
		PlantName:    "Cà chua",
		DiseaseNames: []string{"Đốm lá"},
		Severity:     "severe",
		Result:       []byte(`{"healthy":false}`),
	}
	require.NoError(t, repo.Create(ctx, record))
	assert.NotEqual(t, uuid.Nil, record.Id)

	got, err := repo.FindOne(ctx, specification.BySession{SessionID: sessionId})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Id, got.Id)
	assert.Equal(t, []string{"Đốm lá"}, got.DiseaseNames)
	assert.JSONEq(t, `{"healthy":false}`, string(got.Result))

	missing, err := repo.FindOne(ctx, specification.BySession{SessionID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := repo.Count(ctx, specification.UserOwnedBy{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Zero(t, count)
}
