package main

import (
	"context"
	"log"

	"plant-doctor-be/internal/config"
	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Fatalf("Error: Failed to begin transaction: %v", err)
	}
	defer uow.Rollback()

	if n, err := uow.ChemicalProductRepository().Count(ctx); err == nil && n > 0 {
		log.Printf("Knowledge base already has %d chemical products, skipping seed", n)
		return
	}

	log.Println("Seeding chemical products...")
	for _, p := range chemicalProducts() {
		if err := uow.ChemicalProductRepository().Create(ctx, p); err != nil {
			log.Fatalf("Error creating chemical product '%s': %v", p.Name, err)
		}
	}

	log.Println("Seeding biological methods...")
	for _, m := range biologicalMethods() {
		if err := uow.BiologicalMethodRepository().Create(ctx, m); err != nil {
			log.Fatalf("Error creating biological method '%s': %v", m.Name, err)
		}
	}

	log.Println("Seeding cultural practices...")
	for _, p := range culturalPractices() {
		if err := uow.CulturalPracticeRepository().Create(ctx, p); err != nil {
			log.Fatalf("Error creating cultural practice '%s': %v", p.Title, err)
		}
	}

	if err := uow.Commit(); err != nil {
		log.Fatalf("Error: Failed to commit seed: %v", err)
	}
	log.Println("Knowledge seeding completed!")
}

func chemicalProducts() []*entity.ChemicalProduct {
	return []*entity.ChemicalProduct{
		{Name: "Anvil 5SC", ActiveIngredient: "Hexaconazole 5%", TargetDiseases: []string{"Đốm lá", "Thán thư", "Khô vằn"}, TargetPlants: []string{"Cà chua", "Lúa", "Ớt"}, Dosage: "20ml/bình 16L", Usage: "Phun ướt đều hai mặt lá khi bệnh chớm xuất hiện", PreHarvestDays: 7, IsVerified: true},
		{Name: "Ridomil Gold 68WG", ActiveIngredient: "Metalaxyl-M 4% + Mancozeb 64%", TargetDiseases: []string{"Thối rễ", "Sương mai", "Mốc sương"}, TargetPlants: []string{"Cà chua", "Khoai tây", "Sầu riêng"}, Dosage: "50g/bình 16L", Usage: "Phun hoặc tưới gốc, lặp lại sau 7-10 ngày", PreHarvestDays: 7, IsVerified: true},
		{Name: "Kasumin 2SL", ActiveIngredient: "Kasugamycin 2%", TargetDiseases: []string{"Đạo ôn", "Bạc lá", "Thối nhũn"}, TargetPlants: []string{"Lúa", "Bắp cải"}, Dosage: "30ml/bình 16L", Usage: "Phun khi bệnh mới xuất hiện", PreHarvestDays: 7, IsVerified: true},
		{Name: "Score 250EC", ActiveIngredient: "Difenoconazole 250g/l", TargetDiseases: []string{"Đốm lá", "Gỉ sắt", "Phấn trắng"}, Dosage: "10ml/bình 16L", Usage: "Phun định kỳ 10 ngày một lần", PreHarvestDays: 14, IsVerified: true},
		{Name: "Aliette 80WP", ActiveIngredient: "Fosetyl-aluminium 80%", TargetDiseases: []string{"Thối rễ", "Chảy gôm"}, TargetPlants: []string{"Sầu riêng", "Cam"}, Dosage: "40g/bình 16L", Usage: "Tưới gốc hoặc quét vết bệnh", PreHarvestDays: 14, IsVerified: true},
	}
}

func biologicalMethods() []*entity.BiologicalMethod {
	return []*entity.BiologicalMethod{
		{Name: "Trichoderma", Agent: "Trichoderma spp.", TargetDiseases: []string{"Thối rễ", "Héo rũ", "Lở cổ rễ"}, Effectiveness: "Cao", Timeframe: "7-14 ngày", Usage: "Trộn với phân hữu cơ bón quanh gốc", IsVerified: true},
		{Name: "Bacillus subtilis", Agent: "Bacillus subtilis", TargetDiseases: []string{"Đốm lá", "Thán thư", "Phấn trắng"}, Effectiveness: "Trung bình", Timeframe: "5-7 ngày", Usage: "Phun lên lá vào chiều mát", IsVerified: true},
		{Name: "Nấm xanh Metarhizium", Agent: "Metarhizium anisopliae", TargetDiseases: []string{"Rầy nâu"}, TargetPlants: []string{"Lúa"}, Effectiveness: "Cao", Timeframe: "7-10 ngày", Usage: "Phun khi mật độ rầy còn thấp", IsVerified: true},
		{Name: "Pseudomonas fluorescens", Agent: "Pseudomonas fluorescens", TargetDiseases: []string{"Héo xanh", "Bạc lá"}, Effectiveness: "Trung bình", Timeframe: "10-14 ngày", Usage: "Ngâm hạt giống hoặc tưới gốc", IsVerified: true},
	}
}

func culturalPractices() []*entity.CulturalPractice {
	return []*entity.CulturalPractice{
		{Title: "Vệ sinh đồng ruộng", Description: "Thu gom và tiêu hủy tàn dư cây bệnh", Priority: "High", Category: "sanitation", IsVerified: true},
		{Title: "Luân canh cây trồng", Description: "Không trồng cùng họ cây trên một thửa liên tục", Priority: "Medium", Category: "rotation", IsVerified: true},
		{Title: "Tưới nước hợp lý", Description: "Tưới vào gốc, tránh làm ướt lá vào buổi tối", Priority: "Medium", Category: "irrigation", IsVerified: true},
		{Title: "Tỉa lá gốc", Description: "Tỉa bỏ lá già sát mặt đất để thông thoáng", PlantName: "Cà chua", Priority: "High", Category: "pruning", IsVerified: true},
		{Title: "Cắm cọc làm giàn", Description: "Giữ thân và quả không chạm đất", PlantName: "Cà chua", Priority: "Medium", Category: "support", IsVerified: true},
		{Title: "Rút nước phơi ruộng", Description: "Phơi ruộng giữa vụ để hạn chế bệnh và rầy", PlantName: "Lúa", Priority: "High", Category: "irrigation", IsVerified: true},
		{Title: "Bón phân cân đối", Description: "Hạn chế đạm, tăng kali khi cây đang bệnh", Priority: "Low", Category: "nutrition", IsVerified: true},
	}
}
