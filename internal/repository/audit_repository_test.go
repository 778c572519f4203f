package repository_test

import (
	"context"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/repository"
	"smart_lms_analytics/pkg/database"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("AuditRepository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo *repository.AuditRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		// 内存库每个连接独立
		sqlDB.SetMaxOpenConns(1)
		Expect(database.Migrate(db)).To(Succeed())
		repo = repository.NewAuditRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("assigns snowflake ids on create", func() {
		audit := &model.PredictionAudit{StudentID: "S1", RiskLevel: "high", RiskProbability: 0.82, AtRisk: true}
		Expect(repo.Create(ctx, audit)).To(Succeed())
		Expect(audit.ID).NotTo(BeZero())
		Expect(audit.CreatedAt.IsZero()).To(BeFalse())
	})

	It("filters by student and applies the limit", func() {
		for i := 0; i < 3; i++ {
			Expect(repo.Create(ctx, &model.PredictionAudit{StudentID: "S1", RiskLevel: "low", Channel: "single"})).To(Succeed())
		}
		Expect(repo.Create(ctx, &model.PredictionAudit{StudentID: "S2", RiskLevel: "medium", Channel: "batch"})).To(Succeed())

		audits, err := repo.List(ctx, "S1", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(audits).To(HaveLen(2))
		for _, a := range audits {
			Expect(a.StudentID).To(Equal("S1"))
		}

		all, err := repo.List(ctx, "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(4))
	})

	It("returns the newest record first", func() {
		first := &model.PredictionAudit{StudentID: "S3", RiskLevel: "low"}
		second := &model.PredictionAudit{StudentID: "S3", RiskLevel: "high"}
		Expect(repo.Create(ctx, first)).To(Succeed())
		Expect(repo.Create(ctx, second)).To(Succeed())

		audits, err := repo.List(ctx, "S3", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(audits).To(HaveLen(2))
		Expect(audits[0].ID).To(Equal(second.ID))
	})
})
