package config

import (
	"context"
	"log"
	"time"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"
	"posdesk/internal/pkg/password"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db       *gorm.DB
	cfg      SeedConfig
	location *time.Location
	now      func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg SeedConfig, location *time.Location) *Seeder {
	if location == nil {
		location = time.Local
	}
	return &Seeder{db: db, cfg: cfg, location: location, now: time.Now}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if s.cfg.DemoData {
		if err := s.seedDemoLoans(); err != nil {
			log.Printf("⚠️ Demo loan seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first administrator when no admin exists.
// Nothing is created without ADMIN_PASSWORD.
func (s *Seeder) seedAdminUser() error {
	ctx := context.Background()
	users := repositories.NewUserRepository(s.db)

	count, err := users.CountByRole(ctx, string(domain.RoleAdmin))
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.cfg.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: ADMIN_PASSWORD is not set")
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    s.cfg.AdminEmail,
		FullName: "Administrator",
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}

type demoLoan struct {
	name    string
	phone   string
	amount  int64
	dueIn   int
	onTimes []bool
}

// seedDemoLoans creates customers whose loans hit every reminder category
// on the day they are seeded. Skipped once any customer exists.
func (s *Seeder) seedDemoLoans() error {
	var count int64
	if err := s.db.Model(&models.Customer{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	today := domain.StartOfDay(s.now().In(s.location))
	demos := []demoLoan{
		{name: "Ana Reyes", phone: "+639171234567", amount: 1200, dueIn: domain.BeforeDueOffset, onTimes: []bool{true, true, true}},
		{name: "Ben Cruz", phone: "+639181234567", amount: 450, dueIn: 0, onTimes: []bool{true, false, true}},
		{name: "Carla Santos", phone: "+639191234567", amount: 800, dueIn: -3, onTimes: []bool{false, false}},
		{name: "Dan Lim", phone: "+639201234567", amount: 300, dueIn: 10},
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, d := range demos {
			history := make([]domain.PaymentRecord, 0, len(d.onTimes))
			for i, onTime := range d.onTimes {
				history = append(history, domain.PaymentRecord{
					PaidAt: today.AddDate(0, -(len(d.onTimes) - i), 0),
					Amount: "100.00",
					OnTime: onTime,
				})
			}
			customer := &models.Customer{
				Name:  d.name,
				Phone: d.phone,
				RepaymentBehavior: datatypes.NewJSONType(domain.RepaymentBehavior{
					RiskLevel:      domain.AssessRisk(history).Level,
					PaymentHistory: history,
				}),
			}
			if err := tx.Create(customer).Error; err != nil {
				return err
			}

			status := domain.LoanStatusActive
			if d.dueIn < 0 {
				status = domain.LoanStatusOverdue
			}
			loan := &models.Loan{
				CustomerID:  customer.ID,
				TotalAmount: decimal.NewFromInt(d.amount),
				PaidAmount:  decimal.Zero,
				DueDate:     today.AddDate(0, 0, d.dueIn),
				Status:      status,
			}
			loan.RecomputeBalance()
			if err := tx.Create(loan).Error; err != nil {
				return err
			}
		}
		log.Printf("✅ Demo loans created: %d customers", len(demos))
		return nil
	})
}
