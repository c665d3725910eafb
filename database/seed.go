package database

import (
	"fmt"
	"log"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"mygym-server/model"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedGraduationRules(); err != nil {
		return fmt.Errorf("failed to seed graduation rules: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedGraduationRules loads the default promotion rule table when the table
// is empty. Existing rules are never overwritten.
func (s *Seeder) SeedGraduationRules() error {
	var count int64
	if err := s.db.Model(&model.GraduationRule{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Graduation rules already exist, skipping...")
		return nil
	}

	rules := DefaultGraduationRules()
	if err := s.db.Create(&rules).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d graduation rules\n", len(rules))
	return nil
}

func intPtr(v int) *int { return &v }

// DefaultGraduationRules returns the built-in promotion rule table, based on
// the traditional grading systems of each modality.
func DefaultGraduationRules() []model.GraduationRule {
	return []model.GraduationRule{
		// Karate - traditional system
		{Modality: "Karate", FromBelt: "White", ToBelt: "Yellow", MinimumDays: 90, MinimumClasses: intPtr(24),
			AdditionalRequirements: pq.StringArray{"Basic kata", "Dojo etiquette"}},
		{Modality: "Karate", FromBelt: "Yellow", ToBelt: "Orange", MinimumDays: 120, MinimumClasses: intPtr(32),
			AdditionalRequirements: pq.StringArray{"2 basic katas", "Controlled kumite"}},
		{Modality: "Karate", FromBelt: "Orange", ToBelt: "Green", MinimumDays: 150, MinimumClasses: intPtr(40),
			AdditionalRequirements: pq.StringArray{"3 katas", "Self-defense techniques"}},
		{Modality: "Karate", FromBelt: "Green", ToBelt: "Blue", MinimumDays: 180, MinimumClasses: intPtr(48),
			AdditionalRequirements: pq.StringArray{"4 katas", "Basic free kumite"}},
		{Modality: "Karate", FromBelt: "Blue", ToBelt: "Brown", MinimumDays: 240, MinimumClasses: intPtr(64),
			AdditionalRequirements: pq.StringArray{"5 katas", "Teaching basic techniques"}},
		{Modality: "Karate", FromBelt: "Brown", ToBelt: "Black 1st Dan", MinimumDays: 365, MinimumClasses: intPtr(96),
			AdditionalRequirements: pq.StringArray{"All basic katas", "Written exam", "Teaching demonstration"}},

		// Brazilian Jiu-Jitsu - Gracie system
		{Modality: "Jiu-Jitsu", FromBelt: "White", ToBelt: "Blue", MinimumDays: 730, MinimumClasses: intPtr(150),
			AdditionalRequirements: pq.StringArray{"Basic positions", "Fundamental submissions", "Essential escapes"}},
		{Modality: "Jiu-Jitsu", FromBelt: "Blue", ToBelt: "Purple", MinimumDays: 730, MinimumClasses: intPtr(200),
			AdditionalRequirements: pq.StringArray{"Advanced transitions", "Varied guards", "Teaching beginners"}},
		{Modality: "Jiu-Jitsu", FromBelt: "Purple", ToBelt: "Brown", MinimumDays: 548, MinimumClasses: intPtr(150),
			AdditionalRequirements: pq.StringArray{"Complete game", "Competitions", "Assistant instruction"}},
		{Modality: "Jiu-Jitsu", FromBelt: "Brown", ToBelt: "Black", MinimumDays: 365, MinimumClasses: intPtr(100),
			AdditionalRequirements: pq.StringArray{"Complete technical mastery", "Teaching ability", "Rigorous exam"}},

		// Muay Thai - traditional Thai system
		{Modality: "Muay Thai", FromBelt: "White", ToBelt: "Yellow", MinimumDays: 120, MinimumClasses: intPtr(32),
			AdditionalRequirements: pq.StringArray{"Basic stance", "Jab, cross, hook, uppercut", "Basic kicks"}},
		{Modality: "Muay Thai", FromBelt: "Yellow", ToBelt: "Orange", MinimumDays: 150, MinimumClasses: intPtr(40),
			AdditionalRequirements: pq.StringArray{"Basic clinch", "Knee strikes", "Defenses"}},
		{Modality: "Muay Thai", FromBelt: "Orange", ToBelt: "Green", MinimumDays: 180, MinimumClasses: intPtr(48),
			AdditionalRequirements: pq.StringArray{"Advanced combinations", "Controlled sparring", "Conditioning"}},
		{Modality: "Muay Thai", FromBelt: "Green", ToBelt: "Blue", MinimumDays: 240, MinimumClasses: intPtr(64),
			AdditionalRequirements: pq.StringArray{"Advanced clinch techniques", "Free sparring", "Wai Kru Ram Muay"}},
		{Modality: "Muay Thai", FromBelt: "Blue", ToBelt: "Brown", MinimumDays: 300, MinimumClasses: intPtr(80),
			AdditionalRequirements: pq.StringArray{"Complete mastery", "Competitions", "Teaching beginners"}},

		// Judo - Kodokan system
		{Modality: "Judo", FromBelt: "White", ToBelt: "Yellow", MinimumDays: 90, MinimumClasses: intPtr(24),
			AdditionalRequirements: pq.StringArray{"Basic ukemi", "5 standing techniques", "Tatami etiquette"}},
		{Modality: "Judo", FromBelt: "Yellow", ToBelt: "Orange", MinimumDays: 120, MinimumClasses: intPtr(32),
			AdditionalRequirements: pq.StringArray{"10 standing techniques", "Basic pins", "Light randori"}},
		{Modality: "Judo", FromBelt: "Orange", ToBelt: "Green", MinimumDays: 150, MinimumClasses: intPtr(40),
			AdditionalRequirements: pq.StringArray{"15 standing techniques", "Ground techniques", "Basic kata"}},
		{Modality: "Judo", FromBelt: "Green", ToBelt: "Blue", MinimumDays: 180, MinimumClasses: intPtr(48),
			AdditionalRequirements: pq.StringArray{"20 standing techniques", "Chokes", "Active randori"}},
		{Modality: "Judo", FromBelt: "Blue", ToBelt: "Brown", MinimumDays: 240, MinimumClasses: intPtr(64),
			AdditionalRequirements: pq.StringArray{"Nage-no-kata", "Katame-no-kata", "Competitions"}},
		{Modality: "Judo", FromBelt: "Brown", ToBelt: "Black 1st Dan", MinimumDays: 365, MinimumClasses: intPtr(96),
			AdditionalRequirements: pq.StringArray{"All katas", "Rigorous written exam", "Refereeing"}},

		// Taekwondo - WTF system
		{Modality: "Taekwondo", FromBelt: "White", ToBelt: "Yellow", MinimumDays: 60, MinimumClasses: intPtr(16),
			AdditionalRequirements: pq.StringArray{"Basic stances", "Basic kicks", "Poomsae Taegeuk 1"}},
		{Modality: "Taekwondo", FromBelt: "Yellow", ToBelt: "Yellow with green tip", MinimumDays: 90, MinimumClasses: intPtr(24),
			AdditionalRequirements: pq.StringArray{"Mid-level kicks", "Poomsae Taegeuk 2", "Basic breaking"}},
		{Modality: "Taekwondo", FromBelt: "Yellow with green tip", ToBelt: "Green", MinimumDays: 120, MinimumClasses: intPtr(32),
			AdditionalRequirements: pq.StringArray{"High kicks", "Poomsae Taegeuk 3", "Basic sparring"}},
		{Modality: "Taekwondo", FromBelt: "Green", ToBelt: "Green with blue tip", MinimumDays: 150, MinimumClasses: intPtr(40),
			AdditionalRequirements: pq.StringArray{"Jumping kicks", "Poomsae Taegeuk 4", "Self-defense"}},
		{Modality: "Taekwondo", FromBelt: "Green with blue tip", ToBelt: "Blue", MinimumDays: 180, MinimumClasses: intPtr(48),
			AdditionalRequirements: pq.StringArray{"Advanced combinations", "Poomsae Taegeuk 5", "Competition"}},
		{Modality: "Taekwondo", FromBelt: "Blue", ToBelt: "Blue with red tip", MinimumDays: 210, MinimumClasses: intPtr(56),
			AdditionalRequirements: pq.StringArray{"Aerial techniques", "Poomsae Taegeuk 6", "Basic refereeing"}},
		{Modality: "Taekwondo", FromBelt: "Blue with red tip", ToBelt: "Red", MinimumDays: 240, MinimumClasses: intPtr(64),
			AdditionalRequirements: pq.StringArray{"Technical mastery", "Poomsae Taegeuk 7", "Teaching beginners"}},
		{Modality: "Taekwondo", FromBelt: "Red", ToBelt: "Red with black tip", MinimumDays: 270, MinimumClasses: intPtr(72),
			AdditionalRequirements: pq.StringArray{"Special techniques", "Poomsae Taegeuk 8", "Leadership"}},
		{Modality: "Taekwondo", FromBelt: "Red with black tip", ToBelt: "Black 1st Dan", MinimumDays: 300, MinimumClasses: intPtr(80),
			AdditionalRequirements: pq.StringArray{"All poomsaes", "Complete exam", "Teaching demonstration"}},
	}
}
