package config

import (
	"log"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/core/domain"
	"medref-portal/internal/pkg/password"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedMasterData seeds the service catalog and the bootstrap admin account
func SeedMasterData(db *gorm.DB) error {
	if err := seedServices(db); err != nil {
		return err
	}

	if err := seedAdminUser(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedServices(db *gorm.DB) error {
	services := []models.Service{
		{
			Name:         "Medical Referral Abroad",
			Description:  "Referral for specialized treatment not available in-country",
			Category:     models.CategoryReferral,
			Requirements: datatypes.JSON(`["Medical report","National ID","Passport copy"]`),
			Fee:          0,
			IsActive:     true,
		},
		{
			Name:         "Specialist Consultation Referral",
			Description:  "Referral to a domestic specialist facility",
			Category:     models.CategoryConsultation,
			Requirements: datatypes.JSON(`["Medical report","National ID"]`),
			Fee:          0,
			IsActive:     true,
		},
		{
			Name:         "Emergency Medical Evacuation",
			Description:  "Urgent transfer for life-threatening conditions",
			Category:     models.CategoryEmergency,
			Requirements: datatypes.JSON(`["Medical report","Attending physician letter"]`),
			Fee:          0,
			IsActive:     true,
		},
		{
			Name:         "Advanced Diagnostic Imaging",
			Description:  "Referral for MRI, CT and other advanced diagnostics",
			Category:     models.CategoryMedical,
			Requirements: datatypes.JSON(`["Physician request form","National ID"]`),
			Fee:          0,
			IsActive:     true,
		},
	}

	for _, svc := range services {
		var existing models.Service
		if err := db.Where("name = ?", svc.Name).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&svc).Error; err != nil {
					return err
				}
				log.Printf("   Created service: %s", svc.Name)
			}
		}
	}
	return nil
}

// seedAdminUser creates the bootstrap admin on first startup. The default
// password must be rotated through the profile endpoints before production use.
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash(getEnv("ADMIN_BOOTSTRAP_PASSWORD", "ChangeMe-2024"))
	if err != nil {
		return err
	}

	admin := models.User{
		FullName: "System Administrator",
		Username: getEnv("ADMIN_BOOTSTRAP_USERNAME", "admin"),
		Email:    getEnv("ADMIN_BOOTSTRAP_EMAIL", "admin@medref.local"),
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("   Created bootstrap admin: %s", admin.Username)
	return nil
}
