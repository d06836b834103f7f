package seeders

import (
	"log"

	"github.com/gosimple/slug"
	"github.com/jdlcruz/go-hardwarepos/app/db/fakers"
	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"gorm.io/gorm"
)

var categoryNames = []string{
	"Fasteners",
	"Lumber & Boards",
	"Cement & Aggregates",
	"Steel",
	"Plumbing",
	"Power Tools",
}

func Seed(db *gorm.DB) error {
	staffPassword, err := helpers.HashPassword("password")
	if err != nil {
		return err
	}
	staff := &models.User{
		FirstName: "Store",
		LastName:  "Staff",
		Email:     "staff@hardwarepos.local",
		Password:  staffPassword,
		Role:      models.RoleStaff,
	}
	if err := db.FirstOrCreate(staff, "email = ?", staff.Email).Error; err != nil {
		return err
	}

	customer := fakers.UserFaker(db, models.RoleCustomer)
	if err := db.FirstOrCreate(customer, "email = ?", customer.Email).Error; err != nil {
		return err
	}

	for _, name := range categoryNames {
		category := &models.Category{Name: name, Slug: slug.Make(name)}
		if err := db.FirstOrCreate(category, "slug = ?", category.Slug).Error; err != nil {
			return err
		}

		for i := 0; i < 3; i++ {
			product := fakers.ProductFaker(category)
			if err := db.Create(product).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded category %s with products", name)
	}

	return nil
}
