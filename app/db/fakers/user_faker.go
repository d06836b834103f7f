package fakers

import (
	"log"

	"github.com/go-faker/faker/v4"
	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"gorm.io/gorm"
)

func UserFaker(db *gorm.DB, role string) *models.User {
	password, err := helpers.HashPassword("password")
	if err != nil {
		log.Fatal("Failed to hash seed password:", err)
	}

	return &models.User{
		FirstName: faker.FirstName(),
		LastName:  faker.LastName(),
		Email:     faker.Email(),
		Password:  password,
		Phone:     faker.Phonenumber(),
		Role:      role,
	}
}
