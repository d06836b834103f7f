package fakers

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/shopspring/decimal"
)

var hardwareNames = []string{
	"Common Wire Nail",
	"Concrete Nail",
	"Tie Wire",
	"Marine Plywood",
	"Portland Cement",
	"PVC Pipe",
	"Angle Bar",
	"Deformed Bar",
	"Wood Screw",
	"Hacksaw Blade",
}

// ProductFaker builds a hardware product with a pcs variant and a box
// variant that auto-converts from it.
func ProductFaker(category *models.Category) *models.Product {
	name := hardwareNames[rand.Intn(len(hardwareNames))]
	productID := uuid.New().String()

	pieceVariant := models.ProductVariant{
		ID:        uuid.New().String(),
		ProductID: productID,
		Unit:      models.UnitPcs,
		Size:      fakeSize(),
		Price:     decimal.NewFromInt(int64(rand.Intn(200) + 5)),
		Quantity:  rand.Intn(50),
	}

	boxVariant := models.ProductVariant{
		ID:                 uuid.New().String(),
		ProductID:          productID,
		Unit:               models.UnitBox,
		Size:               pieceVariant.Size,
		Price:              pieceVariant.Price.Mul(decimal.NewFromInt(100)),
		Quantity:           rand.Intn(10),
		AutoConvert:        false,
		ConversionQuantity: 1,
	}

	// The piece variant draws derived stock from unbroken boxes.
	pieceVariant.AutoConvert = true
	pieceVariant.ConversionSourceID = &boxVariant.ID
	pieceVariant.ConversionQuantity = 100

	return &models.Product{
		ID:          productID,
		Name:        name,
		Slug:        slug.Make(name + "-" + uuid.NewString()[:6]),
		Description: "Stocked hardware item for retail and reservation.",
		CategoryID:  category.ID,
		Variants:    []models.ProductVariant{boxVariant, pieceVariant},
	}
}

func fakeSize() string {
	sizes := []string{"1\"", "1 1/2\"", "2\"", "3\"", "4\"", "#16", "10mm", "12mm"}
	return sizes[rand.Intn(len(sizes))]
}
