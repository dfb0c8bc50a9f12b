package models

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryHome        Category = "Home"
	CategoryCars        Category = "Cars"
)

func Categories() []Category {
	return []Category{CategoryElectronics, CategoryHome, CategoryCars}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryHome, CategoryCars:
		return true
	}
	return false
}

type Product struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Price       float64  `json:"price" yaml:"price" validate:"gte=0"`
	Category    Category `json:"category" yaml:"category" validate:"oneof=Electronics Home Cars"`
	Image       string   `json:"image" yaml:"image"`
	Description string   `json:"description" yaml:"description"`
}
