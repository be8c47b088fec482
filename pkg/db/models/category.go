package models

// Category groups products for catalog filtering.
type Category struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex:categories_name_key"`
}

func (Category) TableName() string { return "categories" }
