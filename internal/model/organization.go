package model

type Organization struct {
	Base
	Name     string `gorm:"column:name;size:200;uniqueIndex;not null"`
	Type     string `gorm:"column:type;size:100"`
	IsActive bool   `gorm:"column:is_active;default:true;not null"`
	Members  []User `gorm:"many2many:user_organizations;"`
}
