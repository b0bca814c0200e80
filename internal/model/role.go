package model

type Role struct {
	Base
	Name string `gorm:"column:name;size:100;uniqueIndex;not null"`
}
