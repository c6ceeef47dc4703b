package entity

import "time"

type Migration struct {
	Version   int `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}
