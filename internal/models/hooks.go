package models

import (
	"gomall/internal/events"

	"gorm.io/gorm"
)

func (o *Order) AfterCreate(tx *gorm.DB) error {
	events.Emit(events.OrderCreated, o)
	return nil
}

func (u *User) AfterCreate(tx *gorm.DB) error {
	events.Emit(events.UserRegistered, u)
	return nil
}
