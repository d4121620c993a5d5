package model

// DocumentSequence is a per-prefix counter used for order, payment and trip numbers.
type DocumentSequence struct {
	Prefix    string `gorm:"type:varchar(40);primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
}
