package models

import "time"

// File is an object in the platform's storage bucket.
type File struct {
	ID           string    `json:"$id"`
	BucketID     string    `json:"bucketId"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	SizeOriginal int64     `json:"sizeOriginal"`
	CreatedAt    time.Time `json:"$createdAt"`
}

// UploadedImage is a stored file together with its derived preview URL.
type UploadedImage struct {
	FileID string `json:"imageId"`
	URL    string `json:"imageUrl"`
}

// Orphan statuses.
const (
	OrphanPending  = "pending"
	OrphanResolved = "resolved"
	OrphanFailed   = "failed"
)

// OrphanedFile is a ledger row for an uploaded file whose compensating delete
// failed. The sweeper retries these out of band.
type OrphanedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FileID    string    `gorm:"not null;uniqueIndex" json:"file_id"`
	BucketID  string    `gorm:"not null" json:"bucket_id"`
	Reason    string    `gorm:"type:text" json:"reason"`
	LastError string    `gorm:"type:text" json:"last_error"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	Status    string    `gorm:"not null;index;default:pending" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
