package models

// ProcedureDocument is metadata for a file kept in the document store.
type ProcedureDocument struct {
	Base
	Title        string `gorm:"size:255;not null" json:"title"`
	Category     string `gorm:"size:100;index" json:"category"`
	FileName     string `gorm:"size:255" json:"file_name"`
	ObjectKey    string `gorm:"size:300;uniqueIndex;not null" json:"-"`
	ContentType  string `gorm:"size:100" json:"content_type"`
	Size         int64  `json:"size"`
	Checksum     string `gorm:"size:64" json:"checksum"`
	UploadedByID uint   `json:"uploaded_by_id"`

	ProcedureID *uint                   `json:"procedure_id"`
	Procedure   *WhistleblowerProcedure `json:"procedure,omitempty"`
}
