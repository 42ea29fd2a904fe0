package model

// DocumentSequenceModel holds the per-scope counters backing human document
// codes (kode_mr, kode_po). Counters only ever grow; a consumed value is
// never handed out again even when document creation fails afterwards.
type DocumentSequenceModel struct {
	Scope string `gorm:"primaryKey;type:varchar(64)"` // e.g. "mr:LOG-JKT", "po:JKT"
	Value int64  `gorm:"not null;default:0"`
}

// TableName sets the table name.
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
