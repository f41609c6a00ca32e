package models

// InsertResult результат вставки записи.
type InsertResult struct {
	InsertedID string `json:"inserted_id"`
}

// UpdateResult результат upsert-обновления.
type UpdateResult struct {
	Matched  int64 `json:"matched_count"`
	Modified int64 `json:"modified_count"`
	Upserted bool  `json:"upserted"`
}

// DeleteResult результат удаления. DeletedCount == 0 для несуществующей записи.
type DeleteResult struct {
	DeletedCount int64 `json:"deleted_count"`
}
