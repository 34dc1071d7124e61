package models

// AllModels returns every persisted model in dependency order
func AllModels() []any {
	return []any{
		&LotModel{},
		&StockBatchModel{},
		&SaleTransactionModel{},
		&SaleLineModel{},
		&LegacySaleModel{},
	}
}
