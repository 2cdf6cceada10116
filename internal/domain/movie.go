package domain

// MovieRecord 是规范化后的唯一输出单元，所有 sink 都消费它。
//
// 约束：
// - 与 RawListingItem 1:1、保序；标题允许重复（由加载时的 0-based 序号区分）
// - 创建后不再修改
//
// JSON 字段名沿用原始表头（Title/Release_Year/...），三个 sink 的列名保持一致。
type MovieRecord struct {
	Title       string  `json:"Title"`
	ReleaseYear int     `json:"Release_Year"`
	Length      string  `json:"Length"` // HH:MM
	Kind        string  `json:"Kind"`
	Rate        float64 `json:"Rate"`
}

// MovieColumns 是 MovieRecord 在表格类 sink（SQL/CSV）中的列顺序。
var MovieColumns = []string{"Title", "Release_Year", "Length", "Kind", "Rate"}
