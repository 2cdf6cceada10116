package domain

// RawListingItem 是从列表页某个 listing 容器里按位置抽取出的一条原始记录（未规范化）。
//
// 约束：
// - 五个字段必须全部存在且可解析；缺任何一个都视为 malformed（由 extractor 直接报错，不产出半条记录）
// - 只在 extract -> normalize 之间短暂存在，不落盘
type RawListingItem struct {
	RawTitle    string  // 可能带排名前缀，例如 "1. The Shawshank Redemption"
	ReleaseYear int     // 例如 1994
	RawLength   string  // 自由文本时长，例如 "2h 22m"
	ContentKind string  // 站点自定义分级标签，例如 "13+"、"PG"、"R"
	RatingValue float64 // 例如 9.3
}
