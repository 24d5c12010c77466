package generator

// Document is one model answer and the markup extracted from it.
type Document struct {
	// Raw 模型原始输出，保留用于排查。
	Raw  string
	HTML string
}
