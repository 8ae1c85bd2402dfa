package dto

// UploadResult описание загруженного файла
type UploadResult struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}
