package models

// UploadResult summarises one stored file of an upload batch.
type UploadResult struct {
	OriginalName string `json:"originalName"`
	Name         string `json:"name"`
	FileID       string `json:"fileId"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FileType     string `json:"fileType"`
	Size         int64  `json:"size"`
}

// UploadError reports a file of the batch that was not stored.
type UploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}
