package domain

import "time"

// Image is a stored picture as listed by /api/file/get-all.
type Image struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	UploadDate       time.Time `json:"upload_date"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	CDNURL           string    `json:"cdn_url"`
}

// Video is a stored clip as listed by /api/video/get-all.
type Video struct {
	VID              string `json:"vid"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type"`
	FileSizeBytes    int64  `json:"file_size_bytes"`
	URL              string `json:"url"`
}

// UploadResult reports per-file outcomes of a multi-file upload.
type UploadResult struct {
	FailedFiles   []string `json:"failed_file_err"`
	UploadedFiles []string `json:"uploaded_files"`
}

// Upload is one file handed to the backend.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CheckoutSession is the payment processor checkout created for an upgrade.
type CheckoutSession struct {
	URL string `json:"checkout_url"`
}

// ResizedImage is the result of an edit request.
type ResizedImage struct {
	URL string `json:"url"`
}
