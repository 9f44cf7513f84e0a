package domain

// Upload is an inline file: base64 content plus its extension.
type Upload struct {
	Base64 string `json:"base64" binding:"required"`
	Ext    string `json:"ext" binding:"required"`
}
