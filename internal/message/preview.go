package message

import (
	"unicode/utf8"

	"gorm.io/gorm"
)

const previewLength = 50

// Preview truncates content to the first 50 characters, marking the cut
// with an ellipsis.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	return string([]rune(content)[:previewLength]) + "..."
}

// PreviewUpdater writes the last-message denormalization onto a parent chat
// inside the sending transaction. Unknown chat IDs are silently skipped.
type PreviewUpdater interface {
	RecordMessage(tx *gorm.DB, chatID string, at int64, preview string) error
}

type PreviewUpdaterFunc func(tx *gorm.DB, chatID string, at int64, preview string) error

func (f PreviewUpdaterFunc) RecordMessage(tx *gorm.DB, chatID string, at int64, preview string) error {
	return f(tx, chatID, at, preview)
}

// PreviewUpdaters routes each chat type to the table holding its preview.
type PreviewUpdaters map[ChatType]PreviewUpdater
