package jobs

import (
	"testing"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestContentMessageTiers(t *testing.T) {
	item := models.ContentItem{Title: "Glucose screening", Category: models.CategoryPregnancy}

	title, body := contentMessage(item, 0)
	assert.Equal(t, "🤰 Pregnancy Checkpoint", title)
	assert.Equal(t, `D-Day! "Glucose screening" is today.`, body)

	_, body = contentMessage(item, 3)
	assert.Equal(t, `"Glucose screening" is coming up in 3 days.`, body)

	_, body = contentMessage(item, 7)
	assert.Equal(t, `"Glucose screening" is 7 days away. A good time to prepare.`, body)
}

func TestContentMessageUnknownCategory(t *testing.T) {
	title, _ := contentMessage(models.ContentItem{Title: "x", Category: "unknown"}, 0)
	assert.Equal(t, "🔔 Reminder", title)
}

func TestDigestMessage(t *testing.T) {
	title, body := digestMessage([]string{"A"})
	assert.Equal(t, "✨ New in your timeline", title)
	assert.Equal(t, "A", body)

	_, body = digestMessage([]string{"A", "B", "C"})
	assert.Equal(t, "A, B", body)

	_, body = digestMessage([]string{"A", "B", "C", "D", "E"})
	assert.Equal(t, "A, B and 3 more", body)
}
