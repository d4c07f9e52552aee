package jobs

import (
	"fmt"
	"strings"

	"github.com/yerin5822/Maternote_Server/internal/models"
)

var categoryTitles = map[string]string{
	models.CategoryPregnancyPlanning: "🌱 Planning Reminder",
	models.CategoryPregnancy:         "🤰 Pregnancy Checkpoint",
	models.CategoryPostpartum:        "🍼 Postpartum Care",
	models.CategoryParenting:         "👶 Parenting Milestone",
	models.CategoryWork:              "💼 Work & Leave",
	models.CategoryGovernmentSupport: "🏛️ Government Support",
}

// contentMessage builds the push title and body for a timeline event,
// phrased by urgency tier.
func contentMessage(item models.ContentItem, daysUntil int) (string, string) {
	title, ok := categoryTitles[item.Category]
	if !ok {
		title = "🔔 Reminder"
	}

	var body string
	switch {
	case daysUntil == 0:
		body = fmt.Sprintf("D-Day! \"%s\" is today.", item.Title)
	case daysUntil <= 3:
		body = fmt.Sprintf("\"%s\" is coming up in %d days.", item.Title, daysUntil)
	case daysUntil <= 7:
		body = fmt.Sprintf("\"%s\" is %d days away. A good time to prepare.", item.Title, daysUntil)
	default:
		body = fmt.Sprintf("Keep \"%s\" on your radar.", item.Title)
	}
	return title, body
}

// milestoneMessage builds the push title and body for a legacy milestone.
func milestoneMessage(m models.Milestone, daysUntil int) (string, string) {
	title, ok := categoryTitles[m.Category]
	if !ok {
		title = "📅 Timeline Reminder"
	}

	var body string
	switch {
	case daysUntil == 0:
		body = fmt.Sprintf("D-Day! \"%s\" is scheduled for today.", m.Title)
	case daysUntil <= 3:
		body = fmt.Sprintf("\"%s\" is coming up in %d days.", m.Title, daysUntil)
	case daysUntil <= 7:
		body = fmt.Sprintf("\"%s\" is %d days away. A good time to prepare.", m.Title, daysUntil)
	default:
		body = fmt.Sprintf("\"%s\" is %d days away.", m.Title, daysUntil)
	}
	return title, body
}

// digestMessage summarizes the titles of today's new content: the first
// two titles, with an overflow count when there are more than three.
func digestMessage(titles []string) (string, string) {
	shown := titles
	if len(shown) > 2 {
		shown = shown[:2]
	}
	body := strings.Join(shown, ", ")
	if len(titles) > 3 {
		body = fmt.Sprintf("%s and %d more", body, len(titles)-2)
	}
	return "✨ New in your timeline", body
}
