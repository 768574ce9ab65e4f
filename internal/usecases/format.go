package usecases

import (
	"fmt"
	"strings"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
)

// FormatFooter is the map footer line
func FormatFooter(count int) string {
	if count == 1 {
		return "1 orphanage"
	}
	return fmt.Sprintf("%d orphanages", count)
}

// FormatWeekendPanel renders the weekend half of the visiting hours
func FormatWeekendPanel(p entities.WeekendPanel) string {
	if p == entities.WeekendsOpen {
		return "🟢 Open on weekends"
	}
	return "🔴 Closed on weekends"
}

// FormatDetails renders a detail page as plain text
func FormatDetails(page *DetailsPage) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("🏠 %s\n\n", page.Name))
	if page.About != "" {
		result.WriteString(page.About + "\n\n")
	}
	result.WriteString("Visiting instructions:\n")
	if page.Instructions != "" {
		result.WriteString(page.Instructions + "\n")
	}
	result.WriteString(fmt.Sprintf("\n🕒 Monday to Friday: %s\n", page.WeekdayHours))
	result.WriteString(FormatWeekendPanel(page.Weekends) + "\n")
	result.WriteString(fmt.Sprintf("\n📍 %s, %s", integration.FormatCoordinate(page.Position.Latitude), integration.FormatCoordinate(page.Position.Longitude)))
	return result.String()
}

// FormatDraft summarises the form before submission
func FormatDraft(pos entities.Coordinate, d entities.OrphanageDraft) string {
	weekends := "no"
	if d.OpenOnWeekends {
		weekends = "yes"
	}
	var result strings.Builder
	result.WriteString("New orphanage:\n\n")
	result.WriteString(fmt.Sprintf("📍 Position: %s, %s\n", integration.FormatCoordinate(pos.Latitude), integration.FormatCoordinate(pos.Longitude)))
	result.WriteString(fmt.Sprintf("🏠 Name: %s\n", d.Name))
	result.WriteString(fmt.Sprintf("📝 About: %s\n", d.About))
	result.WriteString(fmt.Sprintf("📋 Instructions: %s\n", d.Instructions))
	result.WriteString(fmt.Sprintf("🕒 Opening hours: %s\n", d.OpeningHours))
	result.WriteString(fmt.Sprintf("📅 Open on weekends: %s\n", weekends))
	result.WriteString(fmt.Sprintf("📷 Photos: %d", len(d.ImageURIs)))
	return result.String()
}

// FormatHistory lists journal entries, newest first
func FormatHistory(records []entities.SubmissionRecord) string {
	if len(records) == 0 {
		return "No submissions yet."
	}
	var result strings.Builder
	result.WriteString("Your latest submissions:\n\n")
	for _, rec := range records {
		mark := "✅"
		if rec.Outcome != entities.OutcomeCreated {
			mark = "❌"
		}
		result.WriteString(fmt.Sprintf("%s %s (%d photos) - %s\n", mark, rec.Name, rec.ImageCount,
			rec.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	}
	return strings.TrimRight(result.String(), "\n")
}
