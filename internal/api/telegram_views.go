package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// callback data actions; arguments follow a colon
const (
	cbMap        = "map"
	cbDetails    = "details"
	cbRoute      = "route"
	cbCreate     = "create"
	cbNext       = "next"
	cbWeekends   = "weekends"
	cbPhotosDone = "photos"
	cbSubmit     = "submit"
	cbCancel     = "cancel"
)

const nearbyLimit = 3

type formStep int

const (
	stepName formStep = iota
	stepAbout
	stepInstructions
	stepOpeningHours
	stepWeekends
	stepPhotos
	stepReview
)

// formProgress tracks which field the chat is answering for a given form instance
type formProgress struct {
	form *usecases.DataForm
	step formStep
}

func (t *TelegramBot) progress(chatID int64, form *usecases.DataForm) *formProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.forms[chatID]
	if !ok || p.form != form {
		p = &formProgress{form: form, step: stepName}
		t.forms[chatID] = p
	}
	return p
}

func (t *TelegramBot) clearForm(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.forms, chatID)
}

func (t *TelegramBot) renderMap(chatID int64, s *usecases.Session) {
	state, err := s.Map.State()
	if state == entities.LoadFailed {
		t.log.Errorf("Error loading orphanages: %v", err)
		t.sendWithKeyboard(chatID, "Error fetching orphanages. Please try again later.",
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Retry", cbMap),
			)))
		return
	}

	var text strings.Builder
	text.WriteString("🗺 Orphanages\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, s.Map.Count()+1)
	for _, m := range s.Map.Markers() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 "+m.Name, fmt.Sprintf("%s:%d", cbDetails, m.ID)),
		))
	}
	text.WriteString(usecases.FormatFooter(s.Map.Count()))
	text.WriteString("\n\nSend a location to see the nearest ones.")
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Register orphanage", cbCreate),
	))

	t.sendWithKeyboard(chatID, text.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (t *TelegramBot) renderNearby(chatID int64, s *usecases.Session, from entities.Coordinate) {
	nearby := s.Map.Nearest(from, nearbyLimit)
	if len(nearby) == 0 {
		t.sendText(chatID, "No orphanages to show yet.")
		return
	}

	var text strings.Builder
	text.WriteString("Nearest orphanages:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(nearby))
	for _, n := range nearby {
		text.WriteString(fmt.Sprintf("📍 %s - %s\n", n.Orphanage.Name, formatDistance(n.DistanceMeters)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(n.Orphanage.Name, fmt.Sprintf("%s:%d", cbDetails, n.Orphanage.ID)),
		))
	}
	t.sendWithKeyboard(chatID, strings.TrimRight(text.String(), "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (t *TelegramBot) renderDetails(chatID int64, s *usecases.Session) {
	details := s.Details()
	if details == nil {
		return
	}
	page, err := details.Page()
	if err != nil {
		t.log.Errorf("Error loading orphanage %d: %v", details.ID(), err)
		t.sendWithKeyboard(chatID, "Error fetching this orphanage. Please try again later.",
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to map", cbMap),
			)))
		return
	}

	if len(page.Gallery) > 0 {
		media := make([]interface{}, 0, len(page.Gallery))
		for i, u := range page.Gallery {
			// Telegram accepts 2 to 10 items per album
			if i == 10 {
				break
			}
			media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(u)))
		}
		if len(media) == 1 {
			t.send(tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(page.Gallery[0])))
		} else if _, err := t.bot.Request(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
			t.log.Warnf("Error sending gallery: %v", err)
		}
	}

	t.send(tgbotapi.NewLocation(chatID, page.Position.Latitude, page.Position.Longitude))

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🧭 View route", page.RouteURL),
			tgbotapi.NewInlineKeyboardButtonData("🔳 Route QR", fmt.Sprintf("%s:%d", cbRoute, page.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to map", cbMap),
		),
	)
	t.sendWithKeyboard(chatID, usecases.FormatDetails(page), kb)
}

func (t *TelegramBot) renderPicker(chatID int64, s *usecases.Session) {
	picker := s.Picker()
	if picker == nil {
		return
	}
	sel, ok := picker.Selection()
	if !ok {
		t.sendWithKeyboard(chatID, "Send the orphanage location (📎 → Location).", cancelKeyboard())
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Next ➡️", cbNext),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cbCancel),
	))
	t.sendWithKeyboard(chatID, fmt.Sprintf("📍 Selected %s, %s\nSend another location to change it or tap Next.",
		strconv.FormatFloat(sel.Latitude, 'f', -1, 64), strconv.FormatFloat(sel.Longitude, 'f', -1, 64)), kb)
}

func (t *TelegramBot) renderFormStep(chatID int64, s *usecases.Session) {
	form := s.Form()
	if form == nil {
		return
	}
	p := t.progress(chatID, form)

	switch p.step {
	case stepName:
		t.sendWithKeyboard(chatID, "What is the orphanage's name?", cancelKeyboard())
	case stepAbout:
		t.sendWithKeyboard(chatID, "Tell us about it.", cancelKeyboard())
	case stepInstructions:
		t.sendWithKeyboard(chatID, "Visiting instructions?", cancelKeyboard())
	case stepOpeningHours:
		t.sendWithKeyboard(chatID, "Opening hours (e.g. 8h to 18h)?", cancelKeyboard())
	case stepWeekends:
		t.sendWithKeyboard(chatID, "Is it open on weekends?", tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes", cbWeekends+":yes"),
			tgbotapi.NewInlineKeyboardButtonData("No", cbWeekends+":no"),
		)))
	case stepPhotos:
		t.sendWithKeyboard(chatID, "Send photos of the orphanage, then tap Done.", tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", cbPhotosDone+":skip"),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cbCancel),
		)))
	case stepReview:
		t.sendWithKeyboard(chatID, usecases.FormatDraft(form.Position(), form.Draft()), reviewKeyboard())
	}
}

func (t *TelegramBot) answerFormText(chatID int64, s *usecases.Session, text string) {
	form := s.Form()
	p := t.progress(chatID, form)
	text = strings.TrimSpace(text)

	switch p.step {
	case stepName:
		form.SetName(text)
	case stepAbout:
		form.SetAbout(text)
	case stepInstructions:
		form.SetInstructions(text)
	case stepOpeningHours:
		form.SetOpeningHours(text)
	default:
		t.renderFormStep(chatID, s)
		return
	}
	t.advanceForm(chatID, s, p.step+1)
}

func (t *TelegramBot) answerWeekends(chatID int64, s *usecases.Session, open bool) {
	form := s.Form()
	if form == nil || s.Screen() != entities.ScreenOrphanageData {
		return
	}
	form.SetOpenOnWeekends(open)
	t.advanceForm(chatID, s, stepPhotos)
}

func (t *TelegramBot) advanceForm(chatID int64, s *usecases.Session, next formStep) {
	form := s.Form()
	if form == nil || s.Screen() != entities.ScreenOrphanageData {
		return
	}
	p := t.progress(chatID, form)
	t.mu.Lock()
	p.step = next
	t.mu.Unlock()
	t.renderFormStep(chatID, s)
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cbCancel),
	))
}

func photosKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Done", cbPhotosDone),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cbCancel),
	))
}

func reviewKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📨 Submit", cbSubmit),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cbCancel),
	))
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
