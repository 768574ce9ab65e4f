// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration/openai"
	"github.com/abelzeko/orphanage-bot/internal/metrics"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/cenkalti/backoff"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BotClient is the part of *tgbotapi.BotAPI the bot uses
type BotClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// ConnectBotAPI authorizes against Telegram, retrying with exponential backoff
// for up to maxElapsed (0 retries forever).
func ConnectBotAPI(botToken string, maxElapsed time.Duration, log *zap.SugaredLogger) (*tgbotapi.BotAPI, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	var bot *tgbotapi.BotAPI
	err := backoff.RetryNotify(func() error {
		var err error
		bot, err = tgbotapi.NewBotAPI(botToken)
		return err
	}, bo, func(err error, wait time.Duration) {
		log.Warnf("Failed to reach Telegram, retrying in %s: %v", wait, err)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bot")
	}
	return bot, nil
}

// TelegramBot maps the orphanage screens onto a Telegram chat
type TelegramBot struct {
	bot     BotClient
	self    string
	useCase *usecases.OrphanageUseCase
	limiter *ChatLimiter
	metrics *metrics.Metrics
	log     *zap.SugaredLogger

	mu    sync.Mutex
	forms map[int64]*formProgress
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(bot BotClient, selfName string, useCase *usecases.OrphanageUseCase, limiter *ChatLimiter, m *metrics.Metrics, log *zap.SugaredLogger) *TelegramBot {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TelegramBot{
		bot:     bot,
		self:    selfName,
		useCase: useCase,
		limiter: limiter,
		metrics: m,
		log:     log,
		forms:   make(map[int64]*formProgress),
	}
}

// Start listens for updates until ctx is cancelled
func (t *TelegramBot) Start(ctx context.Context) {
	t.log.Infof("Authorized on Telegram account %s", t.self)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.log.Info("Bot is now listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.log.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one Telegram update
func (t *TelegramBot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		t.metrics.BotUpdate("callback")
		if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.log.Warnf("Error answering callback: %v", err)
		}
		if !t.allow(cb.Message.Chat.ID) {
			return
		}
		t.log.Infof("Received callback %q from %s (ID: %d)", cb.Data, userName(cb.From), cb.Message.Chat.ID)
		t.handleCallback(ctx, cb.Message.Chat.ID, cb.Data)

	case update.Message != nil && update.Message.Chat != nil:
		msg := update.Message
		t.metrics.BotUpdate("message")
		if !t.allow(msg.Chat.ID) {
			return
		}
		t.log.Infof("Received message from %s (ID: %d): %s", userName(msg.From), msg.Chat.ID, msg.Text)
		t.handleMessage(ctx, msg)
	}
}

func (t *TelegramBot) allow(chatID int64) bool {
	if t.limiter.Allow(chatID, time.Now()) {
		return true
	}
	t.metrics.RateLimited()
	t.log.Warnf("Rate limited chat %d", chatID)
	return false
}

// handleMessage processes commands, locations, photos and free text
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch {
	case message.IsCommand():
		t.handleCommand(ctx, message)
	case message.Location != nil:
		t.handleLocation(ctx, chatID, entities.Coordinate{
			Latitude:  message.Location.Latitude,
			Longitude: message.Location.Longitude,
		})
	case len(message.Photo) > 0:
		// the last size is the largest
		t.handlePhoto(ctx, chatID, message.Photo[len(message.Photo)-1].FileID)
	default:
		t.handleText(ctx, chatID, message.Text)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	user := userName(message.From)

	switch message.Command() {
	case "start":
		t.log.Infof("Handling /start command for user %s", user)
		t.useCase.ResetSession(chatID)
		t.clearForm(chatID)
		t.sendText(chatID, "Welcome! This bot lists orphanages on a map and lets you register new ones.\n"+
			"Use /orphanages to see them or /help for more information.")

	case "help":
		t.log.Infof("Handling /help command for user %s", user)
		t.sendText(chatID, helpText)

	case "orphanages":
		t.log.Infof("Handling /orphanages command for user %s", user)
		t.showMap(ctx, chatID)

	case "create":
		t.log.Infof("Handling /create command for user %s", user)
		t.startCreation(ctx, chatID)

	case "cancel":
		t.log.Infof("Handling /cancel command for user %s", user)
		t.cancel(ctx, chatID)

	case "history":
		t.log.Infof("Handling /history command for user %s", user)
		records, err := t.useCase.History(chatID, 10)
		if err != nil {
			t.log.Errorf("Error fetching submission history: %v", err)
			t.sendText(chatID, "Error fetching your submissions. Please try again later.")
			return
		}
		t.sendText(chatID, usecases.FormatHistory(records))

	default:
		t.log.Infof("Received unknown command /%s from user %s", message.Command(), user)
		t.sendText(chatID, "Unknown command. Use /help to see available commands.")
	}
}

// handleCallback dispatches inline keyboard presses
func (t *TelegramBot) handleCallback(ctx context.Context, chatID int64, data string) {
	action, arg, _ := strings.Cut(data, ":")
	if action == cbMap {
		t.showMap(ctx, chatID)
		return
	}
	s := t.useCase.Session(ctx, chatID)

	switch action {

	case cbDetails:
		id, err := parseID(arg)
		if err != nil {
			t.log.Warnf("Bad callback data %q: %v", data, err)
			return
		}
		if err := s.Map.SelectMarker(ctx, id); err != nil {
			t.sendText(chatID, "That orphanage is no longer listed.")
			s.Nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
			t.renderMap(chatID, s)
			return
		}
		t.renderDetails(chatID, s)

	case cbRoute:
		t.sendRouteQR(chatID, s, arg)

	case cbCreate:
		t.startCreation(ctx, chatID)

	case cbNext:
		picker := s.Picker()
		if picker == nil || s.Screen() != entities.ScreenSelectMapPosition {
			return
		}
		if err := picker.Proceed(ctx); err != nil {
			t.sendText(chatID, "Send a location first.")
			return
		}
		if err := s.LastFocusError(); err != nil {
			t.log.Errorf("Error opening orphanage form: %v", err)
			t.sendText(chatID, "Could not open the form. Use /create to start again.")
			return
		}
		t.renderFormStep(chatID, s)

	case cbWeekends:
		t.answerWeekends(chatID, s, arg == "yes")

	case cbPhotosDone:
		if form := s.Form(); form != nil && arg == "skip" {
			if _, err := form.AddPhoto(ctx, staticPicker{result: usecases.Cancelled()}); err != nil {
				t.log.Warnf("Error skipping photo: %v", err)
			}
		}
		t.advanceForm(chatID, s, stepReview)

	case cbSubmit:
		t.submit(ctx, chatID, s)

	case cbCancel:
		t.cancel(ctx, chatID)

	default:
		t.log.Warnf("Unknown callback data %q", data)
	}
}

// handleLocation is a map tap on the picker, or a "near me" query on the map
func (t *TelegramBot) handleLocation(ctx context.Context, chatID int64, c entities.Coordinate) {
	s := t.useCase.Session(ctx, chatID)

	switch s.Screen() {
	case entities.ScreenSelectMapPosition:
		if picker := s.Picker(); picker != nil {
			picker.Tap(c)
			t.renderPicker(chatID, s)
		}
	case entities.ScreenOrphanagesMap:
		t.renderNearby(chatID, s, c)
	default:
		t.sendText(chatID, "Locations are used on the map and when registering an orphanage. Use /orphanages or /create.")
	}
}

// handlePhoto appends a photo to the open form
func (t *TelegramBot) handlePhoto(ctx context.Context, chatID int64, fileID string) {
	s := t.useCase.Session(ctx, chatID)
	form := s.Form()
	if form == nil || s.Screen() != entities.ScreenOrphanageData {
		t.sendText(chatID, "Photos are only used while registering an orphanage. Use /create to start.")
		return
	}

	added, err := form.AddPhoto(ctx, staticPicker{result: usecases.Picked(fileID)})
	if err != nil {
		t.log.Errorf("Error adding photo: %v", err)
		t.sendText(chatID, "Could not add this photo.")
		return
	}
	if added {
		count := len(form.Draft().ImageURIs)
		t.sendWithKeyboard(chatID, fmt.Sprintf("📷 Photo %d added. Send more or tap Done.", count), photosKeyboard())
	}
}

// handleText fills the current form field or falls back to the assistant
func (t *TelegramBot) handleText(ctx context.Context, chatID int64, text string) {
	s := t.useCase.Session(ctx, chatID)

	if s.Screen() == entities.ScreenOrphanageData && s.Form() != nil {
		t.answerFormText(chatID, s, text)
		return
	}

	if !t.useCase.AssistantEnabled() {
		t.sendText(chatID, "I don't understand. Use /help to see available commands.")
		return
	}

	intent, err := t.useCase.HandleNaturalLanguageQuery(ctx, text)
	if err != nil {
		t.log.Errorf("Error interpreting user query: %v", err)
		t.sendText(chatID, "Sorry, I'm having trouble understanding right now. Please try again later or use /help.")
		return
	}

	if intent.Message != "" {
		t.sendText(chatID, intent.Message)
	}
	switch intent.Command {
	case openai.CommandListOrphanages:
		s.Nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
		t.renderMap(chatID, s)
	case openai.CommandShowOrphanage:
		s.Nav.Navigate(ctx, entities.ScreenOrphanageDetails, entities.IDParams(intent.OrphanageID))
		t.renderDetails(chatID, s)
	case openai.CommandCreateOrphanage:
		t.startCreation(ctx, chatID)
	}
}

// showMap focuses the map, which refetches, unless the session was just
// created and its map loaded by that
func (t *TelegramBot) showMap(ctx context.Context, chatID int64) {
	s, created := t.useCase.OpenSession(ctx, chatID)
	if !created {
		s.Nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
	}
	t.renderMap(chatID, s)
}

func (t *TelegramBot) startCreation(ctx context.Context, chatID int64) {
	s := t.useCase.Session(ctx, chatID)
	if s.Screen() != entities.ScreenOrphanagesMap {
		s.Nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
	}
	s.Map.StartCreation(ctx)
	t.renderPicker(chatID, s)
}

func (t *TelegramBot) cancel(ctx context.Context, chatID int64) {
	s := t.useCase.Session(ctx, chatID)
	if form := s.Form(); form != nil {
		form.Discard(ctx)
	} else {
		s.Nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
	}
	t.clearForm(chatID)
	t.renderMap(chatID, s)
}

func (t *TelegramBot) submit(ctx context.Context, chatID int64, s *usecases.Session) {
	form := s.Form()
	if form == nil || s.Screen() != entities.ScreenOrphanageData {
		return
	}

	res, err := form.Submit(ctx)
	if err != nil {
		t.log.Errorf("Error submitting orphanage: %v", err)
		t.sendText(chatID, "Could not prepare the submission. Please try again.")
		return
	}

	switch {
	case res.Outcome == entities.OutcomeCreated:
		t.sendText(chatID, "✅ Orphanage registered. Thank you!")
	case res.Navigated:
		t.sendText(chatID, "⚠️ The form was sent but the server answered with an error, so it may not have been saved. See /history.")
	default:
		t.sendWithKeyboard(chatID, "❌ Could not register the orphanage. Your answers are kept, tap Submit to try again.", reviewKeyboard())
		return
	}

	t.clearForm(chatID)
	t.renderMap(chatID, s)
}

func (t *TelegramBot) sendRouteQR(chatID int64, s *usecases.Session, arg string) {
	details := s.Details()
	id, err := parseID(arg)
	if err != nil || details == nil || details.ID() != id {
		t.sendText(chatID, "Open the orphanage again to get its route.")
		return
	}
	png, err := details.RouteQR(256)
	if err != nil {
		t.log.Errorf("Error generating route QR code: %v", err)
		t.sendText(chatID, "Could not generate the QR code.")
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "route.png", Bytes: png})
	photo.Caption = "Scan to open the route on your phone."
	t.send(photo)
}

func (t *TelegramBot) sendText(chatID int64, text string) {
	t.send(tgbotapi.NewMessage(chatID, text))
}

func (t *TelegramBot) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	t.send(msg)
}

func (t *TelegramBot) send(c tgbotapi.Chattable) {
	if _, err := t.bot.Send(c); err != nil {
		t.log.Errorf("Error sending message: %v", err)
	}
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}

// staticPicker hands over a photo the user already sent
type staticPicker struct {
	result usecases.PickResult
}

func (p staticPicker) Pick(context.Context) (usecases.PickResult, error) {
	return p.result, nil
}

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/orphanages - Show the orphanages map\n" +
	"/create - Register a new orphanage\n" +
	"/cancel - Leave the registration and go back to the map\n" +
	"/history - Show your latest registrations\n" +
	"/help - Show this help message\n\n" +
	"On the map, send a location to see the nearest orphanages."
