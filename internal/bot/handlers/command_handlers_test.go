package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/config"
	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/telegram"
)

const (
	testBotID   = int64(42)
	testChatID  = int64(-100123)
	testAliasID = int64(1087968824)
)

// recordingClient serves canned memberships and records every platform
// mutation and reply.
type recordingClient struct {
	mu         sync.Mutex
	members    map[int64]*models.ChatMember
	promotions []int64
	sent       []string
}

func newRecordingClient() *recordingClient {
	return &recordingClient{members: make(map[int64]*models.ChatMember)}
}

func (c *recordingClient) GetChatMember(_ context.Context, _ int64, userID int64) (*models.ChatMember, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[userID]
	if !ok {
		return &models.ChatMember{Type: models.ChatMemberTypeLeft}, nil
	}
	return m, nil
}

func (c *recordingClient) GetChatAdministrators(context.Context, int64) ([]models.ChatMember, error) {
	return nil, nil
}

func (c *recordingClient) PromoteChatMember(_ context.Context, _ int64, userID int64, _ telegram.Privileges) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promotions = append(c.promotions, userID)
	return nil
}

func (c *recordingClient) SetChatAdministratorCustomTitle(context.Context, int64, int64, string) error {
	return nil
}

func (c *recordingClient) SendMessage(_ context.Context, _ int64, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *recordingClient) DeleteMessage(context.Context, int64, int) error { return nil }

// stubStore is an in-memory TitleStore with injectable read failures.
type stubStore struct {
	byTitle      map[string]*database.TitleRecord
	byUser       map[int64]*database.TitleRecord
	getByUserErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		byTitle: make(map[string]*database.TitleRecord),
		byUser:  make(map[int64]*database.TitleRecord),
	}
}

func (s *stubStore) Ping(context.Context) error { return nil }

func (s *stubStore) InsertTitle(_ context.Context, chatID, userID int64, title string) error {
	record := &database.TitleRecord{ChatID: chatID, UserID: userID, Title: title}
	s.byTitle[title] = record
	s.byUser[userID] = record
	return nil
}

func (s *stubStore) GetByUser(_ context.Context, _ int64, userID int64) (*database.TitleRecord, error) {
	if s.getByUserErr != nil {
		return nil, s.getByUserErr
	}
	return s.byUser[userID], nil
}

func (s *stubStore) GetByTitle(_ context.Context, _ int64, title string) (*database.TitleRecord, error) {
	return s.byTitle[title], nil
}

func (s *stubStore) RemoveByUser(context.Context, int64, int64) error    { return nil }
func (s *stubStore) RemoveByTitle(context.Context, int64, string) error  { return nil }
func (s *stubStore) RunMaintenance(context.Context) error                { return nil }
func (s *stubStore) ListByChat(context.Context, int64) ([]database.TitleRecord, error) {
	return nil, nil
}

// countingReporter counts operational escalations.
type countingReporter struct {
	mu    sync.Mutex
	count int
}

func (r *countingReporter) Reportf(string, ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

func (r *countingReporter) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func testHandlerDeps(client *recordingClient, store *stubStore, reporter *countingReporter) HandlerDeps {
	return HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   &config.Config{},
		Store:    store,
		Client:   client,
		Reporter: reporter,
		BotID:    testBotID,
	}
}

func adminChatMember(userID int64, canBeEdited, canPromote, canInvite, anonymous bool) *models.ChatMember {
	return &models.ChatMember{
		Type: models.ChatMemberTypeAdministrator,
		Administrator: &models.ChatMemberAdministrator{
			User:              models.User{ID: userID},
			CanBeEdited:       canBeEdited,
			CanPromoteMembers: canPromote,
			CanInviteUsers:    canInvite,
			IsAnonymous:       anonymous,
		},
	}
}

func commandUpdate(sender *models.User, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   7,
			From: sender,
			Chat: models.Chat{ID: testChatID, Type: models.ChatTypeSupergroup},
			Text: text,
		},
	}
}

func lastSent(c *recordingClient) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

func TestTitleHandlerConflictSkipsPromotion(t *testing.T) {
	t.Parallel()

	client := newRecordingClient()
	store := newStubStore()
	reporter := &countingReporter{}
	client.members[testBotID] = adminChatMember(testBotID, false, true, true, false)
	client.members[100] = &models.ChatMember{
		Type:   models.ChatMemberTypeMember,
		Member: &models.ChatMemberMember{User: &models.User{ID: 100}},
	}
	if err := store.InsertTitle(context.Background(), testChatID, 200, "Duke"); err != nil {
		t.Fatalf("seed InsertTitle() error = %v", err)
	}

	deps := testHandlerDeps(client, store, reporter)
	update := commandUpdate(&models.User{ID: 100}, "/title Duke")
	NewTitleHandler(deps)(context.Background(), nil, update)

	if len(client.promotions) != 0 {
		t.Errorf("promotions = %v, want none for a taken title", client.promotions)
	}
	if reply := lastSent(client); !strings.Contains(reply, "title already in use") {
		t.Errorf("reply = %q, want conflict message", reply)
	}
}

func TestTitleHandlerRejectsNonAdminBot(t *testing.T) {
	t.Parallel()

	client := newRecordingClient()
	store := newStubStore()
	reporter := &countingReporter{}
	client.members[testBotID] = &models.ChatMember{
		Type:   models.ChatMemberTypeMember,
		Member: &models.ChatMemberMember{User: &models.User{ID: testBotID}},
	}
	client.members[100] = &models.ChatMember{
		Type:   models.ChatMemberTypeMember,
		Member: &models.ChatMemberMember{User: &models.User{ID: 100}},
	}

	deps := testHandlerDeps(client, store, reporter)
	update := commandUpdate(&models.User{ID: 100}, "/title Duke")
	NewTitleHandler(deps)(context.Background(), nil, update)

	if len(client.promotions) != 0 {
		t.Errorf("promotions = %v, want none when the bot is not admin", client.promotions)
	}
	if reply := lastSent(client); !strings.Contains(reply, "not an admin") {
		t.Errorf("reply = %q, want bot-not-admin rejection", reply)
	}
}

func TestDeanonymousHandlerEscalatesStorageFailure(t *testing.T) {
	t.Parallel()

	client := newRecordingClient()
	store := newStubStore()
	reporter := &countingReporter{}
	client.members[testBotID] = adminChatMember(testBotID, false, true, true, false)
	client.members[100] = adminChatMember(100, true, false, false, true)
	if err := store.InsertTitle(context.Background(), testChatID, 100, "Duke"); err != nil {
		t.Fatalf("seed InsertTitle() error = %v", err)
	}
	store.getByUserErr = errors.New("disk I/O error")

	deps := testHandlerDeps(client, store, reporter)
	update := commandUpdate(&models.User{ID: testAliasID, Username: "GroupAnonymousBot"}, "/deanonymous")
	update.Message.AuthorSignature = "Duke"
	NewDeanonymousHandler(deps)(context.Background(), nil, update)

	if got := reporter.calls(); got != 1 {
		t.Errorf("reporter calls = %d, want 1 escalation for the storage failure", got)
	}
	reply := lastSent(client)
	if reply != generalErrorMsg {
		t.Errorf("reply = %q, want generic error message", reply)
	}
	for _, sent := range client.sent {
		if strings.Contains(sent, "Done!") {
			t.Errorf("success acknowledged despite storage failure: %q", sent)
		}
	}
}
