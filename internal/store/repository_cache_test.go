package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/models"
)

func newTestCacheRepo(t *testing.T) (*cacheRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &cacheRepository{
		db:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestReplaceConversations_SkipsTempEntries(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	now := time.Now()
	conversations := []models.Conversation{
		{ID: models.TempConversationID("u-9"), CounterpartID: "u-9", IsTemp: true},
		{ID: "c-1", CounterpartID: "u-2", CounterpartName: "Dr. Reyes", UnreadCount: 1, UpdatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM conversation_cache").
		WillReturnResult(sqlmock.NewResult(0, 2))
	// only the real conversation reaches the insert
	mock.ExpectExec("INSERT INTO conversation_cache").
		WithArgs("c-1", "u-2", "Dr. Reyes", sqlmock.AnyArg(), 1, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.ReplaceConversations(context.Background(), conversations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoadConversations_DecodesLastMessage(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.
		NewRows([]string{"id", "counterpart_id", "counterpart_name", "last_message", "unread_count", "updated_at"}).
		AddRow("c-1", "u-2", "Dr. Reyes", `{"id":"m-5","conversation_id":"c-1","body":"see you at 3"}`, 2, now).
		AddRow("c-2", "u-3", "Front desk", nil, 0, now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM conversation_cache").
		WillReturnRows(rows)

	conversations, err := repo.LoadConversations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].LastMessage == nil || conversations[0].LastMessage.ID != "m-5" {
		t.Errorf("expected decoded last message m-5, got %+v", conversations[0].LastMessage)
	}
	if conversations[0].LastMessage.DeliveryState != models.DeliveryConfirmed {
		t.Errorf("cached messages must load as confirmed, got %v", conversations[0].LastMessage.DeliveryState)
	}
	if conversations[1].LastMessage != nil {
		t.Errorf("expected nil last message for empty conversation, got %+v", conversations[1].LastMessage)
	}
}

func TestReplaceMessages_SkipsOptimisticEntries(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	now := time.Now()
	messages := []models.Message{
		{ID: "m-1", ConversationID: "c-1", SenderID: "u-1", ReceiverID: "u-2", Body: "hello", CreatedAt: now, DeliveryState: models.DeliveryConfirmed},
		{ID: "local-1", ConversationID: "c-1", Body: "pending", DeliveryState: models.DeliveryOptimistic},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM message_cache").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO message_cache").
		WithArgs("m-1", "c-1", "u-1", "u-2", "hello", sqlmock.AnyArg(), "", now, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.ReplaceMessages(context.Background(), "c-1", messages); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoadMessages_EmptyIsCacheMiss(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM message_cache").
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "sender_id", "receiver_id", "body", "attachment", "correlation_id", "created_at", "read"}))

	_, err := repo.LoadMessages(context.Background(), "c-1")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestLoadMessages_DecodesAttachment(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.
		NewRows([]string{"id", "conversation_id", "sender_id", "receiver_id", "body", "attachment", "correlation_id", "created_at", "read"}).
		AddRow("m-1", "c-1", "u-1", "u-2", "report attached", `{"name":"scan.pdf","url":"https://files/scan.pdf"}`, "corr-1", now, true)

	mock.ExpectQuery("SELECT (.+) FROM message_cache").
		WithArgs("c-1").
		WillReturnRows(rows)

	messages, err := repo.LoadMessages(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Attachment == nil || messages[0].Attachment.Name != "scan.pdf" {
		t.Errorf("expected decoded attachment, got %+v", messages[0].Attachment)
	}
	if messages[0].CorrelationID != "corr-1" {
		t.Errorf("expected correlation id corr-1, got %q", messages[0].CorrelationID)
	}
}

func TestDeleteConversation_PurgesBothTables(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM message_cache").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM conversation_cache").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteConversation(context.Background(), "c-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
