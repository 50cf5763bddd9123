package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/models"
)

// cacheBuilder produces queries with $N placeholders, matching the static
// credential queries.
var cacheBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type cacheRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewCacheRepository(db *DB, logger *logger.Logger) CacheRepository {
	return &cacheRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceConversations implements [CacheRepository]. The cached list is a
// snapshot, not a journal: the old rows are dropped and the new page is
// inserted inside one transaction.
func (r *cacheRepository) ReplaceConversations(ctx context.Context, conversations []models.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := cacheBuilder.Delete("conversation_cache").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build conversation delete: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to drop cached conversations: %w", err)
	}

	for _, conv := range conversations {
		if conv.IsTemp {
			continue
		}

		lastMessage, err := encodeNullable(conv.LastMessage)
		if err != nil {
			return fmt.Errorf("failed to encode last message (conversation=%s): %w", conv.ID, err)
		}

		query, args, err = cacheBuilder.
			Insert("conversation_cache").
			Columns("id", "counterpart_id", "counterpart_name", "last_message", "unread_count", "updated_at").
			Values(conv.ID, conv.CounterpartID, conv.CounterpartName, lastMessage, conv.UnreadCount, conv.UpdatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build conversation insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.Err(err).
				Str("func", "cacheRepository.ReplaceConversations").
				Str("conversation_id", conv.ID).
				Msg("failed to insert cached conversation")
			return fmt.Errorf("failed to cache conversation %s: %w", conv.ID, err)
		}
	}

	return tx.Commit()
}

// LoadConversations implements [CacheRepository].
func (r *cacheRepository) LoadConversations(ctx context.Context) ([]models.Conversation, error) {
	query, args, err := cacheBuilder.
		Select("id", "counterpart_id", "counterpart_name", "last_message", "unread_count", "updated_at").
		From("conversation_cache").
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build conversation select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "cacheRepository.LoadConversations").
			Msg("failed to query cached conversations")
		return nil, fmt.Errorf("failed to query cached conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		var lastMessage sql.NullString

		if err = rows.Scan(&conv.ID, &conv.CounterpartID, &conv.CounterpartName, &lastMessage, &conv.UnreadCount, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cached conversation: %w", err)
		}
		if lastMessage.Valid {
			var msg models.Message
			if err = json.Unmarshal([]byte(lastMessage.String), &msg); err != nil {
				return nil, fmt.Errorf("failed to decode cached last message: %w", err)
			}
			msg.DeliveryState = models.DeliveryConfirmed
			conv.LastMessage = &msg
		}

		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// ReplaceMessages implements [CacheRepository].
func (r *cacheRepository) ReplaceMessages(ctx context.Context, conversationID string, messages []models.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := cacheBuilder.
		Delete("message_cache").
		Where(sq.Eq{"conversation_id": conversationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build message delete: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to drop cached messages: %w", err)
	}

	for _, msg := range messages {
		// optimistic messages are not durable state
		if msg.DeliveryState == models.DeliveryOptimistic {
			continue
		}

		attachment, err := encodeNullable(msg.Attachment)
		if err != nil {
			return fmt.Errorf("failed to encode attachment (message=%s): %w", msg.ID, err)
		}

		query, args, err = cacheBuilder.
			Insert("message_cache").
			Columns("id", "conversation_id", "sender_id", "receiver_id", "body", "attachment", "correlation_id", "created_at", "read").
			Values(msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Body, attachment, msg.CorrelationID, msg.CreatedAt, msg.Read).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build message insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.Err(err).
				Str("func", "cacheRepository.ReplaceMessages").
				Str("message_id", msg.ID).
				Msg("failed to insert cached message")
			return fmt.Errorf("failed to cache message %s: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

// LoadMessages implements [CacheRepository].
func (r *cacheRepository) LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	query, args, err := cacheBuilder.
		Select("id", "conversation_id", "sender_id", "receiver_id", "body", "attachment", "correlation_id", "created_at", "read").
		From("message_cache").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build message select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "cacheRepository.LoadMessages").
			Str("conversation_id", conversationID).
			Msg("failed to query cached messages")
		return nil, fmt.Errorf("failed to query cached messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var attachment sql.NullString
		var correlationID sql.NullString

		if err = rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &attachment, &correlationID, &msg.CreatedAt, &msg.Read); err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}
		if attachment.Valid {
			var att models.Attachment
			if err = json.Unmarshal([]byte(attachment.String), &att); err != nil {
				return nil, fmt.Errorf("failed to decode cached attachment: %w", err)
			}
			msg.Attachment = &att
		}
		msg.CorrelationID = correlationID.String
		msg.DeliveryState = models.DeliveryConfirmed

		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return nil, ErrCacheMiss
	}

	return messages, nil
}

// DeleteConversation implements [CacheRepository].
func (r *cacheRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"message_cache", "conversation_cache"} {
		column := "conversation_id"
		if table == "conversation_cache" {
			column = "id"
		}

		query, args, err := cacheBuilder.
			Delete(table).
			Where(sq.Eq{column: conversationID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build cache delete for %s: %w", table, err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete cached rows from %s: %w", table, err)
		}
	}

	return tx.Commit()
}

func encodeNullable(v any) (sql.NullString, error) {
	switch value := v.(type) {
	case *models.Message:
		if value == nil {
			return sql.NullString{}, nil
		}
	case *models.Attachment:
		if value == nil {
			return sql.NullString{}, nil
		}
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(payload), Valid: true}, nil
}
