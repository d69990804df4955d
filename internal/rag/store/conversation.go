package store

import (
	"context"
	stderrors "errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/utils/id"
)

// 消息角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const titleMaxRunes = 50

// Conversation 会话。
type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;size:26;comment:会话ID(ULID)"`
	Title     string    `json:"title" gorm:"size:255;not null;comment:标题"`
	CreatedAt time.Time `json:"created_at" gorm:"comment:创建时间"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index:idx_conversations_updated;comment:更新时间"`
}

// TableName returns the table name for GORM.
func (Conversation) TableName() string { return "conversations" }

// Message 会话中的一条消息。
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ConversationID string    `json:"conversation_id" gorm:"size:26;not null;index:idx_messages_conversation;comment:会话ID"`
	Role           string    `json:"role" gorm:"size:16;not null;comment:user/assistant"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Sources        string    `json:"sources,omitempty" gorm:"type:text;comment:来源(JSON)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (Message) TableName() string { return "messages" }

// ConversationTitle 用问题生成标题，超过 50 个字符时截断并追加 "..."。
func ConversationTitle(query string) string {
	if utf8.RuneCountInString(query) <= titleMaxRunes {
		return query
	}
	return string([]rune(query)[:titleMaxRunes]) + "..."
}

// ConversationStore 基于 gorm 的会话存储。
type ConversationStore struct {
	db *gorm.DB
}

// NewConversationStore 创建会话存储。
func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Migrate creates or updates the conversation tables.
func (s *ConversationStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Conversation{}, &Message{})
}

// Create creates a conversation titled after the first question.
func (s *ConversationStore) Create(ctx context.Context, query string) (*Conversation, error) {
	conv := &Conversation{ID: id.NewULID(), Title: ConversationTitle(query)}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

// Get returns ErrConversationNotFound for unknown ids.
func (s *ConversationStore) Get(ctx context.Context, convID string) (*Conversation, error) {
	var conv Conversation
	if err := s.db.WithContext(ctx).Where("id = ?", convID).First(&conv).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrConversationNotFound.WithCause(err)
		}
		return nil, err
	}
	return &conv, nil
}

// List returns the most recently updated conversations.
func (s *ConversationStore) List(ctx context.Context, limit int) ([]*Conversation, error) {
	var convs []*Conversation
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

// AppendMessages 在一个事务中追加消息并刷新会话更新时间。
func (s *ConversationStore) AppendMessages(ctx context.Context, convID string, msgs ...*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Conversation{}).Where("id = ?", convID).Update("updated_at", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.ErrConversationNotFound
		}
		for _, m := range msgs {
			m.ConversationID = convID
		}
		return tx.Create(&msgs).Error
	})
}

// Messages returns a conversation's messages in insertion order.
func (s *ConversationStore) Messages(ctx context.Context, convID string) ([]*Message, error) {
	if _, err := s.Get(ctx, convID); err != nil {
		return nil, err
	}
	var msgs []*Message
	if err := s.db.WithContext(ctx).Where("conversation_id = ?", convID).Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// Delete 在一个事务中删除会话及其消息，未知 id 返回 ErrConversationNotFound。
func (s *ConversationStore) Delete(ctx context.Context, convID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", convID).Delete(&Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", convID).Delete(&Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.ErrConversationNotFound
		}
		return nil
	})
}

// DeleteAll 删除全部会话和消息，返回删除的会话数。
func (s *ConversationStore) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&Message{}).Error; err != nil {
			return err
		}
		res := all.Delete(&Conversation{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
