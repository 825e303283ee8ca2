package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
	chatrepo "github.com/partshub/chat-service/internal/repository/chat"
	messagerepo "github.com/partshub/chat-service/internal/repository/message"
	offerrepo "github.com/partshub/chat-service/internal/repository/offer"
	userrepo "github.com/partshub/chat-service/internal/repository/user"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
	"github.com/partshub/chat-service/internal/services/notify"
)

// System message texts, kept verbatim from the storefront.
const (
	welcomeMessageText  = "Добро пожаловать в чат с экспертом! Наш специалист ответит вам в ближайшее время."
	chatClosedText      = "Чат был закрыт."
	managerJoinedFormat = "К чату подключился %s. Он ответит на ваши вопросы."
	offerMessageFormat  = "Товарное предложение: %s"
)

const notificationBodyLimit = 100

// ChatService owns the chat domain logic: conversation lifecycle, message
// persistence, read receipts, manager assignment and the product-offer
// state machine.
type ChatService struct {
	chatRepo    chatrepo.ChatRepository
	messageRepo messagerepo.MessageRepository
	offerRepo   offerrepo.OfferRepository
	userRepo    userrepo.UserRepository
	notifier    notify.Sender
	logger      Logger

	// createLocks serializes CreateOrGetChat per owner key so two
	// concurrent first contacts from the same identity cannot create
	// two chats within this process. Cross-process duplicates are still
	// possible; there is no unique constraint on the active chat.
	createLocks keyedMutex
}

func NewChatService(
	chatRepo chatrepo.ChatRepository,
	messageRepo messagerepo.MessageRepository,
	offerRepo offerrepo.OfferRepository,
	userRepo userrepo.UserRepository,
	notifier notify.Sender,
	logger Logger,
) (*ChatService, error) {
	if chatRepo == nil || messageRepo == nil || offerRepo == nil || userRepo == nil {
		return nil, errors.New("chat service: all repositories are required")
	}
	if notifier == nil {
		notifier = notify.NoopSender{}
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &ChatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		offerRepo:   offerRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}, nil
}

// CreateOrGetChat returns the caller's active chat, creating one on first
// contact. A provided initial message is appended either way; a new chat
// additionally gets the system welcome message. The second return value
// reports whether a chat was created.
func (s *ChatService) CreateOrGetChat(ctx context.Context, id identity.Identity, initialMessage string) (*chatsvc.ChatDTO, bool, error) {
	if !id.Known() {
		return nil, false, chatsvc.NewBadRequestError("create_chat", "User or anonymous user ID is required")
	}

	unlock := s.createLocks.lock(id.ID)
	defer unlock()

	existing, err := s.chatRepo.FindActiveByOwner(ctx, id.UserID(), id.AnonymousID())
	if err == nil {
		if initialMessage != "" {
			if _, err := s.SendMessage(ctx, existing.ID, id.ID, initialMessage); err != nil {
				return nil, false, err
			}
		}
		dto, err := s.GetChatByID(ctx, id, existing.ID)
		return dto, false, err
	}
	if !errors.Is(err, chatrepo.ErrChatNotFound) {
		return nil, false, chatsvc.NewInternalError("create_chat", "could not look up chat", err)
	}

	created, err := s.chatRepo.Create(ctx, &domain.Chat{
		UserID:          id.UserID(),
		AnonymousUserID: id.AnonymousID(),
	})
	if err != nil {
		return nil, false, chatsvc.NewInternalError("create_chat", "could not create chat", err)
	}

	if initialMessage != "" {
		if _, err := s.SendMessage(ctx, created.ID, id.ID, initialMessage); err != nil {
			return nil, false, err
		}
	}
	if _, err := s.SendSystemMessage(ctx, created.ID, welcomeMessageText); err != nil {
		return nil, false, err
	}

	dto, err := s.GetChatByID(ctx, id, created.ID)
	return dto, true, err
}

// GetChatByID loads the full conversation. Staff can open any chat;
// owners only their own.
func (s *ChatService) GetChatByID(ctx context.Context, id identity.Identity, chatID string) (*chatsvc.ChatDTO, error) {
	c, err := s.findChat(ctx, "get_chat", chatID)
	if err != nil {
		return nil, err
	}
	if !chatsvc.CanAccessChat(id, c) {
		return nil, chatsvc.NewAccessDeniedError("get_chat")
	}
	return s.buildChatDTO(ctx, c, id.ID)
}

// GetUserChats lists the caller's chats, most recently updated first.
// An unauthenticated caller gets an empty list.
func (s *ChatService) GetUserChats(ctx context.Context, id identity.Identity) ([]chatsvc.ChatListItemDTO, error) {
	if !id.Known() {
		return []chatsvc.ChatListItemDTO{}, nil
	}
	chats, err := s.chatRepo.FindByOwner(ctx, id.UserID(), id.AnonymousID())
	if err != nil {
		return nil, chatsvc.NewInternalError("get_user_chats", "could not fetch chats", err)
	}
	return s.buildChatList(ctx, chats, id.ID)
}

// GetManagerChats lists active chats assigned to the manager plus the
// unassigned queue.
func (s *ChatService) GetManagerChats(ctx context.Context, managerID string) ([]chatsvc.ChatListItemDTO, error) {
	chats, err := s.chatRepo.FindForManager(ctx, managerID)
	if err != nil {
		return nil, chatsvc.NewInternalError("get_manager_chats", "could not fetch chats", err)
	}
	return s.buildChatList(ctx, chats, managerID)
}

// SendMessage persists a message into the chat. Persistence counts as
// delivery: there is no offline queue, so isDelivered is set immediately.
// A push notification to the other party is attempted best effort.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID, content string) (*chatsvc.MessageDTO, error) {
	if strings.TrimSpace(content) == "" {
		return nil, chatsvc.NewBadRequestError("send_message", "Message content is required")
	}
	c, err := s.findChat(ctx, "send_message", chatID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     content,
		IsDelivered: true,
		DeliveredAt: &now,
	})
	if err != nil {
		return nil, chatsvc.NewInternalError("send_message", "could not persist message", err)
	}

	if err := s.chatRepo.TouchUpdatedAt(ctx, chatID); err != nil {
		s.logger.Warn("failed to touch chat timestamp", "chatID", chatID, "error", err)
	}

	s.notifyNewMessage(ctx, c, msg)

	dto := s.formatMessage(ctx, msg, c)
	return &dto, nil
}

// SendSystemMessage appends a service-generated message to the chat.
func (s *ChatService) SendSystemMessage(ctx context.Context, chatID, content string) (*chatsvc.MessageDTO, error) {
	now := time.Now()
	msg, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:      chatID,
		SenderID:    domain.SystemSenderID,
		Content:     content,
		IsDelivered: true,
		DeliveredAt: &now,
	})
	if err != nil {
		return nil, chatsvc.NewInternalError("send_system_message", "could not persist message", err)
	}
	dto := s.formatMessage(ctx, msg, nil)
	return &dto, nil
}

// MarkMessagesAsRead flips the whole visible thread to read for the given
// reader and returns the number of messages changed. Idempotent: a repeat
// call returns 0.
func (s *ChatService) MarkMessagesAsRead(ctx context.Context, chatID, readerID string) (int64, error) {
	count, err := s.messageRepo.MarkReadExceptSender(ctx, chatID, readerID)
	if err != nil {
		return 0, chatsvc.NewInternalError("mark_read", "could not mark messages read", err)
	}
	return count, nil
}

// AssignManager overwrites the chat's manager unconditionally (last
// writer wins) and announces the manager with a system message.
func (s *ChatService) AssignManager(ctx context.Context, chatID, managerID string) (*chatsvc.ChatDTO, error) {
	if _, err := s.findChat(ctx, "assign_manager", chatID); err != nil {
		return nil, err
	}
	if err := s.chatRepo.SetManager(ctx, chatID, managerID); err != nil {
		return nil, chatsvc.NewInternalError("assign_manager", "could not assign manager", err)
	}

	name := s.displayName(ctx, managerID, chatsvc.FallbackManagerName)
	if _, err := s.SendSystemMessage(ctx, chatID, fmt.Sprintf(managerJoinedFormat, name)); err != nil {
		return nil, err
	}

	return s.GetChatByID(ctx, identity.FromUser(managerID, domain.RoleManager), chatID)
}

// CreateProductOffer persists a manager's offer, auto-assigns the manager
// to the chat when it has none, and synthesizes the chat message that
// renders the offer inline. Returns the offer and that message.
func (s *ChatService) CreateProductOffer(ctx context.Context, chatID, managerID string, in chatsvc.CreateOfferInput) (*chatsvc.OfferDTO, *chatsvc.MessageDTO, error) {
	c, err := s.findChat(ctx, "create_offer", chatID)
	if err != nil {
		return nil, nil, err
	}
	if in.IsOriginal && in.IsAnalog {
		return nil, nil, chatsvc.NewBadRequestError("create_offer", "Product cannot be both original and analog")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, nil, chatsvc.NewBadRequestError("create_offer", "Offer name is required")
	}

	if c.ManagerID == nil {
		if err := s.chatRepo.SetManager(ctx, chatID, managerID); err != nil {
			return nil, nil, chatsvc.NewInternalError("create_offer", "could not assign manager", err)
		}
		c.ManagerID = &managerID
	}

	image := in.Image
	if image == nil && len(in.Images) > 0 {
		image = &in.Images[0]
	}
	o, err := s.offerRepo.Create(ctx, &domain.ProductOffer{
		ChatID:       chatID,
		ManagerID:    managerID,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		OldPrice:     in.OldPrice,
		Image:        image,
		Images:       in.Images,
		DeliveryDays: in.DeliveryDays,
		IsOriginal:   in.IsOriginal,
		IsAnalog:     in.IsAnalog,
		ExpiresAt:    in.ExpiresAt,
	})
	if err != nil {
		return nil, nil, chatsvc.NewInternalError("create_offer", "could not persist offer", err)
	}

	now := time.Now()
	msg, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:      chatID,
		SenderID:    managerID,
		Content:     fmt.Sprintf(offerMessageFormat, o.Name),
		OfferID:     &o.ID,
		IsDelivered: true,
		DeliveredAt: &now,
	})
	if err != nil {
		return nil, nil, chatsvc.NewInternalError("create_offer", "could not persist offer message", err)
	}

	s.notifyNewOffer(ctx, c, o)

	offerDTO := s.formatOffer(ctx, o)
	msgDTO := s.formatMessage(ctx, msg, c)
	msgDTO.Offer = &offerDTO
	return &offerDTO, &msgDTO, nil
}

// UpdateProductOffer applies partial changes; only the owning manager may
// update an offer.
func (s *ChatService) UpdateProductOffer(ctx context.Context, offerID, managerID string, in chatsvc.UpdateOfferInput) (*chatsvc.OfferDTO, error) {
	o, err := s.findOwnedOffer(ctx, "update_offer", offerID, managerID)
	if err != nil {
		return nil, err
	}

	isOriginal := o.IsOriginal
	if in.IsOriginal != nil {
		isOriginal = *in.IsOriginal
	}
	isAnalog := o.IsAnalog
	if in.IsAnalog != nil {
		isAnalog = *in.IsAnalog
	}
	if isOriginal && isAnalog {
		return nil, chatsvc.NewBadRequestError("update_offer", "Product cannot be both original and analog")
	}

	if in.Name != nil {
		o.Name = *in.Name
	}
	if in.Description != nil {
		o.Description = *in.Description
	}
	if in.Price != nil {
		o.Price = *in.Price
	}
	if in.OldPrice != nil {
		o.OldPrice = in.OldPrice
	}
	if in.Images != nil {
		o.Images = in.Images
		if len(in.Images) > 0 {
			o.Image = &in.Images[0]
		}
	}
	if in.DeliveryDays != nil {
		o.DeliveryDays = in.DeliveryDays
	}
	o.IsOriginal = isOriginal
	o.IsAnalog = isAnalog
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}
	if in.ExpiresAt != nil {
		o.ExpiresAt = in.ExpiresAt
	}

	saved, err := s.offerRepo.Save(ctx, o)
	if err != nil {
		return nil, chatsvc.NewInternalError("update_offer", "could not save offer", err)
	}
	dto := s.formatOffer(ctx, saved)
	return &dto, nil
}

// CancelProductOffer is terminal: it sets isCancelled and clears isActive.
// Repeat calls leave the same state.
func (s *ChatService) CancelProductOffer(ctx context.Context, offerID, managerID string) (*chatsvc.OfferDTO, error) {
	o, err := s.findOwnedOffer(ctx, "cancel_offer", offerID, managerID)
	if err != nil {
		return nil, err
	}
	o.IsCancelled = true
	o.IsActive = false
	saved, err := s.offerRepo.Save(ctx, o)
	if err != nil {
		return nil, chatsvc.NewInternalError("cancel_offer", "could not save offer", err)
	}
	dto := s.formatOffer(ctx, saved)
	return &dto, nil
}

// DeactivateOffer clears isActive only, so a deactivated offer stays
// distinguishable from a cancelled one.
func (s *ChatService) DeactivateOffer(ctx context.Context, offerID, managerID string) (*chatsvc.OfferDTO, error) {
	o, err := s.findOwnedOffer(ctx, "deactivate_offer", offerID, managerID)
	if err != nil {
		return nil, err
	}
	o.IsActive = false
	saved, err := s.offerRepo.Save(ctx, o)
	if err != nil {
		return nil, chatsvc.NewInternalError("deactivate_offer", "could not save offer", err)
	}
	dto := s.formatOffer(ctx, saved)
	return &dto, nil
}

// CloseChat marks the chat inactive and appends a system message. It
// does not reject later sends against the same chat.
func (s *ChatService) CloseChat(ctx context.Context, chatID string) (*chatsvc.ChatDTO, error) {
	if _, err := s.findChat(ctx, "close_chat", chatID); err != nil {
		return nil, err
	}
	if err := s.chatRepo.SetActive(ctx, chatID, false); err != nil {
		return nil, chatsvc.NewInternalError("close_chat", "could not close chat", err)
	}
	if _, err := s.SendSystemMessage(ctx, chatID, chatClosedText); err != nil {
		return nil, err
	}
	return s.GetChatByID(ctx, identity.FromUser(domain.SystemSenderID, domain.RoleAdmin), chatID)
}

// --- helpers ---

func (s *ChatService) findChat(ctx context.Context, op, chatID string) (*domain.Chat, error) {
	c, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrChatNotFound) {
			return nil, chatsvc.NewNotFoundError(op, "Chat not found")
		}
		return nil, chatsvc.NewInternalError(op, "could not look up chat", err)
	}
	return c, nil
}

func (s *ChatService) findOwnedOffer(ctx context.Context, op, offerID, managerID string) (*domain.ProductOffer, error) {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, offerrepo.ErrOfferNotFound) {
			return nil, chatsvc.NewNotFoundError(op, "Offer not found")
		}
		return nil, chatsvc.NewInternalError(op, "could not look up offer", err)
	}
	if !chatsvc.OfferOwnedBy(o, managerID) {
		return nil, chatsvc.NewAccessDeniedError(op)
	}
	return o, nil
}

func (s *ChatService) buildChatDTO(ctx context.Context, c *domain.Chat, viewerID string) (*chatsvc.ChatDTO, error) {
	messages, err := s.messageRepo.FindByChatID(ctx, c.ID)
	if err != nil {
		return nil, chatsvc.NewInternalError("get_chat", "could not fetch messages", err)
	}
	offers, err := s.offerRepo.FindByChatID(ctx, c.ID)
	if err != nil {
		return nil, chatsvc.NewInternalError("get_chat", "could not fetch offers", err)
	}

	offerByID := make(map[string]chatsvc.OfferDTO, len(offers))
	offerDTOs := make([]chatsvc.OfferDTO, 0, len(offers))
	for i := range offers {
		dto := s.formatOffer(ctx, &offers[i])
		offerByID[dto.ID] = dto
		offerDTOs = append(offerDTOs, dto)
	}

	msgDTOs := make([]chatsvc.MessageDTO, 0, len(messages))
	unread := 0
	for i := range messages {
		m := &messages[i]
		dto := s.formatMessage(ctx, m, c)
		if m.OfferID != nil {
			if od, ok := offerByID[*m.OfferID]; ok {
				dto.Offer = &od
			}
		}
		msgDTOs = append(msgDTOs, dto)
		if !m.IsRead && m.SenderID != viewerID && !m.IsSystem() {
			unread++
		}
	}

	out := &chatsvc.ChatDTO{
		ID:              c.ID,
		UserID:          c.UserID,
		AnonymousUserID: c.AnonymousUserID,
		ManagerID:       c.ManagerID,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Messages:        msgDTOs,
		Offers:          offerDTOs,
		UnreadCount:     unread,
	}
	if len(msgDTOs) > 0 {
		out.LastMessage = &msgDTOs[len(msgDTOs)-1]
	}
	return out, nil
}

func (s *ChatService) buildChatList(ctx context.Context, chats []domain.Chat, viewerID string) ([]chatsvc.ChatListItemDTO, error) {
	items := make([]chatsvc.ChatListItemDTO, 0, len(chats))
	for i := range chats {
		c := &chats[i]

		item := chatsvc.ChatListItemDTO{
			ID:              c.ID,
			UserID:          c.UserID,
			AnonymousUserID: c.AnonymousUserID,
			ManagerID:       c.ManagerID,
			IsActive:        c.IsActive,
			CreatedAt:       c.CreatedAt,
			UpdatedAt:       c.UpdatedAt,
			CustomerName:    chatsvc.FallbackAnonymousName,
		}

		if c.UserID != nil {
			if u, err := s.userRepo.FindByID(ctx, *c.UserID); err == nil {
				item.CustomerName = u.DisplayName(chatsvc.FallbackCustomerName)
				item.CustomerPhone = u.Phone
			}
		}

		if last, err := s.messageRepo.FindLastByChatID(ctx, c.ID); err == nil && last != nil {
			dto := s.formatMessage(ctx, last, c)
			item.LastMessage = &dto
		}

		count, err := s.messageRepo.CountUnread(ctx, c.ID, viewerID)
		if err != nil {
			return nil, chatsvc.NewInternalError("chat_list", "could not count unread messages", err)
		}
		item.UnreadCount = int(count)

		items = append(items, item)
	}
	return items, nil
}

// formatMessage derives the sender name and role by comparing the sender
// id against the chat's owner and manager; nothing is stored.
func (s *ChatService) formatMessage(ctx context.Context, m *domain.Message, c *domain.Chat) chatsvc.MessageDTO {
	dto := chatsvc.MessageDTO{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		OfferID:     m.OfferID,
		IsDelivered: m.IsDelivered,
		DeliveredAt: m.DeliveredAt,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
		SenderName:  chatsvc.FallbackUnknownName,
		SenderRole:  chatsvc.SenderCustomer,
	}

	switch {
	case m.IsSystem():
		dto.SenderName = "Система"
		dto.SenderRole = chatsvc.SenderSystem
	case c == nil:
	case c.OwnerKey() != "" && m.SenderID == c.OwnerKey():
		dto.SenderRole = chatsvc.SenderCustomer
		dto.SenderName = chatsvc.FallbackCustomerName
		if c.UserID != nil {
			if u, err := s.userRepo.FindByID(ctx, *c.UserID); err == nil {
				dto.SenderName = u.DisplayName(chatsvc.FallbackCustomerName)
			}
		}
	case c.ManagerID != nil && m.SenderID == *c.ManagerID:
		dto.SenderRole = chatsvc.SenderManager
		dto.SenderName = s.displayName(ctx, m.SenderID, chatsvc.FallbackManagerName)
	}
	return dto
}

func (s *ChatService) formatOffer(ctx context.Context, o *domain.ProductOffer) chatsvc.OfferDTO {
	return chatsvc.OfferDTO{
		ID:           o.ID,
		ChatID:       o.ChatID,
		ManagerID:    o.ManagerID,
		Name:         o.Name,
		Description:  o.Description,
		Price:        o.Price,
		OldPrice:     o.OldPrice,
		Image:        o.Image,
		Images:       o.Images,
		DeliveryDays: o.DeliveryDays,
		IsOriginal:   o.IsOriginal,
		IsAnalog:     o.IsAnalog,
		IsActive:     o.IsActive,
		IsCancelled:  o.IsCancelled,
		ExpiresAt:    o.ExpiresAt,
		CreatedAt:    o.CreatedAt,
		ManagerName:  s.displayName(ctx, o.ManagerID, chatsvc.FallbackManagerName),
	}
}

func (s *ChatService) displayName(ctx context.Context, userID, fallback string) string {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fallback
	}
	return u.DisplayName(fallback)
}

// notifyNewMessage pushes a notification to the other party. Failures are
// logged and never fail the send.
func (s *ChatService) notifyNewMessage(ctx context.Context, c *domain.Chat, m *domain.Message) {
	var recipientID, recipientAnonymousID *string
	if c.UserID != nil && m.SenderID == *c.UserID {
		recipientID = c.ManagerID
	} else {
		recipientID = c.UserID
	}
	if c.AnonymousUserID == nil || m.SenderID != *c.AnonymousUserID {
		recipientAnonymousID = c.AnonymousUserID
	}
	if recipientID == nil && recipientAnonymousID == nil {
		return
	}

	// Without a sender record the name falls back to the chat owner's,
	// then to the generic buyer label.
	var senderName string
	if u, err := s.userRepo.FindByID(ctx, m.SenderID); err == nil {
		senderName = u.DisplayName(chatsvc.FallbackManagerName)
	} else if c.UserID != nil {
		senderName = s.displayName(ctx, *c.UserID, "Покупатель")
	} else {
		senderName = "Покупатель"
	}

	result, err := s.notifier.SendToUser(recipientID, recipientAnonymousID, notify.Notification{
		Title: "Новое сообщение от " + senderName,
		Body:  truncateRunes(m.Content, notificationBodyLimit),
		Icon:  "/icon-192x192.png",
		Badge: "/badge-72x72.png",
		Tag:   "chat-" + c.ID,
		Data: map[string]string{
			"type":      "chat_message",
			"chatId":    c.ID,
			"messageId": m.ID,
		},
		Actions: []notify.Action{{Action: "open-chat", Title: "Открыть чат"}},
	})
	if err != nil {
		s.logger.Warn("failed to send push notification", "chatID", c.ID, "error", err)
		return
	}
	s.logger.Debug("push notification dispatched", "chatID", c.ID, "sent", result.Sent, "failed", result.Failed)
}

func (s *ChatService) notifyNewOffer(ctx context.Context, c *domain.Chat, o *domain.ProductOffer) {
	if c.UserID == nil && c.AnonymousUserID == nil {
		return
	}
	icon := "/icon-192x192.png"
	if o.Image != nil {
		icon = *o.Image
	}
	_, err := s.notifier.SendToUser(c.UserID, c.AnonymousUserID, notify.Notification{
		Title: "Новое предложение от " + s.displayName(ctx, o.ManagerID, chatsvc.FallbackManagerName),
		Body:  fmt.Sprintf("%s - %.2f ₽", o.Name, o.Price),
		Icon:  icon,
		Badge: "/badge-72x72.png",
		Tag:   "offer-" + o.ID,
		Data: map[string]string{
			"type":    "product_offer",
			"chatId":  c.ID,
			"offerId": o.ID,
		},
		Actions:            []notify.Action{{Action: "view-offer", Title: "Посмотреть предложение"}},
		RequireInteraction: true,
	})
	if err != nil {
		s.logger.Warn("failed to send offer push notification", "chatID", c.ID, "offerID", o.ID, "error", err)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// keyedMutex hands out one mutex per key and evicts it when the last
// holder releases.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
