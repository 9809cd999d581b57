package domain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	quote_service "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/services/quote"
)

type iSessionRegistryImpl struct {
	mutex        sync.RWMutex
	sessions     map[string]Session
	quoteService quote_service.IQuoteService
	options      StoreOptions
	newSessionId func() string
}

func NewSessionRegistry(quoteService quote_service.IQuoteService, options StoreOptions) ISessionRegistry {
	return &iSessionRegistryImpl{
		sessions:     make(map[string]Session, 64),
		quoteService: quoteService,
		options:      options,
		newSessionId: uuid.NewString,
	}
}

func (registry *iSessionRegistryImpl) Open(requestQuoteId string) Session {
	store := NewDraftQuoteStore(registry.quoteService, entities.NewDraftQuote(requestQuoteId), registry.options)
	return registry.register(store)
}

func (registry *iSessionRegistryImpl) OpenExisting(ctx context.Context, draftQuoteId string) (Session, error) {
	store := NewDraftQuoteStore(registry.quoteService, entities.NewDraftQuote(""), registry.options)
	if !store.Load(ctx, draftQuoteId) {
		store.Close()
		state := store.State()
		return Session{}, &SessionLoadError{Code: state.SaveErrorCode, Message: state.SaveError}
	}
	return registry.register(store), nil
}

func (registry *iSessionRegistryImpl) Get(sessionId string) (Session, error) {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	session, ok := registry.sessions[sessionId]
	if !ok {
		return Session{}, errors.Wrap(ErrSessionNotFound, sessionId)
	}
	return session, nil
}

func (registry *iSessionRegistryImpl) Close(sessionId string) bool {
	registry.mutex.Lock()
	session, ok := registry.sessions[sessionId]
	delete(registry.sessions, sessionId)
	registry.mutex.Unlock()

	if !ok {
		return false
	}
	session.Store.Close()
	registry.options.Metrics.SessionClosed()
	return true
}

func (registry *iSessionRegistryImpl) CloseAll() int {
	registry.mutex.Lock()
	sessions := registry.sessions
	registry.sessions = make(map[string]Session, 64)
	registry.mutex.Unlock()

	for _, session := range sessions {
		session.Store.Close()
		registry.options.Metrics.SessionClosed()
	}
	return len(sessions)
}

func (registry *iSessionRegistryImpl) Count() int {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	return len(registry.sessions)
}

func (registry *iSessionRegistryImpl) register(store IDraftQuoteStore) Session {
	now := registry.options.Now
	if now == nil {
		now = time.Now
	}
	session := Session{
		SessionId: registry.newSessionId(),
		Store:     store,
		OpenedAt:  now(),
	}

	registry.mutex.Lock()
	registry.sessions[session.SessionId] = session
	registry.mutex.Unlock()
	registry.options.Metrics.SessionOpened()
	return session
}
