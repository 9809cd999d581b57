package draftquote_repository

import (
	"context"

	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
)

type IDraftQuoteRepository interface {
	// Insert assigns a draftQuoteId when the draft has none.
	Insert(ctx context.Context, draft entities.DraftQuote) (*entities.DraftQuote, error)

	Update(ctx context.Context, draft entities.DraftQuote) (*entities.DraftQuote, error)

	FindById(ctx context.Context, draftQuoteId string) (*entities.DraftQuote, error)

	FindByRequestQuoteId(ctx context.Context, requestQuoteId string) ([]*entities.DraftQuote, error)

	ExistsById(ctx context.Context, draftQuoteId string) (bool, error)

	// DeleteById marks the document deleted, it stays in the collection.
	DeleteById(ctx context.Context, draftQuoteId string) error

	RemoveAll(ctx context.Context) error

	Count(ctx context.Context) (int64, error)
}
