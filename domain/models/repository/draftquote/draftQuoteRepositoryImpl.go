package draftquote_repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultDocCount int = 16
)

var ErrorNotFound = errors.New("draft quote not found")
var ErrorDeleteFailed = errors.New("update deletedAt field failed")
var ErrorUpdateFailed = errors.New("update draft quote failed")
var ErrorRemoveFailed = errors.New("remove draft quotes failed")

type iDraftQuoteRepositoryImpl struct {
	collection *mongo.Collection
}

func NewDraftQuoteRepository(ctx context.Context, mongoClient *mongo.Client, databaseName, collectionName string) (IDraftQuoteRepository, error) {
	collection := mongoClient.Database(databaseName).Collection(collectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "draftQuoteId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		applog.GLog.Logger.Error("create draftQuoteId index failed", "fn", "NewDraftQuoteRepository", "error", err)
		return nil, errors.Wrap(err, "create draftQuoteId index failed")
	}

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "requestQuoteId", Value: 1}},
	})
	if err != nil {
		applog.GLog.Logger.Error("create requestQuoteId index failed", "fn", "NewDraftQuoteRepository", "error", err)
		return nil, errors.Wrap(err, "create requestQuoteId index failed")
	}

	return &iDraftQuoteRepositoryImpl{collection}, nil
}

func (repo iDraftQuoteRepositoryImpl) Insert(ctx context.Context, draft entities.DraftQuote) (*entities.DraftQuote, error) {
	if draft.DraftQuoteId == "" {
		draft.DraftQuoteId = uuid.NewString()
	}
	if draft.DocVersion == "" {
		draft.DocVersion = entities.DocumentVersion
	}
	draft.CreatedAt = time.Now().UTC()
	draft.UpdatedAt = draft.CreatedAt
	draft.DeletedAt = nil

	if _, err := repo.collection.InsertOne(ctx, draft); err != nil {
		return nil, errors.Wrap(err, "InsertOne failed")
	}
	return &draft, nil
}

func (repo iDraftQuoteRepositoryImpl) Update(ctx context.Context, draft entities.DraftQuote) (*entities.DraftQuote, error) {
	current, err := repo.FindById(ctx, draft.DraftQuoteId)
	if err != nil {
		return nil, err
	}

	draft.CreatedAt = current.CreatedAt
	draft.DocVersion = current.DocVersion
	draft.UpdatedAt = time.Now().UTC()
	draft.DeletedAt = nil

	updateResult, err := repo.collection.UpdateOne(ctx,
		bson.D{{Key: "draftQuoteId", Value: draft.DraftQuoteId}, {Key: "deletedAt", Value: nil}},
		bson.D{{Key: "$set", Value: draft}})
	if err != nil {
		return nil, errors.Wrap(err, "UpdateOne failed")
	}

	if updateResult.MatchedCount != 1 {
		return nil, ErrorUpdateFailed
	}
	return &draft, nil
}

func (repo iDraftQuoteRepositoryImpl) FindById(ctx context.Context, draftQuoteId string) (*entities.DraftQuote, error) {
	var draft entities.DraftQuote
	singleResult := repo.collection.FindOne(ctx, bson.D{{Key: "draftQuoteId", Value: draftQuoteId}, {Key: "deletedAt", Value: nil}})
	if err := singleResult.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrorNotFound
		}
		return nil, errors.Wrap(err, "FindById failed")
	}

	if err := singleResult.Decode(&draft); err != nil {
		return nil, errors.Wrap(err, "Decode draft quote failed")
	}
	return &draft, nil
}

func (repo iDraftQuoteRepositoryImpl) FindByRequestQuoteId(ctx context.Context, requestQuoteId string) ([]*entities.DraftQuote, error) {
	cursor, err := repo.collection.Find(ctx, bson.D{{Key: "requestQuoteId", Value: requestQuoteId}, {Key: "deletedAt", Value: nil}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "Find failed")
	}

	defer closeCursor(ctx, cursor)
	drafts := make([]*entities.DraftQuote, 0, defaultDocCount)
	for cursor.Next(ctx) {
		var draft entities.DraftQuote
		if err := cursor.Decode(&draft); err != nil {
			return nil, errors.Wrap(err, "cursor.Decode failed")
		}
		drafts = append(drafts, &draft)
	}

	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "cursor failed")
	}
	return drafts, nil
}

func (repo iDraftQuoteRepositoryImpl) ExistsById(ctx context.Context, draftQuoteId string) (bool, error) {
	total, err := repo.collection.CountDocuments(ctx, bson.D{{Key: "draftQuoteId", Value: draftQuoteId}, {Key: "deletedAt", Value: nil}})
	if err != nil {
		return false, errors.Wrap(err, "ExistsById failed")
	}
	return total > 0, nil
}

func (repo iDraftQuoteRepositoryImpl) DeleteById(ctx context.Context, draftQuoteId string) error {
	updateResult, err := repo.collection.UpdateOne(ctx,
		bson.D{{Key: "draftQuoteId", Value: draftQuoteId}, {Key: "deletedAt", Value: nil}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "deletedAt", Value: time.Now().UTC()}}}})
	if err != nil {
		return errors.Wrap(err, "UpdateOne deletedAt failed")
	}

	if updateResult.MatchedCount == 0 {
		return ErrorNotFound
	}
	if updateResult.ModifiedCount != 1 {
		return ErrorDeleteFailed
	}
	return nil
}

func (repo iDraftQuoteRepositoryImpl) RemoveAll(ctx context.Context) error {
	if _, err := repo.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return errors.Wrap(err, ErrorRemoveFailed.Error())
	}
	return nil
}

func (repo iDraftQuoteRepositoryImpl) Count(ctx context.Context) (int64, error) {
	total, err := repo.collection.CountDocuments(ctx, bson.D{{Key: "deletedAt", Value: nil}})
	if err != nil {
		return 0, errors.Wrap(err, "Count failed")
	}
	return total, nil
}

func closeCursor(ctx context.Context, cursor *mongo.Cursor) {
	if err := cursor.Close(ctx); err != nil {
		applog.GLog.Logger.Error("cursor.Close failed", "fn", "closeCursor", "error", err)
	}
}
