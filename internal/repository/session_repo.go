package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"letsgohome/internal/model"
)

// SessionRepo is the durable archive of session state. The live source of
// truth is the session store; this collection trails it by one write and
// is updated best-effort after each commit.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Upsert(ctx context.Context, session *model.Session) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, map[string]interface{}{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	_, err := r.collection.ReplaceOne(ctx,
		map[string]interface{}{"_id": session.ID},
		session,
		options.Replace().SetUpsert(true),
	)
	return err
}
