package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
)

// userDocument is the stored shape of a user.
type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserName     string             `bson:"userName"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Email        string             `bson:"email"`
	Password     string             `bson:"password,omitempty"`
	ProfileImage string             `bson:"profileImage,omitempty"`
	IsAdmin      bool               `bson:"isAdmin"`
	Status       bool               `bson:"status"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:           d.ID.Hex(),
		UserName:     d.UserName,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Password:     d.Password,
		ProfileImage: d.ProfileImage,
		IsAdmin:      d.IsAdmin,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// withoutPassword is the default read projection.
var withoutPassword = bson.D{{Key: "password", Value: 0}}

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(coll *mongo.Collection) *UserRepository {
	return &UserRepository{coll: coll, now: time.Now}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	default:
		return err
	}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		UserName:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Password:     u.Password,
		ProfileImage: u.ProfileImage,
		IsAdmin:      u.IsAdmin,
		Status:       u.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return translate(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	u.ID = oid.Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	var doc userDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, options.FindOne().SetProjection(withoutPassword)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	filter := bson.D{{Key: "userName", Value: identifier}}
	if entity.IsEmailIdentifier(identifier) {
		filter = bson.D{{Key: "email", Value: strings.ToLower(identifier)}}
	}
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]*entity.User, 0)
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// patchSet converts a patch into a $set document.
func patchSet(p entity.UserPatch, now time.Time) bson.D {
	set := bson.D{}
	add := func(key string, v interface{}) { set = append(set, bson.E{Key: key, Value: v}) }
	if p.UserName != nil {
		add("userName", *p.UserName)
	}
	if p.FirstName != nil {
		add("firstName", *p.FirstName)
	}
	if p.LastName != nil {
		add("lastName", *p.LastName)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Password != nil {
		add("password", *p.Password)
	}
	if p.ProfileImage != nil {
		add("profileImage", *p.ProfileImage)
	}
	if p.IsAdmin != nil {
		add("isAdmin", *p.IsAdmin)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	add("updatedAt", now)
	return set
}

func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)
	update := bson.D{{Key: "$set", Value: patchSet(patch, r.now().UTC().Truncate(time.Millisecond))}}

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
