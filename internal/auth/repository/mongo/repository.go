// Package mongo stores users in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "users"

type MongoRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{users: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the unique indexes the store relies on. Phone and
// google id are sparse so accounts without them do not collide.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("phone_unique")},
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("google_id_unique")},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "verificationToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.users.InsertOne(ctx, toDocument(user))
	return mapWriteError(err)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoRepository) GetByEmailAndRole(ctx context.Context, email, role string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email), "role": role})
}

func (r *MongoRepository) GetByPhoneAndRole(ctx context.Context, phone, role string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone, "role": role})
}

func (r *MongoRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

func (r *MongoRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, resetTokenFilter(tokenHash, now))
}

func (r *MongoRepository) GetByVerificationToken(ctx context.Context, tokenHash, role string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, verificationTokenFilter(tokenHash, role, now))
}

func (r *MongoRepository) RecordLogin(ctx context.Context, id string, fp domain.SessionFingerprint, at time.Time) error {
	return r.updateByID(ctx, id, recordLoginUpdate(fp, at, r.now()))
}

func (r *MongoRepository) SaveSession(ctx context.Context, id string, fp domain.SessionFingerprint) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"accessToken":  fp.AccessTokenHash,
		"refreshToken": fp.RefreshTokenHash,
		"isLoggedIn":   true,
		"updatedAt":    r.now(),
	}})
}

func (r *MongoRepository) ClearSession(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, clearSessionUpdate(r.now()))
}

func (r *MongoRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": expires,
		"updatedAt":            r.now(),
	}})
}

func (r *MongoRepository) ClearResetToken(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"updatedAt": r.now()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	})
}

func (r *MongoRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, passwordUpdate(passwordHash, r.now()))
}

// ConsumeResetToken sets the new password only while tokenHash is still the
// current, unexpired reset token, so concurrent redemptions succeed once.
func (r *MongoRepository) ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error {
	res, err := r.users.UpdateOne(ctx, consumeResetFilter(id, tokenHash, now), passwordUpdate(passwordHash, r.now()))
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return autherror.ErrInvalidOrExpiredToken
	}
	return nil
}

func (r *MongoRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"verificationToken":        tokenHash,
		"verificationTokenExpires": expires,
		"updatedAt":                r.now(),
	}})
}

func (r *MongoRepository) MarkVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": r.now()},
		"$unset": bson.M{"verificationToken": "", "verificationTokenExpires": ""},
	})
}

func (r *MongoRepository) LinkGoogleAccount(ctx context.Context, id, googleID, picture string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"googleId":   googleID,
		"picture":    picture,
		"isVerified": true,
		"updatedAt":  r.now(),
	}})
}

func (r *MongoRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, profileUpdate(update, r.now()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherror.ErrUserNotFound
		}
		return nil, mapWriteError(err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) SetApproval(ctx context.Context, id string, approved bool) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"isApproved": approved, "updatedAt": r.now()}})
}

func (r *MongoRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"isActive": active, "updatedAt": r.now()}})
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}

	total, err := r.users.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))
	cursor, err := r.users.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, total, nil
}

func (r *MongoRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{"role": role})
}

func (r *MongoRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func resetTokenFilter(tokenHash string, now time.Time) bson.M {
	return bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
}

func consumeResetFilter(id, tokenHash string, now time.Time) bson.M {
	filter := resetTokenFilter(tokenHash, now)
	filter["_id"] = id
	return filter
}

func passwordUpdate(passwordHash string, now time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": now},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	}
}

func verificationTokenFilter(tokenHash, role string, now time.Time) bson.M {
	return bson.M{
		"verificationToken":        tokenHash,
		"role":                     role,
		"verificationTokenExpires": bson.M{"$gt": now},
	}
}

func recordLoginUpdate(fp domain.SessionFingerprint, at, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"accessToken":  fp.AccessTokenHash,
			"refreshToken": fp.RefreshTokenHash,
			"isLoggedIn":   true,
			"lastLogin":    at,
			"updatedAt":    now,
		},
		"$inc": bson.M{"loginCount": 1},
	}
}

func clearSessionUpdate(now time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"isLoggedIn": false, "updatedAt": now},
		"$unset": bson.M{"accessToken": "", "refreshToken": ""},
	}
}

// profileUpdate unsets phone when it is cleared so the sparse unique index
// keeps ignoring the document.
func profileUpdate(update domain.ProfileUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Phone != nil {
		if *update.Phone == "" {
			unset["phone"] = ""
		} else {
			set["phone"] = *update.Phone
		}
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "username"):
			return autherror.ErrUsernameTaken
		case strings.Contains(msg, "phone"):
			return autherror.ErrPhoneTaken
		default:
			return autherror.ErrUserAlreadyExists
		}
	}
	return err
}
